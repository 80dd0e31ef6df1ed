package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultOllamaModel = "nomic-embed-text"
	DefaultLocalModel  = "local-hashing-v1"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	OllamaDimension = 768
	LocalDimension  = 384

	// Endpoints
	DefaultJinaURL   = "https://api.jina.ai/v1/embeddings"
	DefaultOpenAIURL = "https://api.openai.com/v1/embeddings"
	DefaultOllamaURL = "http://localhost:11434"

	// MaxBatchSize is the most texts accepted in one GenerateBatch call
	MaxBatchSize = 100

	// DefaultRequestsPerSecond paces calls to hosted APIs
	DefaultRequestsPerSecond = 5.0

	DefaultTimeout = 30 * time.Second
)

// ProviderOptions configures an HTTP embedding provider.
// Empty fields take the provider's defaults.
type ProviderOptions struct {
	APIKey            string
	Model             string
	BaseURL           string
	Dimension         int
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// apiProvider talks to an OpenAI-compatible /v1/embeddings endpoint.
// Jina and OpenAI share the same wire format.
type apiProvider struct {
	name       string
	apiKey     string
	model      string
	endpoint   string
	dimension  int
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newAPIProvider(name, defaultModel, defaultURL string, defaultDim int, opts ProviderOptions) (apiProvider, error) {
	if opts.APIKey == "" {
		return apiProvider{}, fmt.Errorf("%w: %s API key not set", ErrNoProviderEnabled, name)
	}

	p := apiProvider{
		name:       name,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		endpoint:   opts.BaseURL,
		dimension:  opts.Dimension,
		httpClient: httpClientOrDefault(opts.HTTPClient),
		limiter:    newLimiter(opts.RequestsPerSecond),
	}
	if p.model == "" {
		p.model = defaultModel
	}
	if p.endpoint == "" {
		p.endpoint = defaultURL
	}
	if p.dimension <= 0 {
		p.dimension = defaultDim
	}
	return p, nil
}

func (p *apiProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	embeddings, err := p.callAPI(ctx, req.Texts, model)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderFailed, p.name, err)
	}

	if len(embeddings) != len(req.Texts) {
		return nil, fmt.Errorf("%w: %s returned %d embeddings for %d texts",
			ErrProviderFailed, p.name, len(embeddings), len(req.Texts))
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   p.name,
		Model:      model,
	}, nil
}

func (p *apiProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// the API may return data out of order; index is authoritative
	embeddings := make([]*Embedding, len(apiResp.Data))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("response index %d out of range", data.Index)
		}
		embeddings[data.Index] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  p.name,
			Model:     apiResp.Model,
		}
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}

	return embeddings, nil
}

func (p *apiProvider) Dimension() int {
	return p.dimension
}

func (p *apiProvider) Provider() string {
	return p.name
}

func (p *apiProvider) Model() string {
	return p.model
}

func (p *apiProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// JinaProvider implements Embedder using Jina AI API
type JinaProvider struct {
	apiProvider
}

// NewJinaProvider creates a new Jina AI embedder
func NewJinaProvider(opts ProviderOptions) (*JinaProvider, error) {
	p, err := newAPIProvider(ProviderJina, DefaultJinaModel, DefaultJinaURL, JinaDimension, opts)
	if err != nil {
		return nil, err
	}
	return &JinaProvider{apiProvider: p}, nil
}

func (j *JinaProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return singleFromBatch(ctx, j, req)
}

// OpenAIProvider implements Embedder using OpenAI API
type OpenAIProvider struct {
	apiProvider
}

// NewOpenAIProvider creates a new OpenAI embedder
func NewOpenAIProvider(opts ProviderOptions) (*OpenAIProvider, error) {
	p, err := newAPIProvider(ProviderOpenAI, DefaultOpenAIModel, DefaultOpenAIURL, OpenAIDimension, opts)
	if err != nil {
		return nil, err
	}
	return &OpenAIProvider{apiProvider: p}, nil
}

func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return singleFromBatch(ctx, o, req)
}

// OllamaProvider implements Embedder against a local Ollama server.
// Ollama has no batch endpoint so batches are embedded one text at a time.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOllamaProvider creates a new Ollama embedder
func NewOllamaProvider(opts ProviderOptions) *OllamaProvider {
	p := &OllamaProvider{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		dimension:  opts.Dimension,
		httpClient: httpClientOrDefault(opts.HTTPClient),
		limiter:    newLimiter(opts.RequestsPerSecond),
	}
	if p.baseURL == "" {
		p.baseURL = DefaultOllamaURL
	}
	if p.model == "" {
		p.model = DefaultOllamaModel
	}
	if p.dimension <= 0 {
		p.dimension = OllamaDimension
	}
	return p
}

func (o *OllamaProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return singleFromBatch(ctx, o, req)
}

func (o *OllamaProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = o.model
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
		}

		vector, err := o.embed(ctx, text, model)
		if err != nil {
			return nil, fmt.Errorf("%w: ollama: embed text %d: %v", ErrProviderFailed, i, err)
		}
		embeddings[i] = &Embedding{
			Vector:    vector,
			Dimension: len(vector),
			Provider:  ProviderOllama,
			Model:     model,
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderOllama,
		Model:      model,
	}, nil
}

func (o *OllamaProvider) embed(ctx context.Context, text, model string) ([]float32, error) {
	reqBody := struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}{Model: model, Prompt: text}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var embedResp struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vector := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

func (o *OllamaProvider) Dimension() int {
	return o.dimension
}

func (o *OllamaProvider) Provider() string {
	return ProviderOllama
}

func (o *OllamaProvider) Model() string {
	return o.model
}

func (o *OllamaProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
