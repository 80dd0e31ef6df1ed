package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv and DetectProvider
const (
	EnvProvider     = "CODEINDEX_EMBEDDING_PROVIDER"
	EnvModel        = "CODEINDEX_EMBEDDING_MODEL"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOllamaURL    = "OLLAMA_BASE_URL"
)

// Config holds embedder configuration
type Config struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	Dimension         int
	RequestsPerSecond float64
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. CODEINDEX_EMBEDDING_PROVIDER (jina, openai, ollama, local)
// 2. Check for API keys: JINA_API_KEY, OPENAI_API_KEY, then OLLAMA_BASE_URL
// 3. Default to local if nothing is configured
func NewFromEnv() (Embedder, error) {
	provider := DetectProvider()

	cfg := Config{
		Provider:          provider,
		Model:             os.Getenv(EnvModel),
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
	switch provider {
	case ProviderJina:
		cfg.APIKey = os.Getenv(EnvJinaAPIKey)
	case ProviderOpenAI:
		cfg.APIKey = os.Getenv(EnvOpenAIAPIKey)
	case ProviderOllama:
		cfg.BaseURL = os.Getenv(EnvOllamaURL)
	}

	return New(cfg)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	opts := ProviderOptions{
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		Dimension:         cfg.Dimension,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderJina:
		return NewJinaProvider(opts)
	case ProviderOpenAI:
		return NewOpenAIProvider(opts)
	case ProviderOllama:
		return NewOllamaProvider(opts), nil
	case ProviderLocal:
		return NewLocalProvider(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvOllamaURL) != "" {
		return ProviderOllama
	}

	return ProviderLocal
}
