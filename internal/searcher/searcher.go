package searcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/codeindex-mcp/internal/store"
	"github.com/dshills/codeindex-mcp/pkg/types"
)

const (
	DefaultLimit = 5
	MaxLimit     = 20
)

var (
	// ErrEmptyQuery is returned when the query is blank
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrLimitOutOfRange is returned for limits outside 1..MaxLimit
	ErrLimitOutOfRange = fmt.Errorf("limit must be between 1 and %d", MaxLimit)
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query string
	Limit int // 0 means DefaultLimit
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Query        string
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
}

// Searcher answers natural-language queries against the store
type Searcher struct {
	store *store.Store
}

// NewSearcher creates a new Searcher instance
func NewSearcher(st *store.Store) *Searcher {
	return &Searcher{store: st}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	results, err := s.store.Query(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return &SearchResponse{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}, nil
}

func validateRequest(req *SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return ErrEmptyQuery
	}

	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit < 1 || req.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrLimitOutOfRange, req.Limit)
	}
	return nil
}

// FormatResults renders a response as ranked plain text for tool output
func FormatResults(resp *SearchResponse) string {
	if len(resp.Results) == 0 {
		return fmt.Sprintf("No results found for query: %q", resp.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for %q\n", resp.TotalResults, resp.Query)
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "\n%d. %s (score: %.3f)\n", r.Rank, location(r.Metadata), r.Score)
		if label := describe(r.Metadata); label != "" {
			fmt.Fprintf(&b, "   %s\n", label)
		}
		fmt.Fprintf(&b, "```%s\n%s\n```\n", fence(r.Metadata), r.Content)
	}
	return b.String()
}

func location(m types.Metadata) string {
	if lines := m.Range().String(); lines != "" {
		return m.Path() + ":" + lines
	}
	return m.Path()
}

func describe(m types.Metadata) string {
	switch meta := m.(type) {
	case types.CodeMetadata:
		switch {
		case meta.FunctionName != "":
			return "function " + meta.FunctionName
		case meta.ClassName != "":
			return "class " + meta.ClassName
		}
	case types.CommentMetadata:
		return "comment"
	}
	return ""
}

// fence picks the code fence language hint
func fence(m types.Metadata) string {
	switch meta := m.(type) {
	case types.CodeMetadata:
		return meta.Language
	case types.CommentMetadata:
		return meta.Language
	case types.DocMetadata:
		return meta.Format
	}
	return ""
}
