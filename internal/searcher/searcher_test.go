package searcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/codeindex-mcp/internal/embedder"
	"github.com/dshills/codeindex-mcp/internal/storage"
	"github.com/dshills/codeindex-mcp/internal/store"
	"github.com/dshills/codeindex-mcp/pkg/types"
)

func newTestSearcher(t *testing.T) (*Searcher, *store.Store) {
	t.Helper()

	backend, err := storage.NewSQLiteStore(":memory:", "search")
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	st, err := store.New(backend, embedder.NewLocalProvider(), nil, store.Options{})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewSearcher(st), st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	docs := []types.Document{
		{
			ID:      "auth/login.go:function:Login",
			Content: "func Login(user, password string) (*Session, error) { return authenticate(user, password) }",
			Metadata: types.CodeMetadata{
				FilePath: "auth/login.go", Language: "go",
				Lines: types.LineRange{Start: 10, End: 14}, FunctionName: "Login",
			},
		},
		{
			ID:      "db/pool.py:class:Pool",
			Content: "class Pool:\n    def connect(self):\n        return database.open()",
			Metadata: types.CodeMetadata{
				FilePath: "db/pool.py", Language: "python",
				Lines: types.LineRange{Start: 1, End: 3}, ClassName: "Pool",
			},
		},
		{
			ID:       "README.md:doc:0",
			Content:  "Run make install to build the binaries.",
			Metadata: types.DocMetadata{FilePath: "README.md", Format: "markdown", Lines: types.LineRange{Start: 1, End: 1}},
		},
	}
	if _, err := st.Upsert(context.Background(), docs); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       SearchRequest
		wantErr   error
		wantLimit int
	}{
		{name: "default limit", req: SearchRequest{Query: "x"}, wantLimit: DefaultLimit},
		{name: "explicit limit", req: SearchRequest{Query: "x", Limit: 7}, wantLimit: 7},
		{name: "max limit", req: SearchRequest{Query: "x", Limit: MaxLimit}, wantLimit: MaxLimit},
		{name: "limit too large", req: SearchRequest{Query: "x", Limit: 21}, wantErr: ErrLimitOutOfRange},
		{name: "negative limit", req: SearchRequest{Query: "x", Limit: -1}, wantErr: ErrLimitOutOfRange},
		{name: "empty query", req: SearchRequest{Query: "  "}, wantErr: ErrEmptyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := validateRequest(&req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Limit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, req.Limit)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	s, st := newTestSearcher(t)
	seed(t, st)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "login user password session", Limit: 2})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if resp.TotalResults != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].ID != "auth/login.go:function:Login" {
		t.Errorf("expected Login as top result, got %s", resp.Results[0].ID)
	}
	for i, r := range resp.Results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
		if i > 0 && r.Score > resp.Results[i-1].Score {
			t.Errorf("results not sorted by score at %d", i)
		}
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	s, _ := newTestSearcher(t)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "anything"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(resp.Results))
	}

	want := `No results found for query: "anything"`
	if got := FormatResults(resp); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSearch_InvalidRequest(t *testing.T) {
	s, _ := newTestSearcher(t)

	if _, err := s.Search(context.Background(), SearchRequest{Query: ""}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := s.Search(context.Background(), SearchRequest{Query: "x", Limit: 50}); !errors.Is(err, ErrLimitOutOfRange) {
		t.Errorf("expected ErrLimitOutOfRange, got %v", err)
	}
}

func TestFormatResults(t *testing.T) {
	resp := &SearchResponse{
		Query: "pool",
		Results: []types.SearchResult{
			{
				ID: "db/pool.py:class:Pool", Rank: 1, Score: 0.8123,
				Content: "class Pool:",
				Metadata: types.CodeMetadata{
					FilePath: "db/pool.py", Language: "python",
					Lines: types.LineRange{Start: 1, End: 3}, ClassName: "Pool",
				},
			},
			{
				ID: "README.md:doc:0", Rank: 2, Score: 0.5,
				Content:  "Pools are reused.",
				Metadata: types.DocMetadata{FilePath: "README.md", Format: "markdown", Lines: types.LineRange{Start: 4, End: 4}},
			},
		},
		TotalResults: 2,
	}

	out := FormatResults(resp)
	for _, want := range []string{
		`Found 2 results for "pool"`,
		"1. db/pool.py:1-3 (score: 0.812)",
		"   class Pool",
		"```python\nclass Pool:\n```",
		"2. README.md:4 (score: 0.500)",
		"```markdown\nPools are reused.\n```",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
