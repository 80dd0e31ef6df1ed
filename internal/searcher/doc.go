// Package searcher implements semantic code search over the indexed store.
//
// A query is embedded (through the store's embedding cache) and matched
// against stored document vectors by cosine distance. Results come back in
// ascending distance order with 1-based ranks and a score of 1 - distance.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(st)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query: "where is the database connection opened",
//	    Limit: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(searcher.FormatResults(resp))
//
// # Limits
//
// Limit defaults to 5 and must lie in 1..20. An empty index is not an
// error: FormatResults renders a "No results found" message instead.
package searcher
