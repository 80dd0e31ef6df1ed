package types

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	ID   string
	Rank int // Position in result set (1-based)

	// Score is 1 - cosine distance, clamped to [0, 1]
	Score float64

	Content  string
	Metadata Metadata
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ID == "" {
		return ErrEmptyID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Score < 0 || sr.Score > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Metadata == nil {
		return ErrMissingMetadata
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}

// ScoreFromDistance converts a cosine distance into a similarity score in [0, 1]
func ScoreFromDistance(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
