package types

import "errors"

// Domain errors for type validation
var (
	// Document errors
	ErrEmptyID          = errors.New("document ID cannot be empty")
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrMissingMetadata  = errors.New("metadata is required")
	ErrMissingFilePath  = errors.New("metadata file path is required")
	ErrInvalidMetadata  = errors.New("invalid metadata")
	ErrInvalidLineRange = errors.New("invalid line range")

	// Search result errors
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
)
