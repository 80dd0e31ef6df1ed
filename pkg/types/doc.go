// Package types provides the shared domain types for the codeindex MCP server.
//
// # Documents
//
// Document is the unit written to the vector store. Its ID is derived from the
// file path and a chunk discriminator, so re-indexing an unchanged file yields
// the same IDs:
//
//	doc := types.Document{
//	    ID:      "internal/auth/token.go:function:Refresh",
//	    Content: body,
//	    Metadata: types.CodeMetadata{
//	        FilePath:     "internal/auth/token.go",
//	        Language:     "go",
//	        Lines:        types.LineRange{Start: 40, End: 72},
//	        FunctionName: "Refresh",
//	    },
//	}
//
// # Metadata
//
// Metadata is a closed set of variants (CodeMetadata, DocMetadata,
// CommentMetadata). Each validates itself, and EncodeMetadata/DecodeMetadata
// move them to and from JSON with a "type" discriminator:
//
//	raw, err := types.EncodeMetadata(doc.Metadata)
//	meta, err := types.DecodeMetadata(raw)
//
// # Search Results
//
// SearchResult carries a score in [0, 1] computed as 1 - cosine distance.
package types
