// Package chunker splits source files into semantically bounded chunks for
// embedding and search.
//
// Two passes run over every file:
//
//  1. A language Strategy detects structural boundaries (functions, classes,
//     block comments). Go uses the AST from internal/parser; brace languages use
//     per-language patterns plus brace-depth counting; Python and Ruby use a
//     fixed block length.
//  2. A sliding window covers the whole file so nothing is left unindexed.
//
// Both sets of chunks are returned; they may overlap.
//
// # Basic Usage
//
//	c := chunker.New(chunker.Options{MaxChunkSize: 1000, Overlap: 100})
//	for _, ch := range c.Chunk(content, chunker.DetectLanguage(path)) {
//	    fmt.Printf("%s %s lines %d-%d\n", ch.Kind, ch.Name, ch.StartLine, ch.EndLine)
//	}
//
// # Window Overlap
//
// The overlap is given in characters but applied in whole lines:
// Overlap / AverageLineLength lines are repeated between consecutive windows.
//
// # Failure Mode
//
// Chunking never fails. Unbalanced braces extend a block to the end of the file
// and Go files that do not parse fall back to pattern matching.
package chunker
