// Package indexer coordinates the end-to-end indexing pipeline for a source tree.
//
// # Basic Usage
//
//	asm := assembler.New(chunker.New(chunker.Options{}))
//	idx := indexer.New(asm, st, indexer.Config{})
//
//	stats, err := idx.IndexProject(ctx, "/path/to/project", false)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Indexed %d files (%d documents) in %v\n",
//	    stats.FilesIndexed, stats.DocumentsIndexed, stats.Duration)
//
// # Indexing Pipeline
//
//  1. Discovery: walk the root, skipping hidden and excluded directories,
//     unsupported extensions and files over the size limit
//  2. Assemble: chunk each file and wrap chunks as documents
//  3. Store: embed and upsert the documents in batches
//
// Files are processed one at a time in walk order. Each file's previous
// documents are deleted before its new ones are written, so re-indexing an
// unchanged tree leaves the document count unchanged and edited files lose
// their stale chunks. With force the whole collection is cleared first.
//
// # Error Handling
//
// A file that cannot be read is counted in FilesFailed and the run goes on.
// Failures of the embedding service or the vector store abort the run and
// are returned wrapped:
//
//	stats, err := idx.IndexProject(ctx, root, false)
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // nothing after the failing batch was written
//	}
//
// # Locking
//
// IndexLock is a non-blocking guard the MCP server uses to reject a second
// index_codebase call while one is running.
package indexer
