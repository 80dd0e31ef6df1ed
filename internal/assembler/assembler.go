// Package assembler turns chunker output into Documents with deterministic IDs
// and typed metadata.
package assembler

import (
	"fmt"
	"path/filepath"

	"github.com/dshills/codeindex-mcp/internal/chunker"
	"github.com/dshills/codeindex-mcp/pkg/types"
)

// Document kinds used in IDs
const (
	KindFunction = "function"
	KindClass    = "class"
	KindChunk    = "chunk"
	KindDoc      = "doc"
	KindComment  = "comment"
)

// Assembler wraps chunks with IDs and metadata
type Assembler struct {
	chunker *chunker.Chunker
}

// New creates an Assembler using the given chunker
func New(c *chunker.Chunker) *Assembler {
	return &Assembler{chunker: c}
}

// Assemble chunks one file and returns its documents. IDs have the form
// {relPath}:{kind}:{discriminator}, where the discriminator is the detected
// name (suffixed -2, -3, ... on repeats) or a running index per kind.
// The same input always yields the same IDs.
func (a *Assembler) Assemble(relPath, content string) []types.Document {
	relPath = filepath.ToSlash(relPath)
	language := chunker.DetectLanguage(relPath)

	if language == "" || chunker.IsDocLanguage(language) {
		return a.assembleDoc(relPath, content, language)
	}

	chunks := a.chunker.Chunk(content, language)
	docs := make([]types.Document, 0, len(chunks))
	names := make(map[string]int)
	counters := make(map[string]int)

	for _, ch := range chunks {
		lines := types.LineRange{Start: ch.StartLine, End: ch.EndLine}

		var kind, disc string
		var meta types.Metadata

		switch ch.Kind {
		case chunker.KindFunction, chunker.KindClass:
			kind = string(ch.Kind)
			if ch.Name == "" {
				disc = nextIndex(counters, kind)
			} else {
				disc = uniqueName(names, kind, ch.Name)
			}
			cm := types.CodeMetadata{FilePath: relPath, Language: language, Lines: lines}
			if ch.Kind == chunker.KindFunction {
				cm.FunctionName = ch.Name
			} else {
				cm.ClassName = ch.Name
			}
			meta = cm
		case chunker.KindComment:
			kind = KindComment
			disc = nextIndex(counters, kind)
			meta = types.CommentMetadata{FilePath: relPath, Language: language, Lines: lines}
		default:
			kind = KindChunk
			disc = nextIndex(counters, kind)
			meta = types.CodeMetadata{FilePath: relPath, Language: language, Lines: lines}
		}

		docs = append(docs, types.Document{
			ID:       documentID(relPath, kind, disc),
			Content:  ch.Content,
			Metadata: meta,
		})
	}

	return docs
}

// assembleDoc windows prose files without structural extraction
func (a *Assembler) assembleDoc(relPath, content, language string) []types.Document {
	if language == "" {
		language = chunker.LangText
	}

	chunks := a.chunker.Windows(content)
	docs := make([]types.Document, 0, len(chunks))
	for i, ch := range chunks {
		docs = append(docs, types.Document{
			ID:      documentID(relPath, KindDoc, fmt.Sprintf("%d", i)),
			Content: ch.Content,
			Metadata: types.DocMetadata{
				FilePath: relPath,
				Format:   language,
				Lines:    types.LineRange{Start: ch.StartLine, End: ch.EndLine},
			},
		})
	}
	return docs
}

func documentID(relPath, kind, disc string) string {
	return fmt.Sprintf("%s:%s:%s", relPath, kind, disc)
}

func nextIndex(counters map[string]int, kind string) string {
	i := counters[kind]
	counters[kind] = i + 1
	return fmt.Sprintf("%d", i)
}

func uniqueName(seen map[string]int, kind, name string) string {
	key := kind + ":" + name
	seen[key]++
	if n := seen[key]; n > 1 {
		return fmt.Sprintf("%s-%d", name, n)
	}
	return name
}
