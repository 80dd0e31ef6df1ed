package chunker

import (
	"strings"
)

const (
	// DefaultMaxChunkSize is the maximum chunk length in characters
	DefaultMaxChunkSize = 1000

	// DefaultOverlap is the window overlap in characters
	DefaultOverlap = 100

	// AverageLineLength converts the character overlap into a line count
	AverageLineLength = 50

	// BracelessBlockLines is the block length assumed for brace-less languages
	BracelessBlockLines = 50

	// MinCommentLines is the minimum span of a block comment chunk
	MinCommentLines = 3
)

// Kind identifies how a chunk was produced
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindComment  Kind = "comment"
	KindWindow   Kind = "chunk"
)

// Chunk is a bounded span of a file's text. Lines are 1-based inclusive.
type Chunk struct {
	Content   string
	StartLine int
	EndLine   int
	Kind      Kind
	Name      string
}

// Options configures chunk sizing
type Options struct {
	MaxChunkSize int
	Overlap      int
}

// Chunker splits file content into structural and windowed chunks
type Chunker struct {
	maxSize    int
	overlap    int
	strategies map[string]Strategy
}

// New creates a Chunker. Zero or negative options take the defaults.
func New(opts Options) *Chunker {
	c := &Chunker{
		maxSize:    opts.MaxChunkSize,
		overlap:    opts.Overlap,
		strategies: defaultStrategies(),
	}
	if c.maxSize <= 0 {
		c.maxSize = DefaultMaxChunkSize
	}
	if c.overlap <= 0 {
		c.overlap = DefaultOverlap
	}
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 10
	}
	return c
}

// Register installs or replaces the strategy for a language
func (c *Chunker) Register(language string, s Strategy) {
	c.strategies[language] = s
}

// MaxChunkSize returns the configured maximum chunk length
func (c *Chunker) MaxChunkSize() int {
	return c.maxSize
}

// Chunk splits content into structural chunks (when a strategy exists for the
// language) followed by sliding-window chunks covering the whole file.
// Empty or whitespace-only content yields no chunks.
func (c *Chunker) Chunk(content, language string) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	lines := splitLines(content)
	var chunks []Chunk

	if s, ok := c.strategies[language]; ok {
		for _, b := range s.DetectBoundaries(content) {
			if chunk, ok := c.structuralChunk(lines, b); ok {
				chunks = append(chunks, chunk)
			}
		}
	}

	return append(chunks, c.Windows(content)...)
}

// structuralChunk extracts a boundary's lines, cutting at a line boundary
// when the block exceeds the maximum size
func (c *Chunker) structuralChunk(lines []string, b Boundary) (Chunk, bool) {
	start := b.StartLine
	end := b.EndLine
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return Chunk{}, false
	}

	size := 0
	cut := start - 1
	for cut < end {
		add := len(lines[cut])
		if cut > start-1 {
			add++
		}
		if size+add > c.maxSize {
			break
		}
		size += add
		cut++
	}

	var content string
	if cut == start-1 {
		// first line alone is too long
		content = splitLongLine(lines[start-1], c.maxSize)[0]
		end = start
	} else {
		content = strings.Join(lines[start-1:cut], "\n")
		end = cut
	}

	content = strings.TrimRight(content, " \t\r\n")
	if strings.TrimSpace(content) == "" {
		return Chunk{}, false
	}

	return Chunk{
		Content:   content,
		StartLine: start,
		EndLine:   end,
		Kind:      b.Kind,
		Name:      b.Name,
	}, true
}

// Windows runs the sliding-window chunker over content. Content that fits in
// one chunk once trimmed yields exactly that chunk. Otherwise windows of whole
// lines up to the maximum size advance with an overlap of Overlap/AverageLineLength
// lines; a line longer than the maximum is split into pieces sharing its line number.
func (c *Chunker) Windows(content string) []Chunk {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	lines := splitLines(content)

	if len(trimmed) <= c.maxSize {
		first, last := 0, len(lines)-1
		for first < last && strings.TrimSpace(lines[first]) == "" {
			first++
		}
		for last > first && strings.TrimSpace(lines[last]) == "" {
			last--
		}
		return []Chunk{{Content: trimmed, StartLine: first + 1, EndLine: last + 1, Kind: KindWindow}}
	}

	overlapLines := c.overlap / AverageLineLength
	var chunks []Chunk

	start := 0
	for start < len(lines) {
		if len(lines[start]) > c.maxSize {
			for _, piece := range splitLongLine(lines[start], c.maxSize) {
				chunks = appendWindow(chunks, piece, start+1, start+1)
			}
			start++
			continue
		}

		size := 0
		end := start
		for end < len(lines) {
			add := len(lines[end])
			if end > start {
				add++
			}
			if size+add > c.maxSize {
				break
			}
			size += add
			end++
		}

		chunks = appendWindow(chunks, strings.Join(lines[start:end], "\n"), start+1, end)

		if end >= len(lines) {
			break
		}
		if len(lines[end]) > c.maxSize {
			start = end
			continue
		}

		next := end - overlapLines
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

func appendWindow(chunks []Chunk, content string, startLine, endLine int) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return chunks
	}
	return append(chunks, Chunk{
		Content:   content,
		StartLine: startLine,
		EndLine:   endLine,
		Kind:      KindWindow,
	})
}
