package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func structural(chunks []Chunk) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Kind != KindWindow {
			out = append(out, c)
		}
	}
	return out
}

func windows(chunks []Chunk) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Kind == KindWindow {
			out = append(out, c)
		}
	}
	return out
}

func numberedLines(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "line %04d of the generated fixture\n", i)
	}
	return sb.String()
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, DefaultMaxChunkSize, c.MaxChunkSize())
	assert.Equal(t, DefaultOverlap, c.overlap)

	c = New(Options{MaxChunkSize: 200, Overlap: 500})
	assert.Equal(t, 20, c.overlap, "overlap larger than the chunk is reduced")
}

func TestChunk_EmptyContent(t *testing.T) {
	c := New(Options{})
	assert.Empty(t, c.Chunk("", LangGo))
	assert.Empty(t, c.Chunk("  \n\t\n  ", LangPython))
}

func TestChunk_ShortContentSingleWindow(t *testing.T) {
	content := "\n\n  key = value\nother = 2  \n\n"
	c := New(Options{})

	chunks := c.Chunk(content, LangText)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(content), chunks[0].Content)
	assert.Equal(t, KindWindow, chunks[0].Kind)
	assert.Equal(t, 3, chunks[0].StartLine)
	assert.Equal(t, 4, chunks[0].EndLine)
}

func TestWindows_CoverEveryLine(t *testing.T) {
	content := numberedLines(300)
	c := New(Options{MaxChunkSize: 1000, Overlap: 100})

	chunks := c.Windows(content)
	require.Greater(t, len(chunks), 2)

	covered := make(map[int]bool)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Content), 1000)
		assert.LessOrEqual(t, ch.StartLine, ch.EndLine)
		for l := ch.StartLine; l <= ch.EndLine; l++ {
			covered[l] = true
		}
	}
	for l := 1; l <= 300; l++ {
		assert.True(t, covered[l], "line %d not covered", l)
	}
}

func TestWindows_OverlapInLines(t *testing.T) {
	content := numberedLines(100)
	c := New(Options{MaxChunkSize: 1000, Overlap: 100})

	chunks := c.Windows(content)
	require.GreaterOrEqual(t, len(chunks), 2)

	// 100 chars / 50 per line = 2 lines repeated
	assert.Equal(t, chunks[0].EndLine-1, chunks[1].StartLine)
	assert.Contains(t, chunks[1].Content, "line "+fmt.Sprintf("%04d", chunks[0].EndLine))
}

func TestWindows_LongLineSplit(t *testing.T) {
	long := strings.Repeat("x", 2500)
	content := "short first line\n" + long + "\nshort last line"
	c := New(Options{MaxChunkSize: 1000, Overlap: 100})

	chunks := c.Windows(content)

	var pieces []Chunk
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Content), 1000)
		if ch.StartLine == 2 && ch.EndLine == 2 {
			pieces = append(pieces, ch)
		}
	}
	require.Len(t, pieces, 3)
	assert.Equal(t, long, pieces[0].Content+pieces[1].Content+pieces[2].Content)
}

func TestChunk_GoFunctionsFromAST(t *testing.T) {
	content := `package greet

import "fmt"

// Greeter says hello
type Greeter struct {
	Name string
}

// Greet prints a greeting message
func (g *Greeter) Greet() {
	fmt.Println("Hello, " + g.Name)
}

func Helper() int {
	return 42
}
`
	c := New(Options{})
	chunks := c.Chunk(content, LangGo)

	s := structural(chunks)
	require.Len(t, s, 3)

	assert.Equal(t, KindClass, s[0].Kind)
	assert.Equal(t, "Greeter", s[0].Name)
	assert.Equal(t, 5, s[0].StartLine)
	assert.Equal(t, 8, s[0].EndLine)

	assert.Equal(t, KindFunction, s[1].Kind)
	assert.Equal(t, "Greeter.Greet", s[1].Name)
	assert.True(t, strings.HasPrefix(s[1].Content, "// Greet prints"))

	assert.Equal(t, "Helper", s[2].Name)
	assert.Equal(t, 15, s[2].StartLine)
	assert.Equal(t, 17, s[2].EndLine)

	assert.Len(t, windows(chunks), 1)
}

func TestChunk_GoSyntaxErrorFallsBack(t *testing.T) {
	content := `package broken

func Works() {
	return
}

func Broken( {
`
	c := New(Options{})
	s := structural(c.Chunk(content, LangGo))

	require.NotEmpty(t, s)
	assert.Equal(t, "Works", s[0].Name)
	assert.Equal(t, 3, s[0].StartLine)
	assert.Equal(t, 5, s[0].EndLine)
}

func TestChunk_BraceCounting(t *testing.T) {
	content := `export class Cart {
  add(item) {
    if (item) { this.items.push(item) }
  }
}

function total(items) {
  const s = "}";
  return items.reduce((a, b) => a + b, 0)
}
`
	c := New(Options{})
	s := structural(c.Chunk(content, LangJavaScript))
	require.Len(t, s, 2)

	assert.Equal(t, KindClass, s[0].Kind)
	assert.Equal(t, "Cart", s[0].Name)
	assert.Equal(t, 1, s[0].StartLine)
	assert.Equal(t, 5, s[0].EndLine)

	assert.Equal(t, KindFunction, s[1].Kind)
	assert.Equal(t, "total", s[1].Name)
	assert.Equal(t, 7, s[1].StartLine)
	assert.Equal(t, 10, s[1].EndLine, "brace inside a string is ignored")
}

func TestChunk_UnbalancedBracesRunToEOF(t *testing.T) {
	content := `fn main() {
    let x = 1;
    if x > 0 {
        println!("positive");

// trailing text
`
	c := New(Options{})
	s := structural(c.Chunk(content, LangRust))
	require.Len(t, s, 1)
	assert.Equal(t, "main", s[0].Name)
	assert.Equal(t, len(splitLines(content)), s[0].EndLine)
}

func TestChunk_RustLifetimesDoNotHideBraces(t *testing.T) {
	content := `pub fn first<'a>(s: &'a str) -> &'a str {
    &s[..1]
}

struct Unit;
`
	c := New(Options{})
	s := structural(c.Chunk(content, LangRust))
	require.Len(t, s, 2)
	assert.Equal(t, "first", s[0].Name)
	assert.Equal(t, 3, s[0].EndLine)
	assert.Equal(t, "Unit", s[1].Name)
	assert.Equal(t, 5, s[1].EndLine, "bodiless declaration ends at its semicolon")
}

func TestChunk_BracelessHeuristic(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("def handler(event):\n")
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, "    step_%d = event[%d]\n", i, i)
	}
	c := New(Options{MaxChunkSize: 5000})

	s := structural(c.Chunk(sb.String(), LangPython))
	require.Len(t, s, 1)
	assert.Equal(t, "handler", s[0].Name)
	assert.Equal(t, 1, s[0].StartLine)
	assert.Equal(t, BracelessBlockLines, s[0].EndLine)
}

func TestChunk_BracelessCappedAtEOF(t *testing.T) {
	content := "class Point:\n    x = 0\n    y = 0\n"
	c := New(Options{})

	s := structural(c.Chunk(content, LangPython))
	require.Len(t, s, 1)
	assert.Equal(t, KindClass, s[0].Kind)
	assert.Equal(t, 4, s[0].EndLine)
}

func TestChunk_BlockComments(t *testing.T) {
	content := `/*
 * Package-level notes
 * spanning several lines
 */
int add(int a, int b) {
    return a + b;
}

/* one liner */
`
	c := New(Options{})
	s := structural(c.Chunk(content, LangC))
	require.Len(t, s, 2)

	assert.Equal(t, KindComment, s[0].Kind)
	assert.Equal(t, 1, s[0].StartLine)
	assert.Equal(t, 4, s[0].EndLine)

	assert.Equal(t, KindFunction, s[1].Kind)
	assert.Equal(t, "add", s[1].Name)
}

func TestChunk_OversizedStructuralCut(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("function big() {\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "  console.log('statement number %d');\n", i)
	}
	sb.WriteString("}\n")

	c := New(Options{MaxChunkSize: 500, Overlap: 100})
	s := structural(c.Chunk(sb.String(), LangJavaScript))
	require.Len(t, s, 1)
	assert.LessOrEqual(t, len(s[0].Content), 500)
	assert.Equal(t, 1, s[0].StartLine)
	assert.Less(t, s[0].EndLine, 102)
	assert.True(t, strings.HasPrefix(s[0].Content, "function big() {"))
}

func TestChunk_DocLanguagesAreWindowedOnly(t *testing.T) {
	content := "# Title\n\nfunction notCode() {\n}\n"
	c := New(Options{})

	chunks := c.Chunk(content, LangMarkdown)
	require.Len(t, chunks, 1)
	assert.Equal(t, KindWindow, chunks[0].Kind)
}

func TestChunk_LargeFileStructuralAndWindows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("package big\n\nfunc Detected() int {\n\treturn 1\n}\n\n")
	sb.WriteString(numberedLines(1994))

	c := New(Options{MaxChunkSize: 1000, Overlap: 100})
	chunks := c.Chunk(sb.String(), LangGo)

	assert.GreaterOrEqual(t, len(structural(chunks)), 1)
	assert.GreaterOrEqual(t, len(windows(chunks)), 2)
}

type fixedStrategy struct{}

func (fixedStrategy) DetectBoundaries(string) []Boundary {
	return []Boundary{{StartLine: 1, EndLine: 1, Kind: KindFunction, Name: "custom"}}
}

func TestRegister(t *testing.T) {
	c := New(Options{})
	c.Register("toy", fixedStrategy{})

	s := structural(c.Chunk("first\nsecond\n", "toy"))
	require.Len(t, s, 1)
	assert.Equal(t, "custom", s[0].Name)
	assert.Equal(t, "first", s[0].Content)
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"main.go":         LangGo,
		"src/App.TSX":     LangTypeScript,
		"lib/util.py":     LangPython,
		"README.md":       LangMarkdown,
		"docs/index.rst":  LangRST,
		"include/vec.hpp": LangCPP,
		"image.png":       "",
		"Makefile":        "",
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectLanguage(path), path)
	}

	assert.True(t, IsDocLanguage(LangText))
	assert.False(t, IsDocLanguage(LangGo))
	assert.True(t, IsSupported("a.rb"))
	assert.False(t, IsSupported("a.exe"))
}
