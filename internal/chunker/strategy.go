package chunker

import (
	"regexp"
	"sort"

	"github.com/dshills/codeindex-mcp/internal/parser"
)

// Boundary is a structural span detected in a file, 1-based inclusive
type Boundary struct {
	StartLine int
	EndLine   int
	Kind      Kind
	Name      string
}

// Strategy detects structural boundaries for one language
type Strategy interface {
	DetectBoundaries(content string) []Boundary
}

type pattern struct {
	kind Kind
	re   *regexp.Regexp
}

func fn(expr string) pattern  { return pattern{kind: KindFunction, re: regexp.MustCompile(expr)} }
func cls(expr string) pattern { return pattern{kind: KindClass, re: regexp.MustCompile(expr)} }

// keywords a loose C-family function regex would otherwise capture
var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "else": true, "do": true, "sizeof": true, "new": true,
}

// BraceStrategy matches declarations line by line and extracts each block by
// brace-depth counting. It also reports multi-line block comments.
type BraceStrategy struct {
	patterns []pattern
}

// DetectBoundaries implements Strategy
func (s *BraceStrategy) DetectBoundaries(content string) []Boundary {
	lines := splitLines(content)
	var out []Boundary

	for i, line := range lines {
		for _, p := range s.patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil || controlKeywords[m[1]] {
				continue
			}
			out = append(out, Boundary{
				StartLine: i + 1,
				EndLine:   blockEnd(lines, i) + 1,
				Kind:      p.kind,
				Name:      m[1],
			})
			break
		}
	}

	out = append(out, blockComments(lines)...)
	sortBoundaries(out)
	return out
}

// BracelessStrategy matches declarations in indentation-scoped languages.
// Block length is a fixed BracelessBlockLines heuristic capped at end of file.
type BracelessStrategy struct {
	patterns []pattern
}

// DetectBoundaries implements Strategy
func (s *BracelessStrategy) DetectBoundaries(content string) []Boundary {
	lines := splitLines(content)
	var out []Boundary

	for i, line := range lines {
		for _, p := range s.patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			end := i + BracelessBlockLines
			if end > len(lines) {
				end = len(lines)
			}
			out = append(out, Boundary{StartLine: i + 1, EndLine: end, Kind: p.kind, Name: m[1]})
			break
		}
	}

	return out
}

// GoStrategy uses the Go AST for exact declaration spans and falls back to
// brace matching when the file does not parse.
type GoStrategy struct {
	fallback Strategy
}

// DetectBoundaries implements Strategy
func (s *GoStrategy) DetectBoundaries(content string) []Boundary {
	result, err := parser.New().ParseSource("source.go", []byte(content))
	if err != nil || result.HasErrors() {
		return s.fallback.DetectBoundaries(content)
	}

	out := make([]Boundary, 0, len(result.Declarations))
	for _, decl := range result.Declarations {
		b := Boundary{StartLine: decl.StartLine, EndLine: decl.EndLine, Name: decl.Name}
		switch {
		case decl.Kind == parser.KindMethod && decl.Receiver != "":
			b.Kind = KindFunction
			b.Name = decl.Receiver + "." + decl.Name
		case decl.Kind.IsType():
			b.Kind = KindClass
		default:
			b.Kind = KindFunction
		}
		out = append(out, b)
	}

	out = append(out, blockComments(splitLines(content))...)
	sortBoundaries(out)
	return out
}

func sortBoundaries(b []Boundary) {
	sort.SliceStable(b, func(i, j int) bool {
		return b[i].StartLine < b[j].StartLine
	})
}

const (
	javaModifiers = `(?:(?:public|private|protected|internal|static|final|abstract|synchronized|native|async|override|virtual|sealed|extern|unsafe|partial|readonly|new)\s+)`
	rustVis       = `(?:pub(?:\([^)]*\))?\s+)?`
)

var goBrace = &BraceStrategy{patterns: []pattern{
	fn(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)`),
	cls(`^\s*type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`),
}}

var jsPatterns = []pattern{
	cls(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`),
	fn(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`),
	fn(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*(?::[^=]+)?=>`),
}

var tsPatterns = append([]pattern{
	cls(`^\s*(?:export\s+)?(?:declare\s+)?(?:interface|enum)\s+([A-Za-z_$][\w$]*)`),
}, jsPatterns...)

// defaultStrategies returns the built-in strategy per language
func defaultStrategies() map[string]Strategy {
	cFunc := fn(`^[A-Za-z_][\w\s\*&:<>,]*?\b([A-Za-z_]\w*)\s*\([^;]*\)\s*(?:const\s*)?(?:noexcept\s*)?\{?\s*$`)

	return map[string]Strategy{
		LangGo:         &GoStrategy{fallback: goBrace},
		LangJavaScript: &BraceStrategy{patterns: jsPatterns},
		LangTypeScript: &BraceStrategy{patterns: tsPatterns},
		LangJava: &BraceStrategy{patterns: []pattern{
			cls(`^\s*` + javaModifiers + `*(?:class|interface|enum|record|@interface)\s+(\w+)`),
			fn(`^\s*` + javaModifiers + `+(?:<[^>]*>\s*)?[\w<>\[\],.?\s]+?\s+(\w+)\s*\([^;]*$`),
		}},
		LangCSharp: &BraceStrategy{patterns: []pattern{
			cls(`^\s*` + javaModifiers + `*(?:class|interface|enum|struct|record)\s+(\w+)`),
			fn(`^\s*` + javaModifiers + `+(?:<[^>]*>\s*)?[\w<>\[\],.?\s]+?\s+(\w+)\s*(?:<[^>]*>)?\s*\([^;]*$`),
		}},
		LangC: &BraceStrategy{patterns: []pattern{
			cls(`^\s*(?:typedef\s+)?(?:struct|union|enum)\s+(\w+)\s*\{?\s*$`),
			cFunc,
		}},
		LangCPP: &BraceStrategy{patterns: []pattern{
			cls(`^\s*(?:template\s*<[^>]*>\s*)?(?:class|struct|union|namespace)\s+(\w+)[^;]*$`),
			cFunc,
		}},
		LangRust: &BraceStrategy{patterns: []pattern{
			cls(`^\s*` + rustVis + `(?:struct|enum|trait|union)\s+(\w+)`),
			cls(`^\s*(?:unsafe\s+)?impl(?:<[^>]*>)?\s+(?:[\w:<>, ]+\s+for\s+)?(\w+)`),
			fn(`^\s*` + rustVis + `(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+(\w+)`),
		}},
		LangPHP: &BraceStrategy{patterns: []pattern{
			cls(`^\s*(?:(?:abstract|final|readonly)\s+)*(?:class|interface|trait|enum)\s+(\w+)`),
			fn(`^\s*(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+&?(\w+)`),
		}},
		LangSwift: &BraceStrategy{patterns: []pattern{
			cls(`^\s*(?:(?:public|private|fileprivate|internal|open|final|@\w+)\s+)*(?:class|struct|enum|protocol|extension|actor)\s+(\w+)`),
			fn(`^\s*(?:(?:public|private|fileprivate|internal|open|static|class|override|mutating|final|@\w+)\s+)*func\s+(\w+)`),
		}},
		LangKotlin: &BraceStrategy{patterns: []pattern{
			cls(`^\s*(?:(?:public|private|protected|internal|abstract|open|final|sealed|data|enum|inner|annotation)\s+)*(?:class|interface|object)\s+(\w+)`),
			fn(`^\s*(?:(?:public|private|protected|internal|override|suspend|inline|open|abstract|operator|infix)\s+)*fun\s+(?:<[^>]*>\s*)?(?:[\w.]+\.)?(\w+)\s*\(`),
		}},
		LangScala: &BraceStrategy{patterns: []pattern{
			cls(`^\s*(?:(?:abstract|final|sealed|case|implicit|private|protected)\s+)*(?:class|trait|object)\s+(\w+)`),
			fn(`^\s*(?:(?:override|private|protected|final|implicit)\s+)*def\s+(\w+)`),
		}},
		LangPython: &BracelessStrategy{patterns: []pattern{
			cls(`^\s*class\s+(\w+)`),
			fn(`^\s*(?:async\s+)?def\s+(\w+)`),
		}},
		LangRuby: &BracelessStrategy{patterns: []pattern{
			cls(`^\s*(?:class|module)\s+([\w:]+)`),
			fn(`^\s*def\s+(?:self\.)?([\w?!=]+)`),
		}},
	}
}
