package chunker

import (
	"path/filepath"
	"strings"
)

// Language names used across the indexer
const (
	LangGo         = "go"
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangJava       = "java"
	LangC          = "c"
	LangCPP        = "cpp"
	LangCSharp     = "csharp"
	LangRust       = "rust"
	LangPHP        = "php"
	LangSwift      = "swift"
	LangKotlin     = "kotlin"
	LangScala      = "scala"
	LangPython     = "python"
	LangRuby       = "ruby"
	LangMarkdown   = "markdown"
	LangText       = "text"
	LangRST        = "rst"
)

var extensionLanguages = map[string]string{
	".go":       LangGo,
	".js":       LangJavaScript,
	".jsx":      LangJavaScript,
	".mjs":      LangJavaScript,
	".cjs":      LangJavaScript,
	".ts":       LangTypeScript,
	".tsx":      LangTypeScript,
	".java":     LangJava,
	".c":        LangC,
	".h":        LangC,
	".cpp":      LangCPP,
	".cc":       LangCPP,
	".cxx":      LangCPP,
	".hpp":      LangCPP,
	".hh":       LangCPP,
	".cs":       LangCSharp,
	".rs":       LangRust,
	".php":      LangPHP,
	".swift":    LangSwift,
	".kt":       LangKotlin,
	".kts":      LangKotlin,
	".scala":    LangScala,
	".py":       LangPython,
	".rb":       LangRuby,
	".md":       LangMarkdown,
	".markdown": LangMarkdown,
	".txt":      LangText,
	".rst":      LangRST,
}

// DetectLanguage maps a file path to a language name by extension.
// It returns "" for unsupported files.
func DetectLanguage(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}

// IsSupported reports whether the file has an extension the indexer handles
func IsSupported(path string) bool {
	return DetectLanguage(path) != ""
}

// IsDocLanguage reports whether the language is prose rather than code
func IsDocLanguage(language string) bool {
	switch language {
	case LangMarkdown, LangText, LangRST:
		return true
	}
	return false
}
