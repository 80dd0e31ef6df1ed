package chunker

import (
	"strings"
	"unicode/utf8"
)

// splitLines splits text on "\n" and drops a trailing "\r" from each line
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// blockEnd returns the 0-based index of the line that closes the brace block
// opened at or after lines[start]. A ';' seen before any '{' ends a bodiless
// declaration on that line. Unbalanced blocks run to the last line.
func blockEnd(lines []string, start int) int {
	depth := 0
	opened := false

	for i := start; i < len(lines); i++ {
		line := lines[i]
		var quote byte

	scan:
		for j := 0; j < len(line); j++ {
			ch := line[j]

			if quote != 0 {
				switch ch {
				case '\\':
					j++
				case quote:
					quote = 0
				}
				continue
			}

			switch ch {
			case '"', '`':
				quote = ch
			case '\'':
				// char literal 'x' or '\n'; a lone quote is a lifetime or apostrophe
				if j+2 < len(line) && line[j+2] == '\'' {
					j += 2
				} else if j+1 < len(line) && line[j+1] == '\\' {
					quote = ch
				}
			case '/':
				if j+1 < len(line) && line[j+1] == '/' {
					break scan
				}
			case '{':
				depth++
				opened = true
			case '}':
				if opened {
					depth--
					if depth == 0 {
						return i
					}
				}
			case ';':
				if !opened {
					return i
				}
			}
		}
	}

	return len(lines) - 1
}

// blockComments finds /* ... */ comments spanning at least MinCommentLines lines.
// An unterminated comment runs to the last line.
func blockComments(lines []string) []Boundary {
	var out []Boundary

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "/*") {
			continue
		}

		end := len(lines) - 1
		if strings.Contains(trimmed[2:], "*/") {
			end = i
		} else {
			for j := i + 1; j < len(lines); j++ {
				if strings.Contains(lines[j], "*/") {
					end = j
					break
				}
			}
		}

		if end-i+1 >= MinCommentLines {
			out = append(out, Boundary{StartLine: i + 1, EndLine: end + 1, Kind: KindComment})
		}
		i = end
	}

	return out
}

// splitLongLine cuts a line into pieces of at most max bytes without
// breaking a UTF-8 sequence
func splitLongLine(line string, max int) []string {
	var pieces []string
	for len(line) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = max
		}
		pieces = append(pieces, line[:cut])
		line = line[cut:]
	}
	if line != "" {
		pieces = append(pieces, line)
	}
	return pieces
}
