package hashing

import "path"

// span is a half-open [start, end) byte range of content that substitution
// must not touch: a comment block, a line comment, or (for JS) a string
// literal. A match whose start coincides with a span's start is still
// rewritten; that is how source-map comments, which are themselves
// comments, get through.
type span struct {
	start, end int
}

func inSpan(spans []span, pos int) bool {
	for _, s := range spans {
		if s.start < pos && pos < s.end {
			return true
		}
		if s.start > pos {
			break
		}
	}
	return false
}

// protectedSpans returns the spans for a file, by extension.
func protectedSpans(name, content string) []span {
	switch path.Ext(name) {
	case ".css":
		return cssSpans(content)
	case ".js":
		return jsSpans(content)
	}
	return nil
}

// cssSpans finds /* ... */ comment blocks.
func cssSpans(content string) []span {
	var spans []span
	for i := 0; i+1 < len(content); {
		if content[i] == '/' && content[i+1] == '*' {
			end := len(content)
			for j := i + 2; j+1 < len(content); j++ {
				if content[j] == '*' && content[j+1] == '/' {
					end = j + 2
					break
				}
			}
			spans = append(spans, span{i, end})
			i = end
			continue
		}
		i++
	}
	return spans
}

// jsSpans finds block comments, line comments, and string literals. This is
// a lexical approximation, not a JS parser: regex literals are not tracked,
// and a // preceded by ':' is treated as part of a URL rather than a
// comment start.
func jsSpans(content string) []span {
	var spans []span
	n := len(content)
	for i := 0; i < n; {
		c := content[i]
		switch {
		case c == '/' && i+1 < n && content[i+1] == '*':
			end := n
			for j := i + 2; j+1 < n; j++ {
				if content[j] == '*' && content[j+1] == '/' {
					end = j + 2
					break
				}
			}
			spans = append(spans, span{i, end})
			i = end
		case c == '/' && i+1 < n && content[i+1] == '/' && (i == 0 || content[i-1] != ':'):
			end := n
			for j := i + 2; j < n; j++ {
				if content[j] == '\n' {
					end = j
					break
				}
			}
			spans = append(spans, span{i, end})
			i = end
		case c == '\'' || c == '"' || c == '`':
			quote := c
			end := n
			for j := i + 1; j < n; j++ {
				if content[j] == '\\' {
					j++
					continue
				}
				if content[j] == quote {
					end = j + 1
					break
				}
				if quote != '`' && content[j] == '\n' {
					end = j
					break
				}
			}
			spans = append(spans, span{i, end})
			i = end
		default:
			i++
		}
	}
	return spans
}
