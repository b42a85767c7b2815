package finder

import (
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns covers hidden files, editor backups, and
// version-control directories.
var DefaultIgnorePatterns = []string{"CVS", ".*", "*~", ".git", ".hg", ".svn"}

// IgnoreMatcher filters candidate paths with glob-style patterns.
// Patterns without a slash are matched against every path segment;
// patterns with slashes are matched against the whole relative path,
// with ** crossing directory boundaries.
type IgnoreMatcher struct {
	segment []string
	full    []string
}

// NewIgnoreMatcher builds a matcher from the default patterns plus extra.
// Pass withDefaults=false to use only the caller's patterns.
func NewIgnoreMatcher(extra []string, withDefaults bool) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	if withDefaults {
		m.add(DefaultIgnorePatterns)
	}
	m.add(extra)
	return m
}

func (m *IgnoreMatcher) add(patterns []string) {
	for _, pat := range patterns {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		if strings.Contains(pat, "/") {
			m.full = append(m.full, filepath.ToSlash(pat))
		} else {
			m.segment = append(m.segment, pat)
		}
	}
}

// Match returns true if the path should be ignored.
func (m *IgnoreMatcher) Match(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(clean, "/")

	for _, pat := range m.segment {
		for _, part := range parts {
			if ok, _ := filepath.Match(pat, part); ok {
				return true
			}
		}
	}

	for _, pat := range m.full {
		if matchSegments(strings.Split(pat, "/"), parts) {
			return true
		}
	}

	return false
}

// matchSegments matches pattern segments recursively, handling ** like Git.
func matchSegments(pats, parts []string) bool {
	for len(pats) > 0 {
		p := pats[0]
		pats = pats[1:]

		if p == "**" {
			if len(pats) == 0 {
				return true // trailing ** matches anything
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pats, parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}

		ok, _ := filepath.Match(p, parts[0])
		if !ok {
			return false
		}

		parts = parts[1:]
	}

	return len(parts) == 0
}
