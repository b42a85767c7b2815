package hashing

import (
	"path"
	"regexp"
)

// Rule is one reference-rewriting rule: Pattern must expose a capture group
// named "url". When Format is nil, the resolved URL is spliced over the url
// capture and the rest of the match is preserved byte-for-byte (keeping the
// original quoting and whitespace). Otherwise Format renders the whole
// replacement from the resolved URL.
type Rule struct {
	Pattern *regexp.Regexp
	Format  func(hashed string) string
}

var cssRules = []Rule{
	{
		Pattern: regexp.MustCompile(`(?i)url\(['"]?\s*(?P<url>.*?)["']?\)`),
		Format:  func(hashed string) string { return `url("` + hashed + `")` },
	},
	{
		Pattern: regexp.MustCompile(`(?i)@import\s*["']\s*(?P<url>.*?)["']`),
		Format:  func(hashed string) string { return `@import url("` + hashed + `")` },
	},
	{
		// Source map markers are case-sensitive.
		Pattern: regexp.MustCompile(`(?m)^/\*#[ \t]+sourceMappingURL=(?P<url>\S+)[ \t]*\*/`),
	},
}

var jsRules = []Rule{
	{
		// Some minifiers emit the marker without a space after //#.
		Pattern: regexp.MustCompile(`(?m)^//#[ \t]*sourceMappingURL=(?P<url>\S+)`),
	},
}

// jsModuleRules rewrite ES module specifiers. Only relative (./ or ../) and
// absolute (/) specifiers are candidates; bare module names are left alone.
var jsModuleRules = []Rule{
	{
		// Static imports, including namespace and minified forms.
		Pattern: regexp.MustCompile(`(?s)import(?:[\s{].*?|\*\s*as\s+\w+\s*)from\s*["'](?P<url>[./].*?)["']`),
	},
	{
		// Aggregating exports.
		Pattern: regexp.MustCompile(`(?s)export(?:[\s{].*?)from\s*["'](?P<url>[./].*?)["']`),
	},
	{
		// Side-effect imports.
		Pattern: regexp.MustCompile(`import\s*["'](?P<url>[./].*?)["']`),
	},
	{
		// Dynamic imports, any quote style.
		Pattern: regexp.MustCompile("import\\([\"'`](?P<url>[./].*?)[\"'`]\\)"),
	},
}

// rulesFor returns the rewrite rules for a file, or nil when the file is
// not adjustable.
func (p *Processor) rulesFor(name string) []Rule {
	switch path.Ext(name) {
	case ".css":
		return cssRules
	case ".js":
		if p.SupportJSModules {
			return append(jsRules[:len(jsRules):len(jsRules)], jsModuleRules...)
		}
		return jsRules
	}
	return nil
}
