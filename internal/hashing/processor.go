package hashing

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"staticpress/internal/storage"
	"staticpress/internal/util"
)

// DefaultMaxPasses bounds the fixed-point iteration. Exceeding it is fatal,
// not silently truncated: it means a reference cycle cannot stabilize or a
// rewrite rule is misbehaving.
const DefaultMaxPasses = 5

// Processor rewrites references between adjustable files and assigns every
// processed file a content-hashed name. State is owned per invocation;
// nothing is shared across runs except the persisted manifest.
type Processor struct {
	Dest             storage.Storage
	MaxPasses        int
	URLPrefix        string // absolute references under this prefix are rewritten
	SupportJSModules bool
}

func NewProcessor(dest storage.Storage, urlPrefix string) *Processor {
	return &Processor{Dest: dest, MaxPasses: DefaultMaxPasses, URLPrefix: urlPrefix}
}

// Adjustable reports whether a file's content may contain rewritable
// references to other assets.
func (p *Processor) Adjustable(name string) bool {
	return p.rulesFor(name) != nil
}

// Run post-processes the given destination paths. It returns the final
// mapping from original names to hashed names and the list of adjustable
// files that were rewritten. Any per-file error aborts the run: a
// partially-hashed deployment could serve mismatched references.
func (p *Processor) Run(paths []string) (map[string]string, []string, error) {
	hashed := make(map[string]string)

	var adjustable, plain []string
	for _, name := range paths {
		name = storage.CleanName(name)
		if p.Adjustable(name) {
			adjustable = append(adjustable, name)
		} else {
			plain = append(plain, name)
		}
	}
	sort.Strings(adjustable)

	// Non-adjustable files are hashed and copied once; their content is
	// never rewritten, so this stage can run in parallel.
	var mu sync.Mutex
	err := util.Parallel(plain, util.WorkerCount(), func(name string) error {
		hashedName, err := p.hashAndStore(name)
		if err != nil {
			return err
		}
		mu.Lock()
		hashed[name] = hashedName
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Adjustable files iterate to a fixed point: each pass rewrites every
	// file against the mapping produced by the previous pass, and the
	// loop stops once no hashed name changed.
	maxPasses := p.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	converged := len(adjustable) == 0
	var lastChanged string
	for pass := 0; pass < maxPasses && !converged; pass++ {
		substitutions := false
		for _, name := range adjustable {
			changed, err := p.processFile(name, hashed)
			if err != nil {
				return nil, nil, err
			}
			if changed {
				substitutions = true
				lastChanged = name
			}
		}
		converged = !substitutions
	}
	if !converged {
		return nil, nil, &NotConvergedError{File: lastChanged, Passes: maxPasses}
	}

	return hashed, adjustable, nil
}

// hashAndStore hashes a non-adjustable file and stores a copy under its
// hashed name.
func (p *Processor) hashAndStore(name string) (string, error) {
	hash, err := fileHashFrom(p.Dest, name)
	if err != nil {
		return "", fmt.Errorf("post-processing %q: %w", name, err)
	}
	hashedName := HashedName(name, hash)
	if !p.Dest.Exists(hashedName) {
		f, err := p.Dest.Open(name)
		if err != nil {
			return "", fmt.Errorf("post-processing %q: %w", name, err)
		}
		saveErr := p.Dest.Save(hashedName, f)
		f.Close()
		if saveErr != nil {
			return "", fmt.Errorf("post-processing %q: %w", name, saveErr)
		}
	}
	return hashedName, nil
}

// processFile rewrites one adjustable file against the current mapping and
// stores the result under its new hashed name. It reports whether the
// file's hashed name changed since the previous pass. Intermediate hashed
// artifacts from earlier passes are deleted so only the final name remains.
func (p *Processor) processFile(name string, hashed map[string]string) (bool, error) {
	content, err := storage.ReadAll(p.Dest, name)
	if err != nil {
		return false, fmt.Errorf("post-processing %q: %w", name, err)
	}

	rewritten, err := p.substitute(name, string(content), hashed)
	if err != nil {
		return false, err
	}

	newName := HashedName(name, FileHash([]byte(rewritten)))
	oldName := hashed[name]
	if oldName == newName {
		if !p.Dest.Exists(newName) {
			if err := p.Dest.Save(newName, strings.NewReader(rewritten)); err != nil {
				return false, fmt.Errorf("post-processing %q: %w", name, err)
			}
		}
		return false, nil
	}

	if oldName != "" && p.Dest.Exists(oldName) {
		if err := p.Dest.Delete(oldName); err != nil {
			return false, fmt.Errorf("post-processing %q: %w", name, err)
		}
	}
	if err := p.Dest.Save(newName, strings.NewReader(rewritten)); err != nil {
		return false, fmt.Errorf("post-processing %q: %w", name, err)
	}
	hashed[name] = newName
	return true, nil
}

// substitute applies every rule for the file to content, resolving each
// matched reference through the current mapping. Matches inside protected
// spans and references that must never be rewritten are left byte-for-byte.
func (p *Processor) substitute(name, content string, hashed map[string]string) (string, error) {
	for _, rule := range p.rulesFor(name) {
		spans := protectedSpans(name, content)
		urlGroup := rule.Pattern.SubexpIndex("url")
		if urlGroup < 0 {
			return "", fmt.Errorf("post-processing %q: rule %q has no url group", name, rule.Pattern)
		}

		matches := rule.Pattern.FindAllStringSubmatchIndex(content, -1)
		if len(matches) == 0 {
			continue
		}

		var out strings.Builder
		last := 0
		for _, m := range matches {
			matchStart, matchEnd := m[0], m[1]
			urlStart, urlEnd := m[2*urlGroup], m[2*urlGroup+1]
			url := content[urlStart:urlEnd]

			out.WriteString(content[last:matchStart])
			last = matchEnd

			if inSpan(spans, matchStart) {
				out.WriteString(content[matchStart:matchEnd])
				continue
			}
			resolved, ok, err := p.resolveURL(name, url, hashed)
			if err != nil {
				return "", err
			}
			if !ok {
				out.WriteString(content[matchStart:matchEnd])
				continue
			}
			if rule.Format != nil {
				out.WriteString(rule.Format(resolved))
			} else {
				out.WriteString(content[matchStart:urlStart])
				out.WriteString(resolved)
				out.WriteString(content[urlEnd:matchEnd])
			}
		}
		out.WriteString(content[last:])
		content = out.String()
	}
	return content, nil
}

// resolveURL maps one matched reference to its hashed form. ok is false
// when the reference is intentionally left alone (absolute URLs with a
// scheme, protocol-relative URLs, data URIs, bare fragments, and absolute
// paths outside the configured prefix).
func (p *Processor) resolveURL(name, url string, hashed map[string]string) (string, bool, error) {
	if shouldIgnoreURL(url) {
		return "", false, nil
	}
	if strings.Contains(url, "${") {
		return "", false, fmt.Errorf("post-processing %q: found a template literal with a variable: %s", name, url)
	}

	base, suffix := splitSuffix(url)
	if base == "" {
		return "", false, nil
	}

	var target string
	if strings.HasPrefix(base, "/") {
		if p.URLPrefix == "" || !strings.HasPrefix(base, p.URLPrefix) {
			return "", false, nil
		}
		target = strings.TrimPrefix(base, p.URLPrefix)
	} else {
		target = path.Join(path.Dir(name), base)
	}
	target = storage.CleanName(target)
	if target == ".." || strings.HasPrefix(target, "../") {
		return "", false, nil
	}

	hashedTarget, err := p.storedName(target, hashed)
	if err != nil {
		return "", false, &MissingReferenceError{File: name, Ref: target}
	}

	// Keep the reference's own directory text and swap only the final
	// component for the hashed filename, so relative references stay
	// relative (./mod.js stays ./mod.<hash>.js) and prefixed references
	// keep their prefix.
	hashedBase := path.Base(hashedTarget)
	out := hashedBase
	if i := strings.LastIndex(base, "/"); i >= 0 {
		out = base[:i+1] + hashedBase
	}
	return out + suffix, true, nil
}

// storedName resolves a referenced path through the current mapping,
// falling back to hashing the file's stored content when the map has no
// entry yet (later passes correct the value once the file is processed).
func (p *Processor) storedName(target string, hashed map[string]string) (string, error) {
	if h, ok := hashed[target]; ok {
		return h, nil
	}
	hash, err := fileHashFrom(p.Dest, target)
	if err != nil {
		return "", err
	}
	h := HashedName(target, hash)
	hashed[target] = h
	return h, nil
}

// shouldIgnoreURL reports references that are never rewritten.
func shouldIgnoreURL(url string) bool {
	switch {
	case url == "":
		return true
	case strings.HasPrefix(url, "//"):
		return true // protocol-relative
	case strings.HasPrefix(url, "#"):
		return true // fragment-only
	case strings.Contains(url, "://"):
		return true // absolute with scheme
	}
	// Scheme-qualified URIs like data:, chrome:, mailto:.
	if i := strings.IndexAny(url, ":/?#"); i >= 0 && url[i] == ':' {
		return true
	}
	return false
}

// splitSuffix separates a reference into the file path and the query
// string or fragment that must be re-appended after substitution.
func splitSuffix(url string) (base, suffix string) {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i], url[i:]
	}
	return url, ""
}
