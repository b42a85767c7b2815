// Package finder enumerates candidate static files from ordered sources.
// A Registry holds an explicit, constructed list of finders; precedence is
// first-match-wins across finder order.
package finder

import (
	"fmt"

	"staticpress/internal/storage"
)

// Candidate is one discovered file: a relative path plus the storage it can
// be read from. Candidates are not deduplicated across finders; the
// collector applies first-match-wins.
type Candidate struct {
	Path   string
	Source storage.Storage
	Finder string
}

// Match is a resolved lookup for a single logical path.
type Match struct {
	Candidate
	// Location describes where the file lives, for diagnostics.
	Location string
}

// Finder knows how to enumerate and look up files from one kind of source.
type Finder interface {
	// Label identifies the finder in diagnostics and shadow reports.
	Label() string
	// Check validates the finder's configuration. It runs before any
	// file I/O; a misconfigured finder must fail here, not find nothing.
	Check() error
	// Find resolves a single logical path, reporting whether it exists.
	Find(path string) (Match, bool)
	// List enumerates every file the finder is responsible for,
	// excluding paths the ignore matcher rejects.
	List(ignore *IgnoreMatcher) ([]Candidate, error)
}

// Registry is an ordered set of finders.
type Registry struct {
	finders []Finder
}

// NewRegistry checks every finder's configuration and returns the registry.
func NewRegistry(finders ...Finder) (*Registry, error) {
	if len(finders) == 0 {
		return nil, fmt.Errorf("finder registry: no finders configured")
	}
	for _, f := range finders {
		if err := f.Check(); err != nil {
			return nil, fmt.Errorf("finder %q: %w", f.Label(), err)
		}
	}
	return &Registry{finders: finders}, nil
}

// Finders returns the registry's finders in precedence order.
func (r *Registry) Finders() []Finder {
	return r.finders
}

// Find returns the first match for path across all finders.
func (r *Registry) Find(path string) (Match, bool) {
	for _, f := range r.finders {
		if m, ok := f.Find(path); ok {
			return m, true
		}
	}
	return Match{}, false
}

// FindAll returns every match for path in finder order, for diagnosing
// shadowed files.
func (r *Registry) FindAll(path string) []Match {
	var matches []Match
	for _, f := range r.finders {
		if m, ok := f.Find(path); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

// List enumerates all candidates from all finders in precedence order.
func (r *Registry) List(ignore *IgnoreMatcher) ([]Candidate, error) {
	var all []Candidate
	for _, f := range r.finders {
		candidates, err := f.List(ignore)
		if err != nil {
			return nil, fmt.Errorf("finder %q: %w", f.Label(), err)
		}
		all = append(all, candidates...)
	}
	return all, nil
}
