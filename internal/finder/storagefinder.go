package finder

import (
	"fmt"

	"staticpress/internal/storage"
)

// StorageFinder finds files held by an arbitrary storage backend.
type StorageFinder struct {
	label string
	src   storage.Storage
}

func NewStorageFinder(label string, src storage.Storage) *StorageFinder {
	return &StorageFinder{label: label, src: src}
}

func (f *StorageFinder) Label() string { return f.label }

func (f *StorageFinder) Check() error {
	if f.src == nil {
		return fmt.Errorf("no storage configured")
	}
	return nil
}

func (f *StorageFinder) Find(path string) (Match, bool) {
	path = storage.CleanName(path)
	if !f.src.Exists(path) {
		return Match{}, false
	}
	loc, err := f.src.Path(path)
	if err != nil {
		loc = f.src.URL(path)
	}
	return Match{
		Candidate: Candidate{Path: path, Source: f.src, Finder: f.label},
		Location:  loc,
	}, true
}

func (f *StorageFinder) List(ignore *IgnoreMatcher) ([]Candidate, error) {
	names, err := f.src.ListAll()
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, name := range names {
		if ignore != nil && ignore.Match(name) {
			continue
		}
		out = append(out, Candidate{Path: name, Source: f.src, Finder: f.label})
	}
	return out, nil
}
