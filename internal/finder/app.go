package finder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"staticpress/internal/storage"
)

// staticSubdir is the conventional static-assets directory inside an
// application package.
const staticSubdir = "static"

// AppFinder finds files in the conventional static subdirectory of each
// registered application directory. Apps without a static subdirectory are
// skipped; a missing app directory is a configuration error.
type AppFinder struct {
	label   string
	appDirs []string
	srcs    map[string]*storage.Local
}

func NewAppFinder(label string, appDirs ...string) *AppFinder {
	f := &AppFinder{label: label, appDirs: appDirs, srcs: make(map[string]*storage.Local)}
	for _, dir := range appDirs {
		f.srcs[dir] = storage.NewLocal(filepath.Join(dir, staticSubdir), "")
	}
	return f
}

func (f *AppFinder) Label() string { return f.label }

func (f *AppFinder) Check() error {
	for _, dir := range f.appDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("app directory is empty")
		}
		fi, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("app directory %q: %w", dir, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("app directory %q is not a directory", dir)
		}
	}
	return nil
}

func (f *AppFinder) hasStatic(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, staticSubdir))
	return err == nil && fi.IsDir()
}

func (f *AppFinder) Find(path string) (Match, bool) {
	path = storage.CleanName(path)
	for _, dir := range f.appDirs {
		if !f.hasStatic(dir) {
			continue
		}
		if f.srcs[dir].Exists(path) {
			loc, _ := f.srcs[dir].Path(path)
			return Match{
				Candidate: Candidate{Path: path, Source: f.srcs[dir], Finder: f.label},
				Location:  loc,
			}, true
		}
	}
	return Match{}, false
}

func (f *AppFinder) List(ignore *IgnoreMatcher) ([]Candidate, error) {
	var out []Candidate
	for _, dir := range f.appDirs {
		if !f.hasStatic(dir) {
			continue
		}
		names, err := f.srcs[dir].ListAll()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if ignore != nil && ignore.Match(name) {
				continue
			}
			out = append(out, Candidate{Path: name, Source: f.srcs[dir], Finder: f.label})
		}
	}
	return out, nil
}
