package finder

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"staticpress/internal/storage"
)

// Root is one source directory, optionally mounted under a path prefix in
// the destination tree.
type Root struct {
	Dir    string
	Prefix string
}

// DirFinder finds files in explicitly configured source directories.
type DirFinder struct {
	label string
	roots []Root
	srcs  []*storage.Local
}

// NewDirFinder builds a finder over ordered roots. Within the finder,
// earlier roots win.
func NewDirFinder(label string, roots ...Root) *DirFinder {
	f := &DirFinder{label: label, roots: roots}
	for _, r := range roots {
		f.srcs = append(f.srcs, storage.NewLocal(r.Dir, ""))
	}
	return f
}

func (f *DirFinder) Label() string { return f.label }

func (f *DirFinder) Check() error {
	if len(f.roots) == 0 {
		return fmt.Errorf("no source roots configured")
	}
	for _, r := range f.roots {
		if strings.TrimSpace(r.Dir) == "" {
			return fmt.Errorf("source root is empty")
		}
		fi, err := os.Stat(r.Dir)
		if err != nil {
			return fmt.Errorf("source root %q: %w", r.Dir, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("source root %q is not a directory", r.Dir)
		}
	}
	return nil
}

// stripPrefix maps a destination-relative path back into root-relative
// space. Returns false when the path is outside the root's prefix.
func stripPrefix(root Root, path string) (string, bool) {
	if root.Prefix == "" {
		return path, true
	}
	prefix := strings.Trim(root.Prefix, "/") + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	return strings.TrimPrefix(path, prefix), true
}

func applyPrefix(root Root, path string) string {
	if root.Prefix == "" {
		return path
	}
	return strings.Trim(root.Prefix, "/") + "/" + path
}

func (f *DirFinder) Find(path string) (Match, bool) {
	path = storage.CleanName(path)
	for i, root := range f.roots {
		rel, ok := stripPrefix(root, path)
		if !ok {
			continue
		}
		if f.srcs[i].Exists(rel) {
			loc, _ := f.srcs[i].Path(rel)
			return Match{
				Candidate: Candidate{Path: path, Source: prefixed(f.srcs[i], root), Finder: f.label},
				Location:  loc,
			}, true
		}
	}
	return Match{}, false
}

func (f *DirFinder) List(ignore *IgnoreMatcher) ([]Candidate, error) {
	var out []Candidate
	for i, root := range f.roots {
		names, err := f.srcs[i].ListAll()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			dest := applyPrefix(root, name)
			if ignore != nil && ignore.Match(dest) {
				continue
			}
			out = append(out, Candidate{Path: dest, Source: prefixed(f.srcs[i], root), Finder: f.label})
		}
	}
	return out, nil
}

// prefixed wraps a root's storage so that destination-relative names
// resolve against the root, accounting for the mount prefix.
func prefixed(src *storage.Local, root Root) storage.Storage {
	if root.Prefix == "" {
		return src
	}
	return &prefixStorage{Local: src, root: root}
}

type prefixStorage struct {
	*storage.Local
	root Root
}

func (p *prefixStorage) rel(name string) string {
	rel, ok := stripPrefix(p.root, storage.CleanName(name))
	if !ok {
		return name
	}
	return rel
}

func (p *prefixStorage) Open(name string) (io.ReadCloser, error) {
	return p.Local.Open(p.rel(name))
}

func (p *prefixStorage) Exists(name string) bool {
	return p.Local.Exists(p.rel(name))
}

func (p *prefixStorage) ModifiedTime(name string) (time.Time, error) {
	return p.Local.ModifiedTime(p.rel(name))
}

func (p *prefixStorage) Path(name string) (string, error) {
	return p.Local.Path(p.rel(name))
}
