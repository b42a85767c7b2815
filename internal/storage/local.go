package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Local is a Storage rooted at a directory on the OS filesystem.
type Local struct {
	Root   string
	Prefix string // URL prefix, e.g. "/static/"
}

// NewLocal returns a Local storage rooted at dir.
func NewLocal(dir, prefix string) *Local {
	return &Local{Root: filepath.Clean(dir), Prefix: prefix}
}

// CleanName normalizes a storage name to a slash-separated relative path.
func CleanName(name string) string {
	return path.Clean(filepath.ToSlash(name))
}

func (l *Local) abs(name string) string {
	return filepath.Join(l.Root, filepath.FromSlash(CleanName(name)))
}

func (l *Local) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(l.abs(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", name, ErrNotExist)
		}
		return nil, err
	}
	return f, nil
}

// Save writes atomically: content goes to a temp file in the target
// directory which is then renamed over the destination.
func (l *Local) Save(name string, r io.Reader) error {
	dst := l.abs(name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir for %q: %w", name, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".staticpress-*")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %q: %w", name, err)
	}
	return os.Rename(tmp.Name(), dst)
}

func (l *Local) Exists(name string) bool {
	_, err := os.Stat(l.abs(name))
	return err == nil
}

func (l *Local) Delete(name string) error {
	// os.Remove works on broken symlinks too (it operates on the link).
	err := os.Remove(l.abs(name))
	if err != nil && os.IsNotExist(err) {
		return fmt.Errorf("%q: %w", name, ErrNotExist)
	}
	return err
}

func (l *Local) ListAll() ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == l.Root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.Root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", l.Root, err)
	}
	sort.Strings(names)
	return names, nil
}

func (l *Local) ModifiedTime(name string) (time.Time, error) {
	fi, err := os.Stat(l.abs(name))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, fmt.Errorf("%q: %w", name, ErrNotExist)
		}
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

func (l *Local) Path(name string) (string, error) {
	abs, err := filepath.Abs(l.abs(name))
	if err != nil {
		return "", err
	}
	return abs, nil
}

func (l *Local) URL(name string) string {
	return l.Prefix + strings.TrimPrefix(CleanName(name), "/")
}

// Link creates name as a symlink to target, replacing whatever is there.
// Broken links are detected with Lstat and removed before recreating.
func (l *Local) Link(target, name string) error {
	dst := l.abs(name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir for %q: %w", name, err)
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("remove stale %q: %w", name, err)
		}
	}
	if err := os.Symlink(target, dst); err != nil {
		return fmt.Errorf("symlink %q: %w", name, err)
	}
	return nil
}

func (l *Local) IsLink(name string) bool {
	fi, err := os.Lstat(l.abs(name))
	return err == nil && fi.Mode()&os.ModeSymlink != 0
}

func (l *Local) LinkTarget(name string) (string, error) {
	return os.Readlink(l.abs(name))
}
