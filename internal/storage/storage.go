package storage

import (
	"errors"
	"io"
	"time"
)

// ErrNotExist is returned when a named file is not present in a storage.
var ErrNotExist = errors.New("file does not exist")

// ErrNoLocalPath is returned by Path for storages without a filesystem
// representation.
var ErrNoLocalPath = errors.New("storage has no local filesystem path")

// Storage abstracts a flat tree of files addressed by slash-separated
// relative names. All pipeline stages depend only on this contract, so the
// destination can be a local directory, an in-memory tree, or anything else
// that can satisfy it.
type Storage interface {
	// Open returns a reader for the named file.
	Open(name string) (io.ReadCloser, error)
	// Save writes the full content of r under name, creating parent
	// directories as needed and replacing any existing file.
	Save(name string, r io.Reader) error
	Exists(name string) bool
	Delete(name string) error
	// ListAll enumerates every file name in the storage, sorted.
	ListAll() ([]string, error)
	// ModifiedTime reports the file's last modification time. Storages
	// that cannot track times return ErrNotExist or a zero time; callers
	// treat that as always-stale.
	ModifiedTime(name string) (time.Time, error)
	// Path returns the absolute filesystem path for name, or
	// ErrNoLocalPath when the storage is not backed by a filesystem.
	Path(name string) (string, error)
	// URL returns the public URL for name under the storage's prefix.
	URL(name string) string
}

// Linker is implemented by storages that can materialize a file as a
// symbolic link to a local source path.
type Linker interface {
	// Link creates name as a symlink pointing at target (an absolute
	// local path), replacing any existing entry at name.
	Link(target, name string) error
	// IsLink reports whether name exists as a symlink, broken or not.
	IsLink(name string) bool
	// LinkTarget returns the target of the symlink at name.
	LinkTarget(name string) (string, error)
}

// ReadAll reads the full content of name from s.
func ReadAll(s Storage, name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
