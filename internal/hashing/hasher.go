// Package hashing implements the content-hashing post-processor: it assigns
// content-derived filenames to collected assets and rewrites textual
// references between them until the mapping reaches a fixed point.
package hashing

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/mmap"

	"staticpress/internal/storage"
)

// hashLen is the number of hex characters embedded in hashed filenames.
const hashLen = 12

// mmapThreshold is the size above which local files are hashed through a
// memory mapping instead of being read into memory.
const mmapThreshold = 64 << 20

// FileHash returns the truncated xxh3-128 hex digest of data.
func FileHash(data []byte) string {
	sum := fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
	return sum[:hashLen]
}

// HashedName inserts hash into name before the extension:
// "cached/styles.css" becomes "cached/styles.<hash>.css".
func HashedName(name, hash string) string {
	dir, base := path.Split(storage.CleanName(name))
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return dir + stem + "." + hash + ext
}

// fileHashFrom hashes the named file's content. Large local files are
// hashed through mmap in chunks; everything else is read whole.
func fileHashFrom(s storage.Storage, name string) (string, error) {
	if p, err := s.Path(name); err == nil {
		if fi, err := os.Stat(p); err == nil && fi.Size() >= mmapThreshold {
			return mmapHash(p, fi.Size())
		}
	}
	data, err := storage.ReadAll(s, name)
	if err != nil {
		return "", err
	}
	return FileHash(data), nil
}

func mmapHash(p string, size int64) (string, error) {
	const chunkSize = 1 << 30

	reader, err := mmap.Open(p)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", p, err)
	}
	defer reader.Close()

	h := xxh3.New()
	buf := make([]byte, chunkSize)
	for off := int64(0); off < size; off += chunkSize {
		n := chunkSize
		if remaining := size - off; remaining < int64(n) {
			n = int(remaining)
		}
		if _, err := reader.ReadAt(buf[:n], off); err != nil {
			return "", fmt.Errorf("read mmap chunk at %d: %w", off, err)
		}
		h.Write(buf[:n])
	}
	sum := fmt.Sprintf("%x", h.Sum128().Bytes())
	return sum[:hashLen], nil
}
