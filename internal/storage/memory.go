package storage

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Memory is a pure in-memory Storage for tests or lightweight destinations.
// Safe for concurrent use; the post-processor hashes plain files through a
// worker pool against whatever destination it is given.
type Memory struct {
	Prefix string
	mu     sync.RWMutex
	files  map[string][]byte
	mtimes map[string]time.Time
	clock  func() time.Time
}

func NewMemory(prefix string) *Memory {
	return &Memory{
		Prefix: prefix,
		files:  make(map[string][]byte),
		mtimes: make(map[string]time.Time),
		clock:  time.Now,
	}
}

// SetClock overrides the time source used for modification times.
func (m *Memory) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

type memReadCloser struct {
	*bytes.Reader
}

func (memReadCloser) Close() error { return nil }

func (m *Memory) Open(name string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.files[CleanName(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotExist)
	}
	return memReadCloser{bytes.NewReader(data)}, nil
}

func (m *Memory) Save(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	name = CleanName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	m.mtimes[name] = m.clock()
	return nil
}

// SetModifiedTime pins a file's modification time, for staleness tests.
func (m *Memory) SetModifiedTime(name string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mtimes[CleanName(name)] = t
}

func (m *Memory) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[CleanName(name)]
	return ok
}

func (m *Memory) Delete(name string) error {
	name = CleanName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrNotExist)
	}
	delete(m.files, name)
	delete(m.mtimes, name)
	return nil
}

func (m *Memory) ListAll() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) ModifiedTime(name string) (time.Time, error) {
	m.mu.RLock()
	t, ok := m.mtimes[CleanName(name)]
	m.mu.RUnlock()
	if !ok {
		return time.Time{}, fmt.Errorf("%q: %w", name, ErrNotExist)
	}
	return t, nil
}

func (m *Memory) Path(string) (string, error) {
	return "", ErrNoLocalPath
}

func (m *Memory) URL(name string) string {
	return m.Prefix + CleanName(name)
}
