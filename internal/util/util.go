package util

import (
	"bytes"
	"encoding/json"
	"runtime"
	"sort"
	"sync"

	"staticpress/internal/storage"
)

// WorkerCount returns the number of workers for concurrent operations.
func WorkerCount() int {
	return runtime.NumCPU()
}

// WriteJSON marshals v with indentation and saves it to s under name.
// Save implementations are responsible for write atomicity.
func WriteJSON(s storage.Storage, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.Save(name, bytes.NewReader(data))
}

// ReadJSON reads name from s and unmarshals it into v.
func ReadJSON(s storage.Storage, name string, v any) error {
	data, err := storage.ReadAll(s, name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SortedKeys returns the keys of a map sorted alphabetically.
func SortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parallel runs fn concurrently for each item in inputs, limited by
// workerLimit. The first error encountered is returned.
func Parallel[T any](inputs []T, workerLimit int, fn func(T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if workerLimit < 1 {
		workerLimit = 1
	}

	sem := make(chan struct{}, workerLimit)
	errCh := make(chan error, len(inputs))
	var wg sync.WaitGroup

	for _, in := range inputs {
		sem <- struct{}{}
		wg.Add(1)
		go func(x T) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(x); err != nil {
				errCh <- err
			}
		}(in)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}
