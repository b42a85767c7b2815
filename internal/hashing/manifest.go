package hashing

import (
	"encoding/json"
	"errors"
	"fmt"

	"staticpress/internal/storage"
	"staticpress/internal/util"
)

// ManifestVersion tags the serialized manifest format. A manifest written
// by an incompatible version must not be trusted.
const ManifestVersion = "1.1"

// DefaultManifestName is the manifest document's name in its storage.
const DefaultManifestName = "staticpress.manifest.json"

// Policy decides how lookups and version mismatches behave.
type Policy string

const (
	// PolicyLenient treats a missing or incompatible manifest as absent
	// and recomputes hashes from storage on lookup.
	PolicyLenient Policy = "lenient"
	// PolicyStrict makes a version mismatch and a missing manifest entry
	// fatal.
	PolicyStrict Policy = "strict"
)

type manifestDoc struct {
	Version string            `json:"version"`
	Hash    string            `json:"hash,omitempty"`
	Paths   map[string]string `json:"paths"`
}

// Manifest is the persisted mapping from original names to hashed names.
type Manifest struct {
	Name   string
	Store  storage.Storage
	Policy Policy

	paths map[string]string
	hash  string
}

// NewManifest returns an empty manifest bound to a storage and policy.
func NewManifest(store storage.Storage, name string, policy Policy) *Manifest {
	if name == "" {
		name = DefaultManifestName
	}
	return &Manifest{Name: name, Store: store, Policy: policy, paths: make(map[string]string)}
}

// LoadManifest reads the manifest from storage. An absent manifest yields
// an empty one. A version mismatch yields an empty manifest under the
// lenient policy and a VersionError under the strict policy.
func LoadManifest(store storage.Storage, name string, policy Policy) (*Manifest, error) {
	m := NewManifest(store, name, policy)

	data, err := storage.ReadAll(store, m.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("read manifest %q: %w", m.Name, err)
	}

	var doc manifestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", m.Name, err)
	}
	if doc.Version != ManifestVersion {
		if policy == PolicyStrict {
			return nil, &VersionError{Got: doc.Version, Want: ManifestVersion}
		}
		return m, nil
	}

	if doc.Paths != nil {
		m.paths = doc.Paths
	}
	m.hash = doc.Hash
	return m, nil
}

// Save serializes the manifest atomically. Serialization is deterministic:
// map keys are sorted by the JSON encoder, so the same mapping always
// produces the same bytes and the same manifest hash.
func (m *Manifest) Save() error {
	pathsJSON, err := json.Marshal(m.paths)
	if err != nil {
		return fmt.Errorf("marshal manifest paths: %w", err)
	}
	m.hash = FileHash(pathsJSON)

	doc := manifestDoc{Version: ManifestVersion, Hash: m.hash, Paths: m.paths}
	if err := util.WriteJSON(m.Store, m.Name, doc); err != nil {
		return fmt.Errorf("save manifest %q: %w", m.Name, err)
	}
	return nil
}

// Hash returns the content hash of the path mapping as of the last Save or
// Load.
func (m *Manifest) Hash() string { return m.hash }

// Lookup returns the hashed name recorded for a path.
func (m *Manifest) Lookup(name string) (string, bool) {
	h, ok := m.paths[storage.CleanName(name)]
	return h, ok
}

// Paths returns a copy of the mapping.
func (m *Manifest) Paths() map[string]string {
	out := make(map[string]string, len(m.paths))
	for k, v := range m.paths {
		out[k] = v
	}
	return out
}

// SetAll replaces the mapping.
func (m *Manifest) SetAll(paths map[string]string) {
	m.paths = make(map[string]string, len(paths))
	for k, v := range paths {
		m.paths[storage.CleanName(k)] = v
	}
}

// Prune drops entries whose original path is not in keep. Clearing the
// destination must also clear the manifest's stale entries, not just files.
func (m *Manifest) Prune(keep map[string]bool) {
	for name := range m.paths {
		if !keep[name] {
			delete(m.paths, name)
		}
	}
}

// Resolve maps a logical path to its hashed name, honoring the policy:
// strict fails on a missing entry; lenient recomputes from dest.
func (m *Manifest) Resolve(name string, dest storage.Storage) (string, error) {
	name = storage.CleanName(name)
	if h, ok := m.paths[name]; ok {
		return h, nil
	}
	if m.Policy == PolicyStrict {
		return "", &MissingEntryError{Name: name}
	}
	hash, err := fileHashFrom(dest, name)
	if err != nil {
		return "", fmt.Errorf("the file %q could not be found in the destination storage: %w", name, err)
	}
	return HashedName(name, hash), nil
}
