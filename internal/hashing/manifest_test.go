package hashing_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"staticpress/internal/hashing"
	"staticpress/internal/storage"
)

func TestManifestRoundTrip(t *testing.T) {
	store := storage.NewMemory("/static/")
	m := hashing.NewManifest(store, "", hashing.PolicyLenient)
	m.SetAll(map[string]string{
		"styles.css":   "styles.abc123def456.css",
		"img/logo.png": "img/logo.abc123def456.png",
	})
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}
	if !store.Exists(hashing.DefaultManifestName) {
		t.Fatal("manifest document should be written")
	}

	loaded, err := hashing.LoadManifest(store, "", hashing.PolicyLenient)
	if err != nil {
		t.Fatal(err)
	}
	h, ok := loaded.Lookup("styles.css")
	if !ok || h != "styles.abc123def456.css" {
		t.Fatalf("unexpected lookup result %q %v", h, ok)
	}
	if loaded.Hash() == "" || loaded.Hash() != m.Hash() {
		t.Fatalf("hash should survive the round trip: %q vs %q", loaded.Hash(), m.Hash())
	}
}

func TestManifestAbsent(t *testing.T) {
	store := storage.NewMemory("/static/")
	m, err := hashing.LoadManifest(store, "", hashing.PolicyStrict)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Paths()) != 0 {
		t.Fatal("absent manifest loads empty")
	}
}

func TestManifestVersionMismatch(t *testing.T) {
	store := storage.NewMemory("/static/")
	doc := `{"version":"0.9","paths":{"a.css":"a.xyz.css"}}`
	if err := store.Save(hashing.DefaultManifestName, strings.NewReader(doc)); err != nil {
		t.Fatal(err)
	}

	m, err := hashing.LoadManifest(store, "", hashing.PolicyLenient)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Paths()) != 0 {
		t.Fatal("lenient policy discards an incompatible manifest")
	}

	_, err = hashing.LoadManifest(store, "", hashing.PolicyStrict)
	var ve *hashing.VersionError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VersionError, got %v", err)
	}
	if ve.Got != "0.9" || ve.Want != hashing.ManifestVersion {
		t.Fatalf("unexpected versions %+v", ve)
	}
}

func TestManifestResolve(t *testing.T) {
	dest := storage.NewMemory("/static/")
	if err := dest.Save("img/logo.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatal(err)
	}

	m := hashing.NewManifest(dest, "", hashing.PolicyLenient)
	m.SetAll(map[string]string{"styles.css": "styles.abc123def456.css"})

	got, err := m.Resolve("styles.css", dest)
	if err != nil || got != "styles.abc123def456.css" {
		t.Fatalf("unexpected resolve %q %v", got, err)
	}

	// Lenient recomputes a missing entry from the stored content.
	want := hashing.HashedName("img/logo.png", hashing.FileHash([]byte("png-bytes")))
	got, err = m.Resolve("img/logo.png", dest)
	if err != nil || got != want {
		t.Fatalf("expected recomputed %q, got %q %v", want, got, err)
	}

	if _, err := m.Resolve("gone.png", dest); err == nil {
		t.Fatal("lenient resolve of a missing file must fail")
	}
}

func TestManifestResolveStrict(t *testing.T) {
	dest := storage.NewMemory("/static/")
	if err := dest.Save("img/logo.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatal(err)
	}

	m := hashing.NewManifest(dest, "", hashing.PolicyStrict)
	_, err := m.Resolve("img/logo.png", dest)
	var missing *hashing.MissingEntryError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingEntryError, got %v", err)
	}
	if missing.Name != "img/logo.png" {
		t.Fatalf("error should name the path: %+v", missing)
	}
}

func TestManifestDeterministicSerialization(t *testing.T) {
	paths := map[string]string{
		"z.css": "z.abc.css",
		"a.css": "a.abc.css",
		"m.css": "m.abc.css",
	}

	store1 := storage.NewMemory("/static/")
	m1 := hashing.NewManifest(store1, "", hashing.PolicyLenient)
	m1.SetAll(paths)
	if err := m1.Save(); err != nil {
		t.Fatal(err)
	}

	store2 := storage.NewMemory("/static/")
	m2 := hashing.NewManifest(store2, "", hashing.PolicyLenient)
	m2.SetAll(paths)
	if err := m2.Save(); err != nil {
		t.Fatal(err)
	}

	b1, err := storage.ReadAll(store1, hashing.DefaultManifestName)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := storage.ReadAll(store2, hashing.DefaultManifestName)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("serialization must be deterministic:\n%s\n%s", b1, b2)
	}
	if m1.Hash() != m2.Hash() {
		t.Fatalf("hashes differ: %q vs %q", m1.Hash(), m2.Hash())
	}
}

func TestManifestPrune(t *testing.T) {
	m := hashing.NewManifest(storage.NewMemory("/static/"), "", hashing.PolicyLenient)
	m.SetAll(map[string]string{
		"keep.css": "keep.abc.css",
		"gone.css": "gone.abc.css",
	})
	m.Prune(map[string]bool{"keep.css": true})

	if _, ok := m.Lookup("gone.css"); ok {
		t.Fatal("pruned entry should be gone")
	}
	if _, ok := m.Lookup("keep.css"); !ok {
		t.Fatal("kept entry should remain")
	}
}
