package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"staticpress/internal/cli"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runCollect(t *testing.T, cfgPath string) {
	t.Helper()
	root := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"collect", "-c", cfgPath, "-v", "0"})
	if err := root.Execute(); err != nil {
		t.Fatalf("collect failed: %v\n%s", err, errOut.String())
	}
}

func TestCollectHonorsConfiguredIgnorePatterns(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "app.css"), "a{}")
	writeFile(t, filepath.Join(src, "junk.tmp"), "x")

	dest := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "staticpress.yaml")
	writeFile(t, cfgPath, fmt.Sprintf(`
destination: %s
roots:
  - dir: %s
ignore_patterns:
  - "*.tmp"
`, dest, src))

	runCollect(t, cfgPath)

	if _, err := os.Stat(filepath.Join(dest, "app.css")); err != nil {
		t.Fatalf("app.css should be collected: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "junk.tmp")); err == nil {
		t.Fatal("junk.tmp is excluded by the configured ignore patterns")
	}
}

func TestCollectHonorsConfiguredNoDefaultIgnore(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, ".hidden.css"), "h{}")

	dest := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "staticpress.yaml")
	writeFile(t, cfgPath, fmt.Sprintf(`
destination: %s
roots:
  - dir: %s
no_default_ignore: true
`, dest, src))

	runCollect(t, cfgPath)

	if _, err := os.Stat(filepath.Join(dest, ".hidden.css")); err != nil {
		t.Fatalf("hidden file should be collected when defaults are disabled: %v", err)
	}
}
