package hashing_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"staticpress/internal/hashing"
	"staticpress/internal/storage"
)

func newDest(t *testing.T, files map[string]string) *storage.Memory {
	t.Helper()
	dest := storage.NewMemory("/static/")
	for name, content := range files {
		if err := dest.Save(name, strings.NewReader(content)); err != nil {
			t.Fatal(err)
		}
	}
	return dest
}

func mustRead(t *testing.T, dest storage.Storage, name string) string {
	t.Helper()
	data, err := storage.ReadAll(dest, name)
	if err != nil {
		t.Fatalf("read %q: %v", name, err)
	}
	return string(data)
}

func TestAdjustable(t *testing.T) {
	p := hashing.NewProcessor(storage.NewMemory("/static/"), "/static/")
	if !p.Adjustable("css/styles.css") || !p.Adjustable("js/app.js") {
		t.Fatal("css and js are adjustable")
	}
	if p.Adjustable("img/logo.png") || p.Adjustable("styles.css.map") {
		t.Fatal("other extensions are not adjustable")
	}
}

func TestRunPlainFile(t *testing.T) {
	dest := newDest(t, map[string]string{"img/logo.png": "png-bytes"})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, rewritten, err := p.Run([]string{"img/logo.png"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rewritten) != 0 {
		t.Fatalf("nothing should be rewritten, got %v", rewritten)
	}

	want := hashing.HashedName("img/logo.png", hashing.FileHash([]byte("png-bytes")))
	if hashed["img/logo.png"] != want {
		t.Fatalf("expected %q got %q", want, hashed["img/logo.png"])
	}
	if mustRead(t, dest, want) != "png-bytes" {
		t.Fatal("hashed copy should keep the original bytes")
	}
	if !dest.Exists("img/logo.png") {
		t.Fatal("original must be retained")
	}
}

func TestRunRewritesCSSURL(t *testing.T) {
	css := `body { background: url(img/logo.png); }`
	dest := newDest(t, map[string]string{
		"img/logo.png": "png-bytes",
		"styles.css":   css,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, rewritten, err := p.Run([]string{"img/logo.png", "styles.css"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rewritten) != 1 || rewritten[0] != "styles.css" {
		t.Fatalf("unexpected rewritten list %v", rewritten)
	}

	logoHashed := hashing.HashedName("img/logo.png", hashing.FileHash([]byte("png-bytes")))
	wantCSS := `body { background: url("` + logoHashed + `"); }`
	wantName := hashing.HashedName("styles.css", hashing.FileHash([]byte(wantCSS)))

	if hashed["styles.css"] != wantName {
		t.Fatalf("expected %q got %q", wantName, hashed["styles.css"])
	}
	if got := mustRead(t, dest, wantName); got != wantCSS {
		t.Fatalf("unexpected rewritten content %q", got)
	}
	// The original keeps its unrewritten content.
	if mustRead(t, dest, "styles.css") != css {
		t.Fatal("original content must not change")
	}
}

func TestRunAbsolutePrefix(t *testing.T) {
	css := `a { background: url(/static/img/logo.png); } b { background: url(/other/x.png); }`
	dest := newDest(t, map[string]string{
		"img/logo.png": "png-bytes",
		"styles.css":   css,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"img/logo.png", "styles.css"})
	if err != nil {
		t.Fatal(err)
	}

	logoHashed := hashing.HashedName("img/logo.png", hashing.FileHash([]byte("png-bytes")))
	want := `a { background: url("/static/` + logoHashed + `"); } b { background: url(/other/x.png); }`
	if got := mustRead(t, dest, hashed["styles.css"]); got != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRunReferenceChain(t *testing.T) {
	dest := newDest(t, map[string]string{
		"c.png": "c-bytes",
		"b.css": `div { background: url(c.png); }`,
		"a.css": `@import "b.css";`,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"a.css", "b.css", "c.png"})
	if err != nil {
		t.Fatal(err)
	}

	cFinal := hashing.HashedName("c.png", hashing.FileHash([]byte("c-bytes")))
	bWant := `div { background: url("` + cFinal + `"); }`
	bFinal := hashing.HashedName("b.css", hashing.FileHash([]byte(bWant)))
	aWant := `@import url("` + bFinal + `");`
	aFinal := hashing.HashedName("a.css", hashing.FileHash([]byte(aWant)))

	if hashed["a.css"] != aFinal || hashed["b.css"] != bFinal || hashed["c.png"] != cFinal {
		t.Fatalf("unexpected mapping %v", hashed)
	}
	if got := mustRead(t, dest, aFinal); got != aWant {
		t.Fatalf("a.css should reference b's final name, got %q", got)
	}

	// Intermediate artifacts from earlier passes must be deleted: three
	// originals plus three final hashed copies.
	names, err := dest.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 6 {
		t.Fatalf("expected 6 files, got %v", names)
	}
}

func TestRunMissingReference(t *testing.T) {
	dest := newDest(t, map[string]string{
		"styles.css": `body { background: url(missing.png); }`,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"styles.css"})
	if hashed != nil {
		t.Fatal("a failed run must not return a partial mapping")
	}
	var missing *hashing.MissingReferenceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingReferenceError, got %v", err)
	}
	if missing.File != "styles.css" || missing.Ref != "missing.png" {
		t.Fatalf("error should name both files: %+v", missing)
	}
}

func TestRunIgnoredReferences(t *testing.T) {
	css := `a { background: url(https://cdn.example.com/x.png); }
b { background: url(//cdn.example.com/x.png); }
c { background: url(#frag); }
d { background: url(data:image/png;base64,xyz); }
e { background: url(); }
f { background: url(../escape.png); }`
	dest := newDest(t, map[string]string{"styles.css": css})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"styles.css"})
	if err != nil {
		t.Fatal(err)
	}

	want := hashing.HashedName("styles.css", hashing.FileHash([]byte(css)))
	if hashed["styles.css"] != want {
		t.Fatalf("expected %q got %q", want, hashed["styles.css"])
	}
	if mustRead(t, dest, want) != css {
		t.Fatal("ignored references must be left byte-for-byte")
	}
}

func TestRunQueryAndFragmentPreserved(t *testing.T) {
	css := `body { background: url(img/logo.png?v=1#frag); }`
	dest := newDest(t, map[string]string{
		"img/logo.png": "png-bytes",
		"styles.css":   css,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"img/logo.png", "styles.css"})
	if err != nil {
		t.Fatal(err)
	}

	logoHashed := hashing.HashedName("img/logo.png", hashing.FileHash([]byte("png-bytes")))
	want := `body { background: url("` + logoHashed + `?v=1#frag"); }`
	if got := mustRead(t, dest, hashed["styles.css"]); got != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRunCSSCommentNotRewritten(t *testing.T) {
	css := "/* url(img/logo.png) */\nbody { background: url(img/logo.png); }"
	dest := newDest(t, map[string]string{
		"img/logo.png": "png-bytes",
		"styles.css":   css,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"img/logo.png", "styles.css"})
	if err != nil {
		t.Fatal(err)
	}

	logoHashed := hashing.HashedName("img/logo.png", hashing.FileHash([]byte("png-bytes")))
	want := "/* url(img/logo.png) */\nbody { background: url(\"" + logoHashed + "\"); }"
	if got := mustRead(t, dest, hashed["styles.css"]); got != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRunCSSSourceMap(t *testing.T) {
	mapContent := `{"version":3}`
	css := "body{}\n/*# sourceMappingURL=styles.css.map */"
	dest := newDest(t, map[string]string{
		"styles.css.map": mapContent,
		"styles.css":     css,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"styles.css", "styles.css.map"})
	if err != nil {
		t.Fatal(err)
	}

	mapHashed := hashing.HashedName("styles.css.map", hashing.FileHash([]byte(mapContent)))
	want := "body{}\n/*# sourceMappingURL=" + mapHashed + " */"
	if got := mustRead(t, dest, hashed["styles.css"]); got != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRunSourceMapMarkerIsCaseSensitive(t *testing.T) {
	css := "body{}\n/*# sourcemappingurl=styles.css.map */"
	dest := newDest(t, map[string]string{"styles.css": css})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"styles.css"})
	if err != nil {
		t.Fatal(err)
	}
	if mustRead(t, dest, hashed["styles.css"]) != css {
		t.Fatal("a lowercase marker must not be rewritten")
	}
}

func TestRunJSSourceMap(t *testing.T) {
	mapContent := `{"version":3}`
	js := "console.log(1);\n//# sourceMappingURL=app.js.map"
	dest := newDest(t, map[string]string{
		"app.js.map": mapContent,
		"app.js":     js,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"app.js", "app.js.map"})
	if err != nil {
		t.Fatal(err)
	}

	mapHashed := hashing.HashedName("app.js.map", hashing.FileHash([]byte(mapContent)))
	want := "console.log(1);\n//# sourceMappingURL=" + mapHashed
	if got := mustRead(t, dest, hashed["app.js"]); got != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRunJSSourceMapWithoutSpace(t *testing.T) {
	mapContent := `{"version":3}`
	js := "console.log(1);\n//#sourceMappingURL=app.js.map"
	dest := newDest(t, map[string]string{
		"app.js.map": mapContent,
		"app.js":     js,
	})
	p := hashing.NewProcessor(dest, "/static/")

	hashed, _, err := p.Run([]string{"app.js", "app.js.map"})
	if err != nil {
		t.Fatal(err)
	}

	mapHashed := hashing.HashedName("app.js.map", hashing.FileHash([]byte(mapContent)))
	want := "console.log(1);\n//#sourceMappingURL=" + mapHashed
	if got := mustRead(t, dest, hashed["app.js"]); got != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRunJSModulesGated(t *testing.T) {
	js := `import "./util.js";`
	util := `export {};`
	files := map[string]string{"app.js": js, "util.js": util}

	// Disabled: module specifiers are left alone.
	dest := newDest(t, files)
	p := hashing.NewProcessor(dest, "/static/")
	hashed, _, err := p.Run([]string{"app.js", "util.js"})
	if err != nil {
		t.Fatal(err)
	}
	if mustRead(t, dest, hashed["app.js"]) != js {
		t.Fatal("module rewriting must be off by default")
	}

	// Enabled: the specifier is rewritten in place, keeping ./ and quotes.
	dest = newDest(t, files)
	p = hashing.NewProcessor(dest, "/static/")
	p.SupportJSModules = true
	hashed, _, err = p.Run([]string{"app.js", "util.js"})
	if err != nil {
		t.Fatal(err)
	}
	utilFinal := hashing.HashedName("util.js", hashing.FileHash([]byte(util)))
	want := `import "./` + utilFinal + `";`
	if got := mustRead(t, dest, hashed["app.js"]); got != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRunTemplateLiteralFails(t *testing.T) {
	js := "const mod = await import(`./${name}.js`);"
	dest := newDest(t, map[string]string{"app.js": js})
	p := hashing.NewProcessor(dest, "/static/")
	p.SupportJSModules = true

	_, _, err := p.Run([]string{"app.js"})
	if err == nil || !strings.Contains(err.Error(), "template literal") {
		t.Fatalf("expected a template literal error, got %v", err)
	}
}

func TestRunMutualCycleFails(t *testing.T) {
	dest := newDest(t, map[string]string{
		"a.css": `@import "b.css";`,
		"b.css": `@import "a.css";`,
	})
	p := hashing.NewProcessor(dest, "/static/")

	_, _, err := p.Run([]string{"a.css", "b.css"})
	var nc *hashing.NotConvergedError
	if !errors.As(err, &nc) {
		t.Fatalf("expected NotConvergedError, got %v", err)
	}
	if nc.Passes != hashing.DefaultMaxPasses {
		t.Fatalf("unexpected pass count %d", nc.Passes)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dest := newDest(t, map[string]string{
		"img/logo.png": "png-bytes",
		"styles.css":   `body { background: url(img/logo.png); }`,
	})
	paths := []string{"img/logo.png", "styles.css"}

	p := hashing.NewProcessor(dest, "/static/")
	first, _, err := p.Run(paths)
	if err != nil {
		t.Fatal(err)
	}
	namesAfterFirst, _ := dest.ListAll()

	second, _, err := hashing.NewProcessor(dest, "/static/").Run(paths)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second run diverged: %v vs %v", first, second)
	}
	namesAfterSecond, _ := dest.ListAll()
	if !reflect.DeepEqual(namesAfterFirst, namesAfterSecond) {
		t.Fatalf("second run changed the file set: %v vs %v", namesAfterFirst, namesAfterSecond)
	}
}
