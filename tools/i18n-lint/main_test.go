package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadKeysFromLocale_Flattens(t *testing.T) {
	p := filepath.Join(t.TempDir(), "en.yaml")
	writeFile(t, p, "top:\n  sub: value\n  deeper:\n    leaf: x\nother: v\n")

	keys, err := loadKeysFromLocale(p)
	if err != nil {
		t.Fatalf("loadKeysFromLocale: %v", err)
	}
	for _, k := range []string{"top.sub", "top.deeper.leaf", "other"} {
		if _, ok := keys[k]; !ok {
			t.Fatalf("expected %s in %v", k, keys)
		}
	}
	if _, ok := keys["top"]; ok {
		t.Fatalf("intermediate node reported as key")
	}
}

func TestLint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "a.go"), `package pkg
func f() {
	_ = i18n.T("greet.hello", "x")
	_ = i18n.T("greet.unknown")
}`)
	writeFile(t, filepath.Join(root, "pkg", "a_test.go"), `package pkg
var _ = i18n.T("test.only")`)
	writeFile(t, filepath.Join(root, "tools", "x", "main.go"), `package main
var _ = i18n.T("tool.only")`)

	dir := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(dir, "en.yaml"), "greet:\n  hello: hi\n  bye: bye\n")
	writeFile(t, filepath.Join(dir, "de.yaml"), "greet:\n  hello: hallo\n")

	r, err := lint(root, dir, "en.yaml")
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if !slices.Equal(r.Undefined, []string{"greet.unknown"}) {
		t.Fatalf("Undefined = %v", r.Undefined)
	}
	if !slices.Equal(r.Orphaned, []string{"greet.bye"}) {
		t.Fatalf("Orphaned = %v", r.Orphaned)
	}
	if !slices.Equal(r.Missing["de.yaml"], []string{"greet.bye"}) {
		t.Fatalf("Missing = %v", r.Missing)
	}
	if !r.failed() {
		t.Fatalf("expected failure")
	}
}

func TestLint_RepositoryLocalesAreConsistent(t *testing.T) {
	root := filepath.Join("..", "..")
	r, err := lint(root, filepath.Join(root, localesDir), primaryLocale)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if r.failed() {
		t.Fatalf("locale problems: undefined=%v missing=%v", r.Undefined, r.Missing)
	}
}
