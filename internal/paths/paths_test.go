package paths

import (
	"os"
	"path/filepath"
	"testing"

	"texbuild/internal/config"
)

func TestResolveDerivesSidecars(t *testing.T) {
	root := t.TempDir()
	dp, err := Resolve(filepath.Join(root, "thesis"), "")
	if err != nil {
		t.Fatal(err)
	}
	if dp.Source != filepath.Join(root, "thesis.tex") {
		t.Fatalf("source: got %s", dp.Source)
	}
	if dp.Base != "thesis" || dp.Dir != root {
		t.Fatalf("base/dir: got %s %s", dp.Base, dp.Dir)
	}
	if got, want := dp.DepFile(config.FlavorDVI), filepath.Join(root, "thesis.dep"); got != want {
		t.Errorf("dvi dep: got %s, want %s", got, want)
	}
	if got, want := dp.DepFile(config.FlavorPDF), filepath.Join(root, "thesis.dep-pdf"); got != want {
		t.Errorf("pdf dep: got %s, want %s", got, want)
	}
	if got, want := dp.OutputFile(config.FlavorPDF), filepath.Join(root, "thesis.pdf"); got != want {
		t.Errorf("pdf output: got %s, want %s", got, want)
	}
	if got, want := dp.File(".1.aux"), filepath.Join(root, "thesis.1.aux"); got != want {
		t.Errorf("numbered aux: got %s, want %s", got, want)
	}
	if dp.ConfigFile != filepath.Join(root, ConfigFileName) {
		t.Errorf("config: got %s", dp.ConfigFile)
	}
}

func TestResolveConfigFlag(t *testing.T) {
	root := t.TempDir()
	custom := filepath.Join(t.TempDir(), "ci.yaml")
	dp, err := Resolve(filepath.Join(root, "doc.tex"), custom)
	if err != nil {
		t.Fatal(err)
	}
	if dp.ConfigFile != custom {
		t.Fatalf("config: got %s, want %s", dp.ConfigFile, custom)
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, err := Resolve("  ", ""); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}

func TestApplyConfigLogDir(t *testing.T) {
	root := t.TempDir()
	dp, _ := Resolve(filepath.Join(root, "doc.tex"), "")

	cfg := config.Default()
	cfg.LogDir = "build/logs"
	if got, want := ApplyConfig(dp, cfg).LogsDir, filepath.Join(root, "build/logs"); got != want {
		t.Errorf("relative: got %s, want %s", got, want)
	}

	abs := filepath.Join(t.TempDir(), "logs")
	cfg.LogDir = abs
	if got := ApplyConfig(dp, cfg).LogsDir; got != abs {
		t.Errorf("absolute: got %s, want %s", got, abs)
	}
}

func TestEnsureMetaDirs(t *testing.T) {
	root := t.TempDir()
	dp, _ := Resolve(filepath.Join(root, "doc.tex"), "")
	if err := dp.EnsureMetaDirs(); err != nil {
		t.Fatal(err)
	}
	if ok, err := DirExists(dp.LogsDir); err != nil || !ok {
		t.Fatalf("logs dir missing: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.tex")
	if ok, _ := FileExists(path); ok {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, _ := FileExists(path); !ok {
		t.Fatal("file not found")
	}
	if ok, _ := FileExists(dir); ok {
		t.Fatal("directory reported as file")
	}
}
