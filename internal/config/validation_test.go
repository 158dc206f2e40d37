package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func errorsOf(results []ValidationResult) []ValidationResult {
	var errs []ValidationResult
	for _, r := range results {
		if r.Level == "error" {
			errs = append(errs, r)
		}
	}
	return errs
}

func TestValidateStrict_Defaults(t *testing.T) {
	cfg := Default()
	if results := cfg.ValidateStrict(t.TempDir()); len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}

func TestValidateStrict_Flavor(t *testing.T) {
	cfg := Default()
	cfg.Flavor = "ps"
	if errs := errorsOf(cfg.validateFlavor()); len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestValidateStrict_Commands(t *testing.T) {
	cfg := Default()
	cfg.Commands.BibTeX = "  "
	cfg.Commands.Index = "makeindex -c -q -L $$lang"
	cfg.Commands.PDFLaTeX = "pdflatex $$i $$lang"

	errs := errorsOf(cfg.validateCommands())
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
}

func TestValidateStrict_SearchPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "bib"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.SearchPath = []string{"bib", "missing", "file.txt"}
	results := cfg.validateSearchPath(dir)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %v", len(results), results)
	}
	if results[0].Level != "warning" || results[1].Level != "error" {
		t.Errorf("levels: got %q and %q", results[0].Level, results[1].Level)
	}
}

func TestValidateStrict_Watch(t *testing.T) {
	cfg := Default()
	cfg.Watch.DebounceMS = -1
	cfg.Watch.Ignore = []string{"[unclosed"}
	if errs := errorsOf(cfg.validateWatch()); len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
}

func TestExtractPlaceholders(t *testing.T) {
	got := extractPlaceholders("latex $$i -jobname=$$lang_x $ $$ $x")
	want := []string{"i", "lang_x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
