package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectMode(t *testing.T) {
	var buf bytes.Buffer
	if got := DetectMode(&buf, false, true); got != ModeJSON {
		t.Errorf("json: got %v, want ModeJSON", got)
	}
	if got := DetectMode(&buf, false, false); got != ModePlain {
		t.Errorf("buffer: got %v, want ModePlain", got)
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := DetectMode(f, false, false); got != ModePlain {
		t.Errorf("regular file: got %v, want ModePlain", got)
	}
}
