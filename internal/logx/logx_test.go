package logx

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"texbuild/internal/paths"
)

func TestNewWritesIntoLogsDir(t *testing.T) {
	dir := t.TempDir()
	p := paths.DocumentPaths{Base: "thesis", LogsDir: filepath.Join(dir, ".texbuild", "logs")}

	logger, closer, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Printf("hello")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(p.LogsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "thesis-") {
		t.Fatalf("unexpected log files: %v", entries)
	}
	data, err := os.ReadFile(filepath.Join(p.LogsDir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log content %q missing message", data)
	}
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	base := log.New(&buf, "", 0)
	WithPrefix(base, "[abc] ").Printf("run")
	if got := buf.String(); got != "[abc] run\n" {
		t.Errorf("got %q, want %q", got, "[abc] run\n")
	}
}
