package texpath

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"texbuild/internal/runner"
)

type kpseRunner struct {
	answer string
	calls  int
}

func (k *kpseRunner) Run(_ context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	k.calls++
	if k.answer == "" {
		return runner.Result{ExitCode: 1}, nil
	}
	_, _ = io.WriteString(opts.Stdout, k.answer+"\n")
	return runner.Result{}, nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("@misc{x}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindNextToDocument(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "refs.bib"))
	got, ok := SearchPath{}.Find(context.Background(), "refs.bib", dir)
	if !ok || got != filepath.Join(dir, "refs.bib") {
		t.Errorf("got %q (%v)", got, ok)
	}
}

func TestFindOnSearchPath(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "bib", "refs.bib"))
	shared := t.TempDir()
	touch(t, filepath.Join(shared, "house.bst"))

	sp := SearchPath{Dirs: []string{"bib", shared}}
	if got, ok := sp.Find(context.Background(), "refs.bib", dir); !ok || got != filepath.Join(dir, "bib", "refs.bib") {
		t.Errorf("relative dir: got %q (%v)", got, ok)
	}
	if got, ok := sp.Find(context.Background(), "house.bst", dir); !ok || got != filepath.Join(shared, "house.bst") {
		t.Errorf("absolute dir: got %q (%v)", got, ok)
	}
}

func TestFindFallsBackToKpsewhich(t *testing.T) {
	dir := t.TempDir()
	system := filepath.Join(t.TempDir(), "plain.bst")
	touch(t, system)

	k := &kpseRunner{answer: system}
	got, ok := SearchPath{Runner: k}.Find(context.Background(), "plain.bst", dir)
	if !ok || got != system {
		t.Errorf("got %q (%v), want %q", got, ok, system)
	}
	if k.calls != 1 {
		t.Errorf("kpsewhich calls: got %d, want 1", k.calls)
	}

	k.answer = ""
	if _, ok := (SearchPath{Runner: k}).Find(context.Background(), "missing.bst", dir); ok {
		t.Error("expected missing file to stay unresolved")
	}
}

func TestFindAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "refs.bib")
	if _, ok := (SearchPath{}).Find(context.Background(), abs, "/"); ok {
		t.Error("missing absolute file reported as found")
	}
	touch(t, abs)
	if got, ok := (SearchPath{}).Find(context.Background(), abs, "/"); !ok || got != abs {
		t.Errorf("got %q (%v)", got, ok)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("BIBINPUTS", "")
	if env := (SearchPath{}).Env(); env != nil {
		t.Errorf("expected no env without dirs, got %v", env)
	}
	env := SearchPath{Dirs: []string{"/a", "/b"}}.Env()
	if len(env) != 3 {
		t.Fatalf("got %d assignments, want 3", len(env))
	}
	sep := string(os.PathListSeparator)
	want := "BIBINPUTS=/a" + sep + "/b" + sep
	found := false
	for _, e := range env {
		if strings.HasPrefix(e, "BIBINPUTS=") {
			found = e == want
		}
	}
	if !found {
		t.Errorf("BIBINPUTS: got %v, want %q", env, want)
	}
}
