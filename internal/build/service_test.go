package build

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"texbuild/internal/config"
	"texbuild/internal/latex"
	"texbuild/internal/runner"
	"texbuild/internal/texlog"
)

type fakeCompiler struct {
	mu    sync.Mutex
	calls map[string]int
	log   string
}

func (f *fakeCompiler) Run(_ context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	if command != "pdflatex" && command != "latex" {
		return runner.Result{}, errors.New("unexpected command " + command)
	}
	src := args[len(args)-1]
	f.calls[filepath.Join(opts.Dir, src)]++
	base := strings.TrimSuffix(src, ".tex")
	content := f.log
	if content == "" {
		content = "Output written on " + base + ".pdf (1 page).\n"
	}
	if err := os.WriteFile(filepath.Join(opts.Dir, base+".log"), []byte(content), 0o644); err != nil {
		return runner.Result{}, err
	}
	out := base + ".pdf"
	if command == "latex" {
		out = base + ".dvi"
	}
	return runner.Result{}, os.WriteFile(filepath.Join(opts.Dir, out), []byte("out"), 0o644)
}

func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("\\documentclass{article}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadDoc(t *testing.T, path string) Document {
	t.Helper()
	doc, err := LoadDocument(path, "")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	return doc
}

type recordingReporter struct {
	mu       sync.Mutex
	started  []string
	messages map[string][]string
	done     []Result
}

func (r *recordingReporter) Start(doc Document) {
	r.mu.Lock()
	r.started = append(r.started, doc.Paths.Base)
	r.mu.Unlock()
}

func (r *recordingReporter) Sink(doc Document) latex.Sink {
	return latex.SinkFunc(func(msg string) {
		r.mu.Lock()
		if r.messages == nil {
			r.messages = map[string][]string{}
		}
		r.messages[doc.Paths.Base] = append(r.messages[doc.Paths.Base], msg)
		r.mu.Unlock()
	})
}

func (r *recordingReporter) Complete(_ Document, res Result) {
	r.mu.Lock()
	r.done = append(r.done, res)
	r.mu.Unlock()
}

func TestBuildSeveralDocuments(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	docs := []Document{
		loadDoc(t, writeDoc(t, dir, "a.tex")),
		loadDoc(t, writeDoc(t, dir, "b.tex")),
		loadDoc(t, writeDoc(t, dir, "c.tex")),
	}

	fake := &fakeCompiler{}
	svc := &Service{Runner: fake, Logger: log.New(io.Discard, "", 0)}
	rep := &recordingReporter{}
	results, err := svc.Build(context.Background(), docs, Options{Concurrency: 2, Reporter: rep})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for i, res := range results {
		if res.Source != docs[i].Paths.Source {
			t.Errorf("result %d: source %s, want %s", i, res.Source, docs[i].Paths.Source)
		}
		if res.Failed() {
			t.Errorf("%s failed: %v %s", res.Source, res.Err, res.Flags)
		}
		if res.Runs != 1 || res.Output == "" {
			t.Errorf("%s: runs=%d output=%q", res.Source, res.Runs, res.Output)
		}
	}
	if len(rep.started) != 3 || len(rep.done) != 3 {
		t.Errorf("reporter saw %d starts and %d completions", len(rep.started), len(rep.done))
	}
	if got := rep.messages["b"]; len(got) != 1 || got[0] != "Waiting for LaTeX run number 1" {
		t.Errorf("messages for b: %v", got)
	}

	results, err = svc.Build(context.Background(), docs[:1], Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].UpToDate || results[0].Status != texlog.NoChange {
		t.Errorf("second build: got %+v, want up to date", results[0])
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	doc := loadDoc(t, writeDoc(t, dir, "a.tex"))

	svc := &Service{Runner: &fakeCompiler{}}
	if _, err := svc.Build(context.Background(), []Document{doc, doc}, Options{}); err == nil {
		t.Fatal("expected duplicate documents to be rejected")
	}
}

func TestBuildOneReportsCompilerErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	doc := loadDoc(t, writeDoc(t, dir, "a.tex"))

	fake := &fakeCompiler{log: "! Undefined control sequence.\nl.7 \\foo\n\n"}
	svc := &Service{Runner: fake, Logger: log.New(io.Discard, "", 0)}
	res := svc.BuildOne(context.Background(), "session", doc, Options{}, nil)
	if !res.Failed() || !res.Status.Has(texlog.TexError) {
		t.Fatalf("got %+v, want a tex error", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].Line != 7 {
		t.Errorf("errors: %+v", res.Errors)
	}
}

func TestBuildOneFlavorOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	doc := loadDoc(t, writeDoc(t, dir, "a.tex"))

	svc := &Service{Runner: &fakeCompiler{}, Logger: log.New(io.Discard, "", 0)}
	res := svc.BuildOne(context.Background(), "session", doc, Options{Flavor: config.FlavorDVI}, nil)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if filepath.Ext(res.Output) != ".dvi" {
		t.Errorf("output: got %q, want a .dvi", res.Output)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.dep")); err != nil {
		t.Errorf("dvi dependency file missing: %v", err)
	}
}

func TestBuildOneLogsToDocumentLogDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	doc := loadDoc(t, writeDoc(t, dir, "a.tex"))

	svc := &Service{Runner: &fakeCompiler{}}
	if res := svc.BuildOne(context.Background(), "0123456789abcdef", doc, Options{}, nil); res.Err != nil {
		t.Fatal(res.Err)
	}
	entries, err := os.ReadDir(doc.Paths.LogsDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("log dir entries: %v, %v", entries, err)
	}
	data, err := os.ReadFile(filepath.Join(doc.Paths.LogsDir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[01234567 a] build: start") {
		t.Errorf("log file missing prefixed start line:\n%s", data)
	}
}
