package deptable

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestInsertLazyIsComputedByUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "figure.png")
	writeFile(t, path, "png", time.Now())

	tbl := New(nil)
	tbl.Insert(path, false)
	if tbl.SumChange() {
		t.Fatal("lazy entry must not count as changed before Update")
	}

	tbl.Update()
	if !tbl.HasChanged(path) {
		t.Fatal("first fingerprint of a lazy entry should count as a change")
	}

	tbl.Update()
	if tbl.HasChanged(path) {
		t.Fatal("unchanged file should settle after a second Update")
	}
}

func TestInsertComputeNow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, `\documentclass{article}`, time.Now())

	tbl := New(nil)
	tbl.Insert(path, true)
	entries := tbl.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want, err := Checksum(path)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Checksum != want {
		t.Errorf("checksum: got %d, want %d", entries[0].Checksum, want)
	}

	tbl.Insert(path, false)
	if got := tbl.Entries()[0].Checksum; got != want {
		t.Errorf("re-insert must be a no-op, checksum now %d", got)
	}
}

func TestUpdateDetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chapter.tex")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, "one", base)

	tbl := New(nil)
	tbl.Insert(path, false)
	tbl.Update()
	tbl.Update()

	writeFile(t, path, "two", base.Add(time.Minute))
	tbl.Update()
	if !tbl.HasChanged(path) {
		t.Error("content change should be detected")
	}
	if !tbl.ExtensionChanged(".tex") {
		t.Error("ExtensionChanged(.tex) should be true")
	}
	if tbl.ExtensionChanged(".bib") {
		t.Error("ExtensionChanged(.bib) should be false")
	}
}

func TestUpdateTouchedButIdentical(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, "@book{a}", base)

	tbl := New(nil)
	tbl.Insert(path, true)
	tbl.Update()

	writeFile(t, path, "@book{a}", base.Add(time.Minute))
	tbl.Update()
	if tbl.HasChanged(path) {
		t.Error("identical content with a new mtime must not count as changed")
	}
}

func TestUpdateDropsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.toc")
	writeFile(t, path, "toc", time.Now())

	tbl := New(nil)
	tbl.Insert(path, true)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	tbl.Update()
	if tbl.Exists(path) {
		t.Error("vanished file should be dropped")
	}
}

func TestRemoveHelpers(t *testing.T) {
	tbl := New(nil)
	for _, p := range []string{"/a/refs.bib", "/a/plain.bst", "/b/refs.bib", "/a/doc.tex"} {
		tbl.Insert(p, false)
	}

	if !tbl.ExistsWithExtension(".bst") {
		t.Error("expected a .bst entry")
	}
	tbl.RemoveFilesWithExtension(".bst")
	if tbl.ExistsWithExtension(".bst") {
		t.Error(".bst entries should be gone")
	}

	tbl.RemoveFile("refs.bib")
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", tbl.Len())
	}
	if !tbl.Exists("/a/doc.tex") {
		t.Error("doc.tex should remain")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "doc.tex")
	b := filepath.Join(dir, "with space.png")
	writeFile(t, a, "tex", time.Now())
	writeFile(t, b, "png", time.Now())

	tbl := New(nil)
	tbl.Insert(a, true)
	tbl.Insert(b, true)
	tbl.Update()

	depPath := filepath.Join(dir, "doc.dep")
	if err := tbl.Write(depPath); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(depPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected .tmp file to not exist after write")
	}

	loaded := New(nil)
	loaded.Insert("/stale/entry.tex", false)
	if err := loaded.Read(depPath); err != nil {
		t.Fatalf("read: %v", err)
	}
	if loaded.Exists("/stale/entry.tex") {
		t.Error("read must replace, not merge")
	}

	want := tbl.Entries()
	got := loaded.Entries()
	if len(got) != len(want) {
		t.Fatalf("entries: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Path != want[i].Path {
			t.Errorf("path %d: got %q, want %q", i, got[i].Path, want[i].Path)
		}
		if got[i].Checksum != want[i].Checksum {
			t.Errorf("checksum %d: got %d, want %d", i, got[i].Checksum, want[i].Checksum)
		}
		if !got[i].ModTime.Equal(want[i].ModTime) {
			t.Errorf("mtime %d: got %v, want %v", i, got[i].ModTime, want[i].ModTime)
		}
		if got[i].PrevChecksum != got[i].Checksum {
			t.Errorf("prev checksum %d: got %d, want %d", i, got[i].PrevChecksum, got[i].Checksum)
		}
	}
	if loaded.SumChange() {
		t.Error("freshly read table must not report changes")
	}

	loaded.Update()
	if loaded.SumChange() {
		t.Error("untouched files must not report changes after Update")
	}
}

func TestReadMissingFile(t *testing.T) {
	tbl := New(nil)
	if err := tbl.Read(filepath.Join(t.TempDir(), "missing.dep")); err == nil {
		t.Fatal("expected an error for a missing dep file")
	}
}

func TestReadStopsAtMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.dep")
	content := "\"/a/doc.tex\" 12 34\n/a/bare.sty 56 78\n/a/broken.sty 9\n/a/after.sty 1 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl := New(nil)
	if err := tbl.Read(path); err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", tbl.Len())
	}
	if !tbl.Exists("/a/bare.sty") {
		t.Error("bare (unquoted) path should be accepted")
	}
	if tbl.Exists("/a/after.sty") {
		t.Error("lines after a malformed one must be ignored")
	}
}

func TestWriteQuotesOnlyPathsThatNeedIt(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "doc.tex")
	spaced := filepath.Join(dir, "my figure.png")
	writeFile(t, plain, "tex", time.Now())
	writeFile(t, spaced, "png", time.Now())

	tbl := New(nil)
	tbl.Insert(plain, true)
	tbl.Insert(spaced, true)
	depPath := filepath.Join(dir, "doc.dep")
	if err := tbl.Write(depPath); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(depPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), data)
	}
	var sawPlain, sawQuoted bool
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, plain+" "):
			sawPlain = true
			if fields := strings.Fields(line); len(fields) != 3 {
				t.Errorf("plain line %q: got %d fields, want 3", line, len(fields))
			}
		case strings.HasPrefix(line, strconv.Quote(spaced)+" "):
			sawQuoted = true
		default:
			t.Errorf("unexpected line %q", line)
		}
	}
	if !sawPlain || !sawQuoted {
		t.Errorf("plain written bare: %v, spaced written quoted: %v", sawPlain, sawQuoted)
	}

	loaded := New(nil)
	if err := loaded.Read(depPath); err != nil {
		t.Fatal(err)
	}
	if !loaded.Exists(plain) || !loaded.Exists(spaced) {
		t.Error("both paths must read back")
	}
}
