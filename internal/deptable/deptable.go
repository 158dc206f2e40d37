package deptable

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type entry struct {
	prevSum uint64
	curSum  uint64
	mtime   int64
}

// changed reports whether the checksum moved during the last update cycle.
// A zero checksum means the file has not been fingerprinted yet.
func (e *entry) changed() bool {
	return e.prevSum != e.curSum && e.curSum != 0
}

// Entry is a read-only snapshot of a tracked file.
type Entry struct {
	Path         string    `json:"path"`
	Checksum     uint64    `json:"checksum"`
	PrevChecksum uint64    `json:"prev_checksum"`
	ModTime      time.Time `json:"mtime"`
	Changed      bool      `json:"changed"`
}

// Table maps absolute file paths to content fingerprints. It decides whether
// any input of a compilation changed since the table was last written.
type Table struct {
	entries map[string]*entry
	logger  *log.Logger
}

// New returns an empty table. A nil logger discards debug output.
func New(logger *log.Logger) *Table {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Table{
		entries: map[string]*entry{},
		logger:  logger,
	}
}

// Len returns the number of tracked files.
func (t *Table) Len() int {
	return len(t.entries)
}

// Insert registers path. With computeNow the checksum and mtime are recorded
// immediately, otherwise both stay zero until the next Update.
func (t *Table) Insert(path string, computeNow bool) {
	if _, ok := t.entries[path]; ok {
		t.logger.Printf("deptable: %s already tracked", path)
		return
	}
	e := &entry{}
	if computeNow {
		if info, err := os.Stat(path); err == nil {
			e.curSum = t.checksum(path)
			e.mtime = info.ModTime().UnixNano()
		}
	}
	t.entries[path] = e
	t.logger.Printf("deptable: insert %s (checksum %d)", path, e.curSum)
}

// Update re-stats every tracked file. Vanished files are dropped; they will
// be re-inserted by the next log scan if they reappear. The previous checksum
// always takes the current value, so it lags exactly one update cycle.
func (t *Table) Update() {
	for path, e := range t.entries {
		info, err := os.Stat(path)
		if err != nil {
			t.logger.Printf("deptable: %s vanished, dropping", path)
			delete(t.entries, path)
			continue
		}
		mtime := info.ModTime().UnixNano()
		e.prevSum = e.curSum
		if e.mtime == mtime {
			continue
		}
		e.curSum = t.checksum(path)
		e.mtime = mtime
		if e.changed() {
			t.logger.Printf("deptable: %s changed", path)
		}
	}
}

// SumChange reports whether any tracked file changed.
func (t *Table) SumChange() bool {
	for _, e := range t.entries {
		if e.changed() {
			return true
		}
	}
	return false
}

// HasChanged reports whether path is tracked and changed.
func (t *Table) HasChanged(path string) bool {
	e, ok := t.entries[path]
	return ok && e.changed()
}

// ExtensionChanged reports whether any tracked file ending in ext changed.
func (t *Table) ExtensionChanged(ext string) bool {
	for path, e := range t.entries {
		if strings.HasSuffix(path, ext) && e.changed() {
			return true
		}
	}
	return false
}

// ExistsWithExtension reports whether any tracked path ends in ext.
func (t *Table) ExistsWithExtension(ext string) bool {
	for path := range t.entries {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Exists reports whether path is tracked.
func (t *Table) Exists(path string) bool {
	_, ok := t.entries[path]
	return ok
}

// RemoveFilesWithExtension drops every entry whose path ends in ext.
func (t *Table) RemoveFilesWithExtension(ext string) {
	for path := range t.entries {
		if strings.HasSuffix(path, ext) {
			delete(t.entries, path)
		}
	}
}

// RemoveFile drops every entry whose base name equals name.
func (t *Table) RemoveFile(name string) {
	for path := range t.entries {
		if filepath.Base(path) == name {
			delete(t.entries, path)
		}
	}
}

// Entries returns a snapshot of the table sorted by path.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, path := range t.paths() {
		e := t.entries[path]
		var mtime time.Time
		if e.mtime != 0 {
			mtime = time.Unix(0, e.mtime)
		}
		out = append(out, Entry{
			Path:         path,
			Checksum:     e.curSum,
			PrevChecksum: e.prevSum,
			ModTime:      mtime,
			Changed:      e.changed(),
		})
	}
	return out
}

func (t *Table) paths() []string {
	paths := make([]string, 0, len(t.entries))
	for path := range t.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
