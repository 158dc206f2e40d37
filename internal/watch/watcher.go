// Package watch rebuilds a document when files in its directory change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"texbuild/internal/paths"
)

const defaultDebounce = 300 * time.Millisecond

// generatedSuffixes are written by the compiler and its tools. Changes to
// them never trigger a rebuild; the dependency table decides whether they
// matter.
var generatedSuffixes = append([]string{
	".pdf", ".dvi", ".ps", ".xdv",
	".dep", ".dep-pdf",
	".synctex.gz", ".fls", ".fdb_latexmk",
	".nav", ".snm", ".vrb",
}, paths.DerivedSidecars...)

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore holds glob patterns matched against the slash-separated path
	// relative to the root and against the base name.
	Ignore []string
	// OnChange receives the sorted relative paths of one debounced burst.
	// Calls never overlap.
	OnChange func(paths []string)
	Logger   *log.Logger
}

// Watcher watches a directory tree for source changes.
type Watcher struct {
	rootAbs   string
	ignore    []string
	debouncer *Debouncer
	logger    *log.Logger

	watcher   *fsnotify.Watcher
	closeOnce sync.Once
	closed    chan struct{}
	fireMu    sync.Mutex
}

// New starts watching root and every subdirectory except hidden ones.
func New(root string, opts Options) (*Watcher, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	rootAbs = filepath.Clean(rootAbs)
	for _, pattern := range opts.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", pattern, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &Watcher{
		rootAbs:   rootAbs,
		ignore:    opts.Ignore,
		debouncer: NewDebouncer(opts.Debounce),
		logger:    logger,
		watcher:   fsw,
		closed:    make(chan struct{}),
	}
	if opts.OnChange != nil {
		w.debouncer.OnFire(func(changed []string) {
			w.fireMu.Lock()
			defer w.fireMu.Unlock()
			select {
			case <-w.closed:
				return
			default:
			}
			opts.OnChange(changed)
		})
	}

	if err := w.addDirRecursive(rootAbs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.closed) })
	w.debouncer.Stop()
	return w.watcher.Close()
}

// Run dispatches file system events until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.closed:
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Printf("watch: %v", err)
				w.debouncer.Push(".")
				continue
			}
			return err
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	rel, ok := w.toRel(ev.Name)
	if !ok {
		return
	}

	if ev.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := w.addDirRecursive(ev.Name); err != nil {
				w.logger.Printf("watch: add %s: %v", ev.Name, err)
			}
			return
		}
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.ShouldTrigger(rel) {
		return
	}
	w.logger.Printf("watch: %s %s", ev.Op, rel)
	w.debouncer.Push(rel)
}

// ShouldTrigger reports whether a change to the slash-separated relative
// path rel asks for a rebuild.
func (w *Watcher) ShouldTrigger(rel string) bool {
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	for _, pattern := range w.ignore {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return false
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return false
		}
	}
	return true
}

func (w *Watcher) toRel(abs string) (string, bool) {
	if strings.TrimSpace(abs) == "" {
		return "", false
	}
	rel, err := filepath.Rel(w.rootAbs, filepath.Clean(abs))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addDirRecursive(absDir string) error {
	return filepath.WalkDir(filepath.Clean(absDir), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.rootAbs && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}
