package deptable

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Write persists the table to path, one `path checksum mtime` line per entry,
// sorted by path. Paths with whitespace or unprintable bytes are Go-quoted.
// The file is replaced atomically.
func (t *Table) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, p := range t.paths() {
		e := t.entries[p]
		fmt.Fprintf(w, "%s %d %d\n", quotePath(p), e.curSum, e.mtime)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func quotePath(p string) string {
	q := strconv.Quote(p)
	if q != `"`+p+`"` || strings.ContainsRune(p, ' ') {
		return q
	}
	return p
}

// Read replaces the table with the contents of path. Reading stops silently
// at the first malformed line. The previous checksum is not persisted, so
// entries read back report no change until the next Update.
func (t *Table) Read(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries := map[string]*entry{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, e, ok := parseLine(line)
		if !ok {
			t.logger.Printf("deptable: %s: stopping at malformed line %q", path, line)
			break
		}
		entries[name] = e
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	t.entries = entries
	return nil
}

func parseLine(line string) (string, *entry, bool) {
	var name, rest string
	if strings.HasPrefix(line, `"`) {
		quoted, err := strconv.QuotedPrefix(line)
		if err != nil {
			return "", nil, false
		}
		name, err = strconv.Unquote(quoted)
		if err != nil {
			return "", nil, false
		}
		rest = line[len(quoted):]
	} else {
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return "", nil, false
		}
		name, rest = fields[0], fields[1]
	}

	fields := strings.Fields(rest)
	if name == "" || len(fields) < 2 {
		return "", nil, false
	}
	sum, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return "", nil, false
	}
	mtime, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", nil, false
	}
	return name, &entry{prevSum: sum, curSum: sum, mtime: mtime}, true
}
