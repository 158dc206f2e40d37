// Package deplog discovers the files a LaTeX run touched by reading the
// notices the compiler leaves in its transcript, and registers them in a
// dependency table.
package deplog

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"texbuild/internal/deptable"
	"texbuild/internal/texenc"
)

const (
	maxLine  = 255
	keepTail = 251
)

var (
	fileRe        = regexp.MustCompile(`^File: (.+)$`)
	noFileRe      = regexp.MustCompile(`^No file (.+)(.)$`)
	openoutRe     = regexp.MustCompile("^\\\\openout[0-9]+.*=.*`(.+)(..)$")
	luaOpenoutRe  = regexp.MustCompile(`^\\openout[0-9]+.*=\s*(.+)$`)
	indexRe       = regexp.MustCompile(`^Writing index file (.+)$`)
	nomenclRe     = regexp.MustCompile(`^.*Writing nomenclature file (.+)$`)
	oldNomenclRe  = regexp.MustCompile(`^Writing glossary file (.+)$`)
	tocRe         = regexp.MustCompile(`^\\tf@toc=\\write[0-9]*$`)
	angleRe       = regexp.MustCompile(`<([^>]+)(>?)`)
	parenRe       = regexp.MustCompile(`\(([^()]+)(\)?)`)
	packageInfoRe = regexp.MustCompile(`^Package \w+ Info: `)
	packageWarnRe = regexp.MustCompile(`^Package \w+ Warning: `)
	unwantedExtRe = regexp.MustCompile(`\.(aux|log|dvi|bbl|ind)$`)
	resetPrefixes = []string{"File:", "(Font)", "Package:", "Language:", "LaTeX Info:", "LaTeX Font Info:", `\openout[`, "))"}
)

// Options locate the run being scanned.
type Options struct {
	// Dir is the working directory of the compiler run. Relative names in the
	// log resolve against it.
	Dir string
	// MainFile is the document source, absolute or relative to Dir.
	MainFile string
	Logger   *log.Logger
}

type scanner struct {
	table  *deptable.Table
	dir    string
	main   string
	logger *log.Logger
}

// ScanFile reads the transcript at logPath. See Scan.
func ScanFile(logPath string, table *deptable.Table, opts Options) error {
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return Scan(f, table, opts)
}

// Scan registers every file the transcript names in table. The main source
// file is always registered, with its checksum taken immediately.
func Scan(r io.Reader, table *deptable.Table, opts Options) error {
	s, err := newScanner(table, opts)
	if err != nil {
		return err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	pending := ""
	for sc.Scan() {
		token := texenc.Line(sc.Text())
		if token == "" || token == ")" {
			pending = ""
			continue
		}
		if resetsContinuation(token) {
			pending = ""
		}
		token = pending + token
		if len(token) > maxLine {
			token = token[len(token)-keepTail:]
		}

		if s.line(token) {
			pending = ""
		} else {
			pending = token
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	table.Insert(s.main, true)
	return nil
}

func newScanner(table *deptable.Table, opts Options) (*scanner, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve dir: %w", err)
	}
	main := opts.MainFile
	if !filepath.IsAbs(main) {
		main = filepath.Join(dir, main)
	}
	return &scanner{table: table, dir: dir, main: main, logger: logger}, nil
}

func resetsContinuation(token string) bool {
	for _, p := range resetPrefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return packageInfoRe.MatchString(token) || packageWarnRe.MatchString(token)
}

// line matches one (possibly joined) transcript line. It returns false when
// the line looks like it continues on the next one.
func (s *scanner) line(token string) bool {
	found := true
	switch {
	case fileRe.MatchString(token):
		m := fileRe.FindStringSubmatch(token)
		found = s.checkLineBreak(m[1])
		if strings.HasSuffix(token, ")") {
			found = true
		}
	case noFileRe.MatchString(token):
		m := noFileRe.FindStringSubmatch(token)
		if strings.Contains(m[1], ".") && m[2] == "." {
			found = s.handle(m[1])
		} else {
			found = false
		}
	case openoutRe.MatchString(token):
		m := openoutRe.FindStringSubmatch(token)
		if m[2] == "'." {
			found = s.handle(m[1])
		} else {
			found = false
		}
	case luaOpenoutRe.MatchString(token):
		found = s.checkLineBreak(luaOpenoutRe.FindStringSubmatch(token)[1])
	case indexRe.MatchString(token):
		found = s.checkLineBreak(indexRe.FindStringSubmatch(token)[1])
	case nomenclRe.MatchString(token):
		found = s.checkLineBreak(nomenclRe.FindStringSubmatch(token)[1])
	case oldNomenclRe.MatchString(token):
		found = s.checkLineBreak(oldNomenclRe.FindStringSubmatch(token)[1])
	case tocRe.MatchString(token):
		base := strings.TrimSuffix(filepath.Base(s.main), filepath.Ext(s.main))
		found = s.handle(base + ".toc")
	}

	// Bracketed names can appear several times on a line, in addition to the
	// shapes above.
	for _, m := range angleRe.FindAllStringSubmatch(token, -1) {
		if strings.Contains(m[1], ".") && m[2] == ">" {
			found = s.handle(m[1])
		} else {
			found = false
		}
	}
	for _, m := range parenRe.FindAllStringSubmatch(token, -1) {
		switch {
		case strings.Contains(m[1], "."):
			ok := s.handle(m[1])
			if m[2] == ")" {
				ok = true
			}
			found = ok
		case m[2] == ")":
			found = true
		default:
			found = false
		}
	}
	return found
}

func (s *scanner) checkLineBreak(name string) bool {
	if !strings.Contains(name, ".") {
		return false
	}
	return s.handle(name)
}

// handle resolves a candidate name and registers it. It reports whether the
// name denoted an existing file.
func (s *scanner) handle(name string) bool {
	name = strings.TrimSpace(name)
	path, ok := s.resolve(name)
	if !ok {
		s.logger.Printf("deplog: not a file or unable to find %q", name)
		return false
	}

	base := filepath.Base(path)
	switch {
	case unwantedExtRe.MatchString(base):
		s.logger.Printf("deplog: not tracking %s", base)
	case strings.HasSuffix(base, ".tex"):
		s.table.Insert(path, true)
	default:
		s.table.Insert(path, false)
	}
	return true
}

// resolve finds the file a name refers to. Names may have lost their quotes
// or carry trailing words after a space, so trailing space-separated tokens
// are dropped one by one until a file is found.
func (s *scanner) resolve(name string) (string, bool) {
	candidate := name
	for {
		for _, c := range []string{candidate, strings.Trim(candidate, `"`)} {
			path := c
			if !filepath.IsAbs(path) {
				path = filepath.Join(s.dir, path)
			}
			if isFile(path) {
				return path, true
			}
		}
		i := strings.LastIndexByte(candidate, ' ')
		if i < 0 {
			return "", false
		}
		candidate = strings.TrimRight(candidate[:i], " ")
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
