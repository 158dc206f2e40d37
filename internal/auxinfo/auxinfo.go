package auxinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"texbuild/internal/texenc"
)

// maxDepth bounds \@input recursion.
const maxDepth = 1000

// ErrTooDeep is returned when \@input nesting exceeds maxDepth.
var ErrTooDeep = errors.New("aux file nesting too deep")

var (
	citationRe = regexp.MustCompile(`^\\citation\{([^}]+)\}$`)
	bibdataRe  = regexp.MustCompile(`^\\bibdata\{([^}]+)\}$`)
	bibstyleRe = regexp.MustCompile(`^\\bibstyle\{([^}]+)\}$`)
	inputRe    = regexp.MustCompile(`^\\@input\{([^}]+)\}$`)
)

// Info collects the bibliography-relevant content of one aux file and the
// files it includes.
type Info struct {
	AuxFile   string
	Citations map[string]struct{}
	Databases map[string]struct{}
	Styles    map[string]struct{}
}

func newInfo(auxFile string) Info {
	return Info{
		AuxFile:   auxFile,
		Citations: map[string]struct{}{},
		Databases: map[string]struct{}{},
		Styles:    map[string]struct{}{},
	}
}

// Equal compares all four fields.
func (i Info) Equal(o Info) bool {
	return i.AuxFile == o.AuxFile &&
		sameSet(i.Citations, o.Citations) &&
		sameSet(i.Databases, o.Databases) &&
		sameSet(i.Styles, o.Styles)
}

// SortedDatabases returns the database names in lexical order.
func (i Info) SortedDatabases() []string { return sortedKeys(i.Databases) }

// SortedStyles returns the style names in lexical order.
func (i Info) SortedStyles() []string { return sortedKeys(i.Styles) }

// SortedCitations returns the citation keys in lexical order.
func (i Info) SortedCitations() []string { return sortedKeys(i.Citations) }

// Scan reads auxFile and everything it pulls in through \@input.
func Scan(auxFile string) (Info, error) {
	info := newInfo(auxFile)
	if err := scanInto(auxFile, &info, 0); err != nil {
		return info, err
	}
	return info, nil
}

// ScanAll scans mainAux followed by the numbered siblings <base>.1.aux,
// <base>.2.aux, ... written by multibib-style packages, stopping at the first
// missing number. A missing main file yields an empty Info rather than an
// error, since the compiler may not have produced it yet.
func ScanAll(mainAux string, onlyChildren bool) ([]Info, error) {
	var result []Info
	if !onlyChildren {
		info, err := Scan(mainAux)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		result = append(result, info)
	}

	base := strings.TrimSuffix(mainAux, filepath.Ext(mainAux))
	for n := 1; ; n++ {
		child := base + "." + strconv.Itoa(n) + ".aux"
		if _, err := os.Stat(child); err != nil {
			break
		}
		info, err := Scan(child)
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}
	return result, nil
}

// SetsEqual compares two scan results element by element.
func SetsEqual(a, b []Info) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func scanInto(path string, info *Info, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%s: %w", path, ErrTooDeep)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, raw := range strings.Split(string(data), "\n") {
		line := texenc.Line(raw)
		if m := citationRe.FindStringSubmatch(line); m != nil {
			for _, key := range splitList(m[1]) {
				info.Citations[key] = struct{}{}
			}
		} else if m := bibdataRe.FindStringSubmatch(line); m != nil {
			for _, db := range splitList(m[1]) {
				info.Databases[withExt(db, ".bib")] = struct{}{}
			}
		} else if m := bibstyleRe.FindStringSubmatch(line); m != nil {
			style := strings.TrimSpace(m[1])
			if style != "" {
				info.Styles[withExt(style, ".bst")] = struct{}{}
			}
		} else if m := inputRe.FindStringSubmatch(line); m != nil {
			child := m[1]
			if !filepath.IsAbs(child) {
				child = filepath.Join(filepath.Dir(path), child)
			}
			err := scanInto(child, info, depth+1)
			if errors.Is(err, ErrTooDeep) {
				return err
			}
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func withExt(name, ext string) string {
	if strings.HasSuffix(name, ext) {
		return name
	}
	return name + ext
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
