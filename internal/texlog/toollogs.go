package texlog

import (
	"os"
	"regexp"
	"strings"

	"texbuild/internal/texenc"
)

var (
	blgDataFileRe = regexp.MustCompile(`^.*Found (?:bibtex|BibTeX) data (?:file|source) '([^']+).*$`)
	blgDatabaseRe = regexp.MustCompile(`^Database file #[0-9]+: (.+)$`)
	blgErrorRes   = []*regexp.Regexp{
		regexp.MustCompile(`^(.*---line [0-9]+ of file).*$`),
		regexp.MustCompile(`^(.*---while reading file).*$`),
		regexp.MustCompile(`^(Sorry---you've exceeded BibTeX's).*$`),
		regexp.MustCompile(`^\*Please notify the BibTeX maintainer\*$`),
	}
	blgCrossRefRe = regexp.MustCompile(`^(A bad cross reference---).*$`)
	biberErrorRe  = regexp.MustCompile(`^.*> (FATAL|ERROR) - (.*)$`)
)

// ScanBlg scans a BibTeX or Biber log. Database files the tool reports
// reading are passed to onFile (which may be nil); errors are recorded with
// line 0 and set BibtexError.
func ScanBlg(path string, errs *Errors, onFile func(name string)) Status {
	lines, err := readLines(path)
	if err != nil {
		return NoErrors
	}

	status := NoErrors
	prev := ""
	for _, token := range lines {
		switch {
		case blgDataFileRe.MatchString(token):
			if m := blgDataFileRe.FindStringSubmatch(token); m[1] != "" && onFile != nil {
				onFile(m[1])
			}
		case blgDatabaseRe.MatchString(token):
			if m := blgDatabaseRe.FindStringSubmatch(token); onFile != nil {
				onFile(strings.TrimSpace(m[1]))
			}
		case matchesAny(token, blgErrorRes):
			status |= BibtexError
			desc := "BibTeX error: " + token
			msg := token
			if prev != "" && (strings.HasPrefix(token, "while executing---line") ||
				strings.HasPrefix(token, "---line ") ||
				strings.HasPrefix(token, "*Please notify the BibTeX")) {
				desc = "BibTeX error: " + prev
				msg = prev + "\n" + token
			}
			errs.Insert(0, desc, msg)
		case blgCrossRefRe.MatchString(prev):
			status |= BibtexError
			errs.Insert(0, "BibTeX error: "+prev, prev+"\n"+token)
		case biberErrorRe.MatchString(token):
			m := biberErrorRe.FindStringSubmatch(token)
			status |= BibtexError
			errs.Insert(0, "Biber error: "+m[2], token)
		}
		prev = token
	}
	return status
}

// ScanIlg scans a makeindex (or xindy) log. A "!! " line followed by its
// detail line records one error and sets IndexError.
func ScanIlg(path string, errs *Errors) Status {
	lines, err := readLines(path)
	if err != nil {
		return NoErrors
	}

	status := NoErrors
	pending := ""
	for _, token := range lines {
		switch {
		case strings.HasPrefix(token, "!! "):
			pending = token
		case pending != "":
			status |= IndexError
			errs.Insert(0, "Makeindex error: "+pending, pending+"\n"+token)
			pending = ""
		case strings.HasPrefix(token, "ERROR: "):
			status |= IndexError
			errs.Insert(0, "Xindy error: "+strings.TrimPrefix(token, "ERROR: "), token)
		}
	}
	return status
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := strings.Split(string(data), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, texenc.Line(l))
	}
	return lines, nil
}

func matchesAny(s string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
