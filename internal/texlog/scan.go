package texlog

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"texbuild/internal/texenc"
)

const (
	// lookahead is how many lines after a "! " error are searched for the
	// "l.<n>" line that locates it.
	lookahead = 10
	// maxSameLine mirrors TeX's own cascade behaviour: once one source line
	// has produced this many consecutive errors, further ones for that line
	// are counted but not recorded.
	maxSameLine = 5
)

var fileLineErrorRe = regexp.MustCompile(`^.+\.\D+:[0-9]+: (.+)$`)

// Result is the outcome of a log scan.
type Result struct {
	Status    Status
	NumErrors int
}

// scanState is the order-dependent part of a scan. Every scan starts from a
// zero value.
type scanState struct {
	fileLineErrors bool
	lastLine       int
	sameLineCount  int
}

// ScanFile scans the compiler transcript at path. A missing log yields
// NoLogFile.
func ScanFile(path string, errs *Errors) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{Status: NoLogFile}
	}
	defer f.Close()
	return Scan(f, errs)
}

// Scan classifies every line of a compiler transcript and records TeX errors
// in errs.
func Scan(r io.Reader, errs *Errors) Result {
	var (
		st  scanState
		res Result
		lr  = newLineReader(r)
	)

	for {
		token, ok := lr.next()
		if !ok {
			break
		}
		if token == "" {
			continue
		}

		if strings.Contains(token, "file:line:error style messages enabled") {
			st.fileLineErrors = true
		}

		switch {
		case strings.HasPrefix(token, "LaTeX Warning:") || strings.HasPrefix(token, "! pdfTeX warning"):
			res.Status |= LatexWarning
			if strings.Contains(token, "Rerun to get cross-references") {
				res.Status |= Rerun
			}
			if containsAll(token, "Value of", "on page", "undefined") {
				res.Status |= ErrorRerun
			}
			if containsAll(token, "Citation", "on page", "undefined") {
				res.Status |= UndefCitation
			}
			if containsAll(token, "Reference", "on page", "undefined") {
				res.Status |= UndefReference
			}

		case strings.HasPrefix(token, "Package"):
			res.Status |= PackageWarning
			switch {
			case strings.Contains(token, "natbib Warning:"):
				if containsAll(token, "Citation", "on page", "undefined") {
					res.Status |= UndefCitation
				}
			case strings.Contains(token, "run BibTeX"):
				res.Status |= UndefCitation
			case rerunRequested(token):
				res.Status |= Rerun
			}

		case token[0] == '(':
			if rerunRequested(token) {
				res.Status |= Rerun
			}
			if strings.Contains(token, "That makes 100 errors") {
				res.Status |= TooManyErrors
			}

		case strings.HasPrefix(token, "! ") || (st.fileLineErrors && fileLineErrorRe.MatchString(token)):
			scanError(token, lr, &st, &res, errs)

		default:
			switch {
			case strings.HasPrefix(token, "Overfull ") || strings.HasPrefix(token, "Underfull "):
				res.Status |= TexWarning
			case strings.Contains(token, "Rerun to get citations"):
				res.Status |= UndefCitation
			case strings.Contains(token, "No pages of output"):
				res.Status |= NoOutput
			case strings.Contains(token, "That makes 100 errors"):
				res.Status |= TooManyErrors
			}
		}
	}
	return res
}

// scanError handles a "! ..." line (or a file:line:error line): it looks
// ahead for the "l.<n>" locator and collects the context that follows.
func scanError(token string, lr *lineReader, st *scanState, res *Result, errs *Errors) {
	desc := token
	if strings.HasPrefix(token, "! ") {
		desc = token[2:]
	}
	if strings.Contains(desc, "LaTeX Error:") {
		res.Status |= LatexError
	}

	var (
		locator string
		found   bool
	)
	for i := 0; i < lookahead; i++ {
		tmp, ok := lr.next()
		if !ok {
			break
		}
		if strings.HasPrefix(tmp, "l.") {
			locator, found = tmp, true
			break
		}
		if strings.HasPrefix(tmp, "! ") {
			lr.unread(tmp)
			break
		}
	}

	if !found {
		if strings.Contains(desc, "Emergency stop") || strings.Contains(desc, "Fatal error") {
			res.Status |= TexError
			res.NumErrors++
			errs.Insert(0, desc, token)
		}
		return
	}

	res.Status |= TexError
	line := parseLocator(locator)

	var text strings.Builder
	if sp := strings.IndexByte(locator, ' '); sp >= 0 {
		text.WriteString(locator[sp:])
	}
	text.WriteByte('\n')
	for {
		tmp, ok := lr.next()
		if !ok || tmp == "" || strings.HasPrefix(tmp, "l.") || strings.Contains(tmp, "(job aborted") {
			break
		}
		if strings.HasPrefix(tmp, "! ") {
			lr.unread(tmp)
			break
		}
		text.WriteString(tmp)
		text.WriteByte('\n')
	}

	if line == st.lastLine {
		st.sameLineCount++
	} else {
		st.lastLine = line
		st.sameLineCount = 1
	}
	res.NumErrors++
	if st.sameLineCount <= maxSameLine {
		errs.Insert(line, desc, text.String())
	}
}

// parseLocator extracts n from "l.<n> ...".
func parseLocator(s string) int {
	s = strings.TrimPrefix(s, "l.")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func rerunRequested(token string) bool {
	return strings.Contains(token, "Rerun LaTeX") ||
		strings.Contains(token, "Please rerun LaTeX") ||
		strings.Contains(token, "Rerun to get")
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// lineReader yields normalised lines and supports pushing one line back.
type lineReader struct {
	sc      *bufio.Scanner
	pending []string
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &lineReader{sc: sc}
}

func (lr *lineReader) next() (string, bool) {
	if n := len(lr.pending); n > 0 {
		line := lr.pending[n-1]
		lr.pending = lr.pending[:n-1]
		return line, true
	}
	if !lr.sc.Scan() {
		return "", false
	}
	return texenc.Line(lr.sc.Text()), true
}

func (lr *lineReader) unread(line string) {
	lr.pending = append(lr.pending, line)
}
