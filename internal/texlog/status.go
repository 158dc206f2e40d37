package texlog

import "strings"

// Status is the bitmask produced by a log scan.
type Status uint32

const (
	NoErrors  Status = 0
	NoLogFile Status = 1 << (iota - 1)
	NoOutput
	UndefReference
	UndefCitation
	Rerun
	TexError
	TexWarning
	LatexError
	LatexWarning
	PackageWarning
	NoFile
	NoChange
	TooManyErrors
	// ErrorRerun asks for one immediate extra pass before any post-processing.
	ErrorRerun
	BibtexError
	IndexError
)

const (
	AnyError   = TexError | LatexError
	AnyWarning = TexWarning | LatexWarning | PackageWarning
)

var statusNames = []struct {
	bit  Status
	name string
}{
	{NoLogFile, "no-logfile"},
	{NoOutput, "no-output"},
	{UndefReference, "undef-reference"},
	{UndefCitation, "undef-citation"},
	{Rerun, "rerun"},
	{TexError, "tex-error"},
	{TexWarning, "tex-warning"},
	{LatexError, "latex-error"},
	{LatexWarning, "latex-warning"},
	{PackageWarning, "package-warning"},
	{NoFile, "no-file"},
	{NoChange, "no-change"},
	{TooManyErrors, "too-many-errors"},
	{ErrorRerun, "error-rerun"},
	{BibtexError, "bibtex-error"},
	{IndexError, "index-error"},
}

// Has reports whether any bit of mask is set.
func (s Status) Has(mask Status) bool {
	return s&mask != 0
}

// Names lists the set bits in declaration order.
func (s Status) Names() []string {
	var names []string
	for _, sn := range statusNames {
		if s&sn.bit != 0 {
			names = append(names, sn.name)
		}
	}
	return names
}

func (s Status) String() string {
	if s == NoErrors {
		return "ok"
	}
	return strings.Join(s.Names(), "|")
}
