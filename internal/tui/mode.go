package tui

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode describes how build progress is rendered.
type OutputMode int

const (
	// ModeTUI draws the live build table or status line.
	ModeTUI OutputMode = iota
	// ModePlain prints one line per controller message.
	ModePlain
	// ModeJSON prints a single JSON document when the builds finish.
	ModeJSON
)

// DetectMode picks ModeTUI only for an interactive terminal outside CI.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case noProgress || os.Getenv("CI") != "" || !interactive(out):
		return ModePlain
	default:
		return ModeTUI
	}
}

func interactive(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && !strings.EqualFold(term, "dumb")
}
