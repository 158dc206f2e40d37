package tui

import (
	"strconv"
	"strings"

	"texbuild/internal/texlog"
)

const runMessagePrefix = "Waiting for LaTeX run number "

// PhaseStatus maps a controller message to the phase it starts.
func PhaseStatus(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Running BibTeX"):
		return StatusBibTeX
	case strings.HasPrefix(msg, "Running"):
		return StatusIndex
	default:
		return StatusCompiling
	}
}

// RunNumber extracts n from "Waiting for LaTeX run number n".
func RunNumber(msg string) (int, bool) {
	rest, ok := strings.CutPrefix(msg, runMessagePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Outcome is the terminal status of a finished build.
func Outcome(status texlog.Status, upToDate bool, err error) string {
	switch {
	case err != nil || status.Has(texlog.AnyError|texlog.BibtexError|texlog.IndexError):
		return StatusError
	case upToDate || status == texlog.NoChange:
		return StatusUpToDate
	case status.Has(texlog.AnyWarning | texlog.UndefCitation | texlog.UndefReference):
		return StatusWarnings
	default:
		return StatusDone
	}
}

// outcomeDetail summarises a finished build in a few words.
func outcomeDetail(msg FinishedMsg) string {
	switch {
	case msg.Err != nil:
		return msg.Err.Error()
	case msg.UpToDate || msg.Status == texlog.NoChange:
		return "no change"
	case msg.Status == texlog.NoErrors:
		return "clean"
	default:
		return msg.Status.String()
	}
}
