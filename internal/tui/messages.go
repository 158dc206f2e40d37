package tui

import "texbuild/internal/texlog"

// PhaseMsg carries one controller message for a document.
type PhaseMsg struct {
	Key     string
	Message string
}

// FinishedMsg records the outcome of one document build.
type FinishedMsg struct {
	Key      string
	Status   texlog.Status
	Runs     int
	Errors   int
	UpToDate bool
	Err      error
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
