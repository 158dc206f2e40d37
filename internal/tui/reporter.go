package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"texbuild/internal/latex"
)

// DocumentReporter forwards the controller messages of one document to its
// row in the build table.
type DocumentReporter struct {
	send func(tea.Msg)
	key  string
}

var _ latex.Sink = (*DocumentReporter)(nil)

// NewDocumentReporter constructs a reporter for the row identified by key.
func NewDocumentReporter(send func(tea.Msg), key string) *DocumentReporter {
	return &DocumentReporter{send: send, key: key}
}

// Message implements latex.Sink.
func (r *DocumentReporter) Message(msg string) {
	r.send(PhaseMsg{Key: r.key, Message: msg})
}

// Finish records the outcome of the document's build.
func (r *DocumentReporter) Finish(msg FinishedMsg) {
	msg.Key = r.key
	r.send(msg)
}
