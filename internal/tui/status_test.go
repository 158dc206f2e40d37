package tui

import (
	"strings"
	"testing"
	"time"
)

func TestStatusLineRender(t *testing.T) {
	start := time.Now()
	sl := &StatusLine{name: "thesis.tex", phase: StatusPending, phaseStart: start}

	idle := sl.render(0, start.Add(20*time.Millisecond))
	for _, want := range []string{"thesis.tex", "pending", "(20ms)"} {
		if !strings.Contains(idle, want) {
			t.Errorf("idle line %q missing %q", idle, want)
		}
	}
	if strings.Contains(idle, "pass") {
		t.Errorf("idle line %q shows a pass number", idle)
	}

	sl.Message("Waiting for LaTeX run number 2")
	sl.Message("Running BibTeX.")
	got := sl.render(1, sl.phaseStart.Add(1500*time.Millisecond))
	for _, want := range []string{spinnerFrames[1], "thesis.tex", "pass 2", "bibtex", ": Running BibTeX.", "(1.5s)"} {
		if !strings.Contains(got, want) {
			t.Errorf("line %q missing %q", got, want)
		}
	}
}

func TestStatusLineStop(t *testing.T) {
	var b strings.Builder
	sl := &StatusLine{w: &b, done: make(chan struct{})}
	sl.Stop()
	sl.Stop()
	if got := b.String(); got != "\r\033[K" {
		t.Errorf("got %q, want one clear sequence", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		250 * time.Millisecond:  "250ms",
		2500 * time.Millisecond: "2.5s",
		42 * time.Second:        "42s",
		125 * time.Second:       "2m05s",
	}
	for in, want := range tests {
		if got := formatElapsed(in); got != want {
			t.Errorf("formatElapsed(%v) = %q, want %q", in, got, want)
		}
	}
}
