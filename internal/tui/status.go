package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StatusLine is the message sink of a single-document build. It keeps one
// line on the terminal showing the document, the compiler pass, the current
// phase and how long the phase has been running.
type StatusLine struct {
	w    io.Writer
	name string

	mu         sync.Mutex
	phase      string
	pass       int
	message    string
	phaseStart time.Time

	done    chan struct{}
	stopped bool
}

// NewStatusLine starts redrawing the line for document name every 100ms.
func NewStatusLine(w io.Writer, name string) *StatusLine {
	sl := &StatusLine{
		w:          w,
		name:       name,
		phase:      StatusPending,
		phaseStart: time.Now(),
		done:       make(chan struct{}),
	}
	go sl.loop()
	return sl
}

// Message implements latex.Sink.
func (sl *StatusLine) Message(msg string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.message = msg
	sl.phase = PhaseStatus(msg)
	if n, ok := RunNumber(msg); ok {
		sl.pass = n
	}
	sl.phaseStart = time.Now()
}

// Stop clears the line. It is safe to call more than once.
func (sl *StatusLine) Stop() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.stopped {
		return
	}
	sl.stopped = true
	close(sl.done)
	fmt.Fprint(sl.w, "\r\033[K")
}

func (sl *StatusLine) loop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for tick := 0; ; tick++ {
		select {
		case <-sl.done:
			return
		case <-ticker.C:
			sl.draw(tick)
		}
	}
}

func (sl *StatusLine) draw(tick int) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.stopped {
		return
	}
	fmt.Fprintf(sl.w, "\r\033[K%s", sl.render(tick, time.Now()))
}

// render formats the line as
// "<spinner> <name>  pass <n>  <phase>: <message> (<elapsed>)".
// The caller holds sl.mu.
func (sl *StatusLine) render(tick int, now time.Time) string {
	line := spinnerFrames[tick%len(spinnerFrames)] + " " + sl.name
	if sl.pass > 0 {
		line += fmt.Sprintf("  pass %d", sl.pass)
	}
	line += "  " + StatusStyle(sl.phase).Render(sl.phase)
	if sl.message != "" {
		line += ": " + sl.message
	}
	return line + fmt.Sprintf(" (%s)", formatElapsed(now.Sub(sl.phaseStart)))
}

// formatElapsed formats a duration for display in the status line.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
