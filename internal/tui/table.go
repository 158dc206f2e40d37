package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const tickInterval = 150 * time.Millisecond

const (
	nameWidth   = 28
	phaseWidth  = 10
	passWidth   = 4
	errorsWidth = 6
	detailWidth = 40
)

type tickMsg time.Time

// documentRow is the live state of one document.
type documentRow struct {
	key     string
	name    string
	phase   string
	pass    int
	errors  int
	message string
	done    bool
}

// BuildTable is a bubbletea model with one row per document: its phase,
// the compiler pass it is on, the errors found and the latest controller
// message. Finished rows show the log status flags instead of the message.
type BuildTable struct {
	title string
	rows  []documentRow
	index map[string]int
	done  bool
	err   error
	tick  int
}

// NewBuildTable returns an empty table.
func NewBuildTable(title string) BuildTable {
	return BuildTable{title: title, index: map[string]int{}}
}

// AddDocument adds a pending row. Call it before the program starts.
func (m *BuildTable) AddDocument(key, name string) {
	m.index[key] = len(m.rows)
	m.rows = append(m.rows, documentRow{key: key, name: name, phase: StatusPending})
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m BuildTable) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m BuildTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case PhaseMsg:
		if row := m.row(msg.Key); row != nil && !row.done {
			row.phase = PhaseStatus(msg.Message)
			row.message = msg.Message
			if n, ok := RunNumber(msg.Message); ok {
				row.pass = n
			}
		}
		return m, nil

	case FinishedMsg:
		if row := m.row(msg.Key); row != nil {
			row.done = true
			row.phase = Outcome(msg.Status, msg.UpToDate, msg.Err)
			row.pass = msg.Runs
			row.errors = msg.Errors
			row.message = outcomeDetail(msg)
		}
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// row returns the row for key, or nil. The pointer aliases m.rows, which the
// value receiver of Update shares with its returned copy.
func (m BuildTable) row(key string) *documentRow {
	i, ok := m.index[key]
	if !ok {
		return nil
	}
	return &m.rows[i]
}

// View satisfies the tea.Model interface.
func (m BuildTable) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}
	header := []string{
		pad("DOCUMENT", nameWidth), pad("PHASE", phaseWidth),
		pad("PASS", passWidth), pad("ERRORS", errorsWidth), "DETAIL",
	}
	for i, h := range header {
		header[i] = HeaderStyle.Render(h)
	}
	b.WriteString(strings.Join(header, "  "))
	b.WriteByte('\n')

	for _, row := range m.rows {
		b.WriteString(m.renderRow(row))
		b.WriteByte('\n')
	}

	finished, passes, failed := m.counts()
	if m.done {
		fmt.Fprintf(&b, "\n%d/%d finished, %d compiler passes, %d failed\n", finished, len(m.rows), passes, failed)
	} else {
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s Building %d/%d, %d compiler passes so far\n", spinner, finished, len(m.rows), passes)
	}
	return b.String()
}

func (m BuildTable) renderRow(row documentRow) string {
	pass := "-"
	if row.pass > 0 {
		pass = strconv.Itoa(row.pass)
	}
	errs := pad(strconv.Itoa(row.errors), errorsWidth)
	if row.errors > 0 {
		errs = ErrorStyle.Render(errs)
	}

	detail := row.message
	switch {
	case !row.done && len(detail) > detailWidth:
		detail = marqueeText(detail, detailWidth, m.tick)
	default:
		detail = TruncateWithEllipsis(detail, detailWidth)
	}
	if row.phase == StatusPending {
		detail = FaintStyle.Render(NonEmptyOrDash(detail))
	}

	return strings.Join([]string{
		pad(TruncateWithEllipsis(row.name, nameWidth), nameWidth),
		StatusStyle(row.phase).Render(pad(row.phase, phaseWidth)),
		pad(pass, passWidth),
		errs,
		detail,
	}, "  ")
}

// counts returns the finished rows, the compiler passes over every row and
// the failed rows.
func (m BuildTable) counts() (finished, passes, failed int) {
	for _, row := range m.rows {
		passes += row.pass
		if !row.done {
			continue
		}
		finished++
		if row.phase == StatusError {
			failed++
		}
	}
	return finished, passes, failed
}

// Done returns whether the model has finished (work done or error).
func (m BuildTable) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m BuildTable) Err() error {
	return m.err
}
