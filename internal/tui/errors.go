package tui

import (
	"fmt"
	"strings"

	"texbuild/internal/texlog"
)

// FormatErrors renders errs as "file:line: description" entries followed by
// their indented context. With styled false no escape sequences are written.
func FormatErrors(source string, errs texlog.Errors, styled bool) string {
	var b strings.Builder
	for _, e := range errs {
		loc := source
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d", source, e.Line)
		}
		head := fmt.Sprintf("%s: %s", loc, e.Description)
		if styled {
			head = ErrorStyle.Render(head)
		}
		b.WriteString(head)
		b.WriteByte('\n')
		for _, line := range strings.Split(strings.TrimRight(e.Text, "\n"), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if styled {
				line = FaintStyle.Render(line)
			}
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
