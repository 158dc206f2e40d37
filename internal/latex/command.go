package latex

import (
	"fmt"
	"strings"
)

const (
	inputPlaceholder    = "$$i"
	languagePlaceholder = "$$lang"
)

// compilerArgv expands a compiler template. Every field holding $$i gets the
// source name; a template without $$i has the name appended.
func compilerArgv(template, source string) (string, []string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty compiler command")
	}
	hasInput := false
	for i, f := range fields {
		if strings.Contains(f, inputPlaceholder) {
			fields[i] = strings.ReplaceAll(f, inputPlaceholder, source)
			hasInput = true
		}
	}
	if !hasInput {
		fields = append(fields, source)
	}
	return fields[0], fields[1:], nil
}

// toolArgv expands a satellite tool template and appends args.
func toolArgv(template, language string, args ...string) (string, []string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty tool command")
	}
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, languagePlaceholder, language)
	}
	fields = append(fields, args...)
	return fields[0], fields[1:], nil
}
