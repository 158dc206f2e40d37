package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// commandPlaceholders lists the $$ placeholders each template understands.
var commandPlaceholders = map[string][]string{
	"latex":     {"i"},
	"pdflatex":  {"i"},
	"bibtex":    nil,
	"index":     {"lang"},
	"nomencl":   nil,
	"glossary":  nil,
	"kpsewhich": nil,
}

// ValidateStrict runs all strict validations against the config and returns
// structured results. docDir anchors relative search path entries.
func (c Config) ValidateStrict(docDir string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateFlavor()...)
	results = append(results, c.validateCommands()...)
	results = append(results, c.validateSearchPath(docDir)...)
	results = append(results, c.validateWatch()...)
	return results
}

func (c Config) validateFlavor() []ValidationResult {
	if _, err := ParseFlavor(string(c.Flavor)); err != nil {
		return []ValidationResult{{Level: "error", Message: err.Error()}}
	}
	return nil
}

func (c Config) commandTemplates() map[string]string {
	return map[string]string{
		"latex":     c.Commands.LaTeX,
		"pdflatex":  c.Commands.PDFLaTeX,
		"bibtex":    c.Commands.BibTeX,
		"index":     c.Commands.Index,
		"nomencl":   c.Commands.Nomencl,
		"glossary":  c.Commands.Glossary,
		"kpsewhich": c.Commands.Kpsewhich,
	}
}

func (c Config) validateCommands() []ValidationResult {
	var results []ValidationResult
	for _, name := range []string{"latex", "pdflatex", "bibtex", "index", "nomencl", "glossary", "kpsewhich"} {
		tmpl := strings.TrimSpace(c.commandTemplates()[name])
		if tmpl == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("commands.%s is empty", name),
			})
			continue
		}
		known := make(map[string]bool)
		for _, p := range commandPlaceholders[name] {
			known[p] = true
		}
		for _, tok := range extractPlaceholders(tmpl) {
			if !known[tok] {
				results = append(results, ValidationResult{
					Level:   "error",
					Message: fmt.Sprintf("commands.%s contains unknown placeholder $$%s", name, tok),
				})
			}
		}
	}
	return results
}

func (c Config) validateSearchPath(docDir string) []ValidationResult {
	var results []ValidationResult
	for _, dir := range c.SearchPath {
		resolved := dir
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(docDir, resolved)
		}
		info, err := os.Stat(resolved)
		switch {
		case err != nil:
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("search path entry %q not found", dir),
			})
		case !info.IsDir():
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("search path entry %q is not a directory", dir),
			})
		}
	}
	return results
}

func (c Config) validateWatch() []ValidationResult {
	var results []ValidationResult
	if c.Watch.DebounceMS < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: "watch.debounce_ms must be >= 0",
		})
	}
	for _, pattern := range c.Watch.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("watch.ignore pattern %q: %v", pattern, err),
			})
		}
	}
	return results
}

// extractPlaceholders parses $$name placeholders from a command template.
func extractPlaceholders(template string) []string {
	var tokens []string
	for i := 0; i+1 < len(template); {
		if template[i] != '$' || template[i+1] != '$' {
			i++
			continue
		}
		j := i + 2
		for j < len(template) {
			c := template[j]
			if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
				j++
				continue
			}
			break
		}
		if j > i+2 {
			tokens = append(tokens, template[i+2:j])
		}
		i = j
	}
	return tokens
}
