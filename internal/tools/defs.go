package tools

import (
	"path/filepath"
	"runtime"
	"strings"

	"texbuild/internal/config"
)

// ToolDefinition names an executable and the roles it plays in a build.
type ToolDefinition struct {
	Name       string
	Executable string
	// VersionSwitch is "--version" for every TeX tool. makeindex rejects it
	// with a usage banner on stderr, which still proves the binary runs.
	VersionSwitch string
	Roles         []string
	// Optional tools are reported but never fail a check.
	Optional bool
}

// Definitions derives the executables to probe from cfg's command
// templates. An executable used for several roles is listed once.
func Definitions(cfg config.Config) []ToolDefinition {
	var defs []ToolDefinition
	index := map[string]int{}
	add := func(template, role string, optional bool) {
		fields := strings.Fields(template)
		if len(fields) == 0 {
			return
		}
		name := filepath.Base(fields[0])
		if i, ok := index[name]; ok {
			defs[i].Roles = append(defs[i].Roles, role)
			defs[i].Optional = defs[i].Optional && optional
			return
		}
		index[name] = len(defs)
		defs = append(defs, ToolDefinition{
			Name:          name,
			Executable:    executableName(fields[0]),
			VersionSwitch: "--version",
			Roles:         []string{role},
			Optional:      optional,
		})
	}

	add(cfg.Commands.LaTeX, "latex", cfg.Flavor != config.FlavorDVI)
	add(cfg.Commands.PDFLaTeX, "pdflatex", cfg.Flavor != config.FlavorPDF)
	add(cfg.Commands.BibTeX, "bibtex", false)
	add(cfg.Commands.Index, "index", true)
	add(cfg.Commands.Nomencl, "nomencl", true)
	add(cfg.Commands.Glossary, "glossary", true)
	add(cfg.Commands.Kpsewhich, "kpsewhich", true)
	return defs
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}
