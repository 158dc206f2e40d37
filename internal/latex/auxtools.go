package latex

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"texbuild/internal/auxinfo"
	"texbuild/internal/deptable"
	"texbuild/internal/paths"
	"texbuild/internal/runner"
	"texbuild/internal/texlog"
)

// auxTool is a makeindex-style post-processor: it turns <base><inputExt>
// into <base><outputExt>.
type auxTool struct {
	message   string
	inputExt  string
	outputExt string
	logExt    string
	command   string
	// rerunIfEmpty asks for another compiler pass when the input exists but
	// is empty; some classes pre-create an empty index file.
	rerunIfEmpty bool
	// runIfEmpty runs the tool when the input exists but is empty, which is
	// how an emptied nomenclature shows up.
	runIfEmpty bool
}

func (c *Controller) auxTools() []auxTool {
	return []auxTool{
		{
			message:      "Running Index Processor.",
			inputExt:     ".idx",
			outputExt:    ".ind",
			logExt:       ".ilg",
			command:      c.tools.Index,
			rerunIfEmpty: true,
		},
		{
			message:    "Running MakeIndex for nomencl.",
			inputExt:   ".nlo",
			outputExt:  ".nls",
			command:    c.tools.Nomencl,
			runIfEmpty: true,
		},
		{
			message:    "Running MakeIndex for glossaries.",
			inputExt:   ".glo",
			outputExt:  ".gls",
			command:    c.tools.Glossary,
			runIfEmpty: true,
		},
	}
}

// runAuxTools runs every post-processor whose input changed. The first check
// after a compiler pass also honours the empty-input rules.
func (c *Controller) runAuxTools(ctx context.Context, head *deptable.Table, errs *texlog.Errors, first bool) (bool, texlog.Status, error) {
	var (
		rerun  bool
		status texlog.Status
	)
	for _, tool := range c.auxTools() {
		input := c.paths.File(tool.inputExt)
		empty := fileIsEmpty(input)
		if first && tool.rerunIfEmpty && empty {
			rerun = true
		}
		if !head.HasChanged(input) && !(first && tool.runIfEmpty && empty) {
			continue
		}
		if strings.TrimSpace(tool.command) == "" {
			c.logger.Printf("latex: no command configured for %s files", tool.inputExt)
			continue
		}

		c.message(tool.message)
		name, args, err := toolArgv(tool.command, c.params.Language,
			c.paths.Base+tool.inputExt, "-o", c.paths.Base+tool.outputExt)
		if err != nil {
			return rerun, status, err
		}
		if err := c.runTool(ctx, name, args); err != nil {
			return rerun, status, err
		}
		if tool.logExt != "" {
			if ok, _ := paths.FileExists(c.paths.File(tool.logExt)); ok {
				status |= texlog.ScanIlg(c.paths.File(tool.logExt), errs)
			}
		}
		rerun = true
	}
	return rerun, status, nil
}

func (c *Controller) runTool(ctx context.Context, name string, args []string) error {
	res, err := c.runner.Run(ctx, name, args, runner.Options{Dir: c.paths.Dir, Env: c.env})
	if err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	if res.ExitCode != 0 {
		c.logger.Printf("latex: %s exited with status %d", name, res.ExitCode)
	}
	return nil
}

// usesBiber reports whether the bibliography is processed by biber, which
// leaves no trace in the aux file but writes a .bcf control file.
func (c *Controller) usesBiber(head *deptable.Table) bool {
	if head.ExistsWithExtension(".bcf") {
		return true
	}
	fields := strings.Fields(c.tools.BibTeX)
	return len(fields) > 0 && strings.HasPrefix(filepath.Base(fields[0]), "biber")
}

// updateBibtexDependencies replaces the tracked databases and styles with
// the ones the aux files reference now.
func (c *Controller) updateBibtexDependencies(ctx context.Context, head *deptable.Table, infos []auxinfo.Info, biber bool) {
	head.RemoveFilesWithExtension(".bib")
	head.RemoveFilesWithExtension(".bst")
	for _, info := range infos {
		dir := filepath.Dir(info.AuxFile)
		for _, name := range append(info.SortedDatabases(), info.SortedStyles()...) {
			if p, ok := c.resolver.Find(ctx, name, dir); ok {
				head.Insert(p, true)
			} else {
				c.logger.Printf("latex: cannot find %s", name)
			}
		}
	}
	if biber {
		var discard texlog.Errors
		texlog.ScanBlg(c.paths.File(".blg"), &discard, c.insertDataFile(ctx, head))
	}
}

func (c *Controller) insertDataFile(ctx context.Context, head *deptable.Table) func(string) {
	return func(name string) {
		if p, ok := c.resolver.Find(ctx, name, c.paths.Dir); ok {
			head.Insert(p, true)
		}
	}
}

// runBibTeX runs the bibliography tool once per aux file that references a
// database (every aux file under biber). It reports whether the tool ran.
func (c *Controller) runBibTeX(ctx context.Context, head *deptable.Table, infos []auxinfo.Info, errs *texlog.Errors, biber bool) (bool, texlog.Status, error) {
	if strings.TrimSpace(c.tools.BibTeX) == "" {
		c.logger.Printf("latex: no bibliography command configured")
		return false, texlog.NoErrors, nil
	}

	var blgs []string
	for _, info := range infos {
		if !biber && len(info.Databases) == 0 {
			continue
		}
		blgs = append(blgs, strings.TrimSuffix(info.AuxFile, ".aux")+".blg")

		rel, err := filepath.Rel(c.paths.Dir, info.AuxFile)
		if err != nil {
			rel = filepath.Base(info.AuxFile)
		}
		name, args, err := toolArgv(c.tools.BibTeX, c.params.Language, strings.TrimSuffix(rel, ".aux"))
		if err != nil {
			return len(blgs) > 0, texlog.NoErrors, err
		}
		res, err := c.runner.Run(ctx, name, args, runner.Options{Dir: c.paths.Dir, Env: c.env})
		if err != nil {
			return len(blgs) > 0, texlog.NoErrors, fmt.Errorf("run %s: %w", name, err)
		}
		if res.ExitCode != 0 {
			c.logger.Printf("latex: %s exited with status %d", name, res.ExitCode)
			break
		}
	}

	// Each aux file gets its own transcript next to it.
	status := texlog.NoErrors
	for _, blg := range blgs {
		if ok, _ := paths.FileExists(blg); ok {
			status |= texlog.ScanBlg(blg, errs, c.insertDataFile(ctx, head))
		}
	}
	return len(blgs) > 0, status, nil
}
