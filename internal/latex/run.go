package latex

import (
	"context"
	"fmt"

	"texbuild/internal/auxinfo"
	"texbuild/internal/deplog"
	"texbuild/internal/deptable"
	"texbuild/internal/paths"
	"texbuild/internal/runner"
	"texbuild/internal/texlog"
)

// Run compiles the document as often as needed and runs the index,
// nomenclature, glossary and bibliography tools in between. Problems the
// compiler reports come back in the status and errs; the error return is
// reserved for failures to run the tools at all.
func (c *Controller) Run(ctx context.Context, errs *texlog.Errors, opts Options) (texlog.Status, error) {
	c.count = 0
	c.numErrors = 0
	errs.Clear()
	c.logger.Printf("latex: %s flavor=%s language=%s nice=%v", c.paths.Source, c.params.Flavor, c.params.Language, c.params.Nice)

	depFile := c.paths.DepFile(c.params.Flavor)
	if opts.CleanStart {
		c.removeFile(depFile)
		c.removeSidecars(paths.DerivedSidecars)
	}

	head := deptable.New(c.logger)
	hadDep := false
	if ok, _ := paths.FileExists(depFile); ok {
		if err := head.Read(depFile); err != nil {
			c.logger.Printf("latex: ignoring dependency file: %v", err)
		} else {
			hadDep = true
		}
	}

	runBibtex := false
	if hadDep {
		head.Update()
		// The output may be missing because the last run aborted; compile
		// again to collect the errors even if nothing changed.
		if ok, _ := paths.FileExists(c.paths.OutputFile(c.params.Flavor)); !ok {
			c.logger.Printf("latex: output missing, compiling")
		} else if !head.SumChange() {
			c.logger.Printf("latex: no change")
			return texlog.NoChange, nil
		}
		runBibtex = head.ExtensionChanged(".bib") || head.ExtensionChanged(".bst")
	}

	mainAux := c.paths.File(".aux")
	var infoBefore []auxinfo.Info
	if !runBibtex {
		infoBefore = c.scanAux(mainAux)
	}

	scan, err := c.compile(ctx, errs)
	if err != nil {
		return scan.Status, err
	}
	if scan.Status.Has(texlog.ErrorRerun) {
		c.logger.Printf("latex: rerunning to resolve forced rerun")
		errs.Clear()
		if scan, err = c.pass(ctx, errs); err != nil {
			return scan.Status, err
		}
	}
	if scan.Status.Has(texlog.AnyError) {
		c.deleteFilesOnError()
		return scan.Status, nil
	}

	info := c.scanAux(mainAux)
	if !runBibtex && !auxinfo.SetsEqual(infoBefore, info) {
		runBibtex = true
	}
	c.deplog(head)
	head.Update()

	var toolStatus texlog.Status
	rerun, st, err := c.runAuxTools(ctx, head, errs, true)
	toolStatus |= st
	if err != nil {
		return scan.Status | toolStatus, err
	}

	biber := c.usesBiber(head)
	if scan.Status.Has(texlog.UndefCitation) || runBibtex {
		c.message("Running BibTeX.")
		c.updateBibtexDependencies(ctx, head, info, biber)
		ran, st, err := c.runBibTeX(ctx, head, info, errs, biber)
		toolStatus |= st
		if err != nil {
			return scan.Status | toolStatus, err
		}
		rerun = rerun || ran
	} else if !hadDep {
		// A previous build in the other flavor may already have run the
		// bibliography tool; the databases still need tracking.
		c.updateBibtexDependencies(ctx, head, info, biber)
	}

	if rerun || head.SumChange() {
		rerun = false
		if scan, err = c.compile(ctx, errs); err != nil {
			return scan.Status | toolStatus, err
		}
		if scan.Status.Has(texlog.AnyError) {
			c.deleteFilesOnError()
			return scan.Status | toolStatus, nil
		}
		c.deplog(head)
		head.Update()
	}

	// Bibliography packages such as biblatex sometimes need a second cycle.
	if scan.Status.Has(texlog.UndefCitation) {
		info = c.scanAux(mainAux)
		c.message("Running BibTeX.")
		c.updateBibtexDependencies(ctx, head, info, biber)
		ran, st, err := c.runBibTeX(ctx, head, info, errs, biber)
		toolStatus |= st
		if err != nil {
			return scan.Status | toolStatus, err
		}
		rerun = rerun || ran
	}

	// Output of the tools may have moved page numbers; rerun them if the
	// compiler regenerated their input.
	again, st, err := c.runAuxTools(ctx, head, errs, false)
	toolStatus |= st
	if err != nil {
		return scan.Status | toolStatus, err
	}
	rerun = rerun || again

	for (head.SumChange() || rerun || scan.Status.Has(texlog.Rerun)) && c.count < MaxRuns {
		rerun = false
		if scan, err = c.compile(ctx, errs); err != nil {
			return scan.Status | toolStatus, err
		}
		if scan.Status.Has(texlog.AnyError) {
			c.deleteFilesOnError()
			return scan.Status | toolStatus, nil
		}
		c.deplog(head)
		head.Update()
	}

	if err := head.Write(depFile); err != nil {
		return scan.Status | toolStatus, fmt.Errorf("write dependency file: %w", err)
	}
	c.logger.Printf("latex: done after %d runs: %s", c.count, scan.Status|toolStatus)
	return scan.Status | toolStatus, nil
}

// compile is one counted compiler invocation.
func (c *Controller) compile(ctx context.Context, errs *texlog.Errors) (texlog.Result, error) {
	c.count++
	c.message(fmt.Sprintf("Waiting for LaTeX run number %d", c.count))
	return c.pass(ctx, errs)
}

// pass invokes the compiler and scans its log.
func (c *Controller) pass(ctx context.Context, errs *texlog.Errors) (texlog.Result, error) {
	if c.includes != nil {
		c.includes.UpdateIncluded(c.paths.Dir)
	}
	name, args, err := compilerArgv(c.command, c.paths.SourceName())
	if err != nil {
		return texlog.Result{}, err
	}
	res, err := c.runner.Run(ctx, name, args, runner.Options{Dir: c.paths.Dir, Env: c.env})
	if err != nil {
		return texlog.Result{}, fmt.Errorf("run %s: %w", name, err)
	}
	if res.ExitCode != 0 {
		c.logger.Printf("latex: %s exited with status %d", name, res.ExitCode)
	}

	result := texlog.ScanFile(c.paths.File(".log"), errs)
	c.numErrors = result.NumErrors
	c.logger.Printf("latex: log scan: %s (%d errors)", result.Status, result.NumErrors)
	return result, nil
}

func (c *Controller) deplog(head *deptable.Table) {
	opts := deplog.Options{Dir: c.paths.Dir, MainFile: c.paths.Source, Logger: c.logger}
	if err := deplog.ScanFile(c.paths.File(".log"), head, opts); err != nil {
		c.logger.Printf("latex: %v", err)
		head.Insert(c.paths.Source, true)
	}
}

func (c *Controller) scanAux(mainAux string) []auxinfo.Info {
	infos, err := auxinfo.ScanAll(mainAux, c.params.OnlyChildBibs)
	if err != nil {
		c.logger.Printf("latex: scan %s: %v", mainAux, err)
	}
	return infos
}
