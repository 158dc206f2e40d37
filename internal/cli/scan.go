package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"texbuild/internal/paths"
	"texbuild/internal/texlog"
	"texbuild/internal/tui"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file.log|file.blg|file.ilg>",
		Short: "Scan a compiler, BibTeX or makeindex log and report what it found",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
}

type scanReport struct {
	File      string        `json:"file"`
	Status    []string      `json:"status"`
	NumErrors int           `json:"num_errors"`
	Errors    texlog.Errors `json:"errors"`
	DataFiles []string      `json:"data_files,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	exists, err := paths.FileExists(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !exists {
		return fmt.Errorf("log file not found: %s", path)
	}

	report := scanReport{File: path}
	var status texlog.Status
	switch strings.ToLower(filepath.Ext(path)) {
	case ".blg":
		status = texlog.ScanBlg(path, &report.Errors, func(name string) {
			report.DataFiles = append(report.DataFiles, name)
		})
		report.NumErrors = len(report.Errors)
	case ".ilg":
		status = texlog.ScanIlg(path, &report.Errors)
		report.NumErrors = len(report.Errors)
	default:
		res := texlog.ScanFile(path, &report.Errors)
		status = res.Status
		report.NumErrors = res.NumErrors
	}
	report.Status = status.Names()
	if report.Errors == nil {
		report.Errors = texlog.Errors{}
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode scan json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "status: %s\n", status)
	fmt.Fprintf(out, "errors: %d", report.NumErrors)
	if report.NumErrors > len(report.Errors) {
		fmt.Fprintf(out, " (%d recorded)", len(report.Errors))
	}
	fmt.Fprintln(out)
	for _, name := range report.DataFiles {
		fmt.Fprintf(out, "data file: %s\n", name)
	}
	if len(report.Errors) > 0 {
		source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".tex"
		fmt.Fprint(out, tui.FormatErrors(source, report.Errors, false))
	}
	return nil
}
