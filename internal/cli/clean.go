package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"texbuild/internal/build"
	"texbuild/internal/config"
	"texbuild/internal/paths"
)

var (
	cleanDryRun bool
	cleanAll    bool
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <doc.tex>...",
		Short: "Remove files derived from documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runClean,
	}

	cmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "List what would be removed without deleting")
	cmd.Flags().BoolVar(&cleanAll, "all", false, "Also remove outputs (.dvi, .pdf) and build logs")

	return cmd
}

type cleanResult struct {
	Removed    int   `json:"removed"`
	FreedBytes int64 `json:"freed_bytes"`
	Skipped    int   `json:"skipped"`
	DryRun     bool  `json:"dry_run"`
}

func runClean(cmd *cobra.Command, args []string) error {
	docs, err := loadDocuments(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result := cleanResult{DryRun: cleanDryRun}
	for _, doc := range docs {
		for _, path := range cleanTargets(doc.Paths, cleanAll) {
			removeSingleFile(path, out, &result)
		}
		if cleanAll {
			removeLogs(doc, out, &result)
		}
	}

	return writeCleanResult(out, result)
}

// cleanTargets lists the derived files of a document: sidecars and both
// dependency files, plus both outputs when all is set.
func cleanTargets(dp paths.DocumentPaths, all bool) []string {
	targets := make([]string, 0, len(paths.DerivedSidecars)+4)
	for _, ext := range paths.DerivedSidecars {
		targets = append(targets, dp.File(ext))
	}
	for _, flavor := range []config.Flavor{config.FlavorDVI, config.FlavorPDF} {
		targets = append(targets, dp.DepFile(flavor))
	}
	if all {
		for _, flavor := range []config.Flavor{config.FlavorDVI, config.FlavorPDF} {
			targets = append(targets, dp.OutputFile(flavor))
		}
	}
	return targets
}

func removeLogs(doc build.Document, out io.Writer, result *cleanResult) {
	matches, err := filepath.Glob(filepath.Join(doc.Paths.LogsDir, doc.Paths.Base+"-*.log"))
	if err != nil {
		return
	}
	for _, path := range matches {
		removeFileEntry(path, out, result)
	}
}

func removeSingleFile(path string, out io.Writer, result *cleanResult) {
	exists, err := paths.FileExists(path)
	if err != nil || !exists {
		return
	}
	removeFileEntry(path, out, result)
}

func removeFileEntry(path string, out io.Writer, result *cleanResult) {
	info, err := os.Stat(path)
	if err != nil {
		result.Skipped++
		return
	}
	size := info.Size()

	if cleanDryRun {
		if !outputJSON {
			fmt.Fprintf(out, "would remove %s (%s)\n", displayPath(path), formatSize(size))
		}
		result.Removed++
		result.FreedBytes += size
		return
	}

	if err := os.Remove(path); err != nil {
		if !outputJSON {
			fmt.Fprintf(out, "error removing %s: %v\n", displayPath(path), err)
		}
		result.Skipped++
		return
	}

	result.Removed++
	result.FreedBytes += size
	if !outputJSON {
		fmt.Fprintf(out, "removed %s (%s)\n", displayPath(path), formatSize(size))
	}
}

func writeCleanResult(out io.Writer, result cleanResult) error {
	if outputJSON {
		return json.NewEncoder(out).Encode(result)
	}

	action := "complete"
	if cleanDryRun {
		action = "(dry run)"
	}
	fmt.Fprintf(out, "\nClean %s: %d removed, %s freed, %d skipped\n",
		action, result.Removed, formatSize(result.FreedBytes), result.Skipped)
	return nil
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
