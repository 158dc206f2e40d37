package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"texbuild/internal/build"
	"texbuild/internal/deptable"
	"texbuild/internal/paths"
)

var depsFlavor string

func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps <doc.tex>",
		Short: "List the files the last build depended on and which changed since",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeps,
	}
	cmd.Flags().StringVar(&depsFlavor, "flavor", "", "Dependency file flavor: dvi or pdf (defaults to the config)")
	return cmd
}

func runDeps(cmd *cobra.Command, args []string) error {
	doc, err := build.LoadDocument(args[0], configPath)
	if err != nil {
		return err
	}
	flavor, err := parseFlavorFlag(depsFlavor)
	if err != nil {
		return err
	}
	if flavor == "" {
		flavor = doc.Config.Flavor
	}

	depFile := doc.Paths.DepFile(flavor)
	exists, err := paths.FileExists(depFile)
	if err != nil {
		return fmt.Errorf("stat dependency file: %w", err)
	}
	if !exists {
		return fmt.Errorf("no dependency file at %s; run `texbuild build` first", depFile)
	}

	table := deptable.New(nil)
	if err := table.Read(depFile); err != nil {
		return fmt.Errorf("read dependency file: %w", err)
	}
	table.Update()
	entries := table.Entries()

	out := cmd.OutOrStdout()
	if outputJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("encode deps json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCHECKSUM\tMODIFIED\tCHANGED")
	changed := 0
	for _, e := range entries {
		mark := ""
		if e.Changed {
			mark = "yes"
			changed++
		}
		modified := "-"
		if !e.ModTime.IsZero() {
			modified = e.ModTime.Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%016x\t%s\t%s\n", displayPath(e.Path), e.Checksum, modified, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d file(s) tracked, %d changed since the last build\n", len(entries), changed)
	return nil
}
