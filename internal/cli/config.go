package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"texbuild/internal/build"
	"texbuild/internal/config"
	"texbuild/internal/paths"
)

var configInitForce bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create texbuild configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <doc.tex>",
		Short: "Print the effective configuration of a document in YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default texbuild.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
	cmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <doc.tex>",
		Short: "Check a document's configuration for mistakes",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigValidate,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	doc, err := build.LoadDocument(args[0], configPath)
	if err != nil {
		return err
	}

	data, err := doc.Config.Marshal()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# source: %s\n", doc.ConfigSource)
	fmt.Fprint(out, string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	target := configPath
	if target == "" {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		target = filepath.Join(dir, paths.ConfigFileName)
	}

	if _, err := os.Stat(target); err == nil {
		if !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	data, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	doc, err := build.LoadDocument(args[0], configPath)
	if err != nil {
		return err
	}
	results := doc.Config.ValidateStrict(doc.Paths.Dir)

	errorCount := 0
	for _, r := range results {
		if r.Level == "error" {
			errorCount++
		}
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		payload := struct {
			Config  string                    `json:"config"`
			Results []config.ValidationResult `json:"results"`
		}{Config: doc.ConfigSource, Results: results}
		if payload.Results == nil {
			payload.Results = []config.ValidationResult{}
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "config: %s\n", doc.ConfigSource)
		if len(results) == 0 {
			fmt.Fprintln(out, "no problems found")
		}
		for _, r := range results {
			fmt.Fprintf(out, "%s: %s\n", r.Level, r.Message)
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("config has %d error(s)", errorCount)
	}
	return nil
}
