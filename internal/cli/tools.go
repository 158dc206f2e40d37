package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"texbuild/internal/config"
	"texbuild/internal/tools"
	"texbuild/internal/tui"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Check that the configured TeX tools are installed",
		RunE:  runTools,
	}
}

func runTools(cmd *cobra.Command, _ []string) error {
	cfg, err := loadToolsConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	infos := tools.NewProber().Probe(ctx, tools.Definitions(cfg))
	if outputJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printToolTable(cmd, infos)
	}

	if missing := tools.Missing(infos); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, info := range missing {
			names = append(names, info.Name)
		}
		return fmt.Errorf("required tools missing: %s", strings.Join(names, ", "))
	}
	return nil
}

func loadToolsConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func printToolTable(cmd *cobra.Command, infos []tools.ToolInfo) {
	if len(infos) == 0 {
		cmd.Println("(no tools configured)")
		return
	}

	cmd.Printf("%-10s %-28s %-10s %s\n", "Tool", "Version", "OK", "Path")
	for _, info := range infos {
		ok := "yes"
		switch {
		case !info.Available && info.Optional:
			ok = "optional"
		case !info.Available:
			ok = "no"
		}
		path := info.Path
		if path == "" {
			path = "(missing)"
		}
		cmd.Printf("%-10s %-28s %-10s %s\n", info.Name, tui.NonEmptyOrDash(info.Version), ok, path)
		cmd.Printf("  used for: %s\n", strings.Join(info.Roles, ", "))
		if info.Error != "" {
			cmd.Printf("  error: %s\n", info.Error)
		}
		for _, hint := range info.Hints {
			cmd.Printf("  hint: %s\n", hint)
		}
	}
}
