package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"texbuild/internal/build"
	"texbuild/internal/latex"
	"texbuild/internal/watch"
)

var (
	watchDebounce time.Duration
	watchFlavor   string
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <doc.tex>",
		Short: "Build a document and rebuild whenever its sources change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before rebuilding (defaults to watch.debounce_ms)")
	cmd.Flags().StringVar(&watchFlavor, "flavor", "", "Output flavor: dvi or pdf (overrides the config)")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flavor, err := parseFlavorFlag(watchFlavor)
	if err != nil {
		return err
	}
	doc, err := build.LoadDocument(args[0], configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errWriter := cmd.ErrOrStderr()
	svc := build.NewService()
	name := displayPath(doc.Paths.Source)
	sink := latex.SinkFunc(func(msg string) {
		fmt.Fprintf(out, "[%s] %s\n", name, msg)
	})
	rebuild := func(reason string) {
		fmt.Fprintf(out, "%s %s\n", time.Now().Format("15:04:05"), reason)
		res := svc.BuildOne(ctx, uuid.NewString(), doc, build.Options{Flavor: flavor}, sink)
		writeBuildResult(out, errWriter, res, false)
	}

	rebuild("initial build")

	debounce := watchDebounce
	if debounce <= 0 {
		debounce = time.Duration(doc.Config.Watch.DebounceMS) * time.Millisecond
	}
	w, err := watch.New(doc.Paths.Dir, watch.Options{
		Debounce: debounce,
		Ignore:   doc.Config.Watch.Ignore,
		OnChange: func(changed []string) {
			rebuild("changed: " + strings.Join(changed, ", "))
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(out, "watching %s (ctrl+c to stop)\n", doc.Paths.Dir)
	return w.Run(ctx)
}
