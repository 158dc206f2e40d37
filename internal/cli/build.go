package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"texbuild/internal/build"
	"texbuild/internal/config"
	"texbuild/internal/latex"
	"texbuild/internal/tui"
)

var (
	buildFlavor      string
	buildClean       bool
	buildConcurrency int
	buildNoProgress  bool
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <doc.tex>...",
		Short: "Compile documents, rerunning LaTeX and its tools until they settle",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBuild,
	}

	defaultConcurrency := runtime.NumCPU()
	if defaultConcurrency < 1 {
		defaultConcurrency = 1
	}

	cmd.Flags().StringVar(&buildFlavor, "flavor", "", "Output flavor: dvi or pdf (overrides the config)")
	cmd.Flags().BoolVar(&buildClean, "clean", false, "Remove derived files and the dependency file before building")
	cmd.Flags().IntVar(&buildConcurrency, "concurrency", defaultConcurrency, "Documents built at once")
	cmd.Flags().BoolVar(&buildNoProgress, "no-progress", false, "Disable interactive progress output")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	flavor, err := parseFlavorFlag(buildFlavor)
	if err != nil {
		return err
	}
	docs, err := loadDocuments(args)
	if err != nil {
		return err
	}
	if err := build.CheckDuplicates(docs); err != nil {
		return err
	}

	svc := build.NewService()
	opts := build.Options{
		Concurrency: buildConcurrency,
		CleanStart:  buildClean,
		Flavor:      flavor,
	}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, buildNoProgress, outputJSON)
	var results []build.Result
	switch {
	case mode == tui.ModeTUI && len(docs) == 1:
		line := tui.NewStatusLine(out, displayPath(docs[0].Paths.Source))
		opts.Reporter = sinkReporter{sink: line}
		results, err = svc.Build(ctx, docs, opts)
		line.Stop()
	case mode == tui.ModeTUI:
		results, err = buildWithTable(ctx, out, svc, docs, opts)
	case mode == tui.ModePlain:
		opts.Reporter = &plainReporter{out: out}
		results, err = svc.Build(ctx, docs, opts)
	default:
		results, err = svc.Build(ctx, docs, opts)
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return writeBuildJSON(out, results)
	}
	return writeBuildSummary(out, cmd.ErrOrStderr(), results, mode == tui.ModeTUI)
}

func parseFlavorFlag(value string) (config.Flavor, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return config.ParseFlavor(value)
}

func loadDocuments(args []string) ([]build.Document, error) {
	docs := make([]build.Document, 0, len(args))
	for _, arg := range args {
		doc, err := build.LoadDocument(arg, configPath)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// buildWithTable runs the build behind a bubbletea progress table. Quitting
// the table cancels the builds still in flight.
func buildWithTable(ctx context.Context, out io.Writer, svc *build.Service, docs []build.Document, opts build.Options) ([]build.Result, error) {
	model := tui.NewBuildTable("texbuild")
	for _, doc := range docs {
		model.AddDocument(doc.Paths.Source, displayPath(doc.Paths.Source))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		results  []build.Result
		buildErr error
		done     = make(chan struct{})
	)
	runErr := tui.RunWithWork(out, model, func(send func(tea.Msg)) {
		defer close(done)
		opts.Reporter = tableReporter{send: send}
		results, buildErr = svc.Build(ctx, docs, opts)
	})
	cancel()
	<-done
	if runErr != nil {
		return nil, runErr
	}
	return results, buildErr
}

// sinkReporter sends every document's messages to one sink.
type sinkReporter struct {
	sink latex.Sink
}

func (r sinkReporter) Start(build.Document)                  {}
func (r sinkReporter) Sink(build.Document) latex.Sink        { return r.sink }
func (r sinkReporter) Complete(build.Document, build.Result) {}

type tableReporter struct {
	send func(tea.Msg)
}

func (r tableReporter) Start(build.Document) {}

func (r tableReporter) Sink(doc build.Document) latex.Sink {
	return tui.NewDocumentReporter(r.send, doc.Paths.Source)
}

func (r tableReporter) Complete(doc build.Document, res build.Result) {
	tui.NewDocumentReporter(r.send, doc.Paths.Source).Finish(tui.FinishedMsg{
		Status:   res.Status,
		Runs:     res.Runs,
		Errors:   len(res.Errors),
		UpToDate: res.UpToDate,
		Err:      res.Err,
	})
}

// plainReporter prints one line per controller message.
type plainReporter struct {
	out io.Writer
	mu  sync.Mutex
}

func (r *plainReporter) Start(build.Document) {}

func (r *plainReporter) Sink(doc build.Document) latex.Sink {
	name := filepath.Base(doc.Paths.Source)
	return latex.SinkFunc(func(msg string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		fmt.Fprintf(r.out, "[%s] %s\n", name, msg)
	})
}

func (r *plainReporter) Complete(build.Document, build.Result) {}

type buildJSONSummary struct {
	Built    int `json:"built"`
	UpToDate int `json:"up_to_date"`
	Failed   int `json:"failed"`
}

type buildJSONResult struct {
	build.Result
	Error string `json:"error,omitempty"`
}

func writeBuildJSON(out io.Writer, results []build.Result) error {
	payload := struct {
		Results []buildJSONResult `json:"results"`
		Summary buildJSONSummary  `json:"summary"`
	}{
		Results: make([]buildJSONResult, 0, len(results)),
	}
	for _, res := range results {
		payload.Results = append(payload.Results, buildJSONResult{Result: res, Error: errorString(res.Err)})
		countResult(&payload.Summary, res)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode build json: %w", err)
	}
	fmt.Fprintln(out, string(data))
	if payload.Summary.Failed > 0 {
		return fmt.Errorf("%d build(s) failed", payload.Summary.Failed)
	}
	return nil
}

func writeBuildSummary(out, errWriter io.Writer, results []build.Result, styled bool) error {
	var summary buildJSONSummary
	for _, res := range results {
		countResult(&summary, res)
		writeBuildResult(out, errWriter, res, styled)
	}

	fmt.Fprintf(out, "completed builds: %d built, %d up to date, %d failed\n", summary.Built, summary.UpToDate, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d build(s) failed", summary.Failed)
	}
	return nil
}

func writeBuildResult(out, errWriter io.Writer, res build.Result, styled bool) {
	name := displayPath(res.Source)
	switch {
	case res.Err != nil:
		fmt.Fprintf(errWriter, "build %s failed: %v\n", name, res.Err)
	case res.UpToDate:
		fmt.Fprintf(out, "%s is up to date\n", name)
	default:
		fmt.Fprintf(out, "built %s → %s (%d run(s), %s)\n", name, tui.NonEmptyOrDash(displayPath(res.Output)), res.Runs, res.Flags)
	}
	if len(res.Errors) > 0 {
		fmt.Fprint(errWriter, tui.FormatErrors(name, res.Errors, styled))
	}
}

func countResult(summary *buildJSONSummary, res build.Result) {
	switch {
	case res.Failed():
		summary.Failed++
	case res.UpToDate:
		summary.UpToDate++
	default:
		summary.Built++
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// displayPath shortens path relative to the working directory when it lies
// below it.
func displayPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(".")
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(abs, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
