// Package build runs the compilation controller for one or more documents.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"texbuild/internal/config"
	"texbuild/internal/latex"
	"texbuild/internal/logx"
	"texbuild/internal/paths"
	"texbuild/internal/runner"
	"texbuild/internal/texlog"
	"texbuild/internal/texpath"
)

// Result captures the outcome of building one document.
type Result struct {
	Source   string        `json:"source"`
	Output   string        `json:"output,omitempty"`
	Status   texlog.Status `json:"-"`
	Flags    string        `json:"status"`
	Runs     int           `json:"runs"`
	UpToDate bool          `json:"up_to_date"`
	Errors   texlog.Errors `json:"errors,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Err      error         `json:"-"`
}

// Failed reports whether the build errored or the compiler reported errors.
func (r Result) Failed() bool {
	return r.Err != nil || r.Status.Has(texlog.AnyError|texlog.BibtexError|texlog.IndexError)
}

// ProgressReporter is notified as documents start and finish. Sink returns
// the message sink for one document's controller.
type ProgressReporter interface {
	Start(doc Document)
	Sink(doc Document) latex.Sink
	Complete(doc Document, res Result)
}

// Options tune a Build call.
type Options struct {
	Concurrency int
	CleanStart  bool
	// Flavor overrides the configured flavor when set.
	Flavor   config.Flavor
	Reporter ProgressReporter
}

// Service builds documents with a shared runner.
type Service struct {
	Runner runner.Runner
	// Logger receives debug output. When nil, each document logs to a
	// timestamped file in its own log directory.
	Logger *log.Logger
}

// NewService returns a Service executing real processes.
func NewService() *Service {
	return &Service{Runner: runner.CmdRunner{}}
}

// Build compiles docs with at most opts.Concurrency builds in flight.
// Results are in the order of docs.
func (s *Service) Build(ctx context.Context, docs []Document, opts Options) ([]Result, error) {
	if s == nil || s.Runner == nil {
		return nil, errors.New("build service is not initialized")
	}
	if err := CheckDuplicates(docs); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	session := uuid.NewString()
	results := make([]Result, len(docs))
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)

	for i, doc := range docs {
		i, doc := i, doc
		if opts.Reporter != nil {
			opts.Reporter.Start(doc)
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			var sink latex.Sink
			if opts.Reporter != nil {
				sink = opts.Reporter.Sink(doc)
			}
			res := s.BuildOne(ctx, session, doc, opts, sink)
			results[i] = res
			if opts.Reporter != nil {
				opts.Reporter.Complete(doc, res)
			}
		}()
	}

	wg.Wait()
	return results, nil
}

// BuildOne runs the controller for a single document.
func (s *Service) BuildOne(ctx context.Context, session string, doc Document, opts Options, sink latex.Sink) Result {
	start := time.Now()
	cfg := doc.Config
	if opts.Flavor != "" {
		cfg.Flavor = opts.Flavor
	}
	res := Result{Source: doc.Paths.Source}

	logger, closer, err := s.logger(doc)
	if err != nil {
		res.Err = err
		return res
	}
	if closer != nil {
		defer closer.Close()
	}
	logger = logx.WithPrefix(logger, fmt.Sprintf("[%s %s] ", shortID(session), doc.Paths.Base))

	search := texpath.SearchPath{
		Dirs:      cfg.SearchPath,
		Runner:    s.Runner,
		Kpsewhich: cfg.Commands.Kpsewhich,
	}
	ctrl, err := latex.New(latex.Setup{
		Command: cfg.CompilerCommand(),
		Paths:   doc.Paths,
		Params: latex.Params{
			Flavor:        cfg.Flavor,
			Language:      cfg.Language,
			Nice:          cfg.Nice,
			OnlyChildBibs: cfg.OnlyChildBibs,
		},
		Tools:    latex.ToolsFromConfig(cfg),
		Runner:   s.Runner,
		Resolver: search,
		Sink:     sink,
		Env:      search.Env(),
		Logger:   logger,
	})
	if err != nil {
		res.Err = err
		return res
	}

	logger.Printf("build: start (config %s)", doc.ConfigSource)
	var errs texlog.Errors
	status, err := ctrl.Run(ctx, &errs, latex.Options{CleanStart: opts.CleanStart})
	res.Status = status
	res.Flags = status.String()
	res.Errors = errs
	res.Runs = ctrl.Runs()
	res.UpToDate = status == texlog.NoChange
	res.Err = err
	res.Duration = time.Since(start)
	if output := doc.Paths.OutputFile(cfg.Flavor); outputExists(output) {
		res.Output = output
	}
	logger.Printf("build: finished in %s: %s", res.Duration.Round(time.Millisecond), res.Flags)
	return res
}

func (s *Service) logger(doc Document) (*log.Logger, io.Closer, error) {
	if s.Logger != nil {
		return s.Logger, nil, nil
	}
	return logx.New(doc.Paths)
}

func outputExists(path string) bool {
	ok, _ := paths.FileExists(path)
	return ok
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
