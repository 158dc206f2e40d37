// Package latex drives a LaTeX compiler and its satellite tools until the
// document converges, following the compiler transcript between passes.
package latex

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"texbuild/internal/config"
	"texbuild/internal/paths"
	"texbuild/internal/runner"
	"texbuild/internal/texpath"
)

// MaxRuns caps the counted compiler invocations of one Run.
const MaxRuns = 6

// Params are the per-document run parameters.
type Params struct {
	Flavor   config.Flavor
	Language string
	// Nice is carried for hosts that lower the compiler's priority; the
	// controller only records it.
	Nice          bool
	OnlyChildBibs bool
}

// Tools holds the satellite tool command templates.
type Tools struct {
	BibTeX   string
	Index    string
	Nomencl  string
	Glossary string
}

// ToolsFromConfig picks the tool templates out of cfg.
func ToolsFromConfig(cfg config.Config) Tools {
	return Tools{
		BibTeX:   cfg.Commands.BibTeX,
		Index:    cfg.Commands.Index,
		Nomencl:  cfg.Commands.Nomencl,
		Glossary: cfg.Commands.Glossary,
	}
}

// Sink receives human-readable progress messages.
type Sink interface {
	Message(msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg string)

func (f SinkFunc) Message(msg string) { f(msg) }

// IncludeUpdater regenerates included files in the build directory. It is
// called before every compiler invocation.
type IncludeUpdater interface {
	UpdateIncluded(dir string)
}

// Options tune a single Run.
type Options struct {
	// CleanStart removes every derived sidecar and the dependency file
	// before the first pass.
	CleanStart bool
}

// Setup wires a Controller to its collaborators.
type Setup struct {
	Command  string
	Paths    paths.DocumentPaths
	Params   Params
	Tools    Tools
	Runner   runner.Runner
	Resolver texpath.Resolver
	Sink     Sink
	Includes IncludeUpdater
	Env      []string
	Logger   *log.Logger
}

// Controller runs one document. A Controller must not be shared between
// concurrent builds of the same document.
type Controller struct {
	command   string
	paths     paths.DocumentPaths
	params    Params
	tools     Tools
	runner    runner.Runner
	resolver  texpath.Resolver
	sink      Sink
	includes  IncludeUpdater
	env       []string
	logger    *log.Logger
	count     int
	numErrors int
}

// New validates s and returns a Controller.
func New(s Setup) (*Controller, error) {
	if strings.TrimSpace(s.Command) == "" {
		return nil, errors.New("latex: compiler command is empty")
	}
	if !filepath.IsAbs(s.Paths.Source) {
		return nil, fmt.Errorf("latex: source %q is not absolute", s.Paths.Source)
	}
	if s.Runner == nil {
		return nil, errors.New("latex: runner is required")
	}
	if s.Params.Flavor == "" {
		s.Params.Flavor = config.FlavorDVI
	}
	if s.Resolver == nil {
		s.Resolver = texpath.SearchPath{}
	}
	if s.Logger == nil {
		s.Logger = log.New(io.Discard, "", 0)
	}
	return &Controller{
		command:  s.Command,
		paths:    s.Paths,
		params:   s.Params,
		tools:    s.Tools,
		runner:   s.Runner,
		resolver: s.Resolver,
		sink:     s.Sink,
		includes: s.Includes,
		env:      s.Env,
		logger:   s.Logger,
	}, nil
}

// NumErrors returns the number of errors the last log scan counted,
// including ones not recorded.
func (c *Controller) NumErrors() int {
	return c.numErrors
}

// Runs returns the number of counted compiler invocations of the last Run.
func (c *Controller) Runs() int {
	return c.count
}

func (c *Controller) message(msg string) {
	c.logger.Printf("latex: %s", msg)
	if c.sink != nil {
		c.sink.Message(msg)
	}
}

func (c *Controller) removeSidecars(exts []string) {
	for _, ext := range exts {
		c.removeFile(c.paths.File(ext))
	}
}

func (c *Controller) removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Printf("latex: remove %s: %v", path, err)
	}
}

// deleteFilesOnError drops the sidecars a failed pass may have left stale.
func (c *Controller) deleteFilesOnError() {
	c.removeFile(c.paths.DepFile(c.params.Flavor))
	c.removeSidecars(paths.ErrorSidecars)
}

func fileIsEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() == 0
}
