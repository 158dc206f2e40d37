package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

type Options struct {
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Result carries the exit status of a finished process. Stdout is never
// captured: LaTeX tools report through the log files they write.
type Result struct {
	ExitCode int
	Stderr   []byte
}

// Runner executes an external command synchronously. A process that starts
// and exits non-zero is not an error; err is reserved for failures to run it
// at all (missing binary, cancelled context).
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	cmd.Stdout = io.Discard
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}

	var stderrBuf bytes.Buffer
	stderrWriter := io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, opts.Stderr)
	}
	cmd.Stderr = stderrWriter

	err := cmd.Run()
	res := Result{Stderr: stderrBuf.Bytes()}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

var _ Runner = CmdRunner{}
