// Copyright © 2026 The tangolint authors

package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/davejwalsh/tangolint/config"
)

// NoColorFlag disables ANSI colouring of the analyzer report.
const NoColorFlag = "--no-color"

// ErrOutputTruncated is returned when a run produced more output than the
// configured bound. A truncated report is never parsed.
var ErrOutputTruncated = errors.New("analyzer output exceeded buffer limit")

// ExecError reports an analyzer run that failed to execute: the process
// could not be started or it wrote to its error stream.
type ExecError struct {
	// Stderr is the trimmed error-stream text, or the start failure.
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	return "analyzer failed: " + e.FirstLine()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// FirstLine returns the first non-empty line of the error text.
func (e *ExecError) FirstLine() string {
	for _, line := range strings.Split(e.Stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Invocation describes one analyzer run.
type Invocation struct {
	Interpreter string
	Script      string

	// Args are extra analyzer arguments, typically --disable pairs.
	Args []string

	// File is the absolute path of the document to analyze.
	File string

	// MaxOutput bounds each captured stream. Zero means
	// config.DefaultMaxOutputBytes.
	MaxOutput int64
}

// Argv returns the full command line:
// <interpreter> <script> --no-color [args...] <file>.
func (inv Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.Args)+4)
	argv = append(argv, inv.Interpreter, inv.Script, NoColorFlag)
	argv = append(argv, inv.Args...)
	return append(argv, inv.File)
}

// Dir is the working directory of the run: the script's directory, so the
// analyzer finds its co-located rule module.
func (inv Invocation) Dir() string {
	return filepath.Dir(inv.Script)
}

// Result is the captured output of a completed run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes analyzer invocations.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs the analyzer as a child process.
type ExecRunner struct{}

// Run starts the analyzer and waits for it. A non-zero exit status is part
// of the normal protocol (issues found) and is returned in Result, not as
// an error. Errors are *ExecError when the process could not run and
// ErrOutputTruncated when a stream overflowed.
func (ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	limit := inv.MaxOutput
	if limit <= 0 {
		limit = config.DefaultMaxOutputBytes
	}
	argv := inv.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // analyzer command is user configuration
	cmd.Dir = inv.Dir()
	stdout := newLimitedBuffer(limit)
	stderr := newLimitedBuffer(limit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, &ExecError{Stderr: res.Stderr, Err: fmt.Errorf("running %s: %w", argv[0], err)}
	}
	if stdout.truncated || stderr.truncated {
		return res, fmt.Errorf("%s: %w (%d bytes)", inv.File, ErrOutputTruncated, limit)
	}
	return res, nil
}
