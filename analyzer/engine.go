// Copyright © 2026 The tangolint authors

package analyzer

import (
	"context"
	"errors"
	"strings"

	"github.com/davejwalsh/tangolint/config"
	"github.com/davejwalsh/tangolint/report"
	"github.com/davejwalsh/tangolint/rules"
	"github.com/tliron/commonlog"
)

// ErrUnresolved is returned when no analyzer entry-point could be found for
// a document.
var ErrUnresolved = errors.New("analyzer entry-point not found")

// Engine resolves, runs and parses the analyzer for single documents.
type Engine struct {
	// BundleDir is the deployed bundle directory ("" when none).
	BundleDir string

	// WorkspaceRoot maps a document path to its workspace folder root.
	WorkspaceRoot func(documentPath string) string

	// Interpreters is the cooperating interpreter capability.
	Interpreters InterpreterSource

	// Runner defaults to ExecRunner.
	Runner Runner

	Log commonlog.Logger
}

// Resolver returns the resolver for the given settings.
func (e *Engine) Resolver(s config.Settings) *Resolver {
	return &Resolver{
		ScriptPath:      s.ScriptPath,
		InterpreterPath: s.InterpreterPath,
		BundleDir:       e.BundleDir,
		WorkspaceRoot:   e.WorkspaceRoot,
		Interpreters:    e.Interpreters,
		Log:             e.Log,
	}
}

// Invocation builds the invocation of tool for documentPath.
func (e *Engine) Invocation(tool Tool, documentPath string, s config.Settings) Invocation {
	return Invocation{
		Interpreter: tool.Interpreter,
		Script:      tool.Script,
		Args:        rules.DisableArgs(rules.Registry, s.Rules),
		File:        documentPath,
		MaxOutput:   s.MaxOutputBytes,
	}
}

// Analyze runs the analyzer on documentPath and returns its diagnostics.
// It returns ErrUnresolved when there is no analyzer to run, an *ExecError
// when the analyzer wrote to its error stream or could not start, and
// ErrOutputTruncated when the report overflowed the buffer.
func (e *Engine) Analyze(ctx context.Context, documentPath string, s config.Settings) ([]report.Diagnostic, error) {
	tool, ok := e.Resolver(s).Resolve(ctx, documentPath)
	if !ok {
		return nil, ErrUnresolved
	}
	inv := e.Invocation(tool, documentPath, s)
	runner := e.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	ctx, span := startRunSpan(ctx, inv)
	res, err := runner.Run(ctx, inv)
	if err == nil && strings.TrimSpace(res.Stderr) != "" {
		err = &ExecError{Stderr: res.Stderr}
	}
	if err != nil {
		endRunSpan(span, res, 0, err)
		return nil, err
	}
	diags := report.Parse(res.Stdout)
	endRunSpan(span, res, len(diags), nil)
	return diags, nil
}
