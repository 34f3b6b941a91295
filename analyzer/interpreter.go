// Copyright © 2026 The tangolint authors

package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultInterpreter is used when neither configuration nor a cooperating
// tool names an interpreter.
const DefaultInterpreter = "python3"

// InterpreterSource is a best-effort capability reporting the interpreter
// command a cooperating tool has selected for a document. Implementations
// may fail in any way; callers treat every failure as "no answer".
type InterpreterSource interface {
	ExecCommand(ctx context.Context, documentPath string) ([]string, error)
}

// InterpreterSourceFunc adapts a function to InterpreterSource.
type InterpreterSourceFunc func(ctx context.Context, documentPath string) ([]string, error)

// ExecCommand calls f.
func (f InterpreterSourceFunc) ExecCommand(ctx context.Context, documentPath string) ([]string, error) {
	return f(ctx, documentPath)
}

// errNoInterpreter is returned by sources that have nothing to report.
var errNoInterpreter = errors.New("no interpreter reported")

// lookupInterpreter queries src and returns the first command token. Errors
// and panics inside src are swallowed.
func lookupInterpreter(ctx context.Context, src InterpreterSource, documentPath string) (cmd string, err error) {
	if src == nil {
		return "", errNoInterpreter
	}
	defer func() {
		if r := recover(); r != nil {
			cmd, err = "", fmt.Errorf("interpreter source panicked: %v", r)
		}
	}()
	argv, err := src.ExecCommand(ctx, documentPath)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return "", errNoInterpreter
	}
	return strings.TrimSpace(argv[0]), nil
}

// VirtualEnv reports the interpreter of the active Python virtual
// environment ($VIRTUAL_ENV).
type VirtualEnv struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// ExecCommand implements InterpreterSource.
func (v VirtualEnv) ExecCommand(_ context.Context, _ string) ([]string, error) {
	getenv := v.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	root := getenv("VIRTUAL_ENV")
	if root == "" {
		return nil, errNoInterpreter
	}
	bin := filepath.Join(root, "bin", "python")
	if runtime.GOOS == "windows" {
		bin = filepath.Join(root, "Scripts", "python.exe")
	}
	if !fileExists(bin) {
		return nil, fmt.Errorf("virtualenv interpreter %s: %w", bin, os.ErrNotExist)
	}
	return []string{bin}, nil
}

// FirstOf tries each source in order and reports the first answer.
type FirstOf []InterpreterSource

// ExecCommand implements InterpreterSource.
func (fs FirstOf) ExecCommand(ctx context.Context, documentPath string) ([]string, error) {
	for _, src := range fs {
		if cmd, err := lookupInterpreter(ctx, src, documentPath); err == nil {
			return []string{cmd}, nil
		}
	}
	return nil, errNoInterpreter
}
