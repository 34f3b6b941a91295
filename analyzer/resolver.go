// Copyright © 2026 The tangolint authors

// Package analyzer locates and runs the external tangolint analyzer.
//
// The analyzer is an opaque process: it is given a file path plus
// --disable flags and writes a text report (see package report). This
// package decides which script and interpreter to use, deploys the bundled
// copy of the analyzer, and runs it with a bounded output buffer.
package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
)

// ScriptName is the file name of the analyzer entry-point.
const ScriptName = "tangolint.py"

// Origin records which resolution step produced a value.
type Origin string

const (
	OriginConfigured Origin = "configured"
	OriginBundled    Origin = "bundled"
	OriginWorkspace  Origin = "workspace"
	OriginTool       Origin = "cooperating-tool"
	OriginDefault    Origin = "default"
)

// Tool is a resolved analyzer invocation target.
type Tool struct {
	Interpreter       string `yaml:"interpreter"`
	InterpreterOrigin Origin `yaml:"interpreter_origin"`
	Script            string `yaml:"script"`
	ScriptOrigin      Origin `yaml:"script_origin"`
}

// Resolver determines the analyzer entry-point and interpreter for a
// document.
type Resolver struct {
	// ScriptPath is the configured absolute entry-point, if any.
	ScriptPath string

	// InterpreterPath is the configured interpreter, if any.
	InterpreterPath string

	// BundleDir is the directory the bundled analyzer was deployed to.
	BundleDir string

	// WorkspaceRoot returns the root of the workspace folder containing a
	// document, or "".
	WorkspaceRoot func(documentPath string) string

	// Interpreters is consulted when no interpreter is configured.
	Interpreters InterpreterSource

	Log commonlog.Logger
}

// Resolve returns the tool for documentPath. ok is false when no
// entry-point exists, which is the normal state of a project that has not
// been set up yet.
func (r *Resolver) Resolve(ctx context.Context, documentPath string) (Tool, bool) {
	script, origin, ok := r.ResolveScript(documentPath)
	if !ok {
		return Tool{}, false
	}
	interp, iorigin := r.ResolveInterpreter(ctx, documentPath)
	return Tool{
		Interpreter:       interp,
		InterpreterOrigin: iorigin,
		Script:            script,
		ScriptOrigin:      origin,
	}, true
}

// ResolveScript applies the entry-point precedence: configured path,
// bundled copy, then the workspace root (legacy layout). The first
// candidate that exists wins.
func (r *Resolver) ResolveScript(documentPath string) (string, Origin, bool) {
	if p := strings.TrimSpace(r.ScriptPath); p != "" && filepath.IsAbs(p) && fileExists(p) {
		return filepath.Clean(p), OriginConfigured, true
	}
	if r.BundleDir != "" {
		if p := filepath.Join(r.BundleDir, ScriptName); fileExists(p) {
			return p, OriginBundled, true
		}
	}
	if r.WorkspaceRoot != nil {
		if root := r.WorkspaceRoot(documentPath); root != "" {
			if p := filepath.Join(root, ScriptName); fileExists(p) {
				return p, OriginWorkspace, true
			}
		}
	}
	return "", "", false
}

// ResolveInterpreter applies the interpreter precedence: configured path,
// the cooperating tool's first command token, then DefaultInterpreter.
func (r *Resolver) ResolveInterpreter(ctx context.Context, documentPath string) (string, Origin) {
	if p := strings.TrimSpace(r.InterpreterPath); p != "" {
		return p, OriginConfigured
	}
	cmd, err := lookupInterpreter(ctx, r.Interpreters, documentPath)
	if err == nil {
		return cmd, OriginTool
	}
	if r.Log != nil && err != errNoInterpreter {
		r.Log.Debugf("interpreter lookup for %s: %v", documentPath, err)
	}
	return DefaultInterpreter, OriginDefault
}

// Workspace is a set of workspace folder roots.
type Workspace []string

// RootFor returns the deepest root containing path, or "".
func (w Workspace) RootFor(path string) string {
	best := ""
	path = filepath.Clean(path)
	for _, root := range w {
		root = filepath.Clean(root)
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
