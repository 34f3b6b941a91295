// Copyright © 2026 The tangolint authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// walkExcludes are directories never descended into when expanding a
// directory argument.
var walkExcludes = []string{".git", "__pycache__", ".venv", "venv", ".tox", "node_modules"}

// expandArgs expands arguments into Python files. Directories and patterns
// ending with "/..." expand to every .py file below them, glob patterns
// (doublestar syntax, e.g. "src/**/*.py") to the .py files they match.
// Plain file arguments pass through unchanged. Paths matching any exclude
// pattern are dropped.
func expandArgs(args, excludes []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(paths []string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	for _, arg := range args {
		if dir, ok := strings.CutSuffix(arg, "/..."); ok {
			if dir == "" {
				dir = "."
			}
			files, err := findPythonFiles(dir)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			add(files)
			continue
		}
		if fi, err := os.Stat(arg); err == nil && fi.IsDir() {
			files, err := findPythonFiles(arg)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			add(files)
			continue
		}
		if hasMeta(arg) {
			if !doublestar.ValidatePathPattern(arg) {
				return nil, fmt.Errorf("invalid pattern %q", arg)
			}
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			add(filterExcludes(pythonOnly(matches), walkExcludes))
			continue
		}
		add([]string{arg})
	}
	return filterExcludes(out, excludes), nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// findPythonFiles returns the .py files below root in lexical order.
func findPythonFiles(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*.py", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	files := make([]string, 0, len(matches))
	for _, m := range filterExcludes(matches, walkExcludes) {
		files = append(files, filepath.Join(root, filepath.FromSlash(m)))
	}
	return files, nil
}

func pythonOnly(paths []string) []string {
	var out []string
	for _, p := range paths {
		if filepath.Ext(p) == ".py" {
			out = append(out, p)
		}
	}
	return out
}

// filterExcludes drops paths where a pattern matches the whole path or
// any single path element, so "build" excludes a directory and
// "generated_*.py" a file name.
func filterExcludes(paths, patterns []string) []string {
	if len(patterns) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !excluded(p, patterns) {
			out = append(out, p)
		}
	}
	return out
}

func excluded(path string, patterns []string) bool {
	slashed := filepath.ToSlash(filepath.Clean(path))
	elems := strings.Split(slashed, "/")
	for _, pat := range patterns {
		pat = filepath.ToSlash(pat)
		if ok, _ := doublestar.Match(pat, slashed); ok {
			return true
		}
		for _, e := range elems {
			if ok, _ := doublestar.Match(pat, e); ok {
				return true
			}
		}
	}
	return false
}
