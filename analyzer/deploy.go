// Copyright © 2026 The tangolint authors

package analyzer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// BundleDirName is the directory, next to the tangolint executable, that
// holds the bundled analyzer files.
const BundleDirName = "analyzer"

// DeployError reports a failure to make the bundled analyzer available.
// It is fatal to server activation.
type DeployError struct {
	Path string
	Err  error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploying bundled analyzer to %s: %v", e.Path, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// DefaultBundleSource returns the bundled analyzer directory shipped next
// to the running executable.
func DefaultBundleSource() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), BundleDirName)
}

// DefaultDeployDir returns the per-user directory the bundle is copied to.
func DefaultDeployDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tangolint", BundleDirName), nil
}

// Deploy copies the bundle in src to dst and returns dst. A missing src is
// not an error: there is simply no bundled analyzer, and "" is returned.
// The copy is staged in a sibling directory and renamed into place so dst
// never holds a partial bundle.
func Deploy(src, dst string) (string, error) {
	if src == "" {
		return "", nil
	}
	fi, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", &DeployError{Path: src, Err: err}
	}
	if !fi.IsDir() {
		return "", &DeployError{Path: src, Err: errors.New("bundle source is not a directory")}
	}
	if _, err := os.Stat(filepath.Join(src, ScriptName)); err != nil {
		return "", &DeployError{Path: src, Err: fmt.Errorf("bundle has no %s: %w", ScriptName, err)}
	}

	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", &DeployError{Path: dst, Err: err}
	}
	stage, err := os.MkdirTemp(parent, ".deploy-*")
	if err != nil {
		return "", &DeployError{Path: dst, Err: err}
	}
	if err := copyTree(src, stage); err != nil {
		_ = os.RemoveAll(stage)
		return "", &DeployError{Path: dst, Err: err}
	}
	if err := os.RemoveAll(dst); err != nil {
		_ = os.RemoveAll(stage)
		return "", &DeployError{Path: dst, Err: err}
	}
	if err := os.Rename(stage, dst); err != nil {
		_ = os.RemoveAll(stage)
		return "", &DeployError{Path: dst, Err: err}
	}
	return dst, nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if d.Name() == "__pycache__" {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // bundle files
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // bundle files
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
