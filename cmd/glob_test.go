// Copyright © 2026 The tangolint authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/generated.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"generated.py"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.py",
		"build/output.py",
		"build/sub/deep.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/test_foo.py",
		"src/test_bar.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"test_*"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_PathPattern(t *testing.T) {
	paths := []string{
		"src/devices/a.py",
		"src/devices/sim/b.py",
		"src/main.py",
	}
	result := filterExcludes(paths, []string{"src/devices/**"})
	assert.Equal(t, []string{"src/main.py"}, result)
}

func TestFilterExcludes_NoPatterns(t *testing.T) {
	paths := []string{"src/main.py", "lib/utils.py"}
	assert.Equal(t, paths, filterExcludes(paths, nil))
	assert.Equal(t, paths, filterExcludes(paths, []string{"nonexistent"}))
}

// pyTree creates files below a temporary directory and returns it.
func pyTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x = 1\n"), 0o644))
	}
	return root
}

func TestExpandArgs(t *testing.T) {
	root := pyTree(t,
		"a.py",
		"README.md",
		"devices/power_ds.py",
		"devices/motor_ds.py",
		"devices/util.py",
		".venv/lib/site.py",
		"pkg/__pycache__/a.py",
	)
	join := func(p string) string { return filepath.Join(root, filepath.FromSlash(p)) }

	t.Run("directory", func(t *testing.T) {
		got, err := expandArgs([]string{root}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			join("a.py"),
			join("devices/motor_ds.py"),
			join("devices/power_ds.py"),
			join("devices/util.py"),
		}, got)
	})

	t.Run("dots suffix", func(t *testing.T) {
		got, err := expandArgs([]string{root + "/devices/..."}, nil)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("doublestar pattern", func(t *testing.T) {
		got, err := expandArgs([]string{root + "/**/*_ds.py"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{join("devices/motor_ds.py"), join("devices/power_ds.py")}, got)
	})

	t.Run("non-python matches are dropped", func(t *testing.T) {
		got, err := expandArgs([]string{root + "/*"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{join("a.py")}, got)
	})

	t.Run("plain files pass through once", func(t *testing.T) {
		got, err := expandArgs([]string{join("a.py"), root, "missing.py"}, []string{"devices"})
		require.NoError(t, err)
		assert.Equal(t, []string{join("a.py"), "missing.py"}, got)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := expandArgs([]string{root + "/[.py"}, nil)
		assert.Error(t, err)
	})
}
