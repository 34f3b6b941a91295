// Copyright © 2026 The tangolint authors

package analyzer

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeScript writes a fake analyzer to dir/tangolint.py. The fake is a
// shell script run with /bin/sh as the interpreter; the document path is
// its last argument.
func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake analyzer requires /bin/sh")
	}
	path := filepath.Join(dir, ScriptName)
	require.NoError(t, os.WriteFile(path, []byte("for f in \"$@\"; do :; done\n"+body), 0o644))
	return path
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}
