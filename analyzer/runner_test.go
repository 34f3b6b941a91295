// Copyright © 2026 The tangolint authors

package analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationArgv(t *testing.T) {
	inv := Invocation{
		Interpreter: "python3",
		Script:      "/opt/tl/tangolint.py",
		Args:        []string{"--disable", "T001"},
		File:        "/src/dev.py",
	}
	assert.Equal(t,
		[]string{"python3", "/opt/tl/tangolint.py", "--no-color", "--disable", "T001", "/src/dev.py"},
		inv.Argv())
	assert.Equal(t, "/opt/tl", inv.Dir())
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, `
echo "$f:10:4: warning: T023 Attribute 'foo' needs 'description'"
echo "cwd=$(pwd -P)"
echo "args=$*"
exit 1
`)
	res, err := ExecRunner{}.Run(context.Background(), Invocation{
		Interpreter: "/bin/sh",
		Script:      script,
		Args:        []string{"--disable", "G001"},
		File:        "/src/dev.py",
	})
	require.NoError(t, err, "non-zero exit is part of the protocol")
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stdout, "/src/dev.py:10:4: warning: T023")
	assert.Contains(t, res.Stdout, "args=--no-color --disable G001 /src/dev.py")

	wantDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "cwd="+wantDir)
	assert.Empty(t, res.Stderr)
}

func TestExecRunnerMissingInterpreter(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "")
	_, err := ExecRunner{}.Run(context.Background(), Invocation{
		Interpreter: filepath.Join(dir, "no-such-python"),
		Script:      script,
		File:        "/src/dev.py",
	})
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.FirstLine(), "no-such-python")
}

func TestExecRunnerTruncates(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, `
i=0
while [ $i -lt 200 ]; do
  echo "$f:1:0: info: G001 line $i"
  i=$((i+1))
done
`)
	res, err := ExecRunner{}.Run(context.Background(), Invocation{
		Interpreter: "/bin/sh",
		Script:      script,
		File:        "/src/dev.py",
		MaxOutput:   256,
	})
	assert.True(t, errors.Is(err, ErrOutputTruncated))
	assert.Len(t, res.Stdout, 256)
}

func TestLimitedBuffer(t *testing.T) {
	b := newLimitedBuffer(5)
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, b.truncated)

	n, err = b.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, b.truncated)
	assert.Equal(t, "abcde", b.String())

	n, err = b.Write([]byte("h"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "abcde", b.String())
}

func TestExecErrorFirstLine(t *testing.T) {
	e := &ExecError{Stderr: "\n  Traceback (most recent call last):\n  File x\n"}
	assert.Equal(t, "Traceback (most recent call last):", e.FirstLine())
	assert.True(t, strings.HasSuffix(e.Error(), "Traceback (most recent call last):"))

	cause := errors.New("exec: not found")
	e = &ExecError{Err: cause}
	assert.Equal(t, "exec: not found", e.FirstLine())
	assert.ErrorIs(t, e, cause)
}
