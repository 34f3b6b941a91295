// Copyright © 2026 The tangolint authors

package cmd

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/commonlog"
)

func TestLSPCommand_DefaultFlags(t *testing.T) {
	cmd := LSPCommand()
	assert.Equal(t, "lsp [flags]", cmd.Use)
	for _, name := range []string{"stdio", "port", "metrics-addr", "verbose", "log-file"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
	assert.NotNil(t, cmd.Flags().ShorthandLookup("v"))
}

func TestDeployBundle(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("cache directory override is linux-specific")
	}
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, analyzer.ScriptName), []byte("print()\n"), 0o644))
	s := config.Default()
	s.BundleDir = src

	dir, err := deployBundle(s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "tangolint", analyzer.BundleDirName), dir)
	assert.FileExists(t, filepath.Join(dir, analyzer.ScriptName))

	// A bundle without the entry-point is fatal.
	require.NoError(t, os.Remove(filepath.Join(src, analyzer.ScriptName)))
	require.NoError(t, os.WriteFile(filepath.Join(src, "rules.py"), nil, 0o644))
	_, err = deployBundle(s)
	var deployErr *analyzer.DeployError
	assert.ErrorAs(t, err, &deployErr)
}

func TestServeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "tangolint_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	addr, err := serveMetrics("127.0.0.1:0", reg, commonlog.GetLogger("test"))
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "tangolint_test_total 1")

	_, err = serveMetrics("127.0.0.1:-1", reg, commonlog.GetLogger("test"))
	assert.Error(t, err)
}
