// Copyright © 2026 The tangolint authors

package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/config"
	"github.com/davejwalsh/tangolint/lsp"
	"github.com/davejwalsh/tangolint/pipeline"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// LSPCommand creates the "lsp" cobra command. Embedders can pass
// WithServerOptions to adjust the language server.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio       bool
		port        int
		metricsAddr string
		verbose     int
		logFile     string
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the TangoLint Language Server Protocol server",
		Long: `Start an LSP server that publishes TangoLint diagnostics for Python
documents.

Documents are analyzed when opened and saved, and optionally while typing
(run_on_change, debounced). The server also offers a "# noqa" quick fix
and the tangolint.run and tangolint.showRules commands.

At startup the analyzer bundled next to the executable (or bundle_dir) is
copied to the user cache directory; a failed copy stops the server.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  tangolint lsp                                Start with stdio transport
  tangolint lsp --port 7998                    Start with TCP on port 7998
  tangolint lsp -vv --log-file /tmp/tl.log     Debug logging to a file
  tangolint lsp --metrics-addr localhost:9464  Expose Prometheus metrics

Editor configuration (VS Code):
  Configure a generic LSP client to run "tangolint lsp --stdio" for
  Python files and to send the "tangolint" settings section.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbose, path)
			log := commonlog.GetLogger("tangolint")

			settings, err := loadSettings()
			if err != nil {
				log.Errorf("%v", err)
				os.Exit(exitInvocation)
			}
			if used := viper.ConfigFileUsed(); used != "" {
				log.Infof("using config file %s", used)
			}

			bundle, err := deployBundle(settings)
			if err != nil {
				log.Criticalf("deploying analyzer: %v", err)
				os.Exit(exitIssues)
			}
			if bundle == "" {
				log.Notice("no bundled analyzer; using script_path or the workspace copy")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := pipeline.NewMetrics(reg)
			if metricsAddr != "" {
				if _, err := serveMetrics(metricsAddr, reg, log); err != nil {
					log.Errorf("metrics endpoint: %v", err)
					os.Exit(exitInvocation)
				}
			}

			serverOpts := []lsp.Option{
				lsp.WithSettings(settings),
				lsp.WithBundleDir(bundle),
				lsp.WithPipelineOptions(
					pipeline.WithMetrics(metrics),
					pipeline.WithLogger(commonlog.GetLogger("tangolint.pipeline")),
				),
			}
			if cfg.runner != nil {
				serverOpts = append(serverOpts, lsp.WithRunner(cfg.runner))
			}
			if cfg.interpreters != nil {
				serverOpts = append(serverOpts, lsp.WithInterpreterSource(cfg.interpreters))
			}
			srv := lsp.New(append(serverOpts, cfg.serverOptions...)...)
			watchConfig(srv, log)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Noticef("tangolint LSP server listening on %s", addr)
				if err := srv.RunTCP(addr); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(exitIssues)
				}
			} else {
				if err := srv.RunStdio(); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(exitIssues)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g. localhost:9464)")
	cmd.Flags().CountVarP(&verbose, "verbose", "v",
		"Increase log verbosity (-v info, -vv debug)")
	cmd.Flags().StringVar(&logFile, "log-file", "",
		"Write logs to this file instead of stderr")

	return cmd
}

// deployBundle copies the bundled analyzer to the per-user deploy
// directory and returns where it now lives ("" without a bundle).
func deployBundle(s config.Settings) (string, error) {
	dst, err := analyzer.DefaultDeployDir()
	if err != nil {
		return "", fmt.Errorf("locating cache directory: %w", err)
	}
	return analyzer.Deploy(bundleSource(s), dst)
}

// serveMetrics exposes reg on addr in the background. Listening happens
// before it returns so a bad address is reported at startup.
func serveMetrics(addr string, reg *prometheus.Registry, log commonlog.Logger) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()
	log.Infof("serving metrics on http://%s/metrics", ln.Addr())
	return ln.Addr(), nil
}

// watchConfig reloads the base settings when the config file changes.
func watchConfig(srv *lsp.Server, log commonlog.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s, err := config.Load(viper.GetViper())
		if err != nil {
			log.Warningf("reloading %s: %v", e.Name, err)
			return
		}
		log.Infof("config file %s changed", e.Name)
		srv.SetBaseSettings(s)
	})
	viper.WatchConfig()
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
