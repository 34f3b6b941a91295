// Copyright © 2026 The tangolint authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/config"
	"github.com/davejwalsh/tangolint/report"
	"github.com/davejwalsh/tangolint/rules"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// CheckCommand creates the "check" cobra command.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		jsonOut  bool
		disable  []string
		excludes []string
	)

	cmd := &cobra.Command{
		Use:   "check [flags] [patterns...]",
		Short: "Run the TangoLint analyzer on Python files",
		Long: `Run the TangoLint analyzer on Python files and print its findings.

Arguments may be files, directories, "dir/..." or doublestar patterns such
as "src/**/*.py". With no arguments the current directory is checked.
Files are analyzed concurrently, one analyzer process per file.

The analyzer entry-point is resolved like in the editor: script_path, then
the bundled copy, then tangolint.py in the current directory. The
interpreter is interpreter_path, then the active virtual environment, then
python3.

Exit codes:
  0  No error-severity findings
  1  At least one error-severity finding
  2  Bad invocation (no analyzer found, analyzer crashed, bad flags)

To suppress a finding, add a comment on the same line:
  foo = attribute()  # noqa: T023

Examples:
  tangolint check src/                         # Check a directory
  tangolint check 'src/**/*_ds.py'             # Check matching files
  tangolint check --disable T023 --disable G001 device.py
  tangolint check --exclude tests ./...        # Skip a directory
  tangolint check --json src/ > report.json    # Machine-readable output`,
		Run: func(cmd *cobra.Command, args []string) {
			settings, err := loadSettings()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				os.Exit(exitInvocation)
			}
			code, err := runCheck(cmd.Context(), checkOptions{
				args:     args,
				excludes: excludes,
				disable:  disable,
				json:     jsonOut,
				settings: settings,
				cfg:      cfg,
			}, cmd.OutOrStdout())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "tangolint check: %v\n", err)
			}
			if code != 0 {
				os.Exit(code)
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringArrayVar(&disable, "disable", nil,
		"Rule code to disable (may be repeated).")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")

	return cmd
}

type checkOptions struct {
	args     []string
	excludes []string
	disable  []string
	json     bool
	settings config.Settings
	cfg      cmdConfig
	// color overrides the --color flag.
	color *string
}

// runCheck analyzes the files named by opts and writes the report to out.
// It returns the process exit code.
func runCheck(ctx context.Context, opts checkOptions, out io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	args := opts.args
	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := expandArgs(args, opts.excludes)
	if err != nil {
		return exitInvocation, err
	}
	if len(files) == 0 {
		return exitInvocation, errors.New("no Python files matched")
	}

	settings := opts.settings.Clone()
	for _, code := range opts.disable {
		code = strings.ToUpper(strings.TrimSpace(code))
		if _, ok := rules.Lookup(code); !ok {
			return exitInvocation, fmt.Errorf("unknown rule code %q", code)
		}
		if settings.Rules == nil {
			settings.Rules = make(map[string]bool)
		}
		settings.Rules[code] = false
	}

	cwd, err := os.Getwd()
	if err != nil {
		return exitInvocation, err
	}
	engine := &analyzer.Engine{
		BundleDir:     bundleSource(settings),
		WorkspaceRoot: func(string) string { return cwd },
		Interpreters:  opts.cfg.interpreterSource(),
		Runner:        opts.cfg.runner,
	}

	reports := make([]report.FileReport, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			abs, err := filepath.Abs(file)
			if err != nil {
				return err
			}
			diags, err := engine.Analyze(gctx, abs, settings)
			if err != nil {
				if errors.Is(err, analyzer.ErrUnresolved) {
					return fmt.Errorf("no %s found (set script_path or run from the project root)", analyzer.ScriptName)
				}
				return fmt.Errorf("%s: %w", file, err)
			}
			reports[i] = report.FileReport{File: file, Diagnostics: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exitInvocation, err
	}

	if opts.json {
		err = report.FormatJSON(out, reports)
	} else {
		mode := colorFlag
		if opts.color != nil {
			mode = *opts.color
		}
		err = newRenderer(mode).RenderReports(out, reports)
	}
	if err != nil {
		return exitInvocation, err
	}

	for _, fr := range reports {
		if errs, _, _ := report.Counts(fr.Diagnostics); errs > 0 {
			return exitIssues, nil
		}
	}
	return 0, nil
}

// bundleSource returns the configured bundle directory or the one shipped
// next to the executable.
func bundleSource(s config.Settings) string {
	if s.BundleDir != "" {
		return s.BundleDir
	}
	return analyzer.DefaultBundleSource()
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}
