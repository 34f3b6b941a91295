// Copyright © 2026 The tangolint authors

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigCommand creates the "config" cobra command.
func ConfigCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	return &cobra.Command{
		Use:   "config [file]",
		Short: "Show the effective settings and the analyzer that would run",
		Long: `Print the effective settings as YAML, followed by the analyzer
entry-point and interpreter that would be used for file (default: a file in
the current directory) and where each was found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			target := filepath.Join(cwd, "__init__.py")
			if len(args) == 1 {
				if target, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			}
			engine := &analyzer.Engine{
				BundleDir:     bundleSource(settings),
				WorkspaceRoot: func(string) string { return cwd },
				Interpreters:  cfg.interpreterSource(),
			}
			return writeConfig(cmd.Context(), cmd.OutOrStdout(), engine, settings, target, viper.ConfigFileUsed())
		},
	}
}

type configDump struct {
	ConfigFile string          `yaml:"config_file,omitempty"`
	Settings   config.Settings `yaml:"settings"`

	// Tool is null when no analyzer entry-point was found.
	Tool    *analyzer.Tool `yaml:"tool"`
	Command []string       `yaml:"command,omitempty"`
}

func writeConfig(ctx context.Context, w io.Writer, engine *analyzer.Engine, s config.Settings, target, configFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dump := configDump{ConfigFile: configFile, Settings: s}
	if tool, ok := engine.Resolver(s).Resolve(ctx, target); ok {
		dump.Tool = &tool
		dump.Command = engine.Invocation(tool, target, s).Argv()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	rootCmd.AddCommand(ConfigCommand())
}
