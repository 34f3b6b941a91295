// Copyright © 2026 The tangolint authors

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/davejwalsh/tangolint/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	colorFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tangolint",
	Short: "TangoLint diagnostics for PyTango device servers",
	Long: `tangolint runs the TangoLint analyzer (tangolint.py) and reports its
findings, either live in an editor through the Language Server Protocol or
once from the command line.

Getting started:
  tangolint lsp                  Serve diagnostics to an editor over stdio
  tangolint check src/...        Analyze Python files and print the findings
  tangolint rules                List the rule codes that can be toggled
  tangolint config               Show the effective settings

Configuration is read from $HOME/.tangolint.yaml (or --config) and from
TANGOLINT_* environment variables, for example:

  script_path: /opt/tangolint/tangolint.py
  interpreter_path: /usr/bin/python3
  run_on_change: true
  rules:
    T023: false

Editors can override every setting through the "tangolint" settings
section.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvocation)
	}
}

// Exit codes shared by the commands.
const (
	exitIssues     = 1
	exitInvocation = 2
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tangolint.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitInvocation)
		}

		// Search config in home directory with name ".tangolint" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".tangolint")
		viper.SetConfigType("yaml")
	}

	// A missing default config file is fine; a broken or missing explicit
	// one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "tangolint: reading config: %v\n", err)
			os.Exit(exitInvocation)
		}
	}
}

// loadSettings returns the settings from flags, config file and
// environment.
func loadSettings() (config.Settings, error) {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return s, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}
