// Copyright © 2026 The tangolint authors

package cmd

import (
	"fmt"
	"io"

	"github.com/davejwalsh/tangolint/config"
	"github.com/davejwalsh/tangolint/rules"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RulesCommand creates the "rules" cobra command.
func RulesCommand() *cobra.Command {
	var yamlOut bool
	cmd := &cobra.Command{
		Use:   "rules [flags]",
		Short: "List the analyzer rules that can be toggled",
		Long: `List every rule code tangolint knows, with its severity and whether the
current configuration enables it. Rules are disabled with
"rules: {CODE: false}" in the config file or editor settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			return writeRules(cmd.OutOrStdout(), settings, yamlOut)
		},
	}
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "Output the registry as YAML.")
	return cmd
}

type ruleEntry struct {
	rules.Rule `yaml:",inline"`
	Enabled    bool `yaml:"enabled"`
}

func ruleEntries(s config.Settings) []ruleEntry {
	off := make(map[string]bool)
	for _, code := range rules.Disabled(rules.Registry, s.Rules) {
		off[code] = true
	}
	entries := make([]ruleEntry, 0, len(rules.Registry))
	for _, r := range rules.Registry {
		entries = append(entries, ruleEntry{Rule: r, Enabled: !off[r.Code]})
	}
	return entries
}

func writeRules(w io.Writer, s config.Settings, asYAML bool) error {
	entries := ruleEntries(s)
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}
	for _, e := range entries {
		state := "on"
		if !e.Enabled {
			state = "off"
		}
		if _, err := fmt.Fprintf(w, "%s  %-7s  %s\n%s\n", e.Code, e.Severity, state,
			indent.String(wordwrap.String(e.Summary, 72), 2)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(RulesCommand())
}
