// Copyright © 2026 The tangolint authors

// Package config defines the settings consumed by the diagnostic pipeline
// and loads them from viper (CLI, config file, environment) or from LSP
// client settings payloads.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "TANGOLINT"

// DefaultMaxOutputBytes bounds each output stream of one analyzer run.
const DefaultMaxOutputBytes = 10 << 20

// Configuration keys. The namespace is flat; Rules holds one entry per
// registry code.
const (
	KeyScriptPath      = "script_path"
	KeyInterpreterPath = "interpreter_path"
	KeyRunOnOpen       = "run_on_open"
	KeyRunOnSave       = "run_on_save"
	KeyRunOnChange     = "run_on_change"
	KeyRules           = "rules"
	KeyMaxOutputBytes  = "max_output_bytes"
	KeyBundleDir       = "bundle_dir"
)

// Settings is the complete pipeline configuration.
type Settings struct {
	// ScriptPath is an explicit analyzer entry-point. Empty means resolve
	// automatically.
	ScriptPath string `mapstructure:"script_path" yaml:"script_path"`

	// InterpreterPath is an explicit interpreter. Empty means resolve
	// automatically.
	InterpreterPath string `mapstructure:"interpreter_path" yaml:"interpreter_path"`

	RunOnOpen   bool `mapstructure:"run_on_open" yaml:"run_on_open"`
	RunOnSave   bool `mapstructure:"run_on_save" yaml:"run_on_save"`
	RunOnChange bool `mapstructure:"run_on_change" yaml:"run_on_change"`

	// Rules toggles individual rule codes. Missing codes are enabled.
	Rules map[string]bool `mapstructure:"rules" yaml:"rules,omitempty"`

	// MaxOutputBytes bounds the captured stdout and stderr of a run.
	MaxOutputBytes int64 `mapstructure:"max_output_bytes" yaml:"max_output_bytes"`

	// BundleDir overrides where the bundled analyzer is read from.
	BundleDir string `mapstructure:"bundle_dir" yaml:"bundle_dir,omitempty"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		RunOnOpen:      true,
		RunOnSave:      true,
		RunOnChange:    false,
		MaxOutputBytes: DefaultMaxOutputBytes,
	}
}

// Clone returns a copy of s that shares no maps with it.
func (s Settings) Clone() Settings {
	if s.Rules != nil {
		rules := make(map[string]bool, len(s.Rules))
		for k, v := range s.Rules {
			rules[strings.ToUpper(k)] = v
		}
		s.Rules = rules
	}
	return s
}

// SetDefaults registers defaults and environment binding on v so that
// every key is visible to Unmarshal through AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyScriptPath, d.ScriptPath)
	v.SetDefault(KeyInterpreterPath, d.InterpreterPath)
	v.SetDefault(KeyRunOnOpen, d.RunOnOpen)
	v.SetDefault(KeyRunOnSave, d.RunOnSave)
	v.SetDefault(KeyRunOnChange, d.RunOnChange)
	v.SetDefault(KeyMaxOutputBytes, d.MaxOutputBytes)
	v.SetDefault(KeyBundleDir, d.BundleDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the settings held by v. Rule keys are upper-cased because
// viper lower-cases map keys.
func Load(v *viper.Viper) (Settings, error) {
	s := Default()
	if err := v.Unmarshal(&s); err != nil {
		return Default(), err
	}
	if s.MaxOutputBytes <= 0 {
		s.MaxOutputBytes = DefaultMaxOutputBytes
	}
	return s.Clone(), nil
}
