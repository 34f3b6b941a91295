// Copyright © 2026 The tangolint authors

package cmd

import (
	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/lsp"
)

// Option configures an exported command factory (LSPCommand, CheckCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	runner        analyzer.Runner
	interpreters  analyzer.InterpreterSource
	serverOptions []lsp.Option
}

// WithRunner replaces the process runner used to execute the analyzer.
func WithRunner(r analyzer.Runner) Option {
	return func(c *cmdConfig) { c.runner = r }
}

// WithInterpreterSource replaces the interpreter lookup used when no
// interpreter is configured. The check command defaults to the active
// virtual environment.
func WithInterpreterSource(src analyzer.InterpreterSource) Option {
	return func(c *cmdConfig) { c.interpreters = src }
}

// WithServerOptions passes extra options to the language server.
func WithServerOptions(opts ...lsp.Option) Option {
	return func(c *cmdConfig) { c.serverOptions = append(c.serverOptions, opts...) }
}

func newCmdConfig(opts []Option) cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// interpreterSource returns the configured source, falling back to the
// active virtual environment.
func (c *cmdConfig) interpreterSource() analyzer.InterpreterSource {
	if c.interpreters != nil {
		return c.interpreters
	}
	return analyzer.VirtualEnv{}
}
