// Copyright © 2026 The tangolint authors

package cmd

import (
	"github.com/davejwalsh/tangolint/diagnostic"
)

func colorMode(flag string) diagnostic.ColorMode {
	switch flag {
	case "always":
		return diagnostic.ColorAlways
	case "never":
		return diagnostic.ColorNever
	default:
		return diagnostic.ColorAuto
	}
}

func newRenderer(flag string) *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode(flag)}
}
