// Copyright © 2026 The tangolint authors

package diagnostic

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

type paint func(a ...any) string

// palette holds the styles used for diagnostic output.
type palette struct {
	bold     paint
	yellow   paint
	green    paint
	boldRed  paint
	boldBlue paint
	boldCyan paint
}

func newPalette(enabled bool) palette {
	style := func(attrs ...color.Attribute) paint {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		bold:     style(color.Bold),
		yellow:   style(color.FgYellow, color.Bold),
		green:    style(color.FgGreen, color.Bold),
		boldRed:  style(color.FgRed, color.Bold),
		boldBlue: style(color.FgBlue, color.Bold),
		boldCyan: style(color.FgCyan, color.Bold),
	}
}

// severityStyle returns the style of a severity label.
func (p palette) severityStyle(sev string) paint {
	switch sev {
	case "error":
		return p.boldRed
	case "warning":
		return p.yellow
	default:
		return p.boldCyan
	}
}

// choosePalette selects the appropriate color palette based on the mode
// and the output file descriptor.
func choosePalette(mode ColorMode, w *os.File) palette {
	switch mode {
	case ColorAlways:
		return newPalette(true)
	case ColorNever:
		return newPalette(false)
	default: // ColorAuto
		if os.Getenv("NO_COLOR") != "" {
			return newPalette(false)
		}
		return newPalette(isTerminal(w))
	}
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
