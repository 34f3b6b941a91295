// Copyright © 2026 The tangolint authors

package report

import (
	"encoding/json"
	"io"
	"math"
)

// Source is the source label attached to every analyzer diagnostic.
const Source = "tangolint"

// EndOfLine is the end column used for every diagnostic range. The analyzer
// does not report an end position, so hosts clip this to the real length of
// the line.
const EndOfLine = math.MaxInt32

// Range is a 0-based region of a document.
type Range struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// Diagnostic is a single issue reported by the analyzer for one document.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`

	// Code is the analyzer rule code, e.g. "T023".
	Code string `json:"code"`

	// Message is the display message, prefixed with the code
	// ("T023: Attribute 'foo' needs 'description'").
	Message string `json:"message"`

	Source string `json:"source"`
}

// Counts tallies diagnostics by severity.
func Counts(diags []Diagnostic) (errors, warnings, infos int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		default:
			infos++
		}
	}
	return errors, warnings, infos
}

// FileReport groups the diagnostics found in one file.
type FileReport struct {
	File        string       `json:"file"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// FormatJSON writes file reports as JSON.
func FormatJSON(w io.Writer, reports []FileReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
