// Copyright © 2026 The tangolint authors

// Package diagnostic renders analyzer diagnostics as annotated source
// snippets for terminal output. It depends only on the report and rules
// packages so any command can use it.
package diagnostic

import (
	"strings"

	"github.com/davejwalsh/tangolint/report"
	"github.com/davejwalsh/tangolint/rules"
)

// ToEndOfLine is a Span.EndCol that underlines the rest of the line.
const ToEndOfLine = -1

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// Diagnostic represents a single issue with optional source annotations
// and trailing notes.
type Diagnostic struct {
	Severity report.Severity
	Code     string
	Message  string
	Spans    []Span
	Notes    []string // "= note:" lines
}

// FromReport converts an analyzer diagnostic found in file. Registered
// codes get their rule summary as a note.
func FromReport(file string, d report.Diagnostic) Diagnostic {
	msg := strings.TrimPrefix(d.Message, d.Code+": ")
	span := Span{
		File:   file,
		Line:   d.Range.StartLine + 1,
		Col:    d.Range.StartCol + 1,
		EndCol: ToEndOfLine,
	}
	if d.Range.EndCol != report.EndOfLine && d.Range.EndLine == d.Range.StartLine {
		span.EndCol = d.Range.EndCol
	}
	out := Diagnostic{
		Severity: d.Severity,
		Code:     d.Code,
		Message:  msg,
		Spans:    []Span{span},
	}
	if r, ok := rules.Lookup(d.Code); ok {
		out.Notes = append(out.Notes, r.Summary)
	}
	if d.Code != "" {
		out.Notes = append(out.Notes, "suppress with `# noqa: "+d.Code+"`")
	}
	return out
}
