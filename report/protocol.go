// Copyright © 2026 The tangolint authors

// Package report implements the text protocol spoken by the external
// tangolint analyzer and the diagnostic records derived from it.
//
// Protocol version 1. The analyzer writes one issue per line:
//
//	<path>:<line>:<col>: <severity>: <code> <message>
//
// where <line> is 1-based, <col> is a 0-based column offset, <severity> is
// one of error, warning or info, and <code> is one uppercase letter followed
// by digits. Everything else the analyzer prints (banners, separators,
// summaries, "No issues found") is ignored. Changing the field order or the
// code pattern is a breaking change that needs a matching analyzer release.
package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ProtocolVersion identifies the line grammar implemented by Parse.
const ProtocolVersion = 1

// lineRE matches one report line. The path group is greedy so that paths
// containing colons (drive letters, URIs) resolve against the right-most
// line/col/severity/code sequence.
var lineRE = regexp.MustCompile(`^(.+):(\d+):(\d+): (error|warning|info): ([A-Z]\d+)(?: (.*))?$`)

// ansiRE matches SGR colour sequences emitted when the analyzer is run
// without --no-color.
var ansiRE = regexp.MustCompile("\x1b\\[[0-9;]*m")

// Entry is one parsed report line.
type Entry struct {
	// Path is the file path exactly as the analyzer printed it.
	Path string

	Diagnostic
}

// ParseLine parses a single report line. ok is false for lines outside the
// grammar.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimRight(line, "\r\n")
	line = ansiRE.ReplaceAllString(line, "")
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	lineNo, err := strconv.Atoi(m[2])
	if err != nil {
		return Entry{}, false
	}
	col, err := strconv.Atoi(m[3])
	if err != nil {
		return Entry{}, false
	}
	lineNo = max(lineNo-1, 0)
	col = max(col, 0)
	code := m[5]
	return Entry{
		Path: m[1],
		Diagnostic: Diagnostic{
			Range: Range{
				StartLine: lineNo,
				StartCol:  col,
				EndLine:   lineNo,
				EndCol:    EndOfLine,
			},
			Severity: ParseSeverity(m[4]),
			Code:     code,
			Message:  code + ": " + m[6],
			Source:   Source,
		},
	}, true
}

// ParseEntries parses a complete analyzer report, keeping the reported
// path of each issue.
func ParseEntries(text string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		if e, ok := ParseLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Parse converts an analyzer report into the diagnostic set for one run.
// A report without any matching line is valid and yields no diagnostics.
func Parse(text string) []Diagnostic {
	entries := ParseEntries(text)
	if len(entries) == 0 {
		return nil
	}
	diags := make([]Diagnostic, len(entries))
	for i, e := range entries {
		diags[i] = e.Diagnostic
	}
	return diags
}

// Format renders d as a report line for path. It is the inverse of
// ParseLine on line, column, severity, code and message.
func Format(path string, d Diagnostic) string {
	msg := strings.TrimPrefix(d.Message, d.Code+": ")
	return fmt.Sprintf("%s:%d:%d: %s: %s %s",
		path, d.Range.StartLine+1, d.Range.StartCol, d.Severity, d.Code, msg)
}

var messageCodeRE = regexp.MustCompile(`^([A-Z]\d+):(?: |$)`)

// MessageCode returns the rule code a diagnostic message starts with. LSP
// clients echo diagnostics back in code action requests, and the message
// survives the round trip even where the code field does not.
func MessageCode(msg string) (string, bool) {
	m := messageCodeRE.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	return m[1], true
}
