// Copyright © 2026 The tangolint authors

package report

import (
	"regexp"
	"strings"
)

// The analyzer honours a trailing "# noqa" marker on a source line. A bare
// marker suppresses every diagnostic on the line; "# noqa: T023, G001"
// suppresses only the listed codes.
var noqaRE = regexp.MustCompile(`(?i)#\s*noqa(?::\s*([A-Z0-9,\s]+))?`)

// Suppression is the noqa directive found on one source line.
type Suppression struct {
	// All is set for a bare marker.
	All bool

	// Codes lists the upper-cased codes of a marker with arguments.
	Codes []string
}

// Covers reports whether the directive suppresses code.
func (s Suppression) Covers(code string) bool {
	if s.All {
		return true
	}
	code = strings.ToUpper(code)
	for _, c := range s.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// ParseSuppression returns the directive on a single source line.
func ParseSuppression(line string) (Suppression, bool) {
	m := noqaRE.FindStringSubmatch(line)
	if m == nil {
		return Suppression{}, false
	}
	var codes []string
	for _, c := range strings.Split(m[1], ",") {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		return Suppression{All: true}, true
	}
	return Suppression{Codes: codes}, true
}

// ParseSuppressions maps 0-based line numbers to the noqa directive found
// on that line.
func ParseSuppressions(source string) map[int]Suppression {
	out := make(map[int]Suppression)
	for i, line := range strings.Split(source, "\n") {
		if s, ok := ParseSuppression(line); ok {
			out[i] = s
		}
	}
	return out
}

// Filter drops diagnostics covered by a noqa directive in source. The
// analyzer applies the same rule to the file it read; the LSP host applies
// Filter to the editor buffer, which may be newer.
func Filter(diags []Diagnostic, source string) []Diagnostic {
	sups := ParseSuppressions(source)
	if len(sups) == 0 {
		return diags
	}
	var kept []Diagnostic
	for _, d := range diags {
		if s, ok := sups[d.Range.StartLine]; ok && s.Covers(d.Code) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// SuppressionEdit computes the insertion that makes line suppress code. It
// returns the byte offset within line at which to insert and the text to
// insert. ok is false when the line already suppresses code.
func SuppressionEdit(line, code string) (offset int, text string, ok bool) {
	code = strings.ToUpper(code)
	line = strings.TrimRight(line, "\r")
	loc := noqaRE.FindStringSubmatchIndex(line)
	if loc == nil {
		return len(line), "  # noqa: " + code, true
	}
	s, _ := ParseSuppression(line)
	if s.Covers(code) {
		return 0, "", false
	}
	// Append to the existing code list, after its last non-space byte.
	end := loc[3]
	for end > loc[2] && (line[end-1] == ' ' || line[end-1] == '\t') {
		end--
	}
	return end, ", " + code, true
}
