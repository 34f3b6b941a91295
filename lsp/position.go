// Copyright © 2026 The tangolint authors

package lsp

import (
	"unicode/utf8"

	"fortio.org/safecast"
	"github.com/davejwalsh/tangolint/report"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// values outside the uinteger range.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	u, err := safecast.Conv[protocol.UInteger](n)
	if err != nil {
		return protocol.UInteger(report.EndOfLine)
	}
	return u
}

// utf16Len returns the length of s in UTF-16 code units, the unit of LSP
// character offsets.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// utf16Offset converts a byte offset within line to UTF-16 code units. The
// analyzer reports Python AST column offsets, which count UTF-8 bytes.
func utf16Offset(line string, byteOff int) int {
	if byteOff >= len(line) {
		return utf16Len(line)
	}
	for byteOff > 0 && !utf8.RuneStart(line[byteOff]) {
		byteOff--
	}
	return utf16Len(line[:byteOff])
}

// diagnosticRange converts an analyzer range to an LSP range. When the
// document line is known, columns are converted to UTF-16 and the end of
// line sentinel is clipped to the line length.
func diagnosticRange(r report.Range, line string, known bool) protocol.Range {
	start := protocol.Position{Line: safeUint(r.StartLine), Character: safeUint(r.StartCol)}
	end := protocol.Position{Line: safeUint(r.EndLine), Character: safeUint(r.EndCol)}
	if !known {
		return protocol.Range{Start: start, End: end}
	}
	start.Character = safeUint(utf16Offset(line, r.StartCol))
	endCol := utf16Len(line)
	if r.EndCol != report.EndOfLine {
		endCol = utf16Offset(line, r.EndCol)
	}
	end.Character = safeUint(max(endCol, int(start.Character)))
	return protocol.Range{Start: start, End: end}
}
