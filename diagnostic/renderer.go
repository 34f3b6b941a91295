// Copyright © 2026 The tangolint authors

package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/davejwalsh/tangolint/report"
)

// Renderer formats diagnostics as annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	// sources caches split file contents across Render calls.
	sources map[string][]string
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, fileFromWriter(w))
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	r.writeHeader(ew, d, p)
	for _, span := range d.Spans {
		r.writeSpan(ew, span, p)
	}
	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", p.boldCyan("="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// RenderReports writes every diagnostic of reports followed by a summary
// line.
func (r *Renderer) RenderReports(w io.Writer, reports []report.FileReport) error {
	var all []Diagnostic
	var errs, warns, infos int
	for _, fr := range reports {
		for _, d := range fr.Diagnostics {
			all = append(all, FromReport(fr.File, d))
		}
		e, wn, i := report.Counts(fr.Diagnostics)
		errs, warns, infos = errs+e, warns+wn, infos+i
	}
	if err := r.RenderAll(w, all); err != nil {
		return err
	}
	if len(all) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return r.Summary(w, len(reports), errs, warns, infos)
}

// Summary writes the closing line of a check run.
func (r *Renderer) Summary(w io.Writer, files, errs, warns, infos int) error {
	p := choosePalette(r.Color, fileFromWriter(w))
	checked := fmt.Sprintf("checked %s", plural(files, "file"))
	if errs+warns+infos == 0 {
		_, err := fmt.Fprintf(w, "%s: %s\n", checked, p.green("no issues found"))
		return err
	}
	var parts []string
	if errs > 0 {
		parts = append(parts, p.boldRed(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.yellow(plural(warns, "warning")))
	}
	if infos > 0 {
		parts = append(parts, p.boldCyan(plural(infos, "info")))
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", checked, strings.Join(parts, ", "))
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if noun == "info" {
		return fmt.Sprintf("%d infos", n)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes. This avoids checking every fmt.Fprintf return value.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

// writeHeader writes "warning[T023]: message".
func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	label := d.Severity.String()
	if d.Code != "" {
		label += "[" + d.Code + "]"
	}
	ew.printf("%s: %s\n", p.severityStyle(d.Severity.String())(label), p.bold(d.Message))
}

func (r *Renderer) writeSpan(ew *errWriter, span Span, p palette) {
	// Location line: "  --> file:line:col"
	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	ew.printf("  %s %s\n", p.boldBlue("-->"), loc)

	source, ok := r.readSourceLine(span.File, span.Line)
	if !ok {
		ew.printf("   %s\n", p.boldBlue("|"))
		return
	}

	lineStr := fmt.Sprintf("%d", span.Line)
	pad := strings.Repeat(" ", len(lineStr))
	gutter := p.boldBlue(pad + " |")

	ew.printf(" %s\n", gutter)
	// Tabs are expanded so the underline lines up.
	ew.printf(" %s  %s\n", p.boldBlue(lineStr+" |"), strings.ReplaceAll(source, "\t", "    "))

	col := max(span.Col, 1)
	endCol := span.EndCol
	switch {
	case endCol == ToEndOfLine:
		endCol = len(strings.TrimRight(source, " \t"))
	case endCol <= 0:
		endCol = r.detectEndCol(source, col)
	}
	endCol = max(endCol, col)

	prefix := ""
	if col > 1 && col-1 <= len(source) {
		prefix = source[:col-1]
	}
	underPad := strings.Repeat(" ", displayWidth(prefix))
	underline := strings.Repeat("^", displayWidth(sliceCols(source, col, endCol)))
	if underline == "" {
		underline = "^"
	}

	ew.printf(" %s  %s%s", gutter, underPad, p.boldRed(underline))
	if span.Label != "" {
		ew.printf(" %s", p.boldRed(span.Label))
	}
	ew.print("\n")
	ew.printf(" %s\n", gutter)
}

// readSourceLine returns 1-based line of file, without its terminator.
func (r *Renderer) readSourceLine(file string, line int) (string, bool) {
	if line <= 0 || file == "" {
		return "", false
	}
	lines, ok := r.sources[file]
	if !ok {
		reader := r.SourceReader
		if reader == nil {
			reader = func(name string) ([]byte, error) {
				return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
			}
		}
		data, err := reader(file)
		if err == nil {
			lines = strings.Split(string(data), "\n")
		}
		if r.sources == nil {
			r.sources = make(map[string][]string)
		}
		r.sources[file] = lines
	}
	if line > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[line-1], "\r"), true
}

// sliceCols returns the bytes of source between 1-based columns col and
// endCol inclusive, clamped to the line.
func sliceCols(source string, col, endCol int) string {
	start := min(col-1, len(source))
	end := min(endCol, len(source))
	if end < start {
		return ""
	}
	return source[start:end]
}

// detectEndCol scans from col to find the end of the current token.
func (r *Renderer) detectEndCol(source string, col int) int {
	if col <= 0 || col > len(source) {
		return col
	}
	end := col - 1 // 0-based
	for end < len(source) {
		ch, size := utf8.DecodeRuneInString(source[end:])
		if ch == ' ' || ch == '\t' || ch == ')' || ch == ']' || ch == '(' || ch == '[' || ch == ',' || ch == ':' || ch == '.' {
			break
		}
		end += size
	}
	if end == col-1 {
		return col // single character
	}
	return end // convert back to 1-based end column
}

// displayWidth returns the display width of a string, expanding tabs to 4 spaces.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}

// fileFromWriter attempts to extract an *os.File from a writer for terminal
// detection. Returns nil if the writer is not backed by a file.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
