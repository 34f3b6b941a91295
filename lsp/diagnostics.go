// Copyright © 2026 The tangolint authors

package lsp

import (
	"github.com/davejwalsh/tangolint/pipeline"
	"github.com/davejwalsh/tangolint/report"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureClient(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		params.TextDocument.LanguageID,
		params.TextDocument.Version,
		params.TextDocument.Text,
	)
	s.setActive(doc.URI)
	s.pipe.Trigger(doc.pipelineDocument(), pipeline.TriggerOpen)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureClient(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}
	doc := s.docs.Change(params.TextDocument.URI, params.TextDocument.Version, content)
	s.setActive(doc.URI)
	s.pipe.Trigger(doc.pipelineDocument(), pipeline.TriggerChange)
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureClient(ctx)
	doc := s.docs.Save(params.TextDocument.URI, params.Text)
	if doc == nil {
		return nil
	}
	s.setActive(doc.URI)
	s.pipe.Trigger(doc.pipelineDocument(), pipeline.TriggerSave)
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.captureClient(ctx)
	uri := params.TextDocument.URI
	s.pipe.Close(uri)
	s.docs.Close(uri)
	if s.activeURI() == uri {
		s.setActive("")
		s.sendNotification(MethodStatus, newStatusParams("", pipeline.Status{}))
	}
	return nil
}

// PublishDiagnostics implements pipeline.Publisher. The analyzer read the
// file on disk; diagnostics already suppressed by a "# noqa" in the
// editor's unsaved buffer are not shown.
func (s *Server) PublishDiagnostics(uri string, diags []report.Diagnostic) {
	doc := s.docs.Get(uri)
	var content string
	if doc != nil {
		content = doc.snapshot()
		diags = report.Filter(diags, content)
	}
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		line, known := "", false
		if doc != nil {
			line, known = lineAt(content, d.Range.StartLine)
		}
		out = append(out, convertDiagnostic(d, line, known))
	}
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}

// PublishStatus implements pipeline.Publisher. Only the active document's
// status is shown; failures of any document are reported as a warning.
func (s *Server) PublishStatus(uri string, st pipeline.Status) {
	if uri == s.activeURI() {
		s.sendNotification(MethodStatus, newStatusParams(uri, st))
	}
	if st.State == pipeline.StateFailed {
		s.sendNotification(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeWarning,
			Message: "TangoLint failed: " + st.Detail,
		})
	}
}

// convertDiagnostic converts an analyzer diagnostic to an LSP Diagnostic.
func convertDiagnostic(d report.Diagnostic, line string, known bool) protocol.Diagnostic {
	sev := mapSeverity(d.Severity)
	source := d.Source
	if source == "" {
		source = report.Source
	}
	return protocol.Diagnostic{
		Range:    diagnosticRange(d.Range, line, known),
		Severity: &sev,
		Source:   &source,
		Code:     &protocol.IntegerOrString{Value: d.Code},
		Message:  d.Message,
	}
}

// mapSeverity converts a report.Severity to a protocol.DiagnosticSeverity.
func mapSeverity(sev report.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case report.SeverityError:
		return protocol.DiagnosticSeverityError
	case report.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}
