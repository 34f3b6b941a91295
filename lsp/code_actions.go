// Copyright © 2026 The tangolint authors

package lsp

import (
	"fmt"

	"github.com/davejwalsh/tangolint/report"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCodeAction handles the textDocument/codeAction request.
// It offers a "# noqa" suppression for every tangolint diagnostic in the
// request context.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	// If the client only wants specific kinds, check we support them.
	if len(params.Context.Only) > 0 {
		if !slicesContains(params.Context.Only, protocol.CodeActionKindQuickFix) {
			return nil, nil
		}
	}

	content := doc.snapshot()
	type key struct {
		line protocol.UInteger
		code string
	}
	seen := make(map[key]bool)
	var actions []protocol.CodeAction
	for _, diag := range params.Context.Diagnostics {
		if diag.Source == nil || *diag.Source != report.Source {
			continue
		}
		code, ok := diagnosticCode(diag)
		if !ok {
			continue
		}
		k := key{diag.Range.Start.Line, code}
		if seen[k] {
			continue
		}
		seen[k] = true
		if action, ok := suppressAction(params.TextDocument.URI, diag, code, content); ok {
			actions = append(actions, action)
		}
	}

	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// diagnosticCode returns the rule code of a diagnostic sent back by the
// client. glsp does not decode the code field of incoming diagnostics, so
// the "<CODE>: " message prefix is used when the field is empty.
func diagnosticCode(diag protocol.Diagnostic) (string, bool) {
	if diag.Code != nil {
		if code, ok := diag.Code.Value.(string); ok && code != "" {
			return code, true
		}
	}
	return report.MessageCode(diag.Message)
}

// suppressAction creates a code action that adds code to the line's noqa
// marker, or appends a marker when the line has none.
func suppressAction(uri string, diag protocol.Diagnostic, code, content string) (protocol.CodeAction, bool) {
	line, ok := lineAt(content, int(diag.Range.Start.Line))
	if !ok {
		return protocol.CodeAction{}, false
	}
	off, text, ok := report.SuppressionEdit(line, code)
	if !ok {
		return protocol.CodeAction{}, false
	}

	kind := protocol.CodeActionKindQuickFix
	insertPos := protocol.Position{Line: diag.Range.Start.Line, Character: safeUint(utf16Offset(line, off))}
	return protocol.CodeAction{
		Title:       fmt.Sprintf("Suppress %s with # noqa", code),
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[string][]protocol.TextEdit{
				uri: {
					{
						Range:   protocol.Range{Start: insertPos, End: insertPos},
						NewText: text,
					},
				},
			},
		},
	}, true
}

// slicesContains checks if a string slice contains a value.
func slicesContains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
