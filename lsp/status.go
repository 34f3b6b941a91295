// Copyright © 2026 The tangolint authors

package lsp

import "github.com/davejwalsh/tangolint/pipeline"

// MethodStatus is the server-to-client notification carrying the status
// of the active document.
const MethodStatus = "tangolint/status"

// StatusParams is the payload of MethodStatus.
type StatusParams struct {
	URI string `json:"uri"`
	pipeline.Status

	// Text is the rendered status line.
	Text string `json:"text"`
}

func newStatusParams(uri string, st pipeline.Status) *StatusParams {
	return &StatusParams{URI: uri, Status: st, Text: st.Text()}
}
