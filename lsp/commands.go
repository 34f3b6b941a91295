// Copyright © 2026 The tangolint authors

package lsp

import (
	"fmt"

	"github.com/davejwalsh/tangolint/pipeline"
	"github.com/davejwalsh/tangolint/rules"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Commands accepted by workspace/executeCommand.
const (
	// CommandRun analyzes the document given as the first argument, or
	// the active document.
	CommandRun = "tangolint.run"

	// CommandShowRules returns the rule registry.
	CommandShowRules = "tangolint.showRules"
)

func (s *Server) workspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	s.captureClient(ctx)
	switch params.Command {
	case CommandRun:
		uri := s.activeURI()
		if len(params.Arguments) > 0 {
			arg, err := uriArgument(params.Arguments[0])
			if err != nil {
				return nil, err
			}
			uri = arg
		}
		if uri == "" {
			return nil, fmt.Errorf("%s: no active document", CommandRun)
		}
		doc := s.docs.Get(uri)
		if doc == nil {
			return nil, fmt.Errorf("%s: document not open: %s", CommandRun, uri)
		}
		pdoc := doc.pipelineDocument()
		if !pipeline.Eligible(pdoc) {
			return nil, fmt.Errorf("%s: not a python file on disk: %s", CommandRun, uri)
		}
		s.setActive(uri)
		s.pipe.Trigger(pdoc, pipeline.TriggerManual)
		return nil, nil
	case CommandShowRules:
		return rules.Registry, nil
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
}

// uriArgument accepts either a plain URI string or an object with a "uri"
// field, the shapes editors pass for "current file" arguments.
func uriArgument(arg any) (string, error) {
	switch v := arg.(type) {
	case string:
		return v, nil
	case map[string]any:
		if u, ok := v["uri"].(string); ok {
			return u, nil
		}
	}
	return "", fmt.Errorf("%s: invalid document argument %v", CommandRun, arg)
}
