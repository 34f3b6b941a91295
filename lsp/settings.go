// Copyright © 2026 The tangolint authors

package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/davejwalsh/tangolint/config"
	"github.com/davejwalsh/tangolint/pipeline"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// pythonSection is the client settings section of the Python extension,
// which knows the interpreter selected for a workspace.
const pythonSection = "python"

var (
	errNoClient      = errors.New("no client connection")
	errClientStalled = errors.New("client has not answered an earlier request")
)

// setClientSettings records a client settings payload. Payloads that do
// not decode are ignored and the previous client settings stay in effect.
func (s *Server) setClientSettings(payload any) bool {
	s.mu.Lock()
	if _, ok := config.Apply(s.base, payload); !ok {
		s.mu.Unlock()
		return false
	}
	s.client = payload
	s.mu.Unlock()
	s.pipe.SetSettings(s.effectiveSettings())
	return true
}

// effectiveSettings lays the client settings over the base settings.
func (s *Server) effectiveSettings() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if settings, ok := config.Apply(s.base, s.client); ok {
		return settings
	}
	return s.base.Clone()
}

// workspaceDidChangeConfiguration applies pushed settings, or pulls them
// when the client only signals that something changed, and re-runs open
// documents.
func (s *Server) workspaceDidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	s.captureClient(ctx)
	if s.setClientSettings(params.Settings) {
		s.log.Info("client settings changed")
		go func() {
			defer s.recoverPanic("replay")
			s.pipe.Replay()
		}()
		return nil
	}
	if s.clientConfig {
		go func() {
			defer s.recoverPanic("settings pull")
			if s.pullSettings() {
				s.pipe.Replay()
			}
		}()
	}
	return nil
}

// pullSettings requests the tangolint section from the client and reports
// whether new settings were applied. It must not run on the handler
// goroutine.
func (s *Server) pullSettings() bool {
	section := config.Section
	var result []json.RawMessage
	ctx, cancel := context.WithTimeout(context.Background(), s.clientTimeout)
	defer cancel()
	err := s.callClient(ctx, protocol.ServerWorkspaceConfiguration, &protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{{Section: &section}},
	}, &result)
	if err != nil {
		s.log.Debugf("pulling client settings: %v", err)
		return false
	}
	if len(result) == 0 {
		return false
	}
	var payload any
	if err := json.Unmarshal(result[0], &payload); err != nil || payload == nil {
		return false
	}
	if !s.setClientSettings(payload) {
		return false
	}
	s.log.Info("pulled client settings")
	return true
}

// callClient sends a request to the client and waits for the reply or for
// ctx to end. glsp logs request errors instead of returning them, so an
// unanswered or failed request leaves result untouched. While a timed-out
// request is still waiting for its reply, further requests fail with
// errClientStalled instead of piling up behind it.
func (s *Server) callClient(ctx context.Context, method string, params, result any) error {
	s.callMu.Lock()
	call, stalled := s.call, s.stalled
	s.callMu.Unlock()
	if call == nil {
		return errNoClient
	}
	if stalled > 0 {
		return fmt.Errorf("%s: %w", method, errClientStalled)
	}
	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		call(method, params, result)
	}()
	select {
	case r := <-done:
		if r != nil {
			return fmt.Errorf("%s: %v", method, r)
		}
		return nil
	case <-ctx.Done():
		s.callMu.Lock()
		s.stalled++
		s.callMu.Unlock()
		go func() {
			<-done
			s.callMu.Lock()
			s.stalled--
			s.callMu.Unlock()
		}()
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// pythonSettings is the part of the Python extension's settings that
// names an interpreter.
type pythonSettings struct {
	ExecCommand            []string `json:"execCommand"`
	DefaultInterpreterPath string   `json:"defaultInterpreterPath"`
	PythonPath             string   `json:"pythonPath"`
}

// clientInterpreter asks the client which interpreter its Python support
// selected for the document. Any failure means "no answer".
func (s *Server) clientInterpreter(ctx context.Context, documentPath string) ([]string, error) {
	if !s.clientConfig {
		return nil, errNoClient
	}
	scope := pipeline.PathToURI(documentPath)
	section := pythonSection
	var result []json.RawMessage
	ctx, cancel := context.WithTimeout(ctx, s.clientTimeout)
	defer cancel()
	err := s.callClient(ctx, protocol.ServerWorkspaceConfiguration, &protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{{ScopeURI: &scope, Section: &section}},
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, errors.New("empty configuration reply")
	}
	var py pythonSettings
	if err := json.Unmarshal(result[0], &py); err != nil {
		return nil, fmt.Errorf("python settings: %w", err)
	}
	switch {
	case len(py.ExecCommand) > 0:
		return py.ExecCommand, nil
	case strings.TrimSpace(py.DefaultInterpreterPath) != "":
		return []string{py.DefaultInterpreterPath}, nil
	case strings.TrimSpace(py.PythonPath) != "":
		return []string{py.PythonPath}, nil
	}
	return nil, errors.New("client reported no interpreter")
}
