// Copyright © 2026 The tangolint authors

// Package lsp implements a Language Server Protocol server that publishes
// tangolint analyzer diagnostics for Python documents. It also provides a
// noqa quick fix and the tangolint.run and tangolint.showRules commands.
package lsp

import (
	"os"
	"sync"
	"time"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/config"
	"github.com/davejwalsh/tangolint/pipeline"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const serverName = "tangolint-lsp"

// Version is reported to clients in the initialize response.
var Version = "0.1.0"

// Server is the tangolint language server.
type Server struct {
	handler protocol.Handler
	glspSrv *glspserver.Server
	docs    *DocumentStore
	log     commonlog.Logger

	engine *analyzer.Engine
	pipe   *pipeline.Pipeline

	mu      sync.RWMutex
	folders analyzer.Workspace

	// Settings from the command line and config file, and the last client
	// settings payload laid over them.
	base   config.Settings
	client any

	// Interpreter lookups through the client are only attempted when the
	// client announced workspace/configuration support.
	clientConfig   bool
	clientTimeout  time.Duration
	interpreterSrc analyzer.InterpreterSource

	activeMu sync.Mutex
	active   string

	pipeOpts []pipeline.Option

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// Client request function. Must never be used from inside a handler:
	// requests are handled one at a time, so the reply could not be read.
	callMu sync.Mutex
	call   glsp.CallFunc
	// stalled counts timed-out requests still waiting for a reply.
	stalled int

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithSettings sets the settings clients override.
func WithSettings(s config.Settings) Option {
	return func(srv *Server) { srv.base = s.Clone() }
}

// WithBundleDir sets the directory the bundled analyzer was deployed to.
func WithBundleDir(dir string) Option {
	return func(srv *Server) { srv.engine.BundleDir = dir }
}

// WithRunner replaces the process runner.
func WithRunner(r analyzer.Runner) Option {
	return func(srv *Server) { srv.engine.Runner = r }
}

// WithInterpreterSource replaces the interpreter lookup, which defaults to
// asking the client and then the server's virtual environment.
func WithInterpreterSource(src analyzer.InterpreterSource) Option {
	return func(srv *Server) { srv.interpreterSrc = src }
}

// WithClientTimeout bounds requests the server makes to the client.
func WithClientTimeout(d time.Duration) Option {
	return func(srv *Server) { srv.clientTimeout = d }
}

// WithPipelineOptions passes options to the diagnostic pipeline.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(srv *Server) { srv.pipeOpts = append(srv.pipeOpts, opts...) }
}

// New creates a new tangolint LSP server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:          NewDocumentStore(),
		log:           commonlog.GetLogger("tangolint.lsp"),
		base:          config.Default(),
		clientTimeout: 2 * time.Second,
		exitFn:        os.Exit,
		engine: &analyzer.Engine{
			Log: commonlog.GetLogger("tangolint.analyzer"),
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.engine.WorkspaceRoot = s.workspaceRoot
	if s.interpreterSrc == nil {
		// The editor's Python selection, then the environment the server
		// was started from.
		s.interpreterSrc = analyzer.FirstOf{
			analyzer.InterpreterSourceFunc(s.clientInterpreter),
			analyzer.VirtualEnv{},
		}
	}
	s.engine.Interpreters = s.interpreterSrc

	pipeOpts := append([]pipeline.Option{pipeline.WithSettings(s.base)}, s.pipeOpts...)
	s.pipe = pipeline.New(s.engine, s, pipeOpts...)

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCodeAction: s.textDocumentCodeAction,

		WorkspaceDidChangeConfiguration:    s.workspaceDidChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: s.workspaceDidChangeWorkspaceFolders,
		WorkspaceExecuteCommand:            s.workspaceExecuteCommand,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// SetBaseSettings replaces the non-client settings, for example after the
// config file changed, and re-runs open documents.
func (s *Server) SetBaseSettings(base config.Settings) {
	s.mu.Lock()
	s.base = base.Clone()
	s.mu.Unlock()
	s.pipe.SetSettings(s.effectiveSettings())
	s.pipe.Replay()
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureClient(ctx)

	var folders analyzer.Workspace
	for _, f := range params.WorkspaceFolders {
		if p, ok := pipeline.URIToPath(f.URI); ok {
			folders = append(folders, p)
		}
	}
	if len(folders) == 0 {
		if params.RootURI != nil {
			if p, ok := pipeline.URIToPath(*params.RootURI); ok {
				folders = append(folders, p)
			}
		} else if params.RootPath != nil && *params.RootPath != "" {
			folders = append(folders, *params.RootPath)
		}
	}
	s.mu.Lock()
	s.folders = folders
	s.mu.Unlock()

	if ws := params.Capabilities.Workspace; ws != nil && ws.Configuration != nil {
		s.clientConfig = *ws.Configuration
	}
	s.setClientSettings(params.InitializationOptions)

	capabilities := s.handler.CreateServerCapabilities()

	// Analysis reads files from disk; content is only kept for range
	// clipping and code actions.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(true)},
	}
	capabilities.CodeActionProvider = &protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandRun, CommandShowRules},
	}
	capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{
		WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
			Supported:           boolPtr(true),
			ChangeNotifications: &protocol.BoolOrString{Value: true},
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &Version,
		},
	}, nil
}

// initialized starts the pipeline once the client is ready, replaying
// documents opened before. Client settings are pulled in the background
// when the client supports it; open documents are re-run if they changed.
func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureClient(ctx)
	open := s.docs.All()
	docs := make([]pipeline.Document, 0, len(open))
	for _, doc := range open {
		docs = append(docs, doc.pipelineDocument())
	}
	s.pipe.Start(docs)
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

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	s.pipe.Stop()
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// workspaceRoot returns the workspace folder containing path.
func (s *Server) workspaceRoot(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folders.RootFor(path)
}

// workspaceDidChangeWorkspaceFolders tracks added and removed folders.
func (s *Server) workspaceDidChangeWorkspaceFolders(ctx *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	s.captureClient(ctx)
	removed := make(map[string]bool)
	for _, f := range params.Event.Removed {
		if p, ok := pipeline.URIToPath(f.URI); ok {
			removed[p] = true
		}
	}
	s.mu.Lock()
	var folders analyzer.Workspace
	for _, f := range s.folders {
		if !removed[f] {
			folders = append(folders, f)
		}
	}
	for _, f := range params.Event.Added {
		if p, ok := pipeline.URIToPath(f.URI); ok {
			folders = append(folders, p)
		}
	}
	s.folders = folders
	s.mu.Unlock()
	return nil
}

// setActive records the document the user is working on; its status is
// the one reported to the client.
func (s *Server) setActive(uri string) {
	s.activeMu.Lock()
	s.active = uri
	s.activeMu.Unlock()
}

func (s *Server) activeURI() string {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return s.active
}

// captureClient stores the notification and request functions from the
// context for async use (e.g., publishing diagnostics after a run).
func (s *Server) captureClient(ctx *glsp.Context) {
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
	if ctx.Call != nil {
		s.callMu.Lock()
		s.call = ctx.Call
		s.callMu.Unlock()
	}
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func (s *Server) recoverPanic(where string) {
	if r := recover(); r != nil {
		s.log.Errorf("panic in %s: %v", where, r)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
