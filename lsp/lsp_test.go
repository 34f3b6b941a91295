// Copyright © 2026 The tangolint authors

package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/pipeline"
	"github.com/davejwalsh/tangolint/report"
	"github.com/davejwalsh/tangolint/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// fakeRunner returns a canned analyzer report. "{file}" in stdout is
// replaced by the analyzed path.
type fakeRunner struct {
	stdout string
	stderr string
}

func (f fakeRunner) Run(_ context.Context, inv analyzer.Invocation) (analyzer.Result, error) {
	return analyzer.Result{
		Stdout: strings.ReplaceAll(f.stdout, "{file}", inv.File),
		Stderr: f.stderr,
	}, nil
}

// testServer creates a server with a bundled analyzer that is never
// executed: runs go through the given runner.
func testServer(t *testing.T, runner analyzer.Runner, opts ...Option) *Server {
	t.Helper()
	bundle := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bundle, analyzer.ScriptName), nil, 0o644))
	noClient := analyzer.InterpreterSourceFunc(func(context.Context, string) ([]string, error) {
		return nil, errors.New("no client")
	})
	base := []Option{
		WithBundleDir(bundle),
		WithRunner(runner),
		WithInterpreterSource(noClient),
		WithPipelineOptions(pipeline.WithDebounce(20 * time.Millisecond)),
	}
	s := New(append(base, opts...)...)
	t.Cleanup(func() {
		s.pipe.Stop()
		s.pipe.Wait()
	})
	return s
}

// capture records everything the server sends to the client.
type capture struct {
	mu       sync.Mutex
	diags    []*protocol.PublishDiagnosticsParams
	statuses []*StatusParams
	messages []*protocol.ShowMessageParams
}

func (c *capture) lastDiags(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.diags, "no diagnostics published")
	return c.diags[len(c.diags)-1]
}

// capturingContext returns a context that captures published diagnostics,
// status notifications and messages.
func capturingContext() (*glsp.Context, *capture) {
	c := &capture{}
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			c.mu.Lock()
			defer c.mu.Unlock()
			switch method {
			case protocol.ServerTextDocumentPublishDiagnostics:
				c.diags = append(c.diags, params.(*protocol.PublishDiagnosticsParams))
			case MethodStatus:
				c.statuses = append(c.statuses, params.(*StatusParams))
			case protocol.ServerWindowShowMessage:
				c.messages = append(c.messages, params.(*protocol.ShowMessageParams))
			}
		},
	}
	return ctx, c
}

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// openDoc sends didOpen for a python document and waits for its run.
func openDoc(t *testing.T, s *Server, ctx *glsp.Context, uri, content string) {
	t.Helper()
	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "python", Version: 1, Text: content},
	}))
	s.pipe.Wait()
}

const devURI = "file:///work/src/dev.py"

func TestInitializeCapabilities(t *testing.T) {
	s := testServer(t, fakeRunner{})
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{
		RootURI:               strPtr("file:///work"),
		InitializationOptions: map[string]any{"tangolint": map[string]any{"runOnChange": true}},
	})
	require.NoError(t, err)
	res := result.(protocol.InitializeResult)
	caps := res.Capabilities
	assert.NotNil(t, caps.CodeActionProvider)
	require.NotNil(t, caps.ExecuteCommandProvider)
	assert.Equal(t, []string{CommandRun, CommandShowRules}, caps.ExecuteCommandProvider.Commands)
	assert.Equal(t, serverName, res.ServerInfo.Name)

	assert.Equal(t, "/work", s.workspaceRoot("/work/src/dev.py"))
	assert.True(t, s.pipe.Settings().RunOnChange, "initializationOptions are applied")
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:2:4: warning: T023 Attribute 'foo' needs 'description'\n"})
	ctx, c := capturingContext()
	s.pipe.Start(nil)

	openDoc(t, s, ctx, devURI, "import tango\n    foo = attribute()\n")

	params := c.lastDiags(t)
	assert.Equal(t, devURI, params.URI)
	require.Len(t, params.Diagnostics, 1)
	d := params.Diagnostics[0]
	assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(4), d.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(21), d.Range.End.Character, "end of line is clipped to the line")
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)
	assert.Equal(t, "tangolint", *d.Source)
	assert.Equal(t, "T023", d.Code.Value)
	assert.Equal(t, "T023: Attribute 'foo' needs 'description'", d.Message)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.statuses)
	last := c.statuses[len(c.statuses)-1]
	assert.Equal(t, pipeline.StateWarnings, last.State)
	assert.Equal(t, "tangolint: 1 warning", last.Text)
}

func TestBufferNoqaHidesDiagnostics(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:2:4: warning: T023 Attribute 'foo' needs 'description'\n"})
	ctx, c := capturingContext()
	s.pipe.Start(nil)

	// The file on disk predates the marker; only the buffer carries it.
	openDoc(t, s, ctx, devURI, "import tango\n    foo = attribute()  # noqa: T023\n")
	assert.Empty(t, c.lastDiags(t).Diagnostics)

	openDoc(t, s, ctx, "file:///work/src/other.py", "import tango\n    foo = attribute()  # noqa: T001\n")
	assert.Len(t, c.lastDiags(t).Diagnostics, 1, "other codes stay visible")
}

func TestNonPythonDocumentsAreIgnored(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:1:0: error: T001 x\n"})
	ctx, c := capturingContext()
	s.pipe.Start(nil)

	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///work/README.md", LanguageID: "markdown", Text: "# hi"},
	}))
	s.pipe.Wait()
	assert.Empty(t, c.diags)
	assert.NotNil(t, s.docs.Get("file:///work/README.md"), "the document is still tracked")
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:1:0: error: T001 x\n"})
	ctx, c := capturingContext()
	s.pipe.Start(nil)
	openDoc(t, s, ctx, devURI, "class device:\n")
	require.Len(t, c.lastDiags(t).Diagnostics, 1)

	require.NoError(t, s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: devURI},
	}))
	last := c.lastDiags(t)
	assert.Equal(t, devURI, last.URI)
	assert.Empty(t, last.Diagnostics)
	assert.Nil(t, s.docs.Get(devURI))
}

func TestFailureShowsMessageAndKeepsDiagnostics(t *testing.T) {
	runner := &switchRunner{next: fakeRunner{stdout: "{file}:1:0: error: T001 x\n"}}
	s := testServer(t, runner)
	ctx, c := capturingContext()
	s.pipe.Start(nil)
	openDoc(t, s, ctx, devURI, "class device:\n")

	runner.set(fakeRunner{stderr: "Traceback (most recent call last):\n"})
	require.NoError(t, s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: devURI},
	}))
	s.pipe.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.diags, 1, "a failed run publishes nothing")
	require.Len(t, c.messages, 1)
	assert.Equal(t, protocol.MessageTypeWarning, c.messages[0].Type)
	assert.Contains(t, c.messages[0].Message, "Traceback")
	assert.Equal(t, pipeline.StateFailed, c.statuses[len(c.statuses)-1].State)
	assert.Len(t, s.pipe.Diagnostics(devURI), 1)
}

// switchRunner delegates to a runner that can be swapped between runs.
type switchRunner struct {
	mu   sync.Mutex
	next analyzer.Runner
}

func (r *switchRunner) set(next analyzer.Runner) {
	r.mu.Lock()
	r.next = next
	r.mu.Unlock()
}

func (r *switchRunner) Run(ctx context.Context, inv analyzer.Invocation) (analyzer.Result, error) {
	r.mu.Lock()
	next := r.next
	r.mu.Unlock()
	return next.Run(ctx, inv)
}

func TestDidChangeIsDebounced(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:1:0: info: G007 long\n"})
	ctx, c := capturingContext()
	_, err := s.initialize(ctx, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"runOnChange": true, "runOnOpen": false},
	})
	require.NoError(t, err)
	s.pipe.Start(nil)
	openDoc(t, s, ctx, devURI, "x = 1\n")
	assert.Empty(t, c.diags, "run_on_open is off")

	for i := 0; i < 3; i++ {
		require.NoError(t, s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: devURI},
				Version:                protocol.Integer(i + 2),
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x = 2\n"}},
		}))
	}
	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.diags) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "x = 2\n", s.docs.Get(devURI).snapshot())
}

func TestExecuteCommand(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:1:0: error: T001 x\n"})
	ctx, c := capturingContext()
	s.pipe.Start(nil)
	_, err := s.initialize(ctx, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"runOnOpen": false},
	})
	require.NoError(t, err)
	openDoc(t, s, ctx, devURI, "class device:\n")
	require.Empty(t, c.diags)

	result, err := s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   CommandRun,
		Arguments: []any{map[string]any{"uri": devURI}},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
	s.pipe.Wait()
	assert.Len(t, c.lastDiags(t).Diagnostics, 1, "manual runs ignore run_on_open")

	_, err = s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{Command: CommandRun})
	require.NoError(t, err, "defaults to the active document")
	s.pipe.Wait()

	_, err = s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   CommandRun,
		Arguments: []any{"file:///work/closed.py"},
	})
	assert.Error(t, err)

	result, err = s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{Command: CommandShowRules})
	require.NoError(t, err)
	assert.Equal(t, rules.Registry, result)

	_, err = s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{Command: "tangolint.nope"})
	assert.Error(t, err)
}

func TestManualRunRightAfterInitialized(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:1:0: error: T001 x\n"})
	ctx, c := capturingContext()
	pulled := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ctx.Call = func(string, any, any) {
		select {
		case pulled <- struct{}{}:
		default:
		}
		<-release
	}
	_, err := s.initialize(ctx, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"runOnOpen": false},
	})
	require.NoError(t, err)
	s.clientConfig = true

	// The settings pull is still outstanding when the run is requested.
	require.NoError(t, s.initialized(ctx, &protocol.InitializedParams{}))
	openDoc(t, s, ctx, devURI, "class device:\n")
	_, err = s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   CommandRun,
		Arguments: []any{devURI},
	})
	require.NoError(t, err)
	s.pipe.Wait()

	assert.Len(t, c.lastDiags(t).Diagnostics, 1)
	c.mu.Lock()
	require.NotEmpty(t, c.statuses)
	assert.Equal(t, pipeline.StateErrors, c.statuses[len(c.statuses)-1].State)
	c.mu.Unlock()
	select {
	case <-pulled:
	case <-time.After(time.Second):
		t.Fatal("settings were not requested")
	}
}

func TestInitializedRunsDocumentsAlreadyOpen(t *testing.T) {
	s := testServer(t, fakeRunner{stdout: "{file}:1:0: info: G007 long\n"})
	ctx, c := capturingContext()
	_, err := s.initialize(ctx, &protocol.InitializeParams{})
	require.NoError(t, err)

	openDoc(t, s, ctx, devURI, "x = 1\n")
	assert.Empty(t, c.diags, "nothing runs before initialized")

	require.NoError(t, s.initialized(ctx, &protocol.InitializedParams{}))
	s.pipe.Wait()
	params := c.lastDiags(t)
	assert.Equal(t, devURI, params.URI)
	assert.Len(t, params.Diagnostics, 1)
}

func TestDidChangeConfiguration(t *testing.T) {
	s := testServer(t, fakeRunner{})
	require.NoError(t, s.workspaceDidChangeConfiguration(mockContext(), &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{"tangolint": map[string]any{
			"interpreterPath": "/opt/py/bin/python",
			"rules":           map[string]any{"T023": false},
		}},
	}))
	got := s.pipe.Settings()
	assert.Equal(t, "/opt/py/bin/python", got.InterpreterPath)
	assert.Equal(t, map[string]bool{"T023": false}, got.Rules)

	// Base settings changes keep client overrides.
	base := s.effectiveSettings()
	base.InterpreterPath = ""
	base.RunOnSave = false
	s.SetBaseSettings(base)
	got = s.pipe.Settings()
	assert.Equal(t, "/opt/py/bin/python", got.InterpreterPath)
	assert.False(t, got.RunOnSave)
}

func TestClientInterpreter(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
		err   bool
	}{
		{"exec command", `[{"execCommand": ["/venv/bin/python", "-X", "dev"]}]`, []string{"/venv/bin/python", "-X", "dev"}, false},
		{"default path", `[{"defaultInterpreterPath": "/usr/bin/python3.12"}]`, []string{"/usr/bin/python3.12"}, false},
		{"legacy path", `[{"pythonPath": "/usr/bin/python3"}]`, []string{"/usr/bin/python3"}, false},
		{"empty section", `[{}]`, nil, true},
		{"null reply", `[null]`, nil, true},
		{"wrong shape", `[{"execCommand": "python"}]`, nil, true},
		{"no items", `[]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.clientConfig = true
			var gotParams *protocol.ConfigurationParams
			s.captureClient(&glsp.Context{
				Notify: func(string, any) {},
				Call: func(method string, params any, result any) {
					gotParams = params.(*protocol.ConfigurationParams)
					_ = json.Unmarshal([]byte(tt.reply), result)
				},
			})
			argv, err := s.clientInterpreter(context.Background(), "/work/src/dev.py")
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, argv)
			require.Len(t, gotParams.Items, 1)
			assert.Equal(t, "python", *gotParams.Items[0].Section)
			assert.Equal(t, "file:///work/src/dev.py", *gotParams.Items[0].ScopeURI)
		})
	}
}

func TestClientInterpreterTimeout(t *testing.T) {
	s := New(WithClientTimeout(20 * time.Millisecond))
	s.clientConfig = true
	block := make(chan struct{})
	var calls atomic.Int32
	s.captureClient(&glsp.Context{
		Notify: func(string, any) {},
		Call: func(string, any, any) {
			calls.Add(1)
			<-block
		},
	})
	start := time.Now()
	_, err := s.clientInterpreter(context.Background(), "/work/a.py")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// No new request goes out while the client owes a reply.
	_, err = s.clientInterpreter(context.Background(), "/work/a.py")
	assert.ErrorIs(t, err, errClientStalled)
	assert.Equal(t, int32(1), calls.Load())

	close(block)
	assert.Eventually(t, func() bool {
		_, err := s.clientInterpreter(context.Background(), "/work/a.py")
		return !errors.Is(err, errClientStalled)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())

	// Without client support no request is made.
	s.clientConfig = false
	_, err = s.clientInterpreter(context.Background(), "/work/a.py")
	assert.ErrorIs(t, err, errNoClient)
}

func TestDefaultInterpreterFallsBackToVirtualEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("virtualenv layout differs on windows")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin", "python")
	require.NoError(t, os.MkdirAll(filepath.Dir(bin), 0o755))
	require.NoError(t, os.WriteFile(bin, nil, 0o755))
	t.Setenv("VIRTUAL_ENV", dir)

	s := New()
	argv, err := s.engine.Interpreters.ExecCommand(context.Background(), "/work/a.py")
	require.NoError(t, err)
	assert.Equal(t, []string{bin}, argv)

	s.captureClient(&glsp.Context{
		Notify: func(string, any) {},
		Call: func(method string, params any, result any) {
			_ = json.Unmarshal([]byte(`[{"defaultInterpreterPath": "/opt/py/bin/python"}]`), result)
		},
	})
	s.clientConfig = true
	argv, err = s.engine.Interpreters.ExecCommand(context.Background(), "/work/a.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/py/bin/python"}, argv, "the client's choice comes first")
}

func TestPullSettings(t *testing.T) {
	s := New()
	s.captureClient(&glsp.Context{
		Notify: func(string, any) {},
		Call: func(method string, params any, result any) {
			_ = json.Unmarshal([]byte(`[{"runOnSave": false, "scriptPath": "/opt/tangolint.py"}]`), result)
		},
	})
	s.pullSettings()
	got := s.pipe.Settings()
	assert.False(t, got.RunOnSave)
	assert.Equal(t, "/opt/tangolint.py", got.ScriptPath)
}

func TestConvertDiagnostic(t *testing.T) {
	d := report.Diagnostic{
		Range:    report.Range{StartLine: 0, StartCol: 7, EndLine: 0, EndCol: report.EndOfLine},
		Severity: report.SeverityInfo,
		Code:     "G007",
		Message:  "G007: long",
	}
	// "é" is two UTF-8 bytes but one UTF-16 unit; "𝄞" is four and two.
	line := "s = 'é' + '𝄞'"
	got := convertDiagnostic(d, line, true)
	assert.Equal(t, protocol.UInteger(6), got.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(utf16Len(line)), got.Range.End.Character)
	assert.Equal(t, protocol.DiagnosticSeverityInformation, *got.Severity)
	assert.Equal(t, report.Source, *got.Source)

	got = convertDiagnostic(d, "", false)
	assert.Equal(t, protocol.UInteger(7), got.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(report.EndOfLine), got.Range.End.Character)
}

func TestLineAt(t *testing.T) {
	content := "a\r\nbb\n\nccc"
	for i, want := range []string{"a", "bb", "", "ccc"} {
		got, ok := lineAt(content, i)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := lineAt(content, 4)
	assert.False(t, ok)
	_, ok = lineAt(content, -1)
	assert.False(t, ok)
}

func TestWorkspaceFolders(t *testing.T) {
	s := testServer(t, fakeRunner{})
	_, err := s.initialize(mockContext(), &protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: "file:///a", Name: "a"}, {URI: "file:///b", Name: "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/b", s.workspaceRoot("/b/x.py"))

	require.NoError(t, s.workspaceDidChangeWorkspaceFolders(mockContext(), &protocol.DidChangeWorkspaceFoldersParams{
		Event: protocol.WorkspaceFoldersChangeEvent{
			Added:   []protocol.WorkspaceFolder{{URI: "file:///c"}},
			Removed: []protocol.WorkspaceFolder{{URI: "file:///b"}},
		},
	}))
	assert.Equal(t, "", s.workspaceRoot("/b/x.py"))
	assert.Equal(t, "/c", s.workspaceRoot("/c/x.py"))
}
