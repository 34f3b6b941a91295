// Copyright © 2026 The tangolint authors

package pipeline

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/davejwalsh/tangolint/config"
)

// Trigger is the event that requested an analyzer run.
type Trigger int

const (
	TriggerOpen Trigger = iota + 1
	TriggerSave
	TriggerChange
	TriggerManual
	// TriggerStartup replays documents that were already open when the
	// pipeline started or its configuration changed.
	TriggerStartup
)

func (t Trigger) String() string {
	switch t {
	case TriggerOpen:
		return "open"
	case TriggerSave:
		return "save"
	case TriggerChange:
		return "change"
	case TriggerManual:
		return "manual"
	case TriggerStartup:
		return "startup"
	default:
		return "unknown"
	}
}

// Enabled reports whether s allows runs for t. Manual runs are always
// allowed; startup replay follows run_on_open.
func (t Trigger) Enabled(s config.Settings) bool {
	switch t {
	case TriggerOpen, TriggerStartup:
		return s.RunOnOpen
	case TriggerSave:
		return s.RunOnSave
	case TriggerChange:
		return s.RunOnChange
	case TriggerManual:
		return true
	default:
		return false
	}
}

// LanguagePython is the only language identifier the analyzer handles.
const LanguagePython = "python"

// Document identifies an editor document.
type Document struct {
	URI        string
	LanguageID string
}

// Eligible reports whether doc is a python document on disk.
func Eligible(doc Document) bool {
	if doc.LanguageID != LanguagePython {
		return false
	}
	_, ok := URIToPath(doc.URI)
	return ok
}

// URIToPath converts a file:// URI to a filesystem path. ok is false for
// any other scheme.
func URIToPath(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	path := u.Path
	if runtime.GOOS == "windows" {
		// file:///C:/dir/x.py
		path = strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return "", false
	}
	return filepath.FromSlash(path), true
}

// PathToURI converts an absolute filesystem path to a file:// URI.
func PathToURI(path string) string {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}
