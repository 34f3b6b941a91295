// Copyright © 2026 The tangolint authors

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/report"
)

// State is the analysis state of a document.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateClean
	StateWarnings
	StateErrors
	StateFailed
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StateRunning:  "running",
	StateClean:    "clean",
	StateWarnings: "warnings",
	StateErrors:   "errors",
	StateFailed:   "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status summarizes the last run of a document.
type Status struct {
	State    State `json:"state"`
	Errors   int   `json:"errors"`
	Warnings int   `json:"warnings"`
	Infos    int   `json:"infos"`

	// Detail is the first error line of a failed run.
	Detail string `json:"detail,omitempty"`
}

// Summarize computes the status of a completed run.
func Summarize(diags []report.Diagnostic) Status {
	e, w, i := report.Counts(diags)
	st := Status{Errors: e, Warnings: w, Infos: i}
	switch {
	case e > 0:
		st.State = StateErrors
	case w > 0:
		st.State = StateWarnings
	default:
		st.State = StateClean
	}
	return st
}

// Failed returns the status of a run that ended with err.
func Failed(err error) Status {
	detail := err.Error()
	var execErr *analyzer.ExecError
	if errors.As(err, &execErr) {
		detail = execErr.FirstLine()
	}
	return Status{State: StateFailed, Detail: detail}
}

// Text renders the status line shown to the user.
func (s Status) Text() string {
	const prefix = "tangolint"
	switch s.State {
	case StateRunning:
		return prefix + ": running"
	case StateClean:
		return prefix + ": no issues"
	case StateWarnings, StateErrors:
		var parts []string
		if s.Errors > 0 {
			parts = append(parts, plural(s.Errors, "error"))
		}
		if s.Warnings > 0 {
			parts = append(parts, plural(s.Warnings, "warning"))
		}
		return prefix + ": " + strings.Join(parts, ", ")
	case StateFailed:
		return prefix + ": failed: " + s.Detail
	default:
		return prefix
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
