// Copyright © 2026 The tangolint authors

package config

import (
	"encoding/json"
	"strings"
)

// Section is the settings section name LSP clients use for tangolint.
const Section = "tangolint"

// clientSettings mirrors the camelCase settings an editor sends. Pointer
// fields distinguish "unset" from zero values.
type clientSettings struct {
	ScriptPath      *string         `json:"scriptPath"`
	InterpreterPath *string         `json:"interpreterPath"`
	RunOnOpen       *bool           `json:"runOnOpen"`
	RunOnSave       *bool           `json:"runOnSave"`
	RunOnChange     *bool           `json:"runOnChange"`
	Rules           map[string]bool `json:"rules"`
	MaxOutputBytes  *int64          `json:"maxOutputBytes"`
}

// Apply overlays an LSP settings payload on base. The payload may be the
// tangolint section itself or an object holding it under "tangolint".
// Payloads that cannot be decoded leave base unchanged and report false.
func Apply(base Settings, payload any) (Settings, bool) {
	if payload == nil {
		return base, false
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return base, false
	}
	return ApplyJSON(base, raw)
}

// ApplyJSON is Apply for an already encoded payload.
func ApplyJSON(base Settings, raw json.RawMessage) (Settings, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return base, false
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return base, false
	}
	if inner, ok := wrapper[Section]; ok {
		raw = inner
	}
	var cs clientSettings
	if err := json.Unmarshal(raw, &cs); err != nil {
		return base, false
	}
	s := base.Clone()
	if cs.ScriptPath != nil {
		s.ScriptPath = strings.TrimSpace(*cs.ScriptPath)
	}
	if cs.InterpreterPath != nil {
		s.InterpreterPath = strings.TrimSpace(*cs.InterpreterPath)
	}
	if cs.RunOnOpen != nil {
		s.RunOnOpen = *cs.RunOnOpen
	}
	if cs.RunOnSave != nil {
		s.RunOnSave = *cs.RunOnSave
	}
	if cs.RunOnChange != nil {
		s.RunOnChange = *cs.RunOnChange
	}
	if cs.MaxOutputBytes != nil && *cs.MaxOutputBytes > 0 {
		s.MaxOutputBytes = *cs.MaxOutputBytes
	}
	if cs.Rules != nil {
		if s.Rules == nil {
			s.Rules = make(map[string]bool, len(cs.Rules))
		}
		for code, on := range cs.Rules {
			s.Rules[strings.ToUpper(code)] = on
		}
	}
	return s, true
}
