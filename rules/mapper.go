// Copyright © 2026 The tangolint authors

package rules

import "strings"

// DisableFlag is the analyzer flag that suppresses a single rule.
const DisableFlag = "--disable"

// DisableArgs returns the analyzer arguments that suppress every rule in
// registry whose toggle in enabled is false. Rules missing from enabled are
// enabled. Keys are matched case-insensitively because configuration
// layers (viper in particular) lower-case map keys. Arguments are emitted
// in registry order, one flag/code pair per disabled rule.
func DisableArgs(registry []Rule, enabled map[string]bool) []string {
	if len(enabled) == 0 {
		return nil
	}
	toggles := make(map[string]bool, len(enabled))
	for code, on := range enabled {
		toggles[strings.ToUpper(strings.TrimSpace(code))] = on
	}
	var args []string
	for _, r := range registry {
		if on, ok := toggles[r.Code]; ok && !on {
			args = append(args, DisableFlag, r.Code)
		}
	}
	return args
}

// Disabled returns the codes of registry rules switched off in enabled, in
// registry order.
func Disabled(registry []Rule, enabled map[string]bool) []string {
	args := DisableArgs(registry, enabled)
	codes := make([]string, 0, len(args)/2)
	for i := 1; i < len(args); i += 2 {
		codes = append(codes, args[i])
	}
	return codes
}
