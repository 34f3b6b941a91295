// Copyright © 2026 The tangolint authors

// Package rules holds the fixed registry of analyzer rule codes known to
// tangolint and maps per-rule toggles to analyzer command-line arguments.
//
// The registry is not discovered from the analyzer. A rule added to the
// analyzer later cannot be disabled through configuration until it is
// listed here.
package rules

import (
	"strings"

	"github.com/davejwalsh/tangolint/report"
)

// Rule describes a single analyzer check.
type Rule struct {
	// Code is the analyzer's rule identifier (e.g. "T023").
	Code string `json:"code" yaml:"code"`

	// Severity is the severity the analyzer reports for this rule.
	Severity report.Severity `json:"severity" yaml:"severity"`

	// Summary is a one-line description of the check.
	Summary string `json:"summary" yaml:"summary"`
}

// Registry lists every known rule in the order suppression arguments are
// generated. T-codes are Tango-specific checks, G-codes general Python
// checks.
var Registry = []Rule{
	{"T001", report.SeverityWarning, "Device class name should start with an uppercase letter."},
	{"T010", report.SeverityError, "device_property must have a type annotation."},
	{"T011", report.SeverityWarning, "device_property name should use PascalCase."},
	{"T020", report.SeverityWarning, "Tango @attribute method should have a docstring."},
	{"T021", report.SeverityError, "Tango @attribute method must have a return-type annotation."},
	{"T022", report.SeverityInfo, "Attribute 'name' config key differs from the method name."},
	{"T023", report.SeverityWarning, "Tango @attribute should include a 'description' parameter."},
	{"T024", report.SeverityInfo, "Tango @attribute may need a 'unit' parameter."},
	{"T025", report.SeverityInfo, "Tango @attribute body may need quality validation via set_validity."},
	{"T030", report.SeverityWarning, "Tango @command method should have a docstring."},
	{"T031", report.SeverityInfo, "Tango @command name should use PascalCase."},
	{"T032", report.SeverityError, "Tango device classes must not override __init__; use init_device() instead."},
	{"T033", report.SeverityWarning, "init_device() should call super().init_device() to ensure proper initialisation."},
	{"T034", report.SeverityWarning, "delete_device() should call super().delete_device() to release base-class resources."},
	{"T035", report.SeverityWarning, "always_executed_hook() should call super().always_executed_hook()."},
	{"T040", report.SeverityWarning, "device_property should have a default_value to avoid failures when unconfigured."},
	{"T041", report.SeverityInfo, "device_property should have a 'doc' parameter describing its purpose."},
	{"T042", report.SeverityInfo, "Tango device class should define init_device() to initialise internal state."},
	{"T043", report.SeverityWarning, "__del__() is unreliable in Tango; use delete_device() to release resources."},
	{"T044", report.SeverityInfo, "Tango @attribute should have a 'label' parameter for the control-system UI."},
	{"T045", report.SeverityWarning, "READ_WRITE @attribute should have a corresponding write_<name>() method."},
	{"T046", report.SeverityWarning, "time.sleep() inside a device method blocks the Tango event loop."},
	{"T047", report.SeverityWarning, "threading.Thread in a device class; prefer Tango green mode or DeviceThread."},
	{"T049", report.SeverityInfo, "@command with arguments or a return value should declare dtype_in / dtype_out."},
	{"G001", report.SeverityWarning, "Bare except clause catches every exception; specify the type."},
	{"G002", report.SeverityWarning, "Empty except block silently swallows exceptions."},
	{"G003", report.SeverityWarning, "Use 'is'/'is not' when comparing against None, True, or False."},
	{"G004", report.SeverityWarning, "Mutable default argument; use None and initialise inside the function."},
	{"G005", report.SeverityWarning, "Star import pollutes the namespace; import names explicitly."},
	{"G006", report.SeverityInfo, "Multiple modules on one import line; use separate statements."},
	{"G007", report.SeverityInfo, "Line exceeds the maximum allowed length."},
	{"G008", report.SeverityInfo, "print() in a device class method; use Tango stream methods instead."},
}

// Lookup returns the registry entry for code. Codes compare
// case-insensitively.
func Lookup(code string) (Rule, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, r := range Registry {
		if r.Code == code {
			return r, true
		}
	}
	return Rule{}, false
}

// Codes returns the registry codes in order.
func Codes() []string {
	codes := make([]string, len(Registry))
	for i, r := range Registry {
		codes[i] = r.Code
	}
	return codes
}
