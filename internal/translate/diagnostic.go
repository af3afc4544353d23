// SPDX-License-Identifier: MPL-2.0

package translate

import "fmt"

const (
	// SeverityWarning marks a problem that does not block writing the manifest.
	SeverityWarning Severity = "warning"
	// SeverityError marks a problem that blocks writing the manifest.
	SeverityError Severity = "error"
)

// Diagnostic codes reported by Validate.
const (
	CodeNamespaceMissing     Code = "namespace_missing"
	CodeNameMissing          Code = "name_missing"
	CodeVersionMissing       Code = "version_missing"
	CodeVersionInvalid       Code = "version_invalid"
	CodeDescriptionMissing   Code = "description_missing"
	CodeDescriptionShort     Code = "description_short"
	CodeLicenseMissing       Code = "license_missing"
	CodeLicenseExpression    Code = "license_expression"
	CodeExtraFlagsInvalid    Code = "extra_flags_invalid"
	CodeModulesMissing       Code = "modules_missing"
	CodeModuleSourceMissing  Code = "module_source_missing"
	CodeModuleSourceOutside  Code = "module_source_outside"
	CodeModuleAbiInvalid     Code = "module_abi_invalid"
	CodeBindingsOutside      Code = "bindings_outside"
	CodeFsOutside            Code = "fs_outside"
	CodeCommandModuleUnknown Code = "command_module_unknown"
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// Code is a machine-readable diagnostic identifier.
	Code string

	// Diagnostic is one finding of the validator.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Field is the manifest field the finding is about, e.g. "description"
		// or "module[0].source".
		Field string
		// Code is a machine-readable identifier.
		Code Code
		// Message is the human-readable description.
		Message string
	}
)

// String returns the string representation of the Severity.
func (s Severity) String() string { return string(s) }

// String returns the string representation of the Code.
func (c Code) String() string { return string(c) }

// String formats the diagnostic on one line.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Field, d.Message)
}

// IsError reports whether the diagnostic blocks writing the manifest.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of errors and warnings.
func CountBySeverity(diags []Diagnostic) (errs, warnings int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}
