// SPDX-License-Identifier: MPL-2.0

package wasmcheck

import (
	"fmt"

	"cargo-wapm/internal/translate"
	"cargo-wapm/pkg/wapmtoml"
)

const (
	// CodeAbiMismatch reports imports that contradict the declared abi.
	CodeAbiMismatch translate.Code = "abi_mismatch"
	// CodeMissingEntrypoint reports a WASI command without a _start export.
	CodeMissingEntrypoint translate.Code = "missing_entrypoint"

	wasiEntrypoint = "_start"
)

// CheckAbi compares a compiled module with its manifest entry. Findings are
// warnings: the registry accepts the package either way, but it will likely
// fail to run. index is the module's position in the manifest.
func CheckAbi(index int, mod wapmtoml.Module, isCommand bool, report *Report) []translate.Diagnostic {
	var diags []translate.Diagnostic
	field := fmt.Sprintf("module[%d].abi", index)
	warn := func(code translate.Code, format string, args ...any) {
		diags = append(diags, translate.Diagnostic{
			Severity: translate.SeverityWarning,
			Field:    field,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	abi := mod.Abi.Normalize()
	switch abi {
	case wapmtoml.AbiWasi:
		if !report.UsesWASI() {
			warn(CodeAbiMismatch, "module %q declares abi %q but imports nothing from WASI", mod.Name, abi)
		}
		if isCommand && !report.HasExport(wasiEntrypoint) {
			warn(CodeMissingEntrypoint, "command module %q does not export %s", mod.Name, wasiEntrypoint)
		}
	case wapmtoml.AbiNone, wapmtoml.AbiWasm4:
		if report.UsesWASI() {
			warn(CodeAbiMismatch, "module %q imports WASI functions but declares abi %q; set abi = \"wasi\"", mod.Name, abi)
		}
	}
	return diags
}
