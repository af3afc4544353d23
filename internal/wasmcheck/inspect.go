// SPDX-License-Identifier: MPL-2.0

package wasmcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

// ErrInvalidModule is the sentinel error wrapped by InspectError.
var ErrInvalidModule = errors.New("invalid WebAssembly module")

// wasiModules are the import namespaces rustc uses for WASI.
var wasiModules = []string{"wasi_snapshot_preview1", "wasi_unstable"}

type (
	// Import is one function a module imports from its host.
	Import struct {
		Module string
		Name   string
	}

	// Report summarizes a compiled module.
	Report struct {
		Path    string
		Imports []Import
		// Exports are the exported function names, sorted.
		Exports []string
	}

	// Inspector compiles artifacts. The zero value is not usable; use NewInspector.
	Inspector struct {
		config wazero.RuntimeConfig
	}

	// InspectError is returned when an artifact cannot be read or compiled.
	InspectError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *InspectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns ErrInvalidModule and the underlying cause.
func (e *InspectError) Unwrap() []error { return []error{ErrInvalidModule, e.Err} }

// NewInspector creates an Inspector. Modules are compiled by the interpreter,
// which skips native code generation, with the threads proposal enabled since
// some toolchains emit atomics.
func NewInspector() *Inspector {
	cfg := wazero.NewRuntimeConfigInterpreter().
		WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads).
		WithCloseOnContextDone(true)
	return &Inspector{config: cfg}
}

// Inspect compiles the artifact at path and reports its imports and exports.
func (i *Inspector) Inspect(ctx context.Context, path string) (*Report, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, &InspectError{Path: path, Err: err}
	}
	report, err := i.InspectBytes(ctx, wasm)
	if err != nil {
		return nil, &InspectError{Path: path, Err: err}
	}
	report.Path = path
	return report, nil
}

// InspectBytes compiles an in-memory module.
func (i *Inspector) InspectBytes(ctx context.Context, wasm []byte) (*Report, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, i.config)
	defer func() {
		if closeErr := runtime.Close(ctx); closeErr != nil {
			slog.Warn("failed to close wazero runtime", "error", closeErr)
		}
	}()

	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	defer func() {
		if closeErr := compiled.Close(ctx); closeErr != nil {
			slog.Warn("failed to close compiled module", "error", closeErr)
		}
	}()

	report := &Report{}
	for _, fn := range compiled.ImportedFunctions() {
		modName, funcName, _ := fn.Import()
		report.Imports = append(report.Imports, Import{Module: modName, Name: funcName})
	}
	for name := range compiled.ExportedFunctions() {
		report.Exports = append(report.Exports, name)
	}
	slices.Sort(report.Exports)

	return report, nil
}

// ImportModules returns the distinct import namespaces, sorted.
func (r *Report) ImportModules() []string {
	var mods []string
	for _, imp := range r.Imports {
		if !slices.Contains(mods, imp.Module) {
			mods = append(mods, imp.Module)
		}
	}
	slices.Sort(mods)
	return mods
}

// UsesWASI reports whether the module imports any WASI function.
func (r *Report) UsesWASI() bool {
	return slices.ContainsFunc(r.Imports, func(imp Import) bool {
		return slices.Contains(wasiModules, imp.Module)
	})
}

// HasExport reports whether the module exports the named function.
func (r *Report) HasExport(name string) bool {
	_, found := slices.BinarySearch(r.Exports, name)
	return found
}

// String lists the import namespaces for log output.
func (r *Report) String() string {
	return fmt.Sprintf("%s (imports: %s; %d exports)", r.Path, strings.Join(r.ImportModules(), ", "), len(r.Exports))
}
