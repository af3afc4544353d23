// SPDX-License-Identifier: MPL-2.0

package wapmtoml

import (
	"errors"
	"fmt"
)

const (
	// AbiNone is a freestanding module with no host interface.
	AbiNone Abi = "none"
	// AbiWasi targets the WebAssembly System Interface.
	AbiWasi Abi = "wasi"
	// AbiEmscripten targets the Emscripten runtime.
	AbiEmscripten Abi = "emscripten"
	// AbiWasm4 targets the WASM-4 fantasy console.
	AbiWasm4 Abi = "wasm4"
)

// ErrInvalidAbi is the sentinel error wrapped by InvalidAbiError.
var ErrInvalidAbi = errors.New("invalid abi")

type (
	// Abi is the host interface a module expects at runtime.
	// The zero value is treated as AbiNone.
	Abi string

	// InvalidAbiError is returned when an Abi is not one of the known values.
	InvalidAbiError struct {
		Value Abi
	}
)

// Error implements the error interface.
func (e *InvalidAbiError) Error() string {
	return fmt.Sprintf("invalid abi %q (valid: none, wasi, emscripten, wasm4)", e.Value)
}

// Unwrap returns ErrInvalidAbi for errors.Is() compatibility.
func (e *InvalidAbiError) Unwrap() error { return ErrInvalidAbi }

// String returns the string representation of the Abi.
func (a Abi) String() string { return string(a) }

// IsValid returns whether the Abi is empty or one of the known values.
func (a Abi) IsValid() (bool, []error) {
	switch a {
	case "", AbiNone, AbiWasi, AbiEmscripten, AbiWasm4:
		return true, nil
	default:
		return false, []error{&InvalidAbiError{Value: a}}
	}
}

// Normalize maps the zero value to AbiNone.
func (a Abi) Normalize() Abi {
	if a == "" {
		return AbiNone
	}
	return a
}

// TargetTriple returns the rustc target triple that produces modules for the ABI.
func (a Abi) TargetTriple() string {
	switch a {
	case AbiWasi:
		return "wasm32-wasi"
	case AbiEmscripten:
		return "wasm32-unknown-emscripten"
	default:
		return "wasm32-unknown-unknown"
	}
}
