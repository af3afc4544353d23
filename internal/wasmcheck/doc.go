// SPDX-License-Identifier: MPL-2.0

// Package wasmcheck compiles built WebAssembly artifacts with wazero, without
// instantiating them, to confirm they are valid modules and to compare their
// imports with the ABI the manifest declares.
package wasmcheck
