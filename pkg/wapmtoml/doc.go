// SPDX-License-Identifier: MPL-2.0

// Package wapmtoml models the wapm.toml package manifest of the WebAssembly
// Package Manager registry and reads and writes it.
//
// The in-memory Manifest keeps the package namespace and name apart; on disk
// they are joined into the single "namespace/name" value the registry expects.
// Write is atomic: a reader never observes a partially written manifest.
package wapmtoml
