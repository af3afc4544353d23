// SPDX-License-Identifier: MPL-2.0

// Package pack lays out the directory handed to the registry CLI: the
// manifest, every module artifact, and each file the manifest points at, kept
// at the same location relative to wapm.toml as it had relative to Cargo.toml.
package pack
