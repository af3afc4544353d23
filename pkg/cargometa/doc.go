// SPDX-License-Identifier: MPL-2.0

// Package cargometa models the resolved metadata of a Cargo project and turns a
// selected Cargo package into a SourceManifest, the read-only input of the wapm
// manifest translation.
//
// Metadata normally comes from `cargo metadata --format-version 1` (see Parse);
// FileSource offers a reduced alternative that reads a single Cargo.toml directly.
// Package selection mirrors how cargo subcommands pick their target package:
// every opted-in workspace member in workspace mode, otherwise the most specific
// member containing the working directory, falling back to the root package.
package cargometa
