// SPDX-License-Identifier: MPL-2.0

// Package cargo runs the cargo CLI on behalf of the tool: `cargo metadata` to
// resolve the workspace and `cargo build` to compile WebAssembly artifacts.
//
// The binary defaults to $CARGO, which cargo sets when it runs a subcommand,
// and falls back to "cargo" on PATH.
package cargo
