// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the cargo-wapm command line: publishing by default,
// plus the generate, validate, config and explain subcommands.
//
// Commands are built around an App, which holds the configuration provider
// and the factory for the publish pipeline so tests can replace both.
package cmd
