// SPDX-License-Identifier: MPL-2.0

// Package publish drives the publishing pipeline for each selected package:
// load metadata, map and validate the manifest, build the WebAssembly
// artifacts, lay out the publish directory and hand it to the registry CLI.
//
// Packages are processed one after another and the first failure stops the
// run. Every external step sits behind a small interface (Builder, Inspector,
// Publisher) so tests can replace it.
package publish
