// SPDX-License-Identifier: MPL-2.0

// Package translate turns a Cargo package description into a wapm manifest
// and checks the result before it is written.
//
// Map is a pure transformation from cargometa.SourceManifest to
// wapmtoml.Manifest. Validate inspects a mapped manifest and returns every
// problem it finds as a Diagnostic instead of stopping at the first one, so the
// CLI can report them all at once. A manifest with any error-severity
// diagnostic must not be written.
package translate
