// SPDX-License-Identifier: MPL-2.0

// Package cueutil parses CUE files against an embedded schema.
//
// Parsing follows three steps:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode to a Go value
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	cfg, err := cueutil.ParseAndDecode[map[string]any](
//	    schema,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("config.cue"),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
