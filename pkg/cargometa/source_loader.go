// SPDX-License-Identifier: MPL-2.0

package cargometa

import (
	"context"
	"strings"
)

type (
	// Source supplies resolved project metadata. The production implementation
	// runs `cargo metadata`; tests and --no-cargo-metadata use FileSource.
	Source interface {
		Load(ctx context.Context, opts LoadOptions) (*Metadata, error)
	}

	// LoadOptions are forwarded to the metadata supplier.
	LoadOptions struct {
		// ManifestPath is the path to Cargo.toml. Empty means the current directory.
		ManifestPath string
		// Features is the list of features to enable.
		Features Features
		// AllFeatures enables every feature.
		AllFeatures bool
		// NoDefaultFeatures disables the `default` feature.
		NoDefaultFeatures bool
	}

	// Features is a list of cargo feature names.
	Features []string
)

// ParseFeatures splits a comma-delimited (or whitespace-delimited, as cargo
// accepts) feature list, dropping empty entries.
func ParseFeatures(s string) Features {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil
	}
	return Features(fields)
}

// String joins the features the way cargo's --features flag expects.
func (f Features) String() string {
	return strings.Join(f, ",")
}
