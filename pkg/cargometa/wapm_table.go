// SPDX-License-Identifier: MPL-2.0

package cargometa

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingWapmTable is returned when a package has no [package.metadata.wapm] table.
var ErrMissingWapmTable = errors.New("missing [package.metadata.wapm] table")

type (
	// WapmTable is the [package.metadata.wapm] table of a Cargo.toml.
	//
	//	[package.metadata.wapm]
	//	namespace = "wasmer"
	//	abi = "wasi"
	//	fs = { "/data" = "data" }
	//	bindings = { wit-bindgen = "0.1.0", wit-exports = "exports.wit" }
	WapmTable struct {
		Namespace string `json:"namespace" toml:"namespace"`
		// Package overrides the published package name. It is read so that its
		// presence can be reported, but the published name always equals the
		// Cargo package name.
		Package          string            `json:"package,omitempty" toml:"package"`
		Abi              string            `json:"abi,omitempty" toml:"abi"`
		Fs               map[string]string `json:"fs,omitempty" toml:"fs"`
		Bindings         *BindingsTable    `json:"bindings,omitempty" toml:"bindings"`
		WasmerExtraFlags string            `json:"wasmer-extra-flags,omitempty" toml:"wasmer-extra-flags"`
	}

	// BindingsTable describes interface bindings shipped with a module. Exactly
	// one of the wit-bindgen or wai flavors is expected.
	BindingsTable struct {
		WitBindgen string   `json:"wit-bindgen,omitempty" toml:"wit-bindgen"`
		WitExports string   `json:"wit-exports,omitempty" toml:"wit-exports"`
		WaiVersion string   `json:"wai-version,omitempty" toml:"wai-version"`
		Exports    string   `json:"exports,omitempty" toml:"exports"`
		Imports    []string `json:"imports,omitempty" toml:"imports"`
	}

	metadataTables struct {
		Wapm *WapmTable `json:"wapm"`
	}
)

// WapmTable decodes the package's [package.metadata.wapm] table.
func (p *Package) WapmTable() (WapmTable, error) {
	if len(p.Metadata) == 0 || string(p.Metadata) == "null" {
		return WapmTable{}, fmt.Errorf("package %q: %w", p.Name, ErrMissingWapmTable)
	}
	var tables metadataTables
	if err := json.Unmarshal(p.Metadata, &tables); err != nil {
		return WapmTable{}, fmt.Errorf("package %q: unable to deserialize the [package.metadata] table: %w", p.Name, err)
	}
	if tables.Wapm == nil {
		return WapmTable{}, fmt.Errorf("package %q: %w", p.Name, ErrMissingWapmTable)
	}
	return *tables.Wapm, nil
}

// IsWai reports whether the bindings use the wai flavor.
func (b *BindingsTable) IsWai() bool {
	return b != nil && b.WaiVersion != ""
}
