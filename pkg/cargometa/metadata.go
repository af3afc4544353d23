// SPDX-License-Identifier: MPL-2.0

package cargometa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
)

const (
	// KindBin is the cargo target kind of an executable.
	KindBin = "bin"
	// KindCdylib is the cargo target kind of a C-compatible dynamic library,
	// which is what a WebAssembly library crate compiles to.
	KindCdylib = "cdylib"

	// metadataFormatVersion is the only `cargo metadata` format this package understands.
	metadataFormatVersion = 1
)

// ErrUnsupportedFormat is returned when the metadata document declares a format
// version other than 1.
var ErrUnsupportedFormat = errors.New("unsupported cargo metadata format")

type (
	// PackageID is the opaque package identifier cargo uses to link workspace
	// members and resolve nodes to packages.
	PackageID string

	// Metadata is the subset of `cargo metadata` output this tool consumes.
	Metadata struct {
		Packages         []*Package  `json:"packages"`
		WorkspaceMembers []PackageID `json:"workspace_members"`
		Resolve          *Resolve    `json:"resolve"`
		TargetDirectory  string      `json:"target_directory"`
		WorkspaceRoot    string      `json:"workspace_root"`
		Version          int         `json:"version"`
	}

	// Resolve holds the dependency resolution root. Only the root is used.
	Resolve struct {
		Root *PackageID `json:"root"`
	}

	// Package is one package of the metadata graph.
	Package struct {
		ID           PackageID       `json:"id"`
		Name         string          `json:"name"`
		Version      string          `json:"version"`
		Authors      []string        `json:"authors"`
		Description  *string         `json:"description"`
		License      *string         `json:"license"`
		LicenseFile  *string         `json:"license_file"`
		Readme       *string         `json:"readme"`
		Repository   *string         `json:"repository"`
		Homepage     *string         `json:"homepage"`
		ManifestPath string          `json:"manifest_path"`
		Targets      []Target        `json:"targets"`
		Metadata     json.RawMessage `json:"metadata"`
	}

	// Target is a build target declared by a package.
	Target struct {
		Name       string   `json:"name"`
		Kind       []string `json:"kind"`
		CrateTypes []string `json:"crate_types"`
		SrcPath    string   `json:"src_path"`
	}
)

// Parse decodes the JSON document printed by `cargo metadata --format-version 1`.
func Parse(data []byte) (*Metadata, error) {
	var meta Metadata
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode cargo metadata: %w", err)
	}
	if meta.Version != metadataFormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, meta.Version)
	}
	return &meta, nil
}

// Members returns the packages that belong to the workspace, in the order they
// appear in the packages list.
func (m *Metadata) Members() []*Package {
	var members []*Package
	for _, pkg := range m.Packages {
		if slices.Contains(m.WorkspaceMembers, pkg.ID) {
			members = append(members, pkg)
		}
	}
	return members
}

// Package looks up a package by ID.
func (m *Metadata) Package(id PackageID) *Package {
	for _, pkg := range m.Packages {
		if pkg.ID == id {
			return pkg
		}
	}
	return nil
}

// RootPackage returns the package the workspace root manifest declares, or nil
// for a virtual workspace.
func (m *Metadata) RootPackage() *Package {
	if m.Resolve != nil && m.Resolve.Root != nil {
		return m.Package(*m.Resolve.Root)
	}
	if m.WorkspaceRoot == "" {
		return nil
	}
	rootManifest := filepath.Join(m.WorkspaceRoot, "Cargo.toml")
	for _, pkg := range m.Members() {
		if filepath.Clean(pkg.ManifestPath) == rootManifest {
			return pkg
		}
	}
	return nil
}

// Dir returns the directory containing the package's Cargo.toml.
func (p *Package) Dir() string {
	return filepath.Dir(p.ManifestPath)
}

// HasWapmTable reports whether the package opted into publishing with a
// [package.metadata.wapm] table.
func (p *Package) HasWapmTable() bool {
	if len(p.Metadata) == 0 {
		return false
	}
	var tables map[string]json.RawMessage
	if err := json.Unmarshal(p.Metadata, &tables); err != nil {
		return false
	}
	_, ok := tables["wapm"]
	return ok
}

// IsBinary reports whether the target builds an executable.
func (t Target) IsBinary() bool {
	return slices.Contains(t.Kind, KindBin)
}

// IsWebAssemblyLibrary reports whether the target builds a cdylib.
func (t Target) IsWebAssemblyLibrary() bool {
	return slices.Contains(t.Kind, KindCdylib)
}

// IsPublishable reports whether the target produces a standalone .wasm artifact.
func (t Target) IsPublishable() bool {
	return t.IsBinary() || t.IsWebAssemblyLibrary()
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
