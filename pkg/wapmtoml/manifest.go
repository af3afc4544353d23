// SPDX-License-Identifier: MPL-2.0

package wapmtoml

import (
	"fmt"
	"path/filepath"
)

// FileName is the name of the manifest file inside a package directory.
const FileName = "wapm.toml"

type (
	// Manifest is a wapm.toml document.
	Manifest struct {
		Package  Package
		Modules  []Module
		Commands []Command
		// Fs maps guest paths to host directories, relative to the manifest.
		Fs map[string]string
	}

	// Package is the [package] table.
	Package struct {
		Namespace        string
		Name             string
		Version          string
		Description      string
		License          string
		LicenseFile      string
		Readme           string
		Repository       string
		Homepage         string
		WasmerExtraFlags string
	}

	// Module is one [[module]] entry.
	Module struct {
		Name string
		// Source is the artifact path, relative to the manifest.
		Source   string
		Abi      Abi
		Bindings *Bindings
	}

	// Command is one [[command]] entry exposing a module as a runnable command.
	Command struct {
		Name   string
		Module string
		// Package is the fully qualified "namespace/name" of the owning package.
		Package string
	}

	// Bindings describes the interface definitions shipped with a module. Either
	// the wit-bindgen pair or the wai fields are set.
	Bindings struct {
		WitBindgen string
		WitExports string
		WaiVersion string
		Exports    string
		Imports    []string
	}
)

// FullName returns the registry name "namespace/name". With no namespace the
// bare name is returned.
func (p Package) FullName() string {
	if p.Namespace == "" {
		return p.Name
	}
	return p.Namespace + "/" + p.Name
}

// Module returns the module with the given name, or nil.
func (m *Manifest) Module(name string) *Module {
	for i := range m.Modules {
		if m.Modules[i].Name == name {
			return &m.Modules[i]
		}
	}
	return nil
}

// IsWai reports whether the bindings use the wai flavor.
func (b *Bindings) IsWai() bool {
	return b != nil && b.WaiVersion != ""
}

// ReferencedFiles returns the interface files the bindings point at, relative
// to the manifest directory.
func (b *Bindings) ReferencedFiles() []string {
	if b == nil {
		return nil
	}
	if b.IsWai() {
		files := make([]string, 0, len(b.Imports)+1)
		if b.Exports != "" {
			files = append(files, b.Exports)
		}
		return append(files, b.Imports...)
	}
	if b.WitExports != "" {
		return []string{b.WitExports}
	}
	return nil
}

// ReferencedFiles lists every file besides the module artifacts that a
// published package must ship: license file, readme and binding files, in
// that order, without duplicates. Paths are relative to the manifest.
func (m *Manifest) ReferencedFiles() []string {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" {
			return
		}
		key := filepath.Clean(p)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, p)
	}

	add(m.Package.LicenseFile)
	add(m.Package.Readme)
	for _, mod := range m.Modules {
		for _, f := range mod.Bindings.ReferencedFiles() {
			add(f)
		}
	}
	return files
}

// String returns a short identifier for log output.
func (m *Manifest) String() string {
	return fmt.Sprintf("%s@%s", m.Package.FullName(), m.Package.Version)
}
