// SPDX-License-Identifier: MPL-2.0

package wapmtoml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Wire structs fix the on-disk key names and the field order of the document.
type (
	wireManifest struct {
		Package wirePackage       `toml:"package"`
		Module  []wireModule      `toml:"module,omitempty"`
		Command []wireCommand     `toml:"command,omitempty"`
		Fs      map[string]string `toml:"fs,omitempty"`
	}

	wirePackage struct {
		Name             string `toml:"name"`
		Version          string `toml:"version"`
		Description      string `toml:"description"`
		License          string `toml:"license,omitempty"`
		LicenseFile      string `toml:"license-file,omitempty"`
		Readme           string `toml:"readme,omitempty"`
		Repository       string `toml:"repository,omitempty"`
		Homepage         string `toml:"homepage,omitempty"`
		WasmerExtraFlags string `toml:"wasmer-extra-flags,omitempty"`
	}

	wireModule struct {
		Name     string        `toml:"name"`
		Source   string        `toml:"source"`
		Abi      string        `toml:"abi,omitempty"`
		Bindings *wireBindings `toml:"bindings,omitempty"`
	}

	wireBindings struct {
		WitBindgen string   `toml:"wit-bindgen,omitempty"`
		WitExports string   `toml:"wit-exports,omitempty"`
		WaiVersion string   `toml:"wai-version,omitempty"`
		Exports    string   `toml:"exports,omitempty"`
		Imports    []string `toml:"imports,omitempty"`
	}

	wireCommand struct {
		Name    string `toml:"name"`
		Module  string `toml:"module"`
		Package string `toml:"package,omitempty"`
	}
)

// Encode serializes the manifest. The output is deterministic: struct fields
// keep their declaration order and the fs table is sorted by key.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(toWire(m)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	return buf.Bytes(), nil
}

// Decode parses a wapm.toml document.
func Decode(data []byte) (*Manifest, error) {
	var w wireManifest
	if err := toml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", FileName, err)
	}
	return fromWire(&w), nil
}

func toWire(m *Manifest) *wireManifest {
	w := &wireManifest{
		Package: wirePackage{
			Name:             m.Package.FullName(),
			Version:          m.Package.Version,
			Description:      m.Package.Description,
			License:          m.Package.License,
			LicenseFile:      m.Package.LicenseFile,
			Readme:           m.Package.Readme,
			Repository:       m.Package.Repository,
			Homepage:         m.Package.Homepage,
			WasmerExtraFlags: m.Package.WasmerExtraFlags,
		},
	}
	if len(m.Fs) > 0 {
		w.Fs = m.Fs
	}
	for _, mod := range m.Modules {
		wm := wireModule{Name: mod.Name, Source: mod.Source, Abi: string(mod.Abi)}
		if b := mod.Bindings; b != nil {
			wm.Bindings = &wireBindings{
				WitBindgen: b.WitBindgen,
				WitExports: b.WitExports,
				WaiVersion: b.WaiVersion,
				Exports:    b.Exports,
				Imports:    b.Imports,
			}
		}
		w.Module = append(w.Module, wm)
	}
	for _, cmd := range m.Commands {
		w.Command = append(w.Command, wireCommand(cmd))
	}
	return w
}

func fromWire(w *wireManifest) *Manifest {
	namespace, name, found := strings.Cut(w.Package.Name, "/")
	if !found {
		namespace, name = "", w.Package.Name
	}

	m := &Manifest{
		Package: Package{
			Namespace:        namespace,
			Name:             name,
			Version:          w.Package.Version,
			Description:      w.Package.Description,
			License:          w.Package.License,
			LicenseFile:      w.Package.LicenseFile,
			Readme:           w.Package.Readme,
			Repository:       w.Package.Repository,
			Homepage:         w.Package.Homepage,
			WasmerExtraFlags: w.Package.WasmerExtraFlags,
		},
		Fs: w.Fs,
	}
	for _, wm := range w.Module {
		mod := Module{Name: wm.Name, Source: wm.Source, Abi: Abi(wm.Abi)}
		if b := wm.Bindings; b != nil {
			mod.Bindings = &Bindings{
				WitBindgen: b.WitBindgen,
				WitExports: b.WitExports,
				WaiVersion: b.WaiVersion,
				Exports:    b.Exports,
				Imports:    b.Imports,
			}
		}
		m.Modules = append(m.Modules, mod)
	}
	for _, wc := range w.Command {
		m.Commands = append(m.Commands, Command(wc))
	}
	return m
}
