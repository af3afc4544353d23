// SPDX-License-Identifier: MPL-2.0

package translate

import (
	"maps"
	"path/filepath"
	"slices"

	"cargo-wapm/pkg/cargometa"
	"cargo-wapm/pkg/wapmtoml"
)

const wasmExtension = ".wasm"

// Map builds the wapm manifest for a package. Every build target becomes one
// module, in declaration order; binary targets also get a command. Fields the
// package does not set are left empty for the validator to report. The readme
// and license file are recorded by file name; see Documents.
func Map(src cargometa.SourceManifest) (*wapmtoml.Manifest, error) {
	if len(src.Targets) == 0 {
		return nil, &NoPublishableTargetError{Package: src.Name}
	}

	m := &wapmtoml.Manifest{
		Package: wapmtoml.Package{
			Namespace:        src.Wapm.Namespace,
			Name:             src.Name,
			Version:          src.Version,
			Description:      src.Description,
			License:          src.License,
			LicenseFile:      documentName(src.LicenseFile),
			Readme:           documentName(src.Readme),
			Repository:       src.Repository,
			Homepage:         src.Homepage,
			WasmerExtraFlags: src.Wapm.WasmerExtraFlags,
		},
		Fs: maps.Clone(src.Wapm.Fs),
	}

	abi := wapmtoml.Abi(src.Wapm.Abi).Normalize()
	byName := make(map[string]string, len(src.Targets))
	bySource := make(map[string]string, len(src.Targets))

	for _, target := range src.Targets {
		source := target.OutputName + wasmExtension

		if prev, ok := byName[target.Name]; ok {
			return nil, &DuplicateModuleNameError{
				Package: src.Name, Field: "name", Value: target.Name, Targets: [2]string{prev, target.Name},
			}
		}
		if prev, ok := bySource[source]; ok {
			return nil, &DuplicateModuleNameError{
				Package: src.Name, Field: "source", Value: source, Targets: [2]string{prev, target.Name},
			}
		}
		byName[target.Name] = target.Name
		bySource[source] = target.Name

		m.Modules = append(m.Modules, wapmtoml.Module{
			Name:     target.Name,
			Source:   source,
			Abi:      abi,
			Bindings: convertBindings(src.Wapm.Bindings),
		})

		if target.Kind == cargometa.TargetBinary {
			m.Commands = append(m.Commands, wapmtoml.Command{
				Name:    target.Name,
				Module:  target.Name,
				Package: m.Package.FullName(),
			})
		}
	}

	return m, nil
}

// Documents maps the readme and license file names recorded by Map to their
// paths relative to the package directory. Those files are shipped flat next
// to the manifest, so they may live anywhere, including the workspace root.
func Documents(src cargometa.SourceManifest) map[string]string {
	docs := make(map[string]string, 2)
	for _, p := range []string{src.LicenseFile, src.Readme} {
		if p != "" {
			docs[documentName(p)] = p
		}
	}
	return docs
}

func documentName(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

// convertBindings returns a fresh copy so modules never share slices.
func convertBindings(b *cargometa.BindingsTable) *wapmtoml.Bindings {
	if b == nil {
		return nil
	}
	return &wapmtoml.Bindings{
		WitBindgen: b.WitBindgen,
		WitExports: b.WitExports,
		WaiVersion: b.WaiVersion,
		Exports:    b.Exports,
		Imports:    slices.Clone(b.Imports),
	}
}
