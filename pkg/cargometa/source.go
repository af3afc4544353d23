// SPDX-License-Identifier: MPL-2.0

package cargometa

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

const (
	// TargetLibrary is a cdylib target.
	TargetLibrary TargetKind = "library"
	// TargetBinary is an executable target.
	TargetBinary TargetKind = "binary"
)

// ErrInvalidTargetKind is the sentinel error wrapped by InvalidTargetKindError.
var ErrInvalidTargetKind = errors.New("invalid target kind")

type (
	// TargetKind classifies a publishable build target.
	TargetKind string

	// InvalidTargetKindError is returned when a TargetKind is not library or binary.
	InvalidTargetKindError struct {
		Value TargetKind
	}

	// BuildTarget is one publishable build target of a SourceManifest.
	BuildTarget struct {
		// Name is the cargo target name; it becomes the module name.
		Name string
		// Kind is library (cdylib) or binary.
		Kind TargetKind
		// OutputName is the artifact file name rustc produces, without extension.
		OutputName string
	}

	// SourceManifest is the resolved description of one Cargo package, reduced to
	// what the wapm manifest needs. It is produced once per package and never
	// mutated afterwards.
	SourceManifest struct {
		Name        string
		Version     string
		Description string
		License     string
		// LicenseFile and Readme are relative to the directory of ManifestPath.
		LicenseFile  string
		Readme       string
		Authors      []string
		Repository   string
		Homepage     string
		ManifestPath string
		Wapm         WapmTable
		Targets      []BuildTarget
	}
)

// Error implements the error interface.
func (e *InvalidTargetKindError) Error() string {
	return fmt.Sprintf("invalid target kind %q (valid: library, binary)", e.Value)
}

// Unwrap returns ErrInvalidTargetKind for errors.Is() compatibility.
func (e *InvalidTargetKindError) Unwrap() error { return ErrInvalidTargetKind }

// String returns the string representation of the TargetKind.
func (k TargetKind) String() string { return string(k) }

// IsValid returns whether the TargetKind is library or binary.
func (k TargetKind) IsValid() (bool, []error) {
	switch k {
	case TargetLibrary, TargetBinary:
		return true, nil
	default:
		return false, []error{&InvalidTargetKindError{Value: k}}
	}
}

// OutputName returns the artifact name rustc gives a target. Binaries keep
// dashes in their file names, libraries get them converted to underscores.
func OutputName(name string, kind TargetKind) string {
	if kind == TargetBinary {
		return name
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Dir returns the directory that relative paths of the manifest resolve against.
func (s SourceManifest) Dir() string {
	return filepath.Dir(s.ManifestPath)
}

// FromPackage converts a cargo package into a SourceManifest. Only bin and cdylib
// targets are kept; a package without any is still converted, the mapper is the
// one that rejects it.
func FromPackage(pkg *Package) (SourceManifest, error) {
	table, err := pkg.WapmTable()
	if err != nil {
		return SourceManifest{}, err
	}
	if table.Package != "" && table.Package != pkg.Name {
		slog.Warn("ignoring [package.metadata.wapm] package override; the crate name is published",
			"package", pkg.Name, "override", table.Package)
	}

	src := SourceManifest{
		Name:         pkg.Name,
		Version:      pkg.Version,
		Description:  stringValue(pkg.Description),
		License:      stringValue(pkg.License),
		LicenseFile:  relativeToPackage(pkg, stringValue(pkg.LicenseFile)),
		Readme:       relativeToPackage(pkg, stringValue(pkg.Readme)),
		Authors:      append([]string(nil), pkg.Authors...),
		Repository:   stringValue(pkg.Repository),
		Homepage:     stringValue(pkg.Homepage),
		ManifestPath: pkg.ManifestPath,
		Wapm:         table,
	}

	for _, t := range pkg.Targets {
		var kind TargetKind
		switch {
		case t.IsBinary():
			kind = TargetBinary
		case t.IsWebAssemblyLibrary():
			kind = TargetLibrary
		default:
			continue
		}
		src.Targets = append(src.Targets, BuildTarget{
			Name:       t.Name,
			Kind:       kind,
			OutputName: OutputName(t.Name, kind),
		})
	}

	return src, nil
}

// relativeToPackage makes an absolute path relative to the package directory.
// Cargo reports license_file and readme as written in Cargo.toml, which is
// usually relative already.
func relativeToPackage(pkg *Package, p string) string {
	if p == "" || !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(pkg.Dir(), p)
	if err != nil {
		return p
	}
	return rel
}
