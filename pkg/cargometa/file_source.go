// SPDX-License-Identifier: MPL-2.0

package cargometa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrWorkspaceManifest is returned by FileSource for manifests that need cargo
// itself to resolve (virtual workspaces, inherited fields).
var ErrWorkspaceManifest = errors.New("manifest requires cargo to resolve")

type (
	// FileSource reads a single Cargo.toml without invoking cargo. It does not
	// resolve workspaces or `field.workspace = true` inheritance; use it for
	// standalone crates only.
	FileSource struct{}

	cargoToml struct {
		Package   *cargoPackage `toml:"package"`
		Workspace any           `toml:"workspace"`
		Lib       *cargoLib     `toml:"lib"`
		Bin       []cargoBin    `toml:"bin"`
	}

	cargoPackage struct {
		Name        string         `toml:"name"`
		Version     any            `toml:"version"`
		Authors     []string       `toml:"authors"`
		Description any            `toml:"description"`
		License     any            `toml:"license"`
		LicenseFile string         `toml:"license-file"`
		Readme      any            `toml:"readme"`
		Repository  any            `toml:"repository"`
		Homepage    any            `toml:"homepage"`
		Metadata    map[string]any `toml:"metadata"`
	}

	cargoLib struct {
		Name      string   `toml:"name"`
		CrateType []string `toml:"crate-type"`
		Path      string   `toml:"path"`
	}

	cargoBin struct {
		Name string `toml:"name"`
		Path string `toml:"path"`
	}
)

// Load implements Source.
func (FileSource) Load(ctx context.Context, opts LoadOptions) (*Metadata, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load cargo manifest canceled: %w", ctx.Err())
	default:
	}

	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = "Cargo.toml"
	}
	absPath, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", absPath, err)
	}

	return parseCargoToml(data, absPath)
}

func parseCargoToml(data []byte, manifestPath string) (*Metadata, error) {
	var manifest cargoToml
	if err := toml.Unmarshal(data, &manifest); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", manifestPath, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	if manifest.Package == nil {
		return nil, fmt.Errorf("%s: %w: no [package] table (virtual workspace?)", manifestPath, ErrWorkspaceManifest)
	}

	p := manifest.Package
	version, err := plainString("version", p.Version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	dir := filepath.Dir(manifestPath)
	id := PackageID(fmt.Sprintf("path+file://%s#%s@%s", filepath.ToSlash(dir), p.Name, version))

	pkg := &Package{
		ID:           id,
		Name:         p.Name,
		Version:      version,
		Authors:      p.Authors,
		ManifestPath: manifestPath,
		Targets:      discoverTargets(dir, p.Name, manifest.Lib, manifest.Bin),
	}
	optional := []struct {
		field string
		value any
		dest  **string
	}{
		{"description", p.Description, &pkg.Description},
		{"license", p.License, &pkg.License},
		{"repository", p.Repository, &pkg.Repository},
		{"homepage", p.Homepage, &pkg.Homepage},
	}
	for _, o := range optional {
		if o.value == nil {
			continue
		}
		s, strErr := plainString(o.field, o.value)
		if strErr != nil {
			return nil, fmt.Errorf("%s: %w", manifestPath, strErr)
		}
		*o.dest = &s
	}
	if p.LicenseFile != "" {
		pkg.LicenseFile = &p.LicenseFile
	}
	if readme, ok := p.Readme.(string); ok {
		pkg.Readme = &readme
	}

	if p.Metadata != nil {
		raw, marshalErr := json.Marshal(p.Metadata)
		if marshalErr != nil {
			return nil, fmt.Errorf("%s: failed to convert [package.metadata]: %w", manifestPath, marshalErr)
		}
		pkg.Metadata = raw
	}

	targetDir := os.Getenv("CARGO_TARGET_DIR")
	if targetDir == "" {
		targetDir = filepath.Join(dir, "target")
	}

	return &Metadata{
		Packages:         []*Package{pkg},
		WorkspaceMembers: []PackageID{id},
		Resolve:          &Resolve{Root: &id},
		TargetDirectory:  targetDir,
		WorkspaceRoot:    dir,
		Version:          metadataFormatVersion,
	}, nil
}

// plainString rejects values cargo would have to resolve, such as
// `version.workspace = true`.
func plainString(field string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case nil:
		return "", nil
	case map[string]any:
		if _, ok := val["workspace"]; ok {
			return "", fmt.Errorf("%w: %q is inherited from the workspace", ErrWorkspaceManifest, field)
		}
	}
	return "", fmt.Errorf("field %q must be a string", field)
}

// discoverTargets lists targets the way cargo orders them: the library first,
// then binaries, explicit ones before auto-discovered ones.
func discoverTargets(dir, pkgName string, lib *cargoLib, bins []cargoBin) []Target {
	var targets []Target

	libPath := filepath.Join(dir, "src", "lib.rs")
	if lib != nil || fileExists(libPath) {
		t := Target{
			Name:       strings.ReplaceAll(pkgName, "-", "_"),
			Kind:       []string{"lib"},
			CrateTypes: []string{"lib"},
			SrcPath:    libPath,
		}
		if lib != nil {
			if lib.Name != "" {
				t.Name = lib.Name
			}
			if len(lib.CrateType) > 0 {
				t.Kind = slices.Clone(lib.CrateType)
				t.CrateTypes = slices.Clone(lib.CrateType)
			}
			if lib.Path != "" {
				t.SrcPath = filepath.Join(dir, lib.Path)
			}
		}
		targets = append(targets, t)
	}

	seen := make(map[string]bool)
	for _, b := range bins {
		src := b.Path
		if src == "" {
			src = filepath.Join("src", "bin", b.Name+".rs")
		}
		targets = append(targets, binTarget(b.Name, filepath.Join(dir, src)))
		seen[b.Name] = true
	}

	mainPath := filepath.Join(dir, "src", "main.rs")
	if !seen[pkgName] && fileExists(mainPath) {
		targets = append(targets, binTarget(pkgName, mainPath))
		seen[pkgName] = true
	}

	entries, err := os.ReadDir(filepath.Join(dir, "src", "bin"))
	if err == nil {
		for _, entry := range entries {
			name, ok := strings.CutSuffix(entry.Name(), ".rs")
			if !ok || entry.IsDir() || seen[name] {
				continue
			}
			targets = append(targets, binTarget(name, filepath.Join(dir, "src", "bin", entry.Name())))
			seen[name] = true
		}
	}

	return targets
}

func binTarget(name, src string) Target {
	return Target{
		Name:       name,
		Kind:       []string{KindBin},
		CrateTypes: []string{KindBin},
		SrcPath:    src,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
