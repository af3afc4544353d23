// SPDX-License-Identifier: MPL-2.0

package cargometa

import (
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoPackageSelected is the sentinel error wrapped by SelectionError.
var ErrNoPackageSelected = errors.New("unable to determine which package to publish")

type (
	// SelectOptions controls which workspace packages are selected.
	SelectOptions struct {
		// Workspace selects every member with a [package.metadata.wapm] table.
		Workspace bool
		// Exclude lists package names to skip in workspace mode.
		Exclude []string
		// CurrentDir picks the most specific member containing it when Workspace is false.
		CurrentDir string
	}

	// SelectionError is returned when no package can be selected.
	SelectionError struct {
		WorkspaceRoot string
		CurrentDir    string
	}
)

// Error implements the error interface.
func (e *SelectionError) Error() string {
	return `unable to determine which package to publish. Either "cd" into the crate folder or use the "--workspace" flag`
}

// Unwrap returns ErrNoPackageSelected for errors.Is() compatibility.
func (e *SelectionError) Unwrap() error { return ErrNoPackageSelected }

// SelectPackages determines which packages to publish.
//
// In workspace mode every member that is not excluded and carries a
// [package.metadata.wapm] table is returned (possibly none). Otherwise the member
// whose directory most specifically contains CurrentDir wins, nested packages
// included, with the root package as a fallback.
func SelectPackages(meta *Metadata, opts SelectOptions) ([]*Package, error) {
	members := meta.Members()

	if opts.Workspace {
		var selected []*Package
		for _, pkg := range members {
			if slices.Contains(opts.Exclude, pkg.Name) {
				slog.Debug("explicitly ignoring package", "package", pkg.Name)
				continue
			}
			if !pkg.HasWapmTable() {
				slog.Debug("skipping package without a [package.metadata.wapm] table", "package", pkg.Name)
				continue
			}
			selected = append(selected, pkg)
		}
		return selected, nil
	}

	var best *Package
	bestDepth := -1
	for _, pkg := range members {
		dir := pkg.Dir()
		if !isWithin(opts.CurrentDir, dir) {
			continue
		}
		depth := strings.Count(filepath.Clean(pkg.ManifestPath), string(filepath.Separator))
		if depth > bestDepth {
			best, bestDepth = pkg, depth
		}
	}
	if best != nil {
		return []*Package{best}, nil
	}

	if root := meta.RootPackage(); root != nil {
		return []*Package{root}, nil
	}

	return nil, &SelectionError{WorkspaceRoot: meta.WorkspaceRoot, CurrentDir: opts.CurrentDir}
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(path, dir string) bool {
	if path == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
