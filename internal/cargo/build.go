// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cargo-wapm/pkg/cargometa"
)

const (
	profileDebug   = "debug"
	profileRelease = "release"
)

// ErrArtifactMissing is returned when cargo succeeded but the expected .wasm
// file is not where it should be.
var ErrArtifactMissing = errors.New("compiled artifact not found")

// BuildOptions describes one `cargo build` invocation.
type BuildOptions struct {
	ManifestPath      string
	TargetTriple      string
	Release           bool
	Features          cargometa.Features
	AllFeatures       bool
	NoDefaultFeatures bool
}

// BuildArgs returns the arguments for `cargo build`.
func BuildArgs(opts BuildOptions) []string {
	args := []string{"build", "--quiet"}
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	args = append(args, "--target", opts.TargetTriple)
	if opts.Release {
		args = append(args, "--release")
	}
	return append(args, featureArgs(opts.Features, opts.AllFeatures, opts.NoDefaultFeatures)...)
}

// Build compiles the package for the requested target triple.
func (r *Runner) Build(ctx context.Context, opts BuildOptions) error {
	if opts.TargetTriple == "" {
		return errors.New("cargo build: no target triple given")
	}
	return r.stream(ctx, BuildArgs(opts)...)
}

// ArtifactPath returns where cargo places a compiled module:
// <target-dir>/<triple>/<profile>/<file>.
func ArtifactPath(targetDir, triple string, release bool, file string) string {
	profile := profileDebug
	if release {
		profile = profileRelease
	}
	return filepath.Join(targetDir, triple, profile, file)
}

// LocateArtifact returns ArtifactPath after checking that the file exists.
func LocateArtifact(targetDir, triple string, release bool, file string) (string, error) {
	path := ArtifactPath(targetDir, triple, release, file)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrArtifactMissing, path)
		}
		return "", fmt.Errorf("unable to inspect %q: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %q is a directory", ErrArtifactMissing, path)
	}
	return path, nil
}
