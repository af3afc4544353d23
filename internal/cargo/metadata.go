// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"context"
	"fmt"

	"cargo-wapm/pkg/cargometa"
)

// Runner implements cargometa.Source by running `cargo metadata`.
var _ cargometa.Source = (*Runner)(nil)

// MetadataArgs returns the arguments for `cargo metadata`.
func MetadataArgs(opts cargometa.LoadOptions) []string {
	args := []string{"metadata", "--format-version", "1"}
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	return append(args, featureArgs(opts.Features, opts.AllFeatures, opts.NoDefaultFeatures)...)
}

// Load runs `cargo metadata` and parses its output.
func (r *Runner) Load(ctx context.Context, opts cargometa.LoadOptions) (*cargometa.Metadata, error) {
	out, err := r.output(ctx, MetadataArgs(opts)...)
	if err != nil {
		return nil, err
	}
	meta, err := cargometa.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("unable to parse the output of \"%s metadata\": %w", r.binary, err)
	}
	return meta, nil
}

func featureArgs(features cargometa.Features, all, noDefault bool) []string {
	var args []string
	if len(features) > 0 {
		args = append(args, "--features", features.String())
	}
	if all {
		args = append(args, "--all-features")
	}
	if noDefault {
		args = append(args, "--no-default-features")
	}
	return args
}
