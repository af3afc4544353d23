// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"cargo-wapm/internal/cargo"
	"cargo-wapm/internal/pack"
	"cargo-wapm/internal/translate"
	"cargo-wapm/internal/wasmcheck"
	"cargo-wapm/pkg/cargometa"
	"cargo-wapm/pkg/wapmtoml"
)

// ErrAmbiguousOutput is returned by Generate when an explicit output path is
// given for more than one package.
var ErrAmbiguousOutput = errors.New("an output path can only be used with a single package")

type (
	// Builder compiles a package to WebAssembly.
	Builder interface {
		Build(ctx context.Context, opts cargo.BuildOptions) error
	}

	// Inspector examines a compiled artifact.
	Inspector interface {
		Inspect(ctx context.Context, path string) (*wasmcheck.Report, error)
	}

	// Publisher hands a packed manifest to the registry.
	Publisher interface {
		Publish(ctx context.Context, manifestPath string, dryRun bool) error
	}

	// Option configures a Driver.
	Option func(*Driver)

	// Driver runs the pipeline. Build it with New.
	Driver struct {
		source    cargometa.Source
		builder   Builder
		inspector Inspector
		publisher Publisher
		rules     translate.Rules
	}

	// Options select what a run operates on.
	Options struct {
		Load   cargometa.LoadOptions
		Select cargometa.SelectOptions
		// DryRun is forwarded to the publisher.
		DryRun bool
		// Debug builds the debug profile instead of release.
		Debug bool
		// SkipBuild uses artifacts already present in the target directory.
		SkipBuild bool
	}

	// Result is the outcome for one package.
	Result struct {
		Package      string
		Manifest     *wapmtoml.Manifest
		ManifestPath string
		// Diagnostics holds validator and artifact findings, errors included.
		Diagnostics []translate.Diagnostic
	}
)

// WithBuilder sets the builder used by Run.
func WithBuilder(b Builder) Option {
	return func(d *Driver) { d.builder = b }
}

// WithInspector sets the artifact inspector. Without one artifacts are not checked.
func WithInspector(i Inspector) Option {
	return func(d *Driver) { d.inspector = i }
}

// WithPublisher sets the publisher used by Run.
func WithPublisher(p Publisher) Option {
	return func(d *Driver) { d.publisher = p }
}

// WithRules sets the validation rules.
func WithRules(r translate.Rules) Option {
	return func(d *Driver) { d.rules = r }
}

// New creates a Driver reading metadata from source.
func New(source cargometa.Source, opts ...Option) *Driver {
	d := &Driver{
		source: source,
		rules:  translate.DefaultRules(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Check maps and validates every selected package without writing anything.
// Validation findings are reported in the results, not as an error; only
// mapping failures abort.
func (d *Driver) Check(ctx context.Context, opts Options) ([]Result, error) {
	_, pkgs, err := d.selectPackages(ctx, opts)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(pkgs))
	for _, pkg := range pkgs {
		res, _, err := d.translate(pkg)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Generate writes a validated wapm.toml for every selected package. With an
// empty output the manifest goes to the package's publish directory.
func (d *Driver) Generate(ctx context.Context, opts Options, output string) ([]Result, error) {
	meta, pkgs, err := d.selectPackages(ctx, opts)
	if err != nil {
		return nil, err
	}
	if output != "" && len(pkgs) > 1 {
		return nil, ErrAmbiguousOutput
	}

	results := make([]Result, 0, len(pkgs))
	for _, pkg := range pkgs {
		res, _, err := d.translateValid(pkg)
		if err != nil {
			return results, err
		}

		dest := output
		if dest == "" {
			dir := pack.Dir(meta.TargetDirectory, pkg.Name)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return results, &wapmtoml.WriteError{Path: dir, Op: "create directory", Err: err}
			}
			dest = filepath.Join(dir, wapmtoml.FileName)
		}
		if err := wapmtoml.Write(res.Manifest, dest); err != nil {
			return results, err
		}
		res.ManifestPath = dest
		results = append(results, res)
	}
	return results, nil
}

// Run publishes every selected package: translate, build, inspect, pack and
// publish. The first failure stops the run; the results of packages already
// published are returned alongside the error.
func (d *Driver) Run(ctx context.Context, opts Options) ([]Result, error) {
	if d.publisher == nil {
		return nil, errors.New("publish: no publisher configured")
	}
	if d.builder == nil && !opts.SkipBuild {
		return nil, errors.New("publish: no builder configured")
	}

	meta, pkgs, err := d.selectPackages(ctx, opts)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(pkgs))
	for _, pkg := range pkgs {
		res, err := d.publishPackage(ctx, meta, pkg, opts)
		if err != nil {
			return results, fmt.Errorf("unable to publish %q: %w", pkg.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Driver) publishPackage(ctx context.Context, meta *cargometa.Metadata, pkg *cargometa.Package, opts Options) (Result, error) {
	res, src, err := d.translateValid(pkg)
	if err != nil {
		return res, err
	}
	m := res.Manifest
	release := !opts.Debug

	if !opts.SkipBuild {
		for _, triple := range targetTriples(m) {
			slog.Info("compiling to WebAssembly", "package", pkg.Name, "target", triple, "release", release)
			err := d.builder.Build(ctx, cargo.BuildOptions{
				ManifestPath:      pkg.ManifestPath,
				TargetTriple:      triple,
				Release:           release,
				Features:          opts.Load.Features,
				AllFeatures:       opts.Load.AllFeatures,
				NoDefaultFeatures: opts.Load.NoDefaultFeatures,
			})
			if err != nil {
				return res, err
			}
		}
	}

	artifacts := make(map[string]string, len(m.Modules))
	for i, mod := range m.Modules {
		path, err := cargo.LocateArtifact(meta.TargetDirectory, mod.Abi.TargetTriple(), release, mod.Source)
		if err != nil {
			return res, err
		}
		artifacts[mod.Name] = path

		if d.inspector == nil {
			continue
		}
		report, err := d.inspector.Inspect(ctx, path)
		if err != nil {
			return res, err
		}
		slog.Debug("inspected artifact", "module", mod.Name, "report", report.String())
		isCommand := slices.ContainsFunc(m.Commands, func(c wapmtoml.Command) bool { return c.Module == mod.Name })
		res.Diagnostics = append(res.Diagnostics, wasmcheck.CheckAbi(i, mod, isCommand, report)...)
	}

	manifestPath, err := pack.Assemble(pack.Request{
		Dir:       pack.Dir(meta.TargetDirectory, pkg.Name),
		SourceDir: pkg.Dir(),
		Manifest:  m,
		Artifacts: artifacts,
		Documents: translate.Documents(src),
	})
	if err != nil {
		return res, err
	}
	res.ManifestPath = manifestPath

	slog.Info("publishing", "package", m.String(), "dir", filepath.Dir(manifestPath), "dry_run", opts.DryRun)
	if err := d.publisher.Publish(ctx, manifestPath, opts.DryRun); err != nil {
		return res, err
	}
	return res, nil
}

func (d *Driver) selectPackages(ctx context.Context, opts Options) (*cargometa.Metadata, []*cargometa.Package, error) {
	meta, err := d.source.Load(ctx, opts.Load)
	if err != nil {
		return nil, nil, err
	}
	pkgs, err := cargometa.SelectPackages(meta, opts.Select)
	if err != nil {
		return nil, nil, err
	}
	if len(pkgs) == 0 {
		slog.Warn("no packages selected; add a [package.metadata.wapm] table to the crates to publish")
	}
	return meta, pkgs, nil
}

// translate maps and validates one package.
func (d *Driver) translate(pkg *cargometa.Package) (Result, cargometa.SourceManifest, error) {
	res := Result{Package: pkg.Name}
	src, err := cargometa.FromPackage(pkg)
	if err != nil {
		return res, src, err
	}
	m, err := translate.Map(src)
	if err != nil {
		return res, src, err
	}
	res.Manifest = m
	res.Diagnostics = translate.Validate(m, d.rules)
	return res, src, nil
}

// translateValid is translate, failing when validation reported errors.
func (d *Driver) translateValid(pkg *cargometa.Package) (Result, cargometa.SourceManifest, error) {
	res, src, err := d.translate(pkg)
	if err != nil {
		return res, src, err
	}
	if translate.HasErrors(res.Diagnostics) {
		return res, src, &translate.ValidationFailedError{Package: pkg.Name, Diagnostics: res.Diagnostics}
	}
	return res, src, nil
}

// targetTriples lists the distinct target triples of the manifest's modules
// in module order.
func targetTriples(m *wapmtoml.Manifest) []string {
	var triples []string
	for _, mod := range m.Modules {
		if triple := mod.Abi.TargetTriple(); !slices.Contains(triples, triple) {
			triples = append(triples, triple)
		}
	}
	return triples
}
