// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"cargo-wapm/internal/cargo"
	"cargo-wapm/internal/config"
	"cargo-wapm/internal/publish"
	"cargo-wapm/internal/wasmcheck"
	"cargo-wapm/pkg/cargometa"
)

type (
	configContextKey struct{}

	// App wires CLI services and shared dependencies. All Cobra command handlers
	// receive an App reference and reach the pipeline through it.
	App struct {
		Config      ConfigProvider
		Pipelines   PipelineFactory
		Diagnostics DiagnosticRenderer
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Pipelines   PipelineFactory
		Diagnostics DiagnosticRenderer
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// Pipeline is the part of *publish.Driver the commands use.
	Pipeline interface {
		Check(ctx context.Context, opts publish.Options) ([]publish.Result, error)
		Generate(ctx context.Context, opts publish.Options, output string) ([]publish.Result, error)
		Run(ctx context.Context, opts publish.Options) ([]publish.Result, error)
	}

	// PipelineRequest carries what a PipelineFactory needs beyond the config.
	PipelineRequest struct {
		Config *config.Config
		// NoCargoMetadata reads Cargo.toml directly instead of running cargo.
		NoCargoMetadata bool
		Stdout          io.Writer
		Stderr          io.Writer
	}

	// PipelineFactory builds the pipeline for one invocation.
	PipelineFactory func(req PipelineRequest) Pipeline
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Pipelines == nil {
		deps.Pipelines = newDriver
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}

	return &App{
		Config:      deps.Config,
		Pipelines:   deps.Pipelines,
		Diagnostics: deps.Diagnostics,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
}

// newDriver builds the production pipeline: cargo for metadata and builds,
// wazero for artifact inspection and the configured publish command.
func newDriver(req PipelineRequest) Pipeline {
	cfg := req.Config
	runner := cargo.NewRunner(
		cargo.WithBinary(cfg.CargoBin.OrDefault()),
		cargo.WithOutput(req.Stderr, req.Stderr),
	)

	var source cargometa.Source = runner
	if req.NoCargoMetadata {
		source = cargometa.FileSource{}
	}

	return publish.New(source,
		publish.WithBuilder(runner),
		publish.WithInspector(wasmcheck.NewInspector()),
		publish.WithPublisher(publish.NewCommandPublisher(
			cfg.PublishCommand.OrDefault(),
			publish.WithPublisherOutput(req.Stdout, req.Stderr),
		)),
		publish.WithRules(cfg.Rules()),
	)
}

func (a *App) pipeline(ctx context.Context, noCargoMetadata bool) Pipeline {
	return a.Pipelines(PipelineRequest{
		Config:          configFromContext(ctx),
		NoCargoMetadata: noCargoMetadata,
		Stdout:          a.stdout,
		Stderr:          a.stderr,
	})
}

func contextWithConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configContextKey{}, cfg)
}

// configFromContext returns the configuration loaded for this invocation, or
// the defaults when none was loaded.
func configFromContext(ctx context.Context) *config.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configContextKey{}).(*config.Config); ok && cfg != nil {
			return cfg
		}
	}
	return config.DefaultConfig()
}
