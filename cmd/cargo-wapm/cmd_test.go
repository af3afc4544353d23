// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-wapm/internal/cargo"
	"cargo-wapm/internal/config"
	"cargo-wapm/internal/issue"
	"cargo-wapm/internal/publish"
	"cargo-wapm/internal/testutil"
	"cargo-wapm/internal/wasmcheck"
	"cargo-wapm/pkg/cargometa"
	"cargo-wapm/pkg/wapmtoml"
)

type (
	fakeConfig struct {
		cfg  *config.Config
		err  error
		opts []config.LoadOptions
	}

	// fakeBuilder drops a WASI command where cargo would put demo.wasm.
	fakeBuilder struct {
		builds []cargo.BuildOptions
	}

	fakePublisher struct {
		err       error
		manifests []string
		dryRun    []bool
	}

	harness struct {
		app       *App
		stdout    *bytes.Buffer
		stderr    *bytes.Buffer
		config    *fakeConfig
		builder   *fakeBuilder
		publisher *fakePublisher
		requests  []PipelineRequest
	}
)

func (f *fakeConfig) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg != nil {
		return f.cfg, nil
	}
	return config.DefaultConfig(), nil
}

func (b *fakeBuilder) Build(_ context.Context, opts cargo.BuildOptions) error {
	b.builds = append(b.builds, opts)
	targetDir := filepath.Join(filepath.Dir(opts.ManifestPath), "target")
	path := cargo.ArtifactPath(targetDir, opts.TargetTriple, opts.Release, "demo.wasm")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, testutil.WasiCommand(), 0o644)
}

func (p *fakePublisher) Publish(_ context.Context, manifestPath string, dryRun bool) error {
	p.manifests = append(p.manifests, manifestPath)
	p.dryRun = append(p.dryRun, dryRun)
	return p.err
}

// newHarness wires an App to the real pipeline over FileSource, with cargo
// and the publish command replaced by fakes.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("CARGO_TARGET_DIR", "")
	for _, env := range flagEnv {
		t.Setenv(env, "")
	}

	h := &harness{
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		config:    &fakeConfig{},
		builder:   &fakeBuilder{},
		publisher: &fakePublisher{},
	}
	h.app = NewApp(Dependencies{
		Config: h.config,
		Stdout: h.stdout,
		Stderr: h.stderr,
		Pipelines: func(req PipelineRequest) Pipeline {
			h.requests = append(h.requests, req)
			return publish.New(cargometa.FileSource{},
				publish.WithBuilder(h.builder),
				publish.WithInspector(wasmcheck.NewInspector()),
				publish.WithPublisher(h.publisher),
				publish.WithRules(req.Config.Rules()),
			)
		},
	})
	return h
}

func (h *harness) run(args ...string) error {
	root := NewRootCommand(h.app)
	root.SetArgs(args)
	root.SetOut(h.stdout)
	root.SetErr(h.stderr)
	return root.ExecuteContext(context.Background())
}

// writeCrate writes a binary crate with a wapm table and returns its
// Cargo.toml path. An empty description leaves the field out.
func writeCrate(t *testing.T, description string) string {
	t.Helper()
	dir := t.TempDir()

	cargoToml := "[package]\nname = \"demo\"\nversion = \"0.1.0\"\nlicense = \"MIT\"\nreadme = \"README.md\"\n"
	if description != "" {
		cargoToml += fmt.Sprintf("description = %q\n", description)
	}
	cargoToml += "\n[package.metadata.wapm]\nnamespace = \"wasmer\"\nabi = \"wasi\"\n"

	testutil.WriteFiles(t, dir, map[string]string{
		"Cargo.toml":  cargoToml,
		"README.md":   "# demo\n",
		"src/main.rs": "fn main() {}\n",
	})
	return filepath.Join(dir, "Cargo.toml")
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.Code
}

func TestPublish_DryRun(t *testing.T) {
	h := newHarness(t)
	manifest := writeCrate(t, "A demo WebAssembly tool")

	require.NoError(t, h.run("--manifest-path", manifest, "--dry-run"))

	wantManifest := filepath.Join(filepath.Dir(manifest), "target", "wapm", "demo", wapmtoml.FileName)
	assert.Equal(t, []string{wantManifest}, h.publisher.manifests)
	assert.Equal(t, []bool{true}, h.publisher.dryRun)
	require.Len(t, h.builder.builds, 1)
	assert.Equal(t, "wasm32-wasi", h.builder.builds[0].TargetTriple)
	assert.True(t, h.builder.builds[0].Release)
	assert.Contains(t, h.stdout.String(), "Packed (dry run)")
	assert.Contains(t, h.stdout.String(), "wasmer/demo@0.1.0")

	m, err := wapmtoml.Read(wantManifest)
	require.NoError(t, err)
	assert.Equal(t, "wasmer", m.Package.Namespace)
	assert.FileExists(t, filepath.Join(filepath.Dir(wantManifest), "README.md"))
}

func TestPublish_FlagsFromEnvironment(t *testing.T) {
	h := newHarness(t)
	manifest := writeCrate(t, "A demo WebAssembly tool")
	t.Setenv("MANIFEST_PATH", manifest)
	t.Setenv("DRY_RUN", "true")

	require.NoError(t, h.run())
	assert.Equal(t, []bool{true}, h.publisher.dryRun)

	// A flag on the command line wins over the environment.
	h.publisher.dryRun = nil
	require.NoError(t, h.run("--dry-run=false"))
	assert.Equal(t, []bool{false}, h.publisher.dryRun)
}

func TestPublish_FlagsReachPipeline(t *testing.T) {
	h := newHarness(t)
	manifest := writeCrate(t, "A demo WebAssembly tool")

	require.NoError(t, h.run("--manifest-path", manifest, "--debug", "--features", "a,b", "--no-default-features", "--no-cargo-metadata"))

	require.Len(t, h.requests, 1)
	assert.True(t, h.requests[0].NoCargoMetadata)
	require.Len(t, h.builder.builds, 1)
	build := h.builder.builds[0]
	assert.False(t, build.Release)
	assert.Equal(t, cargometa.Features{"a", "b"}, build.Features)
	assert.True(t, build.NoDefaultFeatures)
	assert.Equal(t, []bool{false}, h.publisher.dryRun)
	assert.Contains(t, h.stdout.String(), "Published")
}

func TestPublish_SkipBuild(t *testing.T) {
	h := newHarness(t)
	manifest := writeCrate(t, "A demo WebAssembly tool")

	err := h.run("--manifest-path", manifest, "--skip-build")
	assert.Equal(t, 1, exitCode(t, err))
	assert.Empty(t, h.builder.builds)
	assert.ErrorIs(t, err, cargo.ErrArtifactMissing)
	assert.Contains(t, h.stderr.String(), "Compiled module not found!")
}

func TestPublish_FailureRendersIssue(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = fmt.Errorf("wapm exited with 1: %w", publish.ErrPublishFailed)
	manifest := writeCrate(t, "A demo WebAssembly tool")

	err := h.run("--manifest-path", manifest)

	assert.Equal(t, 1, exitCode(t, err))
	assert.ErrorIs(t, err, publish.ErrPublishFailed)
	assert.Contains(t, h.stderr.String(), "Error:")
	assert.Contains(t, h.stderr.String(), "Publishing failed!")
}

func TestPublish_ValidationFailureShowsDiagnostics(t *testing.T) {
	h := newHarness(t)
	manifest := writeCrate(t, "")

	err := h.run("--manifest-path", manifest)

	assert.Equal(t, 1, exitCode(t, err))
	assert.Empty(t, h.builder.builds)
	assert.Empty(t, h.publisher.manifests)
	assert.Contains(t, h.stderr.String(), "description_missing")
	assert.Contains(t, h.stderr.String(), "The generated wapm.toml is not valid!")
}

func TestGenerate(t *testing.T) {
	t.Run("explicit output", func(t *testing.T) {
		h := newHarness(t)
		manifest := writeCrate(t, "A demo WebAssembly tool")
		out := filepath.Join(t.TempDir(), "wapm.toml")

		require.NoError(t, h.run("generate", "--manifest-path", manifest, "-o", out))

		m, err := wapmtoml.Read(out)
		require.NoError(t, err)
		assert.Equal(t, "demo", m.Package.Name)
		assert.Contains(t, h.stdout.String(), out)
		assert.Empty(t, h.builder.builds)
		assert.Empty(t, h.publisher.manifests)
	})

	t.Run("default location", func(t *testing.T) {
		h := newHarness(t)
		manifest := writeCrate(t, "A demo WebAssembly tool")

		require.NoError(t, h.run("generate", "--manifest-path", manifest))

		assert.FileExists(t, filepath.Join(filepath.Dir(manifest), "target", "wapm", "demo", wapmtoml.FileName))
	})

	t.Run("invalid manifest is not written", func(t *testing.T) {
		h := newHarness(t)
		manifest := writeCrate(t, "")
		out := filepath.Join(t.TempDir(), "wapm.toml")

		err := h.run("generate", "--manifest-path", manifest, "--output", out)

		assert.Equal(t, 1, exitCode(t, err))
		assert.NoFileExists(t, out)
		assert.Contains(t, h.stderr.String(), "description_missing")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantCode    int
		wantStderr  string
	}{
		{"valid", "A demo WebAssembly tool", 0, ""},
		{"warnings only", "tiny", 0, "description_short"},
		{"errors", "", validationFailedExitCode, "description_missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			manifest := writeCrate(t, tt.description)

			err := h.run("validate", "--manifest-path", manifest)

			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Contains(t, h.stdout.String(), "demo is valid")
			} else {
				assert.Equal(t, tt.wantCode, exitCode(t, err))
				assert.Contains(t, h.stderr.String(), "demo is invalid")
			}
			if tt.wantStderr != "" {
				assert.Contains(t, h.stderr.String(), tt.wantStderr)
			}
			assert.Empty(t, h.builder.builds)
		})
	}
}

func TestValidate_UsesConfiguredRules(t *testing.T) {
	h := newHarness(t)
	cfg := config.DefaultConfig()
	cfg.MinDescriptionLength = 0
	h.config.cfg = cfg
	manifest := writeCrate(t, "tiny")

	require.NoError(t, h.run("validate", "--manifest-path", manifest))
	assert.NotContains(t, h.stderr.String(), "description_short")
}

func TestConfigLoadFailure(t *testing.T) {
	loadErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(errors.New("config.cue:1:1: syntax error")).
		BuildError()

	t.Run("default file falls back to defaults", func(t *testing.T) {
		h := newHarness(t)
		h.config.err = loadErr
		manifest := writeCrate(t, "A demo WebAssembly tool")

		require.NoError(t, h.run("validate", "--manifest-path", manifest))
		assert.Contains(t, h.stderr.String(), "Warning:")
	})

	t.Run("explicit file must load", func(t *testing.T) {
		h := newHarness(t)
		h.config.err = loadErr
		manifest := writeCrate(t, "A demo WebAssembly tool")

		err := h.run("validate", "--config", "/nope/config.cue", "--manifest-path", manifest)

		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, h.stderr.String(), "Failed to load configuration!")
		require.Len(t, h.config.opts, 1)
		assert.Equal(t, "/nope/config.cue", h.config.opts[0].ConfigFilePath)
	})
}

func TestConfigCommands(t *testing.T) {
	t.Run("show", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("config", "show"))
		out := h.stdout.String()
		assert.Contains(t, out, "(using defaults)")
		assert.Contains(t, out, "cargo_bin")
		assert.Contains(t, out, publish.DefaultCommand)
	})

	t.Run("dump", func(t *testing.T) {
		h := newHarness(t)
		cfg := config.DefaultConfig()
		cfg.CargoBin = "/opt/cargo"
		h.config.cfg = cfg

		require.NoError(t, h.run("config", "dump"))
		assert.Contains(t, h.stdout.String(), `cargo_bin: "/opt/cargo"`)
	})

	t.Run("path", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("config", "path", "--config", "/etc/cargo-wapm.cue"))
		assert.Equal(t, "/etc/cargo-wapm.cue\n", h.stdout.String())
	})

	t.Run("init", func(t *testing.T) {
		h := newHarness(t)
		path := filepath.Join(t.TempDir(), "nested", "config.cue")

		require.NoError(t, h.run("config", "init", "--config", path))
		assert.FileExists(t, path)
		assert.Contains(t, h.stdout.String(), path)
		// The config commands load the file themselves.
		assert.Empty(t, h.config.opts)
	})

	t.Run("show reports a broken file", func(t *testing.T) {
		h := newHarness(t)
		h.config.err = errors.New("broken")

		err := h.run("config", "show")
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, h.stderr.String(), "broken")
	})
}

func TestExplain(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("explain"))
		for _, entry := range issue.Values() {
			assert.Contains(t, h.stdout.String(), entry.Title())
		}
	})

	t.Run("one issue", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("explain", fmt.Sprint(int(issue.PublishFailedId))))
		assert.Contains(t, h.stdout.String(), "Publishing failed!")
	})

	t.Run("unknown issue", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorContains(t, h.run("explain", "999"), "unknown issue id 999")
	})

	t.Run("not a number", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorContains(t, h.run("explain", "cargo"), "invalid issue id")
	})
}

func TestRoot_RejectsArguments(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.run("crate-name"))
}
