// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-wapm/internal/testutil"
	"cargo-wapm/pkg/wapmtoml"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	testutil.MustWriteFile(t, path, []byte(content))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDir(t *testing.T) {
	t.Parallel()

	got := Dir(filepath.FromSlash("/ws/target"), "demo")
	assert.Equal(t, filepath.FromSlash("/ws/target/wapm/demo"), got)
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	buildDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "wapm", "demo")

	writeFile(t, filepath.Join(srcDir, "docs", "LICENSE"), "license text")
	writeFile(t, filepath.Join(srcDir, "README.md"), "# demo")
	writeFile(t, filepath.Join(srcDir, "wai", "api.wai"), "record r {}")
	writeFile(t, filepath.Join(srcDir, "assets", "nested", "logo.txt"), "logo")
	writeFile(t, filepath.Join(buildDir, "demo.wasm"), "\x00asm")

	m := &wapmtoml.Manifest{
		Package: wapmtoml.Package{
			Namespace: "me", Name: "demo", Version: "0.1.0", Description: "A demo module", License: "MIT",
			LicenseFile: "docs/LICENSE", Readme: "README.md",
		},
		Modules: []wapmtoml.Module{{
			Name: "demo", Source: "demo.wasm", Abi: wapmtoml.AbiWasi,
			Bindings: &wapmtoml.Bindings{WaiVersion: "0.2.0", Exports: "wai/api.wai"},
		}},
		Fs: map[string]string{"/assets": "assets"},
	}

	manifestPath, err := Assemble(Request{
		Dir:       outDir,
		SourceDir: srcDir,
		Manifest:  m,
		Artifacts: map[string]string{"demo": filepath.Join(buildDir, "demo.wasm")},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, wapmtoml.FileName), manifestPath)

	assert.Equal(t, "\x00asm", readFile(t, filepath.Join(outDir, "demo.wasm")))
	assert.Equal(t, "license text", readFile(t, filepath.Join(outDir, "docs", "LICENSE")))
	assert.Equal(t, "# demo", readFile(t, filepath.Join(outDir, "README.md")))
	assert.Equal(t, "record r {}", readFile(t, filepath.Join(outDir, "wai", "api.wai")))
	assert.Equal(t, "logo", readFile(t, filepath.Join(outDir, "assets", "nested", "logo.txt")))

	written, err := wapmtoml.Read(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "docs/LICENSE", written.Package.LicenseFile)
}

func TestAssemble_MissingArtifact(t *testing.T) {
	t.Parallel()

	m := &wapmtoml.Manifest{
		Package: wapmtoml.Package{Namespace: "me", Name: "demo", Version: "0.1.0"},
		Modules: []wapmtoml.Module{{Name: "demo", Source: "demo.wasm"}},
	}
	dir := t.TempDir()
	_, err := Assemble(Request{Dir: dir, SourceDir: t.TempDir(), Manifest: m})
	require.ErrorIs(t, err, ErrMissingArtifact)
	assert.NoFileExists(t, filepath.Join(dir, wapmtoml.FileName))
}

func TestAssemble_DocumentsOutsidePackage(t *testing.T) {
	t.Parallel()

	wsDir := t.TempDir()
	crateDir := filepath.Join(wsDir, "demo")
	buildDir := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, filepath.Join(wsDir, "README.md"), "# workspace")
	writeFile(t, filepath.Join(wsDir, "LICENSE"), "license text")
	writeFile(t, filepath.Join(buildDir, "demo.wasm"), "\x00asm")

	m := &wapmtoml.Manifest{
		Package: wapmtoml.Package{
			Namespace: "me", Name: "demo", Version: "0.1.0", Readme: "README.md", LicenseFile: "LICENSE",
		},
		Modules: []wapmtoml.Module{{Name: "demo", Source: "demo.wasm"}},
	}
	manifestPath, err := Assemble(Request{
		Dir:       outDir,
		SourceDir: crateDir,
		Manifest:  m,
		Artifacts: map[string]string{"demo": filepath.Join(buildDir, "demo.wasm")},
		Documents: map[string]string{
			"README.md": "../README.md",
			"LICENSE":   filepath.Join(wsDir, "LICENSE"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "# workspace", readFile(t, filepath.Join(outDir, "README.md")))
	assert.Equal(t, "license text", readFile(t, filepath.Join(outDir, "LICENSE")))

	written, err := wapmtoml.Read(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "README.md", written.Package.Readme)
}

func TestAssemble_ReferencedFileOutsidePackage(t *testing.T) {
	t.Parallel()

	buildDir := t.TempDir()
	writeFile(t, filepath.Join(buildDir, "demo.wasm"), "\x00asm")

	m := &wapmtoml.Manifest{
		Package: wapmtoml.Package{Namespace: "me", Name: "demo", Version: "0.1.0", Readme: "../README.md"},
		Modules: []wapmtoml.Module{{Name: "demo", Source: "demo.wasm"}},
	}
	_, err := Assemble(Request{
		Dir:       t.TempDir(),
		SourceDir: t.TempDir(),
		Manifest:  m,
		Artifacts: map[string]string{"demo": filepath.Join(buildDir, "demo.wasm")},
	})
	require.ErrorIs(t, err, ErrOutsidePackage)

	var packErr *Error
	require.True(t, errors.As(err, &packErr))
	assert.Equal(t, "../README.md", packErr.Path)
}

func TestAssemble_MissingReadme(t *testing.T) {
	t.Parallel()

	buildDir := t.TempDir()
	writeFile(t, filepath.Join(buildDir, "demo.wasm"), "\x00asm")

	m := &wapmtoml.Manifest{
		Package: wapmtoml.Package{Namespace: "me", Name: "demo", Version: "0.1.0", Readme: "README.md"},
		Modules: []wapmtoml.Module{{Name: "demo", Source: "demo.wasm"}},
	}
	dir := t.TempDir()
	_, err := Assemble(Request{
		Dir:       dir,
		SourceDir: t.TempDir(),
		Manifest:  m,
		Artifacts: map[string]string{"demo": filepath.Join(buildDir, "demo.wasm")},
	})
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, filepath.Join(dir, wapmtoml.FileName), "no manifest without its files")
}
