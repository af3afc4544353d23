// SPDX-License-Identifier: MPL-2.0

package wapmtoml

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	return &Manifest{
		Package: Package{
			Namespace:        "wasmer",
			Name:             "hello-wasi",
			Version:          "0.2.0",
			Description:      "Says hello from WASI",
			License:          "MIT OR Apache-2.0",
			LicenseFile:      "LICENSE",
			Readme:           "README.md",
			Repository:       "https://example.com/hello",
			WasmerExtraFlags: "--enable-threads",
		},
		Modules: []Module{
			{Name: "hello-wasi", Source: "hello-wasi.wasm", Abi: AbiWasi},
			{
				Name:   "greeter",
				Source: "greeter.wasm",
				Abi:    AbiNone,
				Bindings: &Bindings{
					WaiVersion: "0.2.0",
					Exports:    "greeter.wai",
					Imports:    []string{"host.wai"},
				},
			},
		},
		Commands: []Command{
			{Name: "hello-wasi", Module: "hello-wasi", Package: "wasmer/hello-wasi"},
		},
		Fs: map[string]string{"/data": "data", "/assets": "assets"},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), FileName)
	want := sampleManifest()

	require.NoError(t, Write(want, dest))

	got, err := Read(dest)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(want, got), "Read() mismatch (-want +got)")
}

func TestWriteRead_EmptyCollections(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), FileName)
	want := sampleManifest()
	want.Fs = map[string]string{}
	want.Modules[1].Bindings.Imports = []string{}

	require.NoError(t, Write(want, dest))

	got, err := Read(dest)
	require.NoError(t, err)
	assert.Empty(t, got.Fs)
	assert.Empty(t, cmp.Diff(want, got, cmpopts.EquateEmpty()), "Read() mismatch (-want +got)")
}

func TestWrite_ReplacesExisting(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

	require.NoError(t, Write(sampleManifest(), dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wasmer/hello-wasi")
	assert.NotContains(t, string(data), "stale")

	info, err := os.Stat(dest)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(manifestFileMode), info.Mode().Perm())
	}
}

func TestWrite_NoTemporaryFilesLeft(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, Write(sampleManifest(), filepath.Join(dir, FileName)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestWrite_MissingDirectory(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "does-not-exist", FileName)
	err := Write(sampleManifest(), dest)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrIoFailure)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, dest, writeErr.Path)

	_, statErr := os.Stat(dest)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestWrite_DestinationIsDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dest := filepath.Join(dir, FileName)
	require.NoError(t, os.Mkdir(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "keep"), nil, 0o644))

	err := Write(sampleManifest(), dest)
	require.ErrorIs(t, err, ErrIoFailure)

	// The failed rename must not leave the temporary file behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestRead_Missing(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, ErrIoFailure)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
