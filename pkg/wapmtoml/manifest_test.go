// SPDX-License-Identifier: MPL-2.0

package wapmtoml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbi_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		abi     Abi
		want    bool
		wantErr bool
	}{
		{"", true, false},
		{AbiNone, true, false},
		{AbiWasi, true, false},
		{AbiEmscripten, true, false},
		{AbiWasm4, true, false},
		{"WASI", false, true},
		{"wasix", false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.abi), func(t *testing.T) {
			t.Parallel()
			valid, errs := tt.abi.IsValid()
			assert.Equal(t, tt.want, valid, "Abi(%q).IsValid()", tt.abi)
			if !tt.wantErr {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.ErrorIs(t, errs[0], ErrInvalidAbi)
		})
	}
}

func TestAbi_TargetTriple(t *testing.T) {
	t.Parallel()

	tests := map[Abi]string{
		AbiWasi:       "wasm32-wasi",
		AbiEmscripten: "wasm32-unknown-emscripten",
		AbiNone:       "wasm32-unknown-unknown",
		AbiWasm4:      "wasm32-unknown-unknown",
		"":            "wasm32-unknown-unknown",
	}
	for abi, want := range tests {
		assert.Equal(t, want, abi.TargetTriple(), "Abi(%q).TargetTriple()", abi)
	}

	assert.Equal(t, AbiNone, Abi("").Normalize())
}

func TestManifest_ReferencedFiles(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	m.Modules = append(m.Modules, Module{
		Name:     "wit",
		Source:   "wit.wasm",
		Bindings: &Bindings{WitBindgen: "0.1.0", WitExports: "exports.wit"},
	}, Module{
		Name:     "again",
		Source:   "again.wasm",
		Bindings: &Bindings{WitBindgen: "0.1.0", WitExports: "./exports.wit"},
	})

	want := []string{"LICENSE", "README.md", "greeter.wai", "host.wai", "exports.wit"}
	assert.Equal(t, want, m.ReferencedFiles())
}

func TestManifest_Module(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	mod := m.Module("greeter")
	require.NotNil(t, mod)
	assert.Equal(t, "greeter.wasm", mod.Source)
	assert.Nil(t, m.Module("missing"))
}

func TestPackage_FullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ns/pkg", Package{Namespace: "ns", Name: "pkg"}.FullName())
	assert.Equal(t, "pkg", Package{Name: "pkg"}.FullName())
}
