// SPDX-License-Identifier: MPL-2.0

package wapmtoml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := Encode(sampleManifest())
	require.NoError(t, err)

	for range 5 {
		again, err := Encode(sampleManifest())
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestEncode_Layout(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleManifest())
	require.NoError(t, err)
	doc := string(data)

	// Tables appear in a fixed order.
	order := []string{"[package]", "[[module]]", "[[command]]", "[fs]"}
	last := -1
	for _, header := range order {
		idx := strings.Index(doc, header)
		require.GreaterOrEqual(t, idx, 0, "missing %s in:\n%s", header, doc)
		assert.Greater(t, idx, last, "%s out of order", header)
		last = idx
	}

	assert.Contains(t, doc, "license-file = ")
	assert.Contains(t, doc, "wasmer-extra-flags = ")
	assert.Contains(t, doc, "[module.bindings]")
	assert.Contains(t, doc, "wai-version = ")
	assert.Less(t, strings.Index(doc, "/assets"), strings.Index(doc, "/data"), "fs keys should be sorted")
	assert.NotContains(t, doc, "homepage", "empty optional fields are omitted")
}

func TestEncode_NoModules(t *testing.T) {
	t.Parallel()

	data, err := Encode(&Manifest{Package: Package{Namespace: "ns", Name: "n", Version: "1.0.0"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "[[module]]")
	assert.NotContains(t, string(data), "[fs]")
}

func TestDecode_NameWithoutNamespace(t *testing.T) {
	t.Parallel()

	m, err := Decode([]byte("[package]\nname = \"solo\"\nversion = \"1.0.0\"\ndescription = \"x\"\n"))
	require.NoError(t, err)
	assert.Empty(t, m.Package.Namespace)
	assert.Equal(t, "solo", m.Package.Name)
	assert.Equal(t, "solo", m.Package.FullName())
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("[package\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}
