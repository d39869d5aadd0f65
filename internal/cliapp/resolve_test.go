// Copyright 2026 The embedpy Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cliapp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyembed/embedpy/internal/collections"
	"github.com/pyembed/embedpy/internal/distribution"
	"github.com/pyembed/embedpy/internal/pyconfig"
	"github.com/pyembed/embedpy/internal/pyresource"
)

func sampleResolved() pyresource.ResolvedResources {
	return pyresource.ResolvedResources{
		Embedded: pyresource.EmbeddedResources{
			ModuleSources: map[string]pyresource.ModuleSource{
				"os": {Source: []byte("import sys"), IsPackage: false},
			},
			ModuleBytecodes: map[string]pyresource.PackagedBytecode{},
			AllModules:      collections.SetOf("os"),
			AllPackages:     collections.Set[string]{},
			Resources:       pyresource.ResourceBucket{},
			ExtensionModules: map[string]distribution.ExtensionModule{},
			BuiltExtensions:  map[string]pyresource.BuiltExtensionModule{},
		},
		AppRelative: map[string]*pyresource.AppRelativeResources{},
	}
}

func TestWriteArtifactsWritesEveryArtifact(t *testing.T) {
	cfg := &pyconfig.Config{
		ApplicationName: "myapp",
		PythonRunMode:   pyconfig.PythonRunMode{Kind: "noop"},
	}

	dir := t.TempDir()
	require.NoError(t, writeArtifacts(dir, sampleResolved(), cfg))

	for _, name := range []string{"module_names", "packed_modules", "packed_resources", "packaging_state.cbor", "embedpyrt_config.go"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s to be written", name)
	}

	names, err := os.ReadFile(filepath.Join(dir, "module_names"))
	require.NoError(t, err)
	assert.Equal(t, "os\n", string(names))

	source, err := os.ReadFile(filepath.Join(dir, "embedpyrt_config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(source), "package embedpyrt")
}

func TestWriteArtifactsCreatesMissingDirectories(t *testing.T) {
	cfg := &pyconfig.Config{ApplicationName: "myapp"}
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")

	require.NoError(t, writeArtifacts(dir, sampleResolved(), cfg))

	_, err := os.Stat(filepath.Join(dir, "packaging_state.cbor"))
	assert.NoError(t, err)
}

func TestWriteFileCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.txt")
	require.NoError(t, writeFile(path, []byte("hello")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}
