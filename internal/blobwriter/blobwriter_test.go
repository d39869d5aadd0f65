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

package blobwriter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyembed/embedpy/internal/collections"
	"github.com/pyembed/embedpy/internal/pyresource"
)

func sample() pyresource.EmbeddedResources {
	return pyresource.EmbeddedResources{
		ModuleSources: map[string]pyresource.ModuleSource{
			"zpkg": {Source: []byte(""), IsPackage: true},
		},
		ModuleBytecodes: map[string]pyresource.PackagedBytecode{
			"os":   {Bytecode: []byte("BCos"), IsPackage: false},
			"zpkg": {Bytecode: []byte("BCzpkg"), IsPackage: true},
		},
		AllModules: collections.SetOf("os", "zpkg"),
		Resources: pyresource.ResourceBucket{
			"zpkg": {"data.txt": []byte("hello")},
			"apkg": {"data.txt": []byte("world")},
		},
	}
}

func TestWriteModuleNamesIsSortedAndNewlineTerminated(t *testing.T) {
	out := WriteModuleNames(sample())
	assert.Equal(t, "os\nzpkg\n", string(out))
}

func TestWritePackedModulesPrefersBytecodeOverSource(t *testing.T) {
	out, err := WritePackedModules(sample())
	require.NoError(t, err)
	// entry count (2) + "os" record + "zpkg" record, sorted by name.
	assert.Equal(t, byte(2), out[0])
	assert.Contains(t, string(out), "os")
	assert.Contains(t, string(out), "BCzpkg", "zpkg must carry its compiled bytecode, not the empty source")
}

func TestWritePackedModulesIsDeterministic(t *testing.T) {
	a, err := WritePackedModules(sample())
	require.NoError(t, err)
	b, err := WritePackedModules(sample())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWritePackedResourcesSortedByPackageThenName(t *testing.T) {
	out, err := WritePackedResources(sample())
	require.NoError(t, err)

	apkgIdx := indexOf(out, []byte("apkg"))
	zpkgIdx := indexOf(out, []byte("zpkg"))
	require.GreaterOrEqual(t, apkgIdx, 0)
	require.GreaterOrEqual(t, zpkgIdx, 0)
	assert.Less(t, apkgIdx, zpkgIdx, "apkg sorts before zpkg")
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
