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

package packagingstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyembed/embedpy/internal/distribution"
	"github.com/pyembed/embedpy/internal/pyresource"
)

func TestMarshalIsDeterministic(t *testing.T) {
	path := "licenses"
	state := State{
		LicenseFilesPath: &path,
		LicenseInfos: map[string][]distribution.LicenseInfo{
			"_ssl": {{LicenseFilename: "LICENSE", LicenseText: "text"}},
		},
	}

	a, err := Marshal(state)
	require.NoError(t, err)
	b, err := Marshal(state)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packaging_state.cbor")
	licensePath := "licenses"
	state := State{
		LicenseFilesPath: &licensePath,
		AppRelativeResources: map[string]AppRelativeTree{
			"lib": {
				ModuleSources:   map[string]AppRelativeModuleSource{"mod": {Source: []byte("x")}},
				ModuleBytecodes: map[string]AppRelativeModuleBytecode{},
				Resources:       map[string]map[string][]byte{},
			},
		},
	}

	require.NoError(t, Write(path, state))
	got, err := Read(path)
	require.NoError(t, err)

	require.NotNil(t, got.LicenseFilesPath)
	assert.Equal(t, "licenses", *got.LicenseFilesPath)
	assert.Equal(t, []byte("x"), got.AppRelativeResources["lib"].ModuleSources["mod"].Source)
}

func TestFromResolved(t *testing.T) {
	resolved := pyresource.ResolvedResources{
		AppRelative: map[string]*pyresource.AppRelativeResources{
			"lib": {
				ModuleSources:   map[string]pyresource.ModuleSource{"mod": {Source: []byte("y"), IsPackage: false}},
				ModuleBytecodes: map[string]pyresource.PackagedBytecode{},
				Resources:       pyresource.ResourceBucket{},
			},
		},
	}

	state := FromResolved(resolved, nil)
	require.Contains(t, state.AppRelativeResources, "lib")
	assert.Equal(t, []byte("y"), state.AppRelativeResources["lib"].ModuleSources["mod"].Source)
}
