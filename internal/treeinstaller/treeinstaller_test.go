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

package treeinstaller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyembed/embedpy/internal/pyresource"
)

func TestInstallSourceAndBytecodeLayout(t *testing.T) {
	dir := t.TempDir()

	appRelative := map[string]*pyresource.AppRelativeResources{
		"lib": {
			ModuleSources: map[string]pyresource.ModuleSource{
				"pkg.sub": {Source: []byte("# package"), IsPackage: true},
			},
			ModuleBytecodes: map[string]pyresource.PackagedBytecode{
				"pkg.sub":     {Bytecode: []byte("BC-init"), IsPackage: true},
				"pkg.sub.mod": {Bytecode: []byte("BC-mod"), IsPackage: false},
			},
			Resources: pyresource.ResourceBucket{
				"pkg.sub": {"data/readme.txt": []byte("hello")},
			},
		},
	}

	require.NoError(t, Install(dir, appRelative, "cpython-37"))

	assertFile(t, dir, "lib/pkg/sub/__init__.py", "# package")
	assertFile(t, dir, "lib/pkg/sub/__pycache__/__init__.cpython-37.pyc", "BC-init")
	assertFile(t, dir, "lib/pkg/sub/__pycache__/mod.cpython-37.pyc", "BC-mod")
	assertFile(t, dir, "lib/pkg/sub/data/readme.txt", "hello")
}

func TestInstallOverwritesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	appRelative := map[string]*pyresource.AppRelativeResources{
		"lib": {ModuleSources: map[string]pyresource.ModuleSource{"mod": {Source: []byte("v1")}}},
	}
	require.NoError(t, Install(dir, appRelative, "cpython-37"))
	assertFile(t, dir, "lib/mod.py", "v1")

	appRelative["lib"].ModuleSources["mod"] = pyresource.ModuleSource{Source: []byte("v2")}
	require.NoError(t, Install(dir, appRelative, "cpython-37"))
	assertFile(t, dir, "lib/mod.py", "v2")
}

func assertFile(t *testing.T, root, relPath, want string) {
	t.Helper()
	got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}
