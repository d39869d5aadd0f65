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

package pyresource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyembed/embedpy/internal/collections"
)

func TestReduceOpStructuralErrorOnUnsupportedCombination(t *testing.T) {
	ws := NewWorkingSet()
	// ModuleBytecodeResource never has a supported (Action, Location)
	// combination, per §4.2.
	op := ResourceOp{Action: Add, Location: Embedded(), Resource: ModuleBytecodeResource{Name: "m"}}

	err := reduceOp(ws, op, false)
	require.Error(t, err)

	var structErr *StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, "ModuleBytecode", structErr.ResourceKind)
}

func TestReduceOpDataResourceRemoveIsBucketGranular(t *testing.T) {
	ws := NewWorkingSet()
	require.NoError(t, reduceOp(ws, ResourceOp{Action: Add, Location: Embedded(), Resource: DataResource{Package: "pkg", Name: "a.txt", Data: []byte("x")}}, false))
	require.NoError(t, reduceOp(ws, ResourceOp{Action: Add, Location: Embedded(), Resource: DataResource{Package: "pkg", Name: "b.txt", Data: []byte("y")}}, false))

	require.NoError(t, reduceOp(ws, ResourceOp{Action: Remove, Location: Embedded(), Resource: DataResource{Name: "pkg"}}, false))

	assert.NotContains(t, ws.EmbeddedResources, "pkg", "removing by name drops the whole bucket, not a single entry")
}

func TestReduceOpAppRelativeBuiltExtensionDegradesToEmbedded(t *testing.T) {
	ws := NewWorkingSet()
	op := ResourceOp{Action: Add, Location: AppRelativeAt("lib"), Resource: BuiltExtensionModuleResource{Name: "_custom"}}

	require.NoError(t, reduceOp(ws, op, false))

	assert.Contains(t, ws.EmbeddedBuiltExts, "_custom", "app-relative built extensions degrade into the embedded map")
}

func TestApplyFilterRemovesNonIncludedKeysAcrossAllMaps(t *testing.T) {
	ws := NewWorkingSet()
	ws.EmbeddedSources["keep"] = ModuleSource{Source: []byte("x")}
	ws.EmbeddedSources["drop"] = ModuleSource{Source: []byte("y")}
	ws.EmbeddedResources.Add("keep", "res", []byte("z"))
	ws.EmbeddedResources.Add("drop", "res", []byte("z"))

	names := collections.Set[string]{}
	names.Add("keep")

	applyFilter(ws, names)

	assert.Contains(t, ws.EmbeddedSources, "keep")
	assert.NotContains(t, ws.EmbeddedSources, "drop")
	assert.Contains(t, ws.EmbeddedResources, "keep")
	assert.NotContains(t, ws.EmbeddedResources, "drop")
}
