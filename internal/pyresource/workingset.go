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
	"maps"
	"slices"

	"github.com/pyembed/embedpy/internal/distribution"
)

// ModuleSource is an embedded-sink or app-relative-sink Python source entry.
type ModuleSource struct {
	Source    []byte
	IsPackage bool
}

// BytecodeRequest is an accumulated, not-yet-compiled bytecode entry. It is
// kept separate from PackagedBytecode so that a module filtered out before
// the Bytecode Materializer runs never pays the cost of compilation.
type BytecodeRequest struct {
	Source        []byte
	OptimizeLevel int
	IsPackage     bool
}

// BuiltExtensionModule is a locally-built native extension tracked in the
// working set.
type BuiltExtensionModule struct {
	Module    distribution.ExtensionModule
	IsPackage bool
}

// PackagedBytecode is materialized, compiled bytecode, produced once by the
// Bytecode Materializer from a BytecodeRequest of the same name.
type PackagedBytecode struct {
	Bytecode  []byte
	IsPackage bool
}

// ResourceBucket is the two-level package -> name -> data map shared by the
// embedded and every app-relative resource sink.
type ResourceBucket map[string]map[string][]byte

// Add inserts data under package/name, creating the package bucket lazily.
func (b ResourceBucket) Add(pkg, name string, data []byte) {
	if b[pkg] == nil {
		b[pkg] = map[string][]byte{}
	}
	b[pkg][name] = data
}

// AppRelativeResources is the per-path bucket of resources destined for
// on-disk installation next to the produced binary.
type AppRelativeResources struct {
	ModuleSources   map[string]ModuleSource
	ModuleBytecodes map[string]PackagedBytecode
	Resources       ResourceBucket
}

func newAppRelativeResources() *AppRelativeResources {
	return &AppRelativeResources{
		ModuleSources:   map[string]ModuleSource{},
		ModuleBytecodes: map[string]PackagedBytecode{},
		Resources:       ResourceBucket{},
	}
}

// WorkingSet is the mutable state folded over by the Resource Reducer,
// repaired by Consistency Repair, drained by the Bytecode Materializer and
// frozen into a ResolvedResources value by the Package Finalizer. It is
// created empty and is never observed outside this pipeline.
type WorkingSet struct {
	EmbeddedExtensions map[string]distribution.ExtensionModule
	EmbeddedSources    map[string]ModuleSource
	EmbeddedBCRequests map[string]BytecodeRequest
	EmbeddedResources  ResourceBucket
	EmbeddedBuiltExts  map[string]BuiltExtensionModule

	AppRelative           map[string]*AppRelativeResources
	AppRelativeBCRequests map[string]map[string]BytecodeRequest

	// Populated once the Bytecode Materializer runs.
	EmbeddedBytecodes map[string]PackagedBytecode

	ReadFiles        []string
	LicenseFilesPath *string
}

// NewWorkingSet returns an empty working set ready for rule reduction.
func NewWorkingSet() *WorkingSet {
	return &WorkingSet{
		EmbeddedExtensions:    map[string]distribution.ExtensionModule{},
		EmbeddedSources:       map[string]ModuleSource{},
		EmbeddedBCRequests:    map[string]BytecodeRequest{},
		EmbeddedResources:     ResourceBucket{},
		EmbeddedBuiltExts:     map[string]BuiltExtensionModule{},
		AppRelative:           map[string]*AppRelativeResources{},
		AppRelativeBCRequests: map[string]map[string]BytecodeRequest{},
		EmbeddedBytecodes:     map[string]PackagedBytecode{},
	}
}

// appRelativeBucket returns (creating if needed) the bucket for path.
func (ws *WorkingSet) appRelativeBucket(path string) *AppRelativeResources {
	b, ok := ws.AppRelative[path]
	if !ok {
		b = newAppRelativeResources()
		ws.AppRelative[path] = b
	}
	return b
}

// appRelativeBCBucket returns (creating if needed) the bytecode-request
// bucket for path.
func (ws *WorkingSet) appRelativeBCBucket(path string) map[string]BytecodeRequest {
	b, ok := ws.AppRelativeBCRequests[path]
	if !ok {
		b = map[string]BytecodeRequest{}
		ws.AppRelativeBCRequests[path] = b
	}
	return b
}

// sortedKeys returns the keys of m in lexicographic order. Materialize and
// the __file__ audit iterate through this helper so that compile order and
// their diagnostics follow key order across runs.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
