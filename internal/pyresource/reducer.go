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
	"github.com/pyembed/embedpy/internal/collections"
	log "github.com/sirupsen/logrus"
)

// reduceOp folds a single (Action, Location, Resource) tuple into ws. It is
// the complete transition table of §4.2: every supported combination has an
// explicit case, and anything else is a StructuralError rather than a
// silently accepted no-op, because it cannot arise from a well-formed rule
// evaluator.
func reduceOp(ws *WorkingSet, op ResourceOp, verbose bool) error {
	logAdd := func(format string, args ...any) {
		if verbose {
			log.Infof(format, args...)
		} else {
			log.Warnf(format, args...)
		}
	}
	// Removals follow the same verbosity demotion as additions.
	logRemove := logAdd

	switch res := op.Resource.(type) {
	case ExtensionModuleResource:
		switch {
		case op.Action == Add && op.Location.Kind == LocationEmbedded:
			logAdd("adding embedded extension module: %s", res.Name)
			ws.EmbeddedExtensions[res.Name] = res.Module
			return nil
		case op.Action == Remove && op.Location.Kind == LocationEmbedded:
			logRemove("removing embedded extension module: %s", res.Name)
			delete(ws.EmbeddedExtensions, res.Name)
			return nil
		}

	case ModuleSourceResource:
		switch {
		case op.Action == Add && op.Location.Kind == LocationEmbedded:
			logAdd("adding embedded module source: %s", res.Name)
			ws.EmbeddedSources[res.Name] = ModuleSource{Source: res.Source, IsPackage: res.IsPackage}
			return nil
		case op.Action == Add && op.Location.Kind == LocationAppRelative:
			logAdd("adding app-relative module source to %s: %s", op.Location.Path, res.Name)
			ws.appRelativeBucket(op.Location.Path).ModuleSources[res.Name] = ModuleSource{Source: res.Source, IsPackage: res.IsPackage}
			return nil
		case op.Action == Remove && op.Location.Kind == LocationEmbedded:
			logRemove("removing embedded module source: %s", res.Name)
			delete(ws.EmbeddedSources, res.Name)
			return nil
		}

	case ModuleBytecodeRequestResource:
		switch {
		case op.Action == Add && op.Location.Kind == LocationEmbedded:
			logAdd("adding embedded module bytecode request: %s", res.Name)
			ws.EmbeddedBCRequests[res.Name] = BytecodeRequest{Source: res.Source, OptimizeLevel: res.OptimizeLevel, IsPackage: res.IsPackage}
			return nil
		case op.Action == Add && op.Location.Kind == LocationAppRelative:
			logAdd("adding app-relative module bytecode request to %s: %s", op.Location.Path, res.Name)
			ws.appRelativeBCBucket(op.Location.Path)[res.Name] = BytecodeRequest{Source: res.Source, OptimizeLevel: res.OptimizeLevel, IsPackage: res.IsPackage}
			return nil
		case op.Action == Remove && op.Location.Kind == LocationEmbedded:
			logRemove("removing embedded module bytecode request: %s", res.Name)
			delete(ws.EmbeddedBCRequests, res.Name)
			return nil
		}

	case DataResource:
		switch {
		case op.Action == Add && op.Location.Kind == LocationEmbedded:
			logAdd("adding embedded resource: %s / %s", res.Package, res.Name)
			ws.EmbeddedResources.Add(res.Package, res.Name, res.Data)
			return nil
		case op.Action == Add && op.Location.Kind == LocationAppRelative:
			logAdd("adding app-relative resource to %s: %s / %s", op.Location.Path, res.Package, res.Name)
			ws.appRelativeBucket(op.Location.Path).Resources.Add(res.Package, res.Name, res.Data)
			return nil
		case op.Action == Remove && op.Location.Kind == LocationEmbedded:
			// Intentional coarse granularity (preserved from the original
			// design, see the §9 open question): removes the whole
			// top-level bucket keyed by res.Name, not (package=res.Name,
			// name=res.Name).
			logRemove("removing embedded resource bucket: %s", res.Name)
			delete(ws.EmbeddedResources, res.Name)
			return nil
		}

	case BuiltExtensionModuleResource:
		switch {
		case op.Action == Add && op.Location.Kind == LocationEmbedded:
			logAdd("adding embedded built extension module: %s", res.Name)
			ws.EmbeddedBuiltExts[res.Name] = BuiltExtensionModule{Module: res.Module, IsPackage: res.IsPackage}
			return nil
		case op.Action == Add && op.Location.Kind == LocationAppRelative:
			// Known limitation, preserved verbatim (§9 open question):
			// app-relative built extensions are routed into the embedded
			// map with a degradation warning rather than being truly
			// installed app-relative.
			log.Warnf("adding app-relative built extension module %s to %s", res.Name, op.Location.Path)
			log.Warnf("incomplete support for app-relative built extension modules: adding %s as a built-in instead", res.Name)
			ws.EmbeddedBuiltExts[res.Name] = BuiltExtensionModule{Module: res.Module, IsPackage: res.IsPackage}
			return nil
		case op.Action == Remove && op.Location.Kind == LocationEmbedded:
			logRemove("removing embedded built extension module: %s", res.Name)
			delete(ws.EmbeddedBuiltExts, res.Name)
			return nil
		}
	}

	return &StructuralError{Action: op.Action, Location: op.Location, ResourceKind: op.Resource.resourceKind()}
}

// applyFilter removes, from every filterable map in ws, any entry whose key
// is not present in includeNames. It runs at the point the FilterInclude
// rule is encountered, not at the end of reduction, so a later rule may
// reintroduce a filtered-out name.
func applyFilter(ws *WorkingSet, includeNames collections.Set[string]) {
	filterMap(ws.EmbeddedExtensions, includeNames)
	filterMap(ws.EmbeddedSources, includeNames)
	filterMap(ws.EmbeddedBCRequests, includeNames)
	filterMap(map[string]map[string][]byte(ws.EmbeddedResources), includeNames)
	filterMap(ws.EmbeddedBuiltExts, includeNames)

	for _, bucket := range ws.AppRelative {
		filterMap(bucket.ModuleSources, includeNames)
		filterMap(map[string]map[string][]byte(bucket.Resources), includeNames)
	}
	for _, requests := range ws.AppRelativeBCRequests {
		filterMap(requests, includeNames)
	}
}

// filterMap removes every entry of m whose key is absent from names,
// logging each removal. It is generic over the value type so the same
// filtering logic serves every filterable map the working set holds
// (extensions, sources, bytecode requests, resource buckets, built
// extensions) without per-type repetition.
func filterMap[V any](m map[string]V, names collections.Set[string]) {
	for key := range m {
		if !names.Contains(key) {
			log.Warnf("removing %s", key)
			delete(m, key)
		}
	}
}
