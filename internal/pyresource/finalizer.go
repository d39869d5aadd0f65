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
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pyembed/embedpy/internal/collections"
	"github.com/pyembed/embedpy/internal/distribution"
)

// EmbeddedResources is the final, frozen embedded sink.
type EmbeddedResources struct {
	ModuleSources    map[string]ModuleSource
	ModuleBytecodes  map[string]PackagedBytecode
	AllModules       collections.Set[string]
	AllPackages      collections.Set[string]
	Resources        ResourceBucket
	ExtensionModules map[string]distribution.ExtensionModule
	BuiltExtensions  map[string]BuiltExtensionModule
}

// ResolvedResources is the value the whole pipeline produces: the frozen
// embedded sink, the frozen app-relative sinks, the files consulted while
// resolving (for cache invalidation), and the declared license directory.
type ResolvedResources struct {
	Embedded         EmbeddedResources
	AppRelative      map[string]*AppRelativeResources
	ReadFiles        []string
	LicenseFilesPath *string
}

// Finalize derives the package-name set, prunes orphan resource packages,
// audits sources for the __file__ diagnostic marker, and assembles the
// final ResolvedResources value. Materialize must have already populated
// ws.EmbeddedBytecodes.
func Finalize(ws *WorkingSet) ResolvedResources {
	allModules := collections.Set[string]{}
	annotatedPackages := collections.Set[string]{}

	for name, source := range ws.EmbeddedSources {
		allModules.Add(name)
		if source.IsPackage {
			annotatedPackages.Add(name)
		}
	}
	for name, bytecode := range ws.EmbeddedBytecodes {
		allModules.Add(name)
		if bytecode.IsPackage {
			annotatedPackages.Add(name)
		}
	}
	for name, ext := range ws.EmbeddedBuiltExts {
		allModules.Add(name)
		if ext.IsPackage {
			annotatedPackages.Add(name)
		}
	}

	derivedPackages := derivePackageNames(allModules)

	allPackages := collections.Set[string]{}
	allPackages.Join(annotatedPackages)
	for pkg := range derivedPackages {
		if !allPackages.Contains(pkg) {
			log.Warnf("package %s not initially detected as such; is package detection buggy?", pkg)
			allPackages.Add(pkg)
		}
	}

	prunedResources := ResourceBucket{}
	for pkg, entries := range ws.EmbeddedResources {
		if !allPackages.Contains(pkg) {
			names := make([]string, 0, len(entries))
			for name := range entries {
				names = append(names, name)
			}
			log.Warnf("package %s does not exist; excluding resources: %v", pkg, sortStrings(names))
			continue
		}
		prunedResources[pkg] = entries
	}

	auditFileDunder(ws)

	return ResolvedResources{
		Embedded: EmbeddedResources{
			ModuleSources:    ws.EmbeddedSources,
			ModuleBytecodes:  ws.EmbeddedBytecodes,
			AllModules:       allModules,
			AllPackages:      allPackages,
			Resources:        prunedResources,
			ExtensionModules: ws.EmbeddedExtensions,
			BuiltExtensions:  ws.EmbeddedBuiltExts,
		},
		AppRelative:      ws.AppRelative,
		ReadFiles:        ws.ReadFiles,
		LicenseFilesPath: ws.LicenseFilesPath,
	}
}

// derivePackageNames computes, for a set of module names, the set of
// packages implied purely by dotted structure: every strict dotted prefix
// of a module name is itself a package.
func derivePackageNames(modules collections.Set[string]) collections.Set[string] {
	derived := collections.Set[string]{}
	for name := range modules {
		for _, prefix := range dottedPrefixes(name) {
			derived.Add(prefix)
		}
	}
	return derived
}

// auditFileDunder reads each bytecode request's source as text (see
// decodeSource) and checks for the "__file__" substring. This audit is
// purely informational and never fails the build.
func auditFileDunder(ws *WorkingSet) {
	seen := false
	for _, name := range sortedKeys(ws.EmbeddedBCRequests) {
		request := ws.EmbeddedBCRequests[name]
		source := decodeSource(request.Source)
		if strings.Contains(source, "__file__") {
			log.Warnf("%s contains __file__", name)
			seen = true
		}
	}
	if seen {
		log.Warn("__file__ was encountered in some modules; this runtime does not set __file__, which may create problems at run-time")
	}
}

// decodeSource returns source as a string, treating it as UTF-8. A PEP 263
// coding cookie is not read, so source declared in another encoding is not
// transcoded.
func decodeSource(source []byte) string {
	// Only UTF-8 and ASCII-compatible encodings are meaningfully supported
	// without pulling in a dedicated text-encoding registry; both decode
	// identically via a plain string conversion, which covers the
	// overwhelming majority of real-world Python source files.
	return string(source)
}
