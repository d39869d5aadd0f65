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

// PlatformIgnoreList returns the extensions that must never ship in the
// embedded extension set for the given target platform. It is an injected
// function rather than a package-level constant (§9 design note) so tests
// can exercise synthetic platforms.
func PlatformIgnoreList(target string) []string {
	switch {
	case strings.Contains(target, "linux"):
		return []string{"_crypt", "nis"}
	case strings.Contains(target, "darwin") || strings.Contains(target, "macos"):
		return []string{"_curses", "_curses_panel", "readline"}
	default:
		return nil
	}
}

// Repair applies the three fix-ups of §4.3, in order, exactly once: missing
// parent package synthesis, required built-in injection, and platform
// blacklist removal.
func Repair(ws *WorkingSet, dist *distribution.Distribution, target string) {
	repairMissingParentPackages(ws)
	repairRequiredExtensions(ws, dist)
	repairPlatformIgnore(ws, target)
}

// repairMissingParentPackages inserts a synthetic, empty-source,
// is_package=true bytecode request for every dotted prefix of a bytecode
// request name that doesn't already have one (I4).
func repairMissingParentPackages(ws *WorkingSet) {
	missing := map[string]bool{}
	for name := range ws.EmbeddedBCRequests {
		for _, prefix := range dottedPrefixes(name) {
			if _, exists := ws.EmbeddedBCRequests[prefix]; !exists {
				missing[prefix] = true
			}
		}
	}
	for _, prefix := range sortStrings(mapKeys(missing)) {
		log.Warnf("adding empty module for missing package %s", prefix)
		ws.EmbeddedBCRequests[prefix] = BytecodeRequest{Source: nil, OptimizeLevel: 0, IsPackage: true}
	}
}

// requiredExtension is a distribution extension repairRequiredExtensions has
// determined must be injected: required/builtin by default variant, and not
// already present in the working set.
type requiredExtension struct {
	name   string
	module distribution.ExtensionModule
}

// repairRequiredExtensions injects every distribution extension whose
// default variant is builtin_default or required, if it isn't already
// present (I5, may still be removed again by the platform blacklist).
func repairRequiredExtensions(ws *WorkingSet, dist *distribution.Distribution) {
	missing := collections.FilterMapSlice(sortedExtensionNames(dist), func(name string) (requiredExtension, bool) {
		variant, _ := dist.DefaultVariant(name)
		if !variant.BuiltinDefault && !variant.Required {
			return requiredExtension{}, false
		}
		if _, exists := ws.EmbeddedExtensions[name]; exists {
			return requiredExtension{}, false
		}
		return requiredExtension{name: name, module: variant.Module}, true
	})
	for _, ext := range missing {
		log.Warnf("adding required embedded extension module %s", ext.name)
		ws.EmbeddedExtensions[ext.name] = ext.module
	}
}

// repairPlatformIgnore removes every extension in the current platform's
// ignore list from the embedded extension set (I6).
func repairPlatformIgnore(ws *WorkingSet, target string) {
	for _, name := range PlatformIgnoreList(target) {
		if _, exists := ws.EmbeddedExtensions[name]; !exists {
			continue
		}
		log.Warnf("removing extension module due to incompatibility: %s", name)
		delete(ws.EmbeddedExtensions, name)
	}
}

// dottedPrefixes returns every proper dotted prefix of name, e.g. "a.b.c" ->
// ["a", "a.b"].
func dottedPrefixes(name string) []string {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return nil
	}
	prefixes := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		prefixes = append(prefixes, strings.Join(parts[:i], "."))
	}
	return prefixes
}

func mapKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
