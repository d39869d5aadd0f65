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

// Package pyresource implements the rule-driven resource resolver and
// packer: the closed Resource tagged union, the Resource Reducer, the
// Consistency Repair phase, the Bytecode Materializer and the Package
// Finalizer. Together they turn an ordered list of packaging rules plus a
// Python distribution into a final, frozen set of embedded and app-relative
// resources.
package pyresource

import (
	"fmt"

	"github.com/pyembed/embedpy/internal/distribution"
)

// Resource is the closed tagged union of values a Rule Evaluator can emit.
// Adding a new implementation is a breaking change to the Reducer's
// transition table by design: the Reducer's switch over Resource has an
// explicit case for every variant it accepts and treats anything else as a
// structural error, so a silently-unhandled variant cannot arise.
type Resource interface {
	resourceKind() string
}

// ExtensionModuleResource is a prebuilt native extension shipped with the
// distribution.
type ExtensionModuleResource struct {
	Name   string
	Module distribution.ExtensionModule
}

func (ExtensionModuleResource) resourceKind() string { return "ExtensionModule" }

// ModuleSourceResource is Python source text plus its package flag.
type ModuleSourceResource struct {
	Name      string
	Source    []byte
	IsPackage bool
}

func (ModuleSourceResource) resourceKind() string { return "ModuleSource" }

// ModuleBytecodeRequestResource is a pending compilation, accumulated so
// that bytecode is only generated for modules that survive filtering.
type ModuleBytecodeRequestResource struct {
	Name          string
	Source        []byte
	OptimizeLevel int
	IsPackage     bool
}

func (ModuleBytecodeRequestResource) resourceKind() string { return "ModuleBytecodeRequest" }

// ModuleBytecodeResource is a precompiled bytecode blob. Per §4.2 no
// (Action, Location) combination currently accepts it; it exists so the
// union stays closed. The Reducer has no case for it, so every tuple carrying
// it ends in a StructuralError naming "ModuleBytecode".
type ModuleBytecodeResource struct {
	Name      string
	Bytecode  []byte
	IsPackage bool
}

func (ModuleBytecodeResource) resourceKind() string { return "ModuleBytecode" }

// DataResource is an opaque data file scoped under a package namespace.
// This is spec.md's "Resource { package, name, data }" variant, renamed here
// to avoid colliding with the Resource interface name.
type DataResource struct {
	Package string
	Name    string
	Data    []byte
}

func (DataResource) resourceKind() string { return "Resource" }

// BuiltExtensionModuleResource is a native extension compiled locally from a
// rule, as distinct from one shipped with the distribution.
type BuiltExtensionModuleResource struct {
	Name      string
	IsPackage bool
	Module    distribution.ExtensionModule
}

func (BuiltExtensionModuleResource) resourceKind() string { return "BuiltExtensionModule" }

// Action is the effect a rule evaluator's tuple has on the working set.
type Action int

const (
	Add Action = iota
	Remove
)

func (a Action) String() string {
	if a == Remove {
		return "Remove"
	}
	return "Add"
}

// LocationKind distinguishes the embedded sink from an app-relative one.
type LocationKind int

const (
	LocationEmbedded LocationKind = iota
	LocationAppRelative
)

// Location is where a resource is destined: Embedded, or AppRelative{path}.
type Location struct {
	Kind LocationKind
	Path string
}

// Embedded is the in-binary sink location.
func Embedded() Location { return Location{Kind: LocationEmbedded} }

// AppRelativeAt builds a location under a non-empty relative install
// directory. It panics on an empty path; a rule evaluator that wants to
// surface a bad path to a user should validate before calling this.
func AppRelativeAt(path string) Location {
	if path == "" {
		panic("pyresource: AppRelative location requires a non-empty path")
	}
	return Location{Kind: LocationAppRelative, Path: path}
}

func (l Location) String() string {
	if l.Kind == LocationEmbedded {
		return "Embedded"
	}
	return fmt.Sprintf("AppRelative{%s}", l.Path)
}

// ResourceOp is one (Action, Location, Resource) tuple yielded by a rule
// evaluator. Ordering across a rule's emitted tuples is meaningful: later
// tuples under the same name override earlier ones once reduced.
type ResourceOp struct {
	Action   Action
	Location Location
	Resource Resource
}
