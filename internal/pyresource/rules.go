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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pyembed/embedpy/internal/collections"
	"github.com/pyembed/embedpy/internal/distribution"
)

// Rule is the closed set of packaging-rule variants a configuration can
// declare. Evaluate reads the distribution and the rule only — never the
// accumulated working set — so it can run in any order relative to other
// rules' evaluation; only the Reducer's fold is order-sensitive.
type Rule interface {
	// RuleName names the rule for log messages, e.g. "Stdlib".
	RuleName() string
	// Verbose rules (currently only Stdlib) have their per-item add/remove
	// messages demoted to Info so routine runs aren't dominated by stdlib
	// noise (§7).
	Verbose() bool
	// Evaluate produces this rule's ordered, finite sequence of tuples plus
	// any side effects (license path, filter names, read files) it declares.
	Evaluate(dist *distribution.Distribution) (RuleResult, error)
}

// RuleResult is everything a rule evaluation can hand back to the Reducer:
// the ordered resource tuples, and the three side-channel effects that
// FilterInclude and WriteLicenseFiles use instead of emitting resources.
type RuleResult struct {
	Ops []ResourceOp

	// FilterNames is non-nil only for a FilterInclude rule: the Reducer
	// removes every entry whose key is not in this set from every
	// filterable map, at the point this rule is encountered.
	FilterNames collections.Set[string]

	// LicenseFilesPath is non-nil only for a WriteLicenseFiles rule.
	LicenseFilesPath *string

	// ReadFiles lists concrete paths this rule consulted (names files,
	// resolved globs), appended to WorkingSet.ReadFiles for cache
	// invalidation by an external driver.
	ReadFiles []string
}

type baseRule struct{ name string }

func (b baseRule) RuleName() string { return b.name }
func (baseRule) Verbose() bool      { return false }

// StdlibExtensionsPolicy selects a subset of stdlib extensions by policy
// name: "minimal" is every extension whose default variant is required or
// builtin, "all" is the full catalog.
type StdlibExtensionsPolicy struct {
	baseRule
	Policy string
}

func NewStdlibExtensionsPolicy(policy string) *StdlibExtensionsPolicy {
	return &StdlibExtensionsPolicy{baseRule: baseRule{"StdlibExtensionsPolicy"}, Policy: policy}
}

func (r *StdlibExtensionsPolicy) Evaluate(dist *distribution.Distribution) (RuleResult, error) {
	if r.Policy != "minimal" && r.Policy != "all" {
		return RuleResult{}, &ConfigurationError{Msg: fmt.Sprintf("unknown StdlibExtensionsPolicy %q, expected \"minimal\" or \"all\"", r.Policy)}
	}

	selected := collections.FilterSlice(sortedExtensionNames(dist), func(name string) bool {
		if r.Policy == "all" {
			return true
		}
		variant, _ := dist.DefaultVariant(name)
		return variant.BuiltinDefault || variant.Required
	})
	ops := collections.MapSlice(selected, func(name string) ResourceOp {
		variant, _ := dist.DefaultVariant(name)
		return ResourceOp{Action: Add, Location: Embedded(), Resource: ExtensionModuleResource{Name: name, Module: variant.Module}}
	})
	return RuleResult{Ops: ops}, nil
}

// StdlibExtensionsExplicitIncludes enumerates an allow-list of extensions to
// add by name, using their default variant.
type StdlibExtensionsExplicitIncludes struct {
	baseRule
	Names []string
}

func NewStdlibExtensionsExplicitIncludes(names []string) *StdlibExtensionsExplicitIncludes {
	return &StdlibExtensionsExplicitIncludes{baseRule: baseRule{"StdlibExtensionsExplicitIncludes"}, Names: names}
}

func (r *StdlibExtensionsExplicitIncludes) Evaluate(dist *distribution.Distribution) (RuleResult, error) {
	if dupes := collections.FindDuplicates(r.Names); len(dupes) > 0 {
		return RuleResult{}, &ConfigurationError{Msg: fmt.Sprintf("names lists the same extension more than once: %v", dupes)}
	}
	var ops []ResourceOp
	for _, name := range r.Names {
		variant, ok := dist.DefaultVariant(name)
		if !ok {
			return RuleResult{}, &ConfigurationError{Msg: fmt.Sprintf("extension %q is not present in the distribution", name)}
		}
		ops = append(ops, ResourceOp{Action: Add, Location: Embedded(), Resource: ExtensionModuleResource{Name: name, Module: variant.Module}})
	}
	return RuleResult{Ops: ops}, nil
}

// StdlibExtensionsExplicitExcludes enumerates a deny-list of extensions to
// remove.
type StdlibExtensionsExplicitExcludes struct {
	baseRule
	Names []string
}

func NewStdlibExtensionsExplicitExcludes(names []string) *StdlibExtensionsExplicitExcludes {
	return &StdlibExtensionsExplicitExcludes{baseRule: baseRule{"StdlibExtensionsExplicitExcludes"}, Names: names}
}

func (r *StdlibExtensionsExplicitExcludes) Evaluate(dist *distribution.Distribution) (RuleResult, error) {
	if dupes := collections.FindDuplicates(r.Names); len(dupes) > 0 {
		return RuleResult{}, &ConfigurationError{Msg: fmt.Sprintf("names lists the same extension more than once: %v", dupes)}
	}
	var ops []ResourceOp
	for _, name := range r.Names {
		ops = append(ops, ResourceOp{Action: Remove, Location: Embedded(), Resource: ExtensionModuleResource{Name: name}})
	}
	return RuleResult{Ops: ops}, nil
}

// StdlibExtensionVariant picks an alternate variant for a named extension.
type StdlibExtensionVariant struct {
	baseRule
	Name    string
	Variant string
}

func NewStdlibExtensionVariant(name, variant string) *StdlibExtensionVariant {
	return &StdlibExtensionVariant{baseRule: baseRule{"StdlibExtensionVariant"}, Name: name, Variant: variant}
}

func (r *StdlibExtensionVariant) Evaluate(dist *distribution.Distribution) (RuleResult, error) {
	variant, ok := dist.Variant(r.Name, r.Variant)
	if !ok {
		return RuleResult{}, &ConfigurationError{Msg: fmt.Sprintf("extension %q has no variant %q", r.Name, r.Variant)}
	}
	return RuleResult{Ops: []ResourceOp{{Action: Add, Location: Embedded(), Resource: ExtensionModuleResource{Name: r.Name, Module: variant.Module}}}}, nil
}

// Stdlib emits all Python-source and bytecode-request tuples for the
// standard library. It is the one "verbose" rule: its per-item messages log
// at Info rather than Warn.
type Stdlib struct {
	baseRule
	OptimizeLevel int
}

func NewStdlib(optimizeLevel int) *Stdlib {
	return &Stdlib{baseRule: baseRule{"Stdlib"}, OptimizeLevel: optimizeLevel}
}

func (*Stdlib) Verbose() bool { return true }

func (r *Stdlib) Evaluate(dist *distribution.Distribution) (RuleResult, error) {
	ops := collections.FlatMapSlice(sortedStdlibNames(dist), func(name string) []ResourceOp {
		mod := dist.Stdlib[name]
		return []ResourceOp{
			{Action: Add, Location: Embedded(), Resource: ModuleSourceResource{Name: name, Source: mod.Source, IsPackage: mod.IsPackage}},
			{Action: Add, Location: Embedded(), Resource: ModuleBytecodeRequestResource{Name: name, Source: mod.Source, OptimizeLevel: r.OptimizeLevel, IsPackage: mod.IsPackage}},
		}
	})
	return RuleResult{Ops: ops}, nil
}

// FilterInclude does not emit resources; it supplies a name set used by the
// Reducer to filter the working set down to the names listed in the Files
// and in every file the GlobFiles patterns resolve to.
type FilterInclude struct {
	baseRule
	Files     []string
	GlobFiles []string
}

func NewFilterInclude(files, globFiles []string) *FilterInclude {
	return &FilterInclude{baseRule: baseRule{"FilterInclude"}, Files: files, GlobFiles: globFiles}
}

func (r *FilterInclude) Evaluate(*distribution.Distribution) (RuleResult, error) {
	includeNames := collections.Set[string]{}
	var readFiles []string

	for _, path := range r.Files {
		names, err := readResourceNamesFile(path)
		if err != nil {
			return RuleResult{}, fmt.Errorf("reading filter names file %s: %w", path, err)
		}
		includeNames.Join(names)
		readFiles = append(readFiles, path)
	}

	for _, glob := range r.GlobFiles {
		matches, err := doublestar.FilepathGlob(glob)
		if err != nil {
			return RuleResult{}, &ConfigurationError{Msg: fmt.Sprintf("glob_files pattern %q failed to evaluate", glob), Err: err}
		}
		matched := collections.Set[string]{}
		for _, path := range matches {
			names, err := readResourceNamesFile(path)
			if err != nil {
				return RuleResult{}, fmt.Errorf("reading filter names file %s: %w", path, err)
			}
			matched.Join(names)
			readFiles = append(readFiles, path)
		}
		if len(matched) == 0 {
			return RuleResult{}, &ConfigurationError{Msg: fmt.Sprintf("glob_files pattern %q resolves to an empty set; are you sure the paths are correct?", glob)}
		}
		includeNames.Join(matched)
	}

	return RuleResult{FilterNames: includeNames, ReadFiles: readFiles}, nil
}

// WriteLicenseFiles declares the directory license files should later be
// written to by the external packager.
type WriteLicenseFiles struct {
	baseRule
	Path string
}

func NewWriteLicenseFiles(path string) *WriteLicenseFiles {
	return &WriteLicenseFiles{baseRule: baseRule{"WriteLicenseFiles"}, Path: path}
}

func (r *WriteLicenseFiles) Evaluate(*distribution.Distribution) (RuleResult, error) {
	path := r.Path
	return RuleResult{LicenseFilesPath: &path}, nil
}

// readResourceNamesFile parses a newline-delimited list of resource names,
// skipping blank lines and "#"-prefixed comments.
func readResourceNamesFile(path string) (collections.Set[string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := collections.Set[string]{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func sortedExtensionNames(dist *distribution.Distribution) []string {
	names := make([]string, 0, len(dist.Extensions))
	for name := range dist.Extensions {
		names = append(names, name)
	}
	return sortStrings(names)
}

func sortedStdlibNames(dist *distribution.Distribution) []string {
	names := make([]string, 0, len(dist.Stdlib))
	for name := range dist.Stdlib {
		names = append(names, name)
	}
	return sortStrings(names)
}
