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

// Package pyconfig parses the already-parsed, JSON-encoded configuration
// document described in SPEC_FULL §1.2 into the values pyresource.Resolve
// needs: the ordered rule list and the embedded-runtime options. The
// Starlark-like configuration DSL of the original system is an external
// collaborator (out of scope, §1); this package is the interchange format
// between that collaborator and the core.
package pyconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pyembed/embedpy/internal/pyresource"
)

// RawAllocator selects the memory allocator the embedded interpreter uses.
type RawAllocator string

const (
	RawAllocatorJemalloc RawAllocator = "jemalloc"
	RawAllocatorRust     RawAllocator = "rust"
	RawAllocatorSystem   RawAllocator = "system"
)

// TerminfoResolution selects how the embedded interpreter locates terminfo
// databases.
type TerminfoResolution struct {
	Kind   string `json:"kind"` // "dynamic", "none", or "static"
	Static string `json:"static,omitempty"`
}

// EmbeddedPythonConfig enumerates every embedded-runtime option from spec §6.
type EmbeddedPythonConfig struct {
	StdioEncodingName       string             `json:"stdio_encoding_name"`
	StdioEncodingErrors     string             `json:"stdio_encoding_errors"`
	OptimizeLevel           int                `json:"optimize_level"`
	FilesystemImporter      bool               `json:"filesystem_importer"`
	SysPaths                []string           `json:"sys_paths"`
	BytesWarning            int                `json:"bytes_warning"`
	NoSite                  bool               `json:"no_site"`
	NoUserSiteDirectory     bool               `json:"no_user_site_directory"`
	IgnoreEnvironment       bool               `json:"ignore_environment"`
	Inspect                 bool               `json:"inspect"`
	Interactive             bool               `json:"interactive"`
	Isolated                bool               `json:"isolated"`
	LegacyWindowsFSEncoding bool               `json:"legacy_windows_fs_encoding"`
	LegacyWindowsStdio      bool               `json:"legacy_windows_stdio"`
	DontWriteBytecode       bool               `json:"dont_write_bytecode"`
	UnbufferedStdio         bool               `json:"unbuffered_stdio"`
	ParserDebug             bool               `json:"parser_debug"`
	Quiet                   bool               `json:"quiet"`
	UseHashSeed             bool               `json:"use_hash_seed"`
	Verbose                 bool               `json:"verbose"`
	SysFrozen               bool               `json:"sys_frozen"`
	SysMeipass              bool               `json:"sys_meipass"`
	RawAllocator            RawAllocator       `json:"raw_allocator"`
	TerminfoResolution      TerminfoResolution `json:"terminfo_resolution"`
	WriteModulesDirectoryEnv string            `json:"write_modules_directory_env,omitempty"`
}

// PythonDistributionRef is the tagged Local{path,sha256} | Url{url,sha256}
// distribution reference.
type PythonDistributionRef struct {
	Local *LocalDistribution `json:"local,omitempty"`
	URL   *URLDistribution   `json:"url,omitempty"`
}

type LocalDistribution struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

type URLDistribution struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

// PythonRunMode is the tagged Noop | Repl | Module{name} | Eval{code} variant.
type PythonRunMode struct {
	Kind   string `json:"kind"` // "noop", "repl", "module", or "eval"
	Name   string `json:"name,omitempty"`
	Code   string `json:"code,omitempty"`
}

// RuleConfig is one entry of the packaging_rules list, tagged by Kind. Only
// the variant-specific fields that Kind uses are read (e.g. Names and Variant
// for stdlib_extension_variant, Files and GlobFiles for filter_include).
type RuleConfig struct {
	Kind string `json:"kind"`

	Policy        string   `json:"policy,omitempty"`
	Names         []string `json:"names,omitempty"`
	Variant       string   `json:"variant,omitempty"`
	OptimizeLevel int      `json:"optimize_level,omitempty"`
	Files         []string `json:"files,omitempty"`
	GlobFiles     []string `json:"glob_files,omitempty"`
	Path          string   `json:"path,omitempty"`
}

// DistributionTarget is one entry of the optional, core-ignored
// "distributions" list of post-build packaging targets.
type DistributionTarget struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// Config is the top-level configuration document.
type Config struct {
	ApplicationName      string                 `json:"application_name"`
	EmbeddedPythonConfig EmbeddedPythonConfig   `json:"embedded_python_config"`
	PythonDistribution   PythonDistributionRef  `json:"python_distribution"`
	PackagingRules       []RuleConfig           `json:"packaging_rules"`
	PythonRunMode        PythonRunMode          `json:"python_run_mode"`
	Distributions        []DistributionTarget   `json:"distributions,omitempty"`
}

// Load parses a Config from its JSON document.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	if cfg.ApplicationName == "" {
		return nil, fmt.Errorf("configuration %s: missing application_name", path)
	}
	return &cfg, nil
}

// Rules realizes the ordered packaging_rules list as pyresource.Rule values.
// Per spec §6 the DSL loader, not the core, enforces that the list contains
// at least one Stdlib rule and one StdlibExtensionsPolicy rule; this
// function only maps each declared entry to its Rule implementation.
func (c *Config) Rules() ([]pyresource.Rule, error) {
	rules := make([]pyresource.Rule, 0, len(c.PackagingRules))
	for i, rc := range c.PackagingRules {
		rule, err := rc.toRule()
		if err != nil {
			return nil, fmt.Errorf("packaging_rules[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (rc RuleConfig) toRule() (pyresource.Rule, error) {
	switch rc.Kind {
	case "stdlib_extensions_policy":
		return pyresource.NewStdlibExtensionsPolicy(rc.Policy), nil
	case "stdlib_extensions_explicit_includes":
		return pyresource.NewStdlibExtensionsExplicitIncludes(rc.Names), nil
	case "stdlib_extensions_explicit_excludes":
		return pyresource.NewStdlibExtensionsExplicitExcludes(rc.Names), nil
	case "stdlib_extension_variant":
		if len(rc.Names) != 1 {
			return nil, fmt.Errorf("stdlib_extension_variant requires exactly one entry in names")
		}
		return pyresource.NewStdlibExtensionVariant(rc.Names[0], rc.Variant), nil
	case "stdlib":
		return pyresource.NewStdlib(rc.OptimizeLevel), nil
	case "filter_include":
		return pyresource.NewFilterInclude(rc.Files, rc.GlobFiles), nil
	case "write_license_files":
		return pyresource.NewWriteLicenseFiles(rc.Path), nil
	default:
		return nil, fmt.Errorf("unrecognized packaging rule kind %q", rc.Kind)
	}
}
