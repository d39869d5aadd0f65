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

// Package distribution models a parsed, read-only Python distribution: its
// extension-module catalog, standard library sources, bytecode-compiler
// entry point and license manifest. A Distribution is produced by Load and
// never mutated afterwards; the downloader/unpacker that produces the raw
// files on disk is an external collaborator.
package distribution

import (
	"encoding/json"
	"fmt"
	"os"
)

// LicenseInfo describes the license text attributed to a single component
// (an extension module, or the interpreter itself).
type LicenseInfo struct {
	LicenseFilename string `json:"license_filename"`
	LicenseText     string `json:"license_text"`
}

// ExtensionModule is the prebuilt native payload shipped with the
// distribution for a single extension variant.
type ExtensionModule struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// ExtensionVariant describes one buildable form of a named extension, e.g.
// a version linked against a vendored library vs. the system one.
type ExtensionVariant struct {
	Name           string       `json:"name"`
	Module         ExtensionModule `json:"module"`
	BuiltinDefault bool         `json:"builtin_default"`
	Required       bool         `json:"required"`
	LicenseInfo    *LicenseInfo `json:"license_info,omitempty"`
}

// StdlibModule is one standard library module shipped as Python source.
type StdlibModule struct {
	Name       string `json:"name"`
	Source     []byte `json:"source"`
	IsPackage  bool   `json:"is_package"`
}

// Distribution is the parsed, read-only description of a Python runtime
// bundle. All fields are populated by Load; nothing in this package or its
// callers mutates a Distribution afterwards.
type Distribution struct {
	// PythonExe is the path to the distribution's interpreter, used to spawn
	// the out-of-process bytecode compiler.
	PythonExe string `json:"python_exe"`
	// PythonVersion is e.g. "3.7.4".
	PythonVersion string `json:"python_version"`
	// PythonABITag feeds the Tree Installer's .pyc filename, e.g. "cpython-37".
	PythonABITag string `json:"python_abi_tag"`

	// Extensions is the full catalog, keyed by extension name. The first
	// element of each slice is the default variant.
	Extensions map[string][]ExtensionVariant `json:"extensions"`

	// Stdlib holds every Python-source stdlib module known to the
	// distribution, keyed by dotted module name.
	Stdlib map[string]StdlibModule `json:"stdlib"`

	// LicenseManifest is the distribution's own license attribution,
	// independent of any linker-supplied list assembled at packaging time.
	LicenseManifest []LicenseInfo `json:"license_manifest"`
}

// DefaultVariant returns the first (default) variant of a cataloged
// extension, and whether the extension exists at all.
func (d *Distribution) DefaultVariant(name string) (ExtensionVariant, bool) {
	variants, ok := d.Extensions[name]
	if !ok || len(variants) == 0 {
		return ExtensionVariant{}, false
	}
	return variants[0], true
}

// Variant returns the named variant of a named extension, falling back to
// the default variant when variantName is empty.
func (d *Distribution) Variant(name, variantName string) (ExtensionVariant, bool) {
	variants, ok := d.Extensions[name]
	if !ok {
		return ExtensionVariant{}, false
	}
	if variantName == "" {
		return d.DefaultVariant(name)
	}
	for _, v := range variants {
		if v.Name == variantName {
			return v, true
		}
	}
	return ExtensionVariant{}, false
}

// Load parses a Distribution from its JSON manifest. The manifest format is
// internal to this system (not a public wire format shared with other
// tools), so plain encoding/json is the correct tool rather than a schema
// library.
func Load(path string) (*Distribution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading distribution manifest %s: %w", path, err)
	}
	var dist Distribution
	if err := json.Unmarshal(data, &dist); err != nil {
		return nil, fmt.Errorf("parsing distribution manifest %s: %w", path, err)
	}
	if dist.PythonExe == "" {
		return nil, fmt.Errorf("distribution manifest %s: missing python_exe", path)
	}
	return &dist, nil
}
