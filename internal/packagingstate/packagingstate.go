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

// Package packagingstate encodes the packaging state file, the sole channel
// by which an external post-build installer learns what to write next to
// the produced binary (spec §6). It is a CBOR map, encoded with
// github.com/fxamacker/cbor/v2's canonical mode so determinism (P1) extends
// to this file as it does to the packed module/resource blobs.
package packagingstate

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/pyembed/embedpy/internal/distribution"
	"github.com/pyembed/embedpy/internal/pyresource"
)

// AppRelativeModuleSource mirrors pyresource.ModuleSource for CBOR encoding.
type AppRelativeModuleSource struct {
	Source    []byte `cbor:"source"`
	IsPackage bool   `cbor:"is_package"`
}

// AppRelativeModuleBytecode mirrors pyresource.PackagedBytecode for CBOR
// encoding.
type AppRelativeModuleBytecode struct {
	Bytecode  []byte `cbor:"bytecode"`
	IsPackage bool   `cbor:"is_package"`
}

// AppRelativeTree is the serialized form of one pyresource.AppRelativeResources
// bucket.
type AppRelativeTree struct {
	ModuleSources   map[string]AppRelativeModuleSource   `cbor:"module_sources"`
	ModuleBytecodes map[string]AppRelativeModuleBytecode `cbor:"module_bytecodes"`
	Resources       map[string]map[string][]byte         `cbor:"resources"`
}

// State is the top-level record written to packaging_state.cbor.
type State struct {
	LicenseFilesPath     *string                    `cbor:"license_files_path"`
	LicenseInfos         map[string][]distribution.LicenseInfo `cbor:"license_infos"`
	AppRelativeResources map[string]AppRelativeTree `cbor:"app_relative_resources"`
}

// FromResolved builds a State from a resolved resource set plus the
// linker-supplied per-component license manifest (an external input this
// core never generates itself, per SPEC_FULL §3.1).
func FromResolved(resolved pyresource.ResolvedResources, licenseInfos map[string][]distribution.LicenseInfo) State {
	trees := make(map[string]AppRelativeTree, len(resolved.AppRelative))
	for path, bucket := range resolved.AppRelative {
		sources := make(map[string]AppRelativeModuleSource, len(bucket.ModuleSources))
		for name, src := range bucket.ModuleSources {
			sources[name] = AppRelativeModuleSource{Source: src.Source, IsPackage: src.IsPackage}
		}
		bytecodes := make(map[string]AppRelativeModuleBytecode, len(bucket.ModuleBytecodes))
		for name, bc := range bucket.ModuleBytecodes {
			bytecodes[name] = AppRelativeModuleBytecode{Bytecode: bc.Bytecode, IsPackage: bc.IsPackage}
		}
		trees[path] = AppRelativeTree{
			ModuleSources:   sources,
			ModuleBytecodes: bytecodes,
			Resources:       map[string]map[string][]byte(bucket.Resources),
		}
	}
	return State{
		LicenseFilesPath:     resolved.LicenseFilesPath,
		LicenseInfos:         licenseInfos,
		AppRelativeResources: trees,
	}
}

var canonicalEncMode = mustCanonicalEncMode()

func mustCanonicalEncMode() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("packagingstate: building canonical CBOR encoder: %v", err))
	}
	return mode
}

// Marshal encodes s in CBOR canonical form.
func Marshal(s State) ([]byte, error) {
	data, err := canonicalEncMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding packaging state: %w", err)
	}
	return data, nil
}

// Write encodes s and writes it to path (typically
// <artifacts>/packaging_state.cbor).
func Write(path string, s State) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing packaging state %s: %w", path, err)
	}
	return nil
}

// Read decodes a packaging state file from path.
func Read(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("reading packaging state %s: %w", path, err)
	}
	var s State
	if err := cbor.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decoding packaging state %s: %w", path, err)
	}
	return s, nil
}
