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

// Package blobwriter serializes a finalized embedded resource set into the
// module-names file, packed-modules blob and packed-resources blob the
// generated native source fragment references. All three outputs are
// byte-for-byte deterministic across runs given the same resolved resources
// (P1): every map is walked in sorted key order.
package blobwriter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/pyembed/embedpy/internal/pyresource"
)

// Entry kind bytes distinguishing a source-only module from one with
// resolved bytecode in the packed modules blob.
const (
	kindSource   byte = 0x01
	kindBytecode byte = 0x02
)

// WriteModuleNames renders the sorted, newline-terminated list of every
// embedded module name.
func WriteModuleNames(embedded pyresource.EmbeddedResources) []byte {
	names := embedded.AllModules.SortedValues(func(l, r string) int {
		if l < r {
			return -1
		}
		if l > r {
			return 1
		}
		return 0
	})
	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WritePackedModules renders the packed modules blob per SPEC_FULL §6.1: a
// little-endian uint32 entry count followed by that many
// (nameLen, name, kindByte, optimizeLevel, isPackage, dataLen, data) records
// in sorted-by-name order. Bytecode entries take precedence over source
// entries for the same name, since a module that made it through the
// Bytecode Materializer always has a resolved PackagedBytecode.
func WritePackedModules(embedded pyresource.EmbeddedResources) ([]byte, error) {
	type entry struct {
		name          string
		kind          byte
		optimizeLevel byte
		isPackage     bool
		data          []byte
	}

	byName := map[string]entry{}
	for name, src := range embedded.ModuleSources {
		byName[name] = entry{name: name, kind: kindSource, isPackage: src.IsPackage, data: src.Source}
	}
	for name, bc := range embedded.ModuleBytecodes {
		byName[name] = entry{name: name, kind: kindBytecode, isPackage: bc.IsPackage, data: bc.Bytecode}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(names))); err != nil {
		return nil, fmt.Errorf("writing packed modules entry count: %w", err)
	}
	for _, name := range names {
		e := byName[name]
		if err := writeModuleRecord(&buf, e.name, e.kind, e.optimizeLevel, e.isPackage, e.data); err != nil {
			return nil, fmt.Errorf("writing packed module record for %s: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}

func writeModuleRecord(buf *bytes.Buffer, name string, kind, optimizeLevel byte, isPackage bool, data []byte) error {
	if err := writeLengthPrefixed(buf, []byte(name)); err != nil {
		return err
	}
	buf.WriteByte(kind)
	buf.WriteByte(optimizeLevel)
	if isPackage {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return writeLengthPrefixed(buf, data)
}

// WritePackedResources renders the packed resources blob: a little-endian
// uint32 entry count followed by (packageLen, package, nameLen, name,
// dataLen, data) records in (package, name) sorted order.
func WritePackedResources(embedded pyresource.EmbeddedResources) ([]byte, error) {
	type key struct{ pkg, name string }
	var keys []key
	for pkg, names := range embedded.Resources {
		for name := range names {
			keys = append(keys, key{pkg, name})
		}
	}
	slices.SortFunc(keys, func(a, b key) int {
		if a.pkg != b.pkg {
			return strings.Compare(a.pkg, b.pkg)
		}
		return strings.Compare(a.name, b.name)
	})

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(keys))); err != nil {
		return nil, fmt.Errorf("writing packed resources entry count: %w", err)
	}
	for _, k := range keys {
		data := embedded.Resources[k.pkg][k.name]
		if err := writeLengthPrefixed(&buf, []byte(k.pkg)); err != nil {
			return nil, err
		}
		if err := writeLengthPrefixed(&buf, []byte(k.name)); err != nil {
			return nil, err
		}
		if err := writeLengthPrefixed(&buf, data); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeLengthPrefixed(buf *bytes.Buffer, data []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

