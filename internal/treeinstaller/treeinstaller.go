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

// Package treeinstaller writes the app-relative sinks of a resolved resource
// set to disk, per spec §4.7's path layout rules. Parent directories are
// created on demand and existing files are overwritten.
package treeinstaller

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyembed/embedpy/internal/pyresource"
)

// Install writes every path → AppRelativeResources bucket under
// binaryDirectory/<path>.
func Install(binaryDirectory string, appRelative map[string]*pyresource.AppRelativeResources, pythonABITag string) error {
	for path, bucket := range appRelative {
		root := filepath.Join(binaryDirectory, path)
		if err := installBucket(root, bucket, pythonABITag); err != nil {
			return fmt.Errorf("installing app-relative tree %s: %w", path, err)
		}
	}
	return nil
}

func installBucket(root string, bucket *pyresource.AppRelativeResources, pythonABITag string) error {
	for name, src := range bucket.ModuleSources {
		if err := writeFile(root, sourcePath(name, src.IsPackage), src.Source); err != nil {
			return err
		}
	}
	for name, bc := range bucket.ModuleBytecodes {
		if err := writeFile(root, bytecodePath(name, bc.IsPackage, pythonABITag), bc.Bytecode); err != nil {
			return err
		}
	}
	for pkg, entries := range bucket.Resources {
		for name, data := range entries {
			if err := writeFile(root, resourcePath(pkg, name), data); err != nil {
				return err
			}
		}
	}
	return nil
}

// sourcePath maps a dotted module name to its .py path: "a.b.c" (module) ->
// "a/b/c.py"; "a.b" (package) -> "a/b/__init__.py".
func sourcePath(name string, isPackage bool) string {
	parts := strings.Split(name, ".")
	if isPackage {
		return filepath.Join(filepath.Join(parts...), "__init__.py")
	}
	leaf := parts[len(parts)-1] + ".py"
	dir := parts[:len(parts)-1]
	return filepath.Join(filepath.Join(dir...), leaf)
}

// bytecodePath maps a dotted module name to its __pycache__ .pyc path:
// "a.b.c" (module) -> "a/b/__pycache__/c.<tag>.pyc"; "a.b" (package) ->
// "a/b/__pycache__/__init__.<tag>.pyc".
func bytecodePath(name string, isPackage bool, tag string) string {
	parts := strings.Split(name, ".")
	if isPackage {
		return filepath.Join(filepath.Join(parts...), "__pycache__", fmt.Sprintf("__init__.%s.pyc", tag))
	}
	dir := parts[:len(parts)-1]
	leaf := fmt.Sprintf("%s.%s.pyc", parts[len(parts)-1], tag)
	return filepath.Join(filepath.Join(dir...), "__pycache__", leaf)
}

// resourcePath maps a dotted package name plus a leaf resource name (which
// may itself contain path separators) to "a/b/<name>".
func resourcePath(pkg, name string) string {
	parts := strings.Split(pkg, ".")
	return filepath.Join(filepath.Join(parts...), filepath.FromSlash(name))
}

func writeFile(root, relPath string, data []byte) error {
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", full, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", full, err)
	}
	return nil
}
