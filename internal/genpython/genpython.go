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

// Package genpython renders the generated native source fragment and
// companion static library descriptor promised by spec.md §1 but left
// unspecified by §6. It is grounded on
// original_source/pyoxidizer/src/py_packaging/pyembed.rs's
// derive_python_config/write_data_rs: that function builds a Rust literal
// embedding the four blob paths and every embedded_python_config field; this
// package builds the Go-syntax equivalent, a literal `embedpyrt.Config{...}`
// a generated `main` package can reference via `//go:embed`.
package genpython

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pyembed/embedpy/internal/pyconfig"
)

// BlobPaths names the three files GenerateSource embeds by reference, plus
// the extra extension module names it renders inline as a string slice.
type BlobPaths struct {
	ModuleNamesPath     string
	PackedModulesPath   string
	PackedResourcesPath string
	ExtraExtensionNames []string
}

// GenerateSource renders the Go-syntax source fragment declaring the
// embedded-runtime configuration literal, analogous in role to
// derive_python_config.
func GenerateSource(cfg pyconfig.EmbeddedPythonConfig, runMode pyconfig.PythonRunMode, blobs BlobPaths) string {
	var b strings.Builder
	b.WriteString("// Code generated by embedpy. DO NOT EDIT.\n\n")
	b.WriteString("package embedpyrt\n\n")
	b.WriteString("import _ \"embed\"\n\n")
	fmt.Fprintf(&b, "//go:embed %s\nvar packedModuleNames []byte\n\n", strconv.Quote(blobs.ModuleNamesPath))
	fmt.Fprintf(&b, "//go:embed %s\nvar packedModules []byte\n\n", strconv.Quote(blobs.PackedModulesPath))
	fmt.Fprintf(&b, "//go:embed %s\nvar packedResources []byte\n\n", strconv.Quote(blobs.PackedResourcesPath))

	b.WriteString("var Config = PythonConfig{\n")
	fmt.Fprintf(&b, "\tStandardIOEncoding: %s,\n", goString(cfg.StdioEncodingName))
	fmt.Fprintf(&b, "\tStandardIOErrors: %s,\n", goString(cfg.StdioEncodingErrors))
	fmt.Fprintf(&b, "\tOptLevel: %d,\n", cfg.OptimizeLevel)
	b.WriteString("\tUseCustomImportlib: true,\n")
	fmt.Fprintf(&b, "\tFilesystemImporter: %t,\n", cfg.FilesystemImporter)
	fmt.Fprintf(&b, "\tSysPaths: %s,\n", goStringSlice(cfg.SysPaths))
	fmt.Fprintf(&b, "\tBytesWarning: %d,\n", cfg.BytesWarning)
	fmt.Fprintf(&b, "\tImportSite: %t,\n", !cfg.NoSite)
	fmt.Fprintf(&b, "\tImportUserSite: %t,\n", !cfg.NoUserSiteDirectory)
	fmt.Fprintf(&b, "\tIgnorePythonEnv: %t,\n", cfg.IgnoreEnvironment)
	fmt.Fprintf(&b, "\tInspect: %t,\n", cfg.Inspect)
	fmt.Fprintf(&b, "\tInteractive: %t,\n", cfg.Interactive)
	fmt.Fprintf(&b, "\tIsolated: %t,\n", cfg.Isolated)
	fmt.Fprintf(&b, "\tLegacyWindowsFSEncoding: %t,\n", cfg.LegacyWindowsFSEncoding)
	fmt.Fprintf(&b, "\tLegacyWindowsStdio: %t,\n", cfg.LegacyWindowsStdio)
	fmt.Fprintf(&b, "\tDontWriteBytecode: %t,\n", cfg.DontWriteBytecode)
	fmt.Fprintf(&b, "\tUnbufferedStdio: %t,\n", cfg.UnbufferedStdio)
	fmt.Fprintf(&b, "\tParserDebug: %t,\n", cfg.ParserDebug)
	fmt.Fprintf(&b, "\tQuiet: %t,\n", cfg.Quiet)
	fmt.Fprintf(&b, "\tUseHashSeed: %t,\n", cfg.UseHashSeed)
	fmt.Fprintf(&b, "\tVerbose: %t,\n", cfg.Verbose)
	b.WriteString("\tPackedModuleNames: packedModuleNames,\n")
	b.WriteString("\tPackedModules: packedModules,\n")
	b.WriteString("\tPackedResources: packedResources,\n")
	fmt.Fprintf(&b, "\tExtraExtensionModules: %s,\n", goStringSlice(blobs.ExtraExtensionNames))
	fmt.Fprintf(&b, "\tSysFrozen: %t,\n", cfg.SysFrozen)
	fmt.Fprintf(&b, "\tSysMeipass: %t,\n", cfg.SysMeipass)
	fmt.Fprintf(&b, "\tRawAllocator: %s,\n", rawAllocatorLiteral(cfg.RawAllocator))
	fmt.Fprintf(&b, "\tTerminfoResolution: %s,\n", terminfoLiteral(cfg.TerminfoResolution))
	fmt.Fprintf(&b, "\tWriteModulesDirectoryEnv: %s,\n", goString(cfg.WriteModulesDirectoryEnv))
	fmt.Fprintf(&b, "\tRun: %s,\n", runModeLiteral(runMode))
	b.WriteString("}\n")
	return b.String()
}

func goString(s string) string {
	if s == "" {
		return "\"\""
	}
	return strconv.Quote(s)
}

func goStringSlice(values []string) string {
	if len(values) == 0 {
		return "nil"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

func rawAllocatorLiteral(a pyconfig.RawAllocator) string {
	switch a {
	case pyconfig.RawAllocatorJemalloc:
		return "RawAllocatorJemalloc"
	case pyconfig.RawAllocatorRust:
		return "RawAllocatorRust"
	default:
		return "RawAllocatorSystem"
	}
}

func terminfoLiteral(t pyconfig.TerminfoResolution) string {
	switch t.Kind {
	case "dynamic":
		return "TerminfoResolutionDynamic"
	case "static":
		return fmt.Sprintf("TerminfoResolutionStatic(%s)", strconv.Quote(t.Static))
	default:
		return "TerminfoResolutionNone"
	}
}

func runModeLiteral(r pyconfig.PythonRunMode) string {
	switch r.Kind {
	case "repl":
		return "PythonRunModeRepl{}"
	case "module":
		return fmt.Sprintf("PythonRunModeModule{Module: %s}", strconv.Quote(r.Name))
	case "eval":
		return fmt.Sprintf("PythonRunModeEval{Code: %s}", strconv.Quote(r.Code))
	default:
		return "PythonRunModeNoop{}"
	}
}

// StaticLibraryDescriptor is a Go-native stand-in for the static-library
// descriptor the native linker collaborator consumes: the archive path plus
// the link lines a cargo_metadata-style build script would print.
type StaticLibraryDescriptor struct {
	LibraryPath string
	LinkLines   []string
}

// NewStaticLibraryDescriptor builds the descriptor for a library produced at
// libraryPath, depending on the given native libraries (e.g. "python3.9",
// "dl", "pthread").
func NewStaticLibraryDescriptor(libraryPath string, nativeLibs []string) StaticLibraryDescriptor {
	lines := make([]string, 0, len(nativeLibs)+1)
	lines = append(lines, fmt.Sprintf("cargo:rustc-link-search=native=%s", libraryPath))
	for _, lib := range nativeLibs {
		lines = append(lines, fmt.Sprintf("cargo:rustc-link-lib=static=%s", lib))
	}
	return StaticLibraryDescriptor{LibraryPath: libraryPath, LinkLines: lines}
}
