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

// Package builddirectives formats the "rerun-if-changed",
// "rerun-if-env-changed" and "DATA_RS_PATH" lines spec §6 says the core
// emits as data, not behavior: a build driver prints them verbatim to
// stdout for Cargo's build-script protocol to consume. This package only
// formats; printing is the CLI driver's job (SPEC_FULL §1.1).
package builddirectives

import "fmt"

// Directives is the set of build-tool directive lines for one build-script
// invocation.
type Directives struct {
	RerunIfChanged    []string
	RerunIfEnvChanged []string
	DataRsPath        string
}

// Lines renders each directive as a line ready to print to stdout, in a
// fixed, deterministic order: rerun-if-changed entries (as given), then
// rerun-if-env-changed entries (as given), then DATA_RS_PATH last.
func (d Directives) Lines() []string {
	lines := make([]string, 0, len(d.RerunIfChanged)+len(d.RerunIfEnvChanged)+1)
	for _, path := range d.RerunIfChanged {
		lines = append(lines, fmt.Sprintf("cargo:rerun-if-changed=%s", path))
	}
	for _, name := range d.RerunIfEnvChanged {
		lines = append(lines, fmt.Sprintf("cargo:rerun-if-env-changed=%s", name))
	}
	if d.DataRsPath != "" {
		lines = append(lines, fmt.Sprintf("cargo:rustc-env=DATA_RS_PATH=%s", d.DataRsPath))
	}
	return lines
}

// New builds a Directives value covering the files Resolve consulted
// (readFiles, e.g. filter-names files and resolved globs), the fixed set of
// build-script environment variables this core reads, and the generated
// source fragment's path.
func New(readFiles []string, dataRsPath string) Directives {
	return Directives{
		RerunIfChanged: readFiles,
		RerunIfEnvChanged: []string{
			"HOST", "TARGET", "OPT_LEVEL", "PROFILE",
			"CARGO_MANIFEST_DIR", "OUT_DIR",
			"PYOXIDIZER_ARTIFACT_DIR", "PYOXIDIZER_CONFIG",
		},
		DataRsPath: dataRsPath,
	}
}
