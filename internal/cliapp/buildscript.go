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

package cliapp

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pyembed/embedpy/internal/builddirectives"
	"github.com/pyembed/embedpy/internal/buildenv"
	"github.com/pyembed/embedpy/internal/distribution"
	"github.com/pyembed/embedpy/internal/pycompiler"
	"github.com/pyembed/embedpy/internal/pyconfig"
	"github.com/pyembed/embedpy/internal/pyresource"
)

var buildScriptCmd = &cobra.Command{
	Use:   "build-script",
	Short: "Run as a Cargo build-script: read the environment, resolve, and print build-tool directives.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuildScript(GetString(cmd, "distribution"))
	},
}

func init() {
	rootCmd.AddCommand(buildScriptCmd)
	buildScriptCmd.Flags().String("distribution", "", "path to the JSON distribution manifest")
	_ = buildScriptCmd.MarkFlagRequired("distribution")
}

// runBuildScript is the "build-script mode" entry point of SPEC_FULL §1.1 and
// spec §6: it resolves PYOXIDIZER_CONFIG/CARGO_MANIFEST_DIR/OUT_DIR/
// PYOXIDIZER_ARTIFACT_DIR/HOST/TARGET/OPT_LEVEL/PROFILE from the environment,
// runs the same pipeline as "resolve", and prints the rerun-if-changed /
// rerun-if-env-changed / DATA_RS_PATH directive lines to stdout.
func runBuildScript(distributionPath string) error {
	env := buildenv.Load()
	artifactsDir := env.ArtifactsDir()

	cfg, err := pyconfig.Load(env.ConfigPath())
	if err != nil {
		return err
	}
	dist, err := distribution.Load(distributionPath)
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	target := env.Target
	if target == "" {
		target = env.Host
	}

	newCompiler := func() (pyresource.BytecodeCompiler, error) { return pycompiler.New(dist.PythonExe) }

	resolved, err := pyresource.Resolve(dist, rules, target, newCompiler)
	if err != nil {
		return err
	}

	if err := writeArtifacts(artifactsDir, resolved, cfg); err != nil {
		return err
	}

	dataRsPath := filepath.Join(artifactsDir, "embedpyrt_config.go")
	directives := builddirectives.New(resolved.ReadFiles, dataRsPath)
	for _, line := range directives.Lines() {
		fmt.Println(line)
	}

	return nil
}
