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
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pyembed/embedpy/internal/blobwriter"
	"github.com/pyembed/embedpy/internal/distribution"
	"github.com/pyembed/embedpy/internal/genpython"
	"github.com/pyembed/embedpy/internal/packagingstate"
	"github.com/pyembed/embedpy/internal/pycompiler"
	"github.com/pyembed/embedpy/internal/pyconfig"
	"github.com/pyembed/embedpy/internal/pyresource"
	"github.com/pyembed/embedpy/internal/treeinstaller"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve, materialize, finalize and pack a configuration's Python resources.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResolve(resolveOptions{
			configPath:       GetString(cmd, "config"),
			distributionPath: GetString(cmd, "distribution"),
			artifactsDir:     GetString(cmd, "artifacts-dir"),
			appDir:           GetString(cmd, "app-dir"),
			target:           GetString(cmd, "target"),
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().String("config", "", "path to the JSON packaging configuration")
	resolveCmd.Flags().String("distribution", "", "path to the JSON distribution manifest")
	resolveCmd.Flags().String("artifacts-dir", "", "directory embedded blobs, generated source and packaging state are written to")
	resolveCmd.Flags().String("app-dir", "", "directory the app-relative tree is installed under (optional)")
	resolveCmd.Flags().String("target", "", "GOOS-like target triple driving the platform ignore list (defaults to the host)")
	_ = resolveCmd.MarkFlagRequired("config")
	_ = resolveCmd.MarkFlagRequired("distribution")
	_ = resolveCmd.MarkFlagRequired("artifacts-dir")
}

type resolveOptions struct {
	configPath       string
	distributionPath string
	artifactsDir     string
	appDir           string
	target           string
}

// runResolve performs the end-to-end "resolve" operation: load distribution
// and configuration, run the pyresource pipeline, write the packed blobs,
// the generated native source fragment and the packaging state file, and
// install the app-relative tree when requested.
func runResolve(opts resolveOptions) error {
	cfg, err := pyconfig.Load(opts.configPath)
	if err != nil {
		return err
	}
	dist, err := distribution.Load(opts.distributionPath)
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	target := opts.target
	if target == "" {
		target = runtime.GOOS
	}

	newCompiler := func() (pyresource.BytecodeCompiler, error) { return pycompiler.New(dist.PythonExe) }

	resolved, err := pyresource.Resolve(dist, rules, target, newCompiler)
	if err != nil {
		return err
	}

	if err := writeArtifacts(opts.artifactsDir, resolved, cfg); err != nil {
		return err
	}

	if opts.appDir != "" {
		if err := treeinstaller.Install(opts.appDir, resolved.AppRelative, dist.PythonABITag); err != nil {
			return err
		}
	}

	return nil
}

func writeArtifacts(artifactsDir string, resolved pyresource.ResolvedResources, cfg *pyconfig.Config) error {
	namesPath := filepath.Join(artifactsDir, "module_names")
	modulesPath := filepath.Join(artifactsDir, "packed_modules")
	resourcesPath := filepath.Join(artifactsDir, "packed_resources")
	statePath := filepath.Join(artifactsDir, "packaging_state.cbor")
	dataRsPath := filepath.Join(artifactsDir, "embedpyrt_config.go")

	if err := writeFile(namesPath, blobwriter.WriteModuleNames(resolved.Embedded)); err != nil {
		return err
	}
	packedModules, err := blobwriter.WritePackedModules(resolved.Embedded)
	if err != nil {
		return err
	}
	if err := writeFile(modulesPath, packedModules); err != nil {
		return err
	}
	packedResources, err := blobwriter.WritePackedResources(resolved.Embedded)
	if err != nil {
		return err
	}
	if err := writeFile(resourcesPath, packedResources); err != nil {
		return err
	}

	source := genpython.GenerateSource(cfg.EmbeddedPythonConfig, cfg.PythonRunMode, genpython.BlobPaths{
		ModuleNamesPath:     namesPath,
		PackedModulesPath:   modulesPath,
		PackedResourcesPath: resourcesPath,
	})
	if err := writeFile(dataRsPath, []byte(source)); err != nil {
		return err
	}

	state := packagingstate.FromResolved(resolved, nil)
	if err := packagingstate.Write(statePath, state); err != nil {
		return err
	}

	return nil
}

// writeFile writes data to path, creating the parent directory tree first
// since the artifacts directory may not exist yet on a fresh build.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
