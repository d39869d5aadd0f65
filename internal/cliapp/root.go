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

// Package cliapp wires the embedpy command-line surface (SPEC_FULL §1.1):
// a cobra root command with a persistent --verbose flag driving logrus
// level, and one subcommand per externally-visible operation.
package cliapp

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "embedpy",
	Short: "Resolve, materialize and pack Python resources for embedding.",
	Long:  "embedpy turns a packaging configuration plus a Python distribution into embedded and app-relative resource blobs ready for native linking.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.InfoLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

// Execute runs the root command, exiting the process with a non-zero status
// on failure (SPEC_FULL §7.1).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at info level, which includes the Stdlib rule's per-item working-set messages (warnings are shown either way)")
}

// GetFlag reads a bool flag, treating a lookup failure as false.
func GetFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return v
}

// GetString reads a string flag, treating a lookup failure as "".
func GetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}
