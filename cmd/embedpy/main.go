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

// Command embedpy resolves a packaging configuration against a Python
// distribution and writes the embedded resource blobs, generated native
// source fragment and packaging state a downstream native build consumes.
package main

import "github.com/pyembed/embedpy/internal/cliapp"

func main() {
	cliapp.Execute()
}
