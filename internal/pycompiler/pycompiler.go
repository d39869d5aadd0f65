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

// Package pycompiler implements pyresource.BytecodeCompiler by shelling out
// to the distribution's own interpreter, the same "subprocess as a typed
// collaborator" shape the teacher uses for its own external tool
// integration (index/internal/bazel/query.go wraps `bazel query`).
package pycompiler

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os/exec"

	"github.com/pyembed/embedpy/internal/pyresource"
)

// compileScript is fed to the distribution's interpreter on stdin. It reads
// base64-encoded source from stdin, compiles it at the requested
// optimization level, and writes base64-encoded marshalled code (or a pyc
// header plus marshalled code for PycUncheckedHash mode) to stdout.
const compileScript = `
import base64, marshal, sys, importlib.util

mode = sys.argv[1]
name = sys.argv[2]
optimize = int(sys.argv[3])
source = base64.b64decode(sys.stdin.buffer.read())

code = compile(source, name, "exec", optimize=optimize, dont_inherit=True)
data = marshal.dumps(code)
if mode == "pyc":
    data = importlib.util.MAGIC_NUMBER + b"\x01\x00\x00\x00" + importlib.util.source_hash(source) + data
sys.stdout.write(base64.b64encode(data).decode("ascii"))
`

// Compiler spawns the distribution interpreter once per Compile call. Real
// PyOxidizer-style compilers keep one subprocess alive per sink; this
// implementation keeps the contract simple (one process invocation per
// module) since the subprocess protocol above is stateless between calls.
type Compiler struct {
	pythonExe string
	closed    bool
}

// New spawns (lazily, per Compile call) against the given interpreter path.
func New(pythonExe string) (pyresource.BytecodeCompiler, error) {
	if pythonExe == "" {
		return nil, fmt.Errorf("pycompiler: distribution has no python_exe")
	}
	return &Compiler{pythonExe: pythonExe}, nil
}

func (c *Compiler) Compile(source []byte, moduleName string, optimizeLevel int, mode pyresource.CompileMode) ([]byte, error) {
	if c.closed {
		return nil, fmt.Errorf("pycompiler: Compile called after Close")
	}

	modeArg := "raw"
	if mode == pyresource.PycUncheckedHash {
		modeArg = "pyc"
	}

	cmd := exec.Command(c.pythonExe, "-c", compileScript, modeArg, moduleName, fmt.Sprintf("%d", optimizeLevel))
	cmd.Stdin = bytes.NewReader([]byte(base64.StdEncoding.EncodeToString(source)))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", moduleName, err, stderr.String())
	}

	data, err := base64.StdEncoding.DecodeString(stdout.String())
	if err != nil {
		return nil, fmt.Errorf("%s: decoding compiler output: %w", moduleName, err)
	}
	return data, nil
}

func (c *Compiler) Close() error {
	c.closed = true
	return nil
}
