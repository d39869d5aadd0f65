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

package pyresource

// CompileMode selects the output framing the bytecode compiler subprocess
// produces.
type CompileMode int

const (
	// Bytecode is the raw marshalled code object, used for embedded modules
	// loaded from memory without filesystem metadata.
	Bytecode CompileMode = iota
	// PycUncheckedHash is the on-disk .pyc header with the hash-based,
	// unchecked flag set, used for app-relative modules that will not be
	// mutated at runtime.
	PycUncheckedHash
)

// BytecodeCompiler is the external collaborator contract for compiling
// Python source into bytecode. Materialize obtains one compiler per sink and
// closes it once that sink is drained; whether an implementation keeps a
// single interpreter process alive for that whole session is up to the
// implementation (pycompiler.Compiler starts a new process per Compile call).
type BytecodeCompiler interface {
	Compile(source []byte, moduleName string, optimizeLevel int, mode CompileMode) ([]byte, error)
	Close() error
}

// Materialize drains ws.EmbeddedBCRequests and every
// ws.AppRelativeBCRequests[path] bucket through newCompiler, one compiler
// session per sink, in deterministic key order. Failure of a single compile
// is fatal to the whole build (§4.4): Materialize returns immediately on the
// first error from the compiler.
func Materialize(ws *WorkingSet, newCompiler func() (BytecodeCompiler, error)) error {
	if len(ws.EmbeddedBCRequests) > 0 {
		compiler, err := newCompiler()
		if err != nil {
			return err
		}
		defer compiler.Close()

		for _, name := range sortedKeys(ws.EmbeddedBCRequests) {
			request := ws.EmbeddedBCRequests[name]
			bytecode, err := compiler.Compile(request.Source, name, request.OptimizeLevel, Bytecode)
			if err != nil {
				return &ExternalToolError{Module: name, Err: err}
			}
			ws.EmbeddedBytecodes[name] = PackagedBytecode{Bytecode: bytecode, IsPackage: request.IsPackage}
		}
	}

	for _, path := range sortedKeys(ws.AppRelativeBCRequests) {
		requests := ws.AppRelativeBCRequests[path]
		if len(requests) == 0 {
			continue
		}
		compiler, err := newCompiler()
		if err != nil {
			return err
		}

		bucket := ws.appRelativeBucket(path)
		for _, name := range sortedKeys(requests) {
			request := requests[name]
			bytecode, err := compiler.Compile(request.Source, name, request.OptimizeLevel, PycUncheckedHash)
			if err != nil {
				compiler.Close()
				return &ExternalToolError{Module: name, Err: err}
			}
			bucket.ModuleBytecodes[name] = PackagedBytecode{Bytecode: bytecode, IsPackage: request.IsPackage}
		}
		if err := compiler.Close(); err != nil {
			return err
		}
	}

	return nil
}
