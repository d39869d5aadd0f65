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

import "fmt"

// ConfigurationError reports a problem in the declared rules: a duplicate
// WriteLicenseFiles, an empty or failing glob match, an unknown
// StdlibExtensionsPolicy name, a duplicated extension name, or an extension
// or variant absent from the distribution. Rules are evaluated one at a time
// inside Resolve's reduction loop, so rules declared before the offending one
// have already been reduced when it is returned. Missing required rule kinds
// are not checked here.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// StructuralError reports a forbidden (Action, Location, Resource) shape
// reaching the Reducer. It can only be caused by a buggy rule evaluator,
// never by well-formed input, so it always names the offending tuple shape.
type StructuralError struct {
	Action       Action
	Location     Location
	ResourceKind string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: unsupported combination (%s, %s, %s)", e.Action, e.Location, e.ResourceKind)
}

// ExternalToolError reports a bytecode compiler subprocess failure, named
// with the module it was compiling.
type ExternalToolError struct {
	Module string
	Err    error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("compiling bytecode for %s: %v", e.Module, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }
