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

import (
	log "github.com/sirupsen/logrus"

	"github.com/pyembed/embedpy/internal/distribution"
)

// Resolve runs the full pipeline of §2 steps 3-7: it reduces every rule's
// evaluation into a working set in configuration-declared order, applies
// Consistency Repair exactly once, drains pending bytecode through
// newCompiler, and finalizes the result.
//
// newCompiler is invoked once per sink that has at least one pending
// request (embedded, and each app-relative path), matching the "one
// compiler session per sink" resource model of §5.
func Resolve(dist *distribution.Distribution, rules []Rule, target string, newCompiler func() (BytecodeCompiler, error)) (ResolvedResources, error) {
	ws := NewWorkingSet()

	for _, rule := range rules {
		log.Warnf("processing packaging rule: %s", rule.RuleName())

		result, err := rule.Evaluate(dist)
		if err != nil {
			return ResolvedResources{}, err
		}

		for _, op := range result.Ops {
			if err := reduceOp(ws, op, rule.Verbose()); err != nil {
				return ResolvedResources{}, err
			}
		}

		ws.ReadFiles = append(ws.ReadFiles, result.ReadFiles...)

		if result.LicenseFilesPath != nil {
			if ws.LicenseFilesPath != nil {
				return ResolvedResources{}, &ConfigurationError{Msg: "WriteLicenseFiles rule declared more than once"}
			}
			ws.LicenseFilesPath = result.LicenseFilesPath
		}

		if result.FilterNames != nil {
			log.Warnf("filtering embedded and app-relative resources per rule: %s", rule.RuleName())
			applyFilter(ws, result.FilterNames)
		}
	}

	Repair(ws, dist, target)

	if err := Materialize(ws, newCompiler); err != nil {
		return ResolvedResources{}, err
	}

	return Finalize(ws), nil
}
