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
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyembed/embedpy/internal/distribution"
)

// fakeCompiler is a deterministic stand-in for the out-of-process bytecode
// compiler: it returns the source prefixed with "BC:" so tests can assert on
// compiled content without a real interpreter.
type fakeCompiler struct {
	closed     bool
	failModule string
}

func (c *fakeCompiler) Compile(source []byte, moduleName string, optimizeLevel int, mode CompileMode) ([]byte, error) {
	if moduleName == c.failModule {
		return nil, errors.New("boom")
	}
	return append([]byte("BC:"), source...), nil
}

func (c *fakeCompiler) Close() error {
	c.closed = true
	return nil
}

func newFakeCompiler() (BytecodeCompiler, error) { return &fakeCompiler{}, nil }

func sampleDistribution() *distribution.Distribution {
	return &distribution.Distribution{
		PythonExe:     "/opt/python/bin/python3.9",
		PythonVersion: "3.9.1",
		PythonABITag:  "cpython-39",
		Extensions: map[string][]distribution.ExtensionVariant{
			"zipimport": {{Name: "zipimport", Module: distribution.ExtensionModule{Name: "zipimport", Data: []byte("zip")}, BuiltinDefault: true}},
			"_ssl":      {{Name: "_ssl", Module: distribution.ExtensionModule{Name: "_ssl", Data: []byte("ssl")}}},
			"_crypt":    {{Name: "_crypt", Module: distribution.ExtensionModule{Name: "_crypt", Data: []byte("crypt")}}},
		},
		Stdlib: map[string]distribution.StdlibModule{
			"os":          {Name: "os", Source: []byte("import sys"), IsPackage: false},
			"encodings":   {Name: "encodings", Source: []byte(""), IsPackage: true},
			"xml.parsers": {Name: "xml.parsers", Source: []byte(""), IsPackage: true},
		},
	}
}

func TestResolveMinimalConfig(t *testing.T) {
	dist := sampleDistribution()
	rules := []Rule{
		NewStdlibExtensionsPolicy("minimal"),
		NewStdlib(0),
	}

	resolved, err := Resolve(dist, rules, "x86_64-unknown-linux-gnu", newFakeCompiler)
	require.NoError(t, err)

	assert.Contains(t, resolved.Embedded.ExtensionModules, "zipimport")
	assert.NotContains(t, resolved.Embedded.ExtensionModules, "_ssl", "minimal policy excludes non-required extensions")
	assert.Contains(t, resolved.Embedded.AllModules, "os")
	assert.Contains(t, resolved.Embedded.AllPackages, "xml", "parent package must be synthesized")
	assert.Equal(t, []byte("BC:"), resolved.Embedded.ModuleBytecodes["encodings"].Bytecode)
}

func TestResolvePlatformIgnoreRemovesLinuxBlacklist(t *testing.T) {
	dist := sampleDistribution()
	rules := []Rule{NewStdlibExtensionsPolicy("all")}

	resolved, err := Resolve(dist, rules, "x86_64-unknown-linux-gnu", newFakeCompiler)
	require.NoError(t, err)

	assert.NotContains(t, resolved.Embedded.ExtensionModules, "_crypt", "linux platform ignore list removes _crypt")
	assert.Contains(t, resolved.Embedded.ExtensionModules, "_ssl")
}

func TestResolveFilterIncludeTrimsWorkingSet(t *testing.T) {
	dist := sampleDistribution()

	namesFile := t.TempDir() + "/names.txt"
	require.NoError(t, writeFile(namesFile, "os\n# comment\n\nencodings\n"))

	rules := []Rule{
		NewStdlibExtensionsPolicy("minimal"),
		NewStdlib(0),
		NewFilterInclude([]string{namesFile}, nil),
	}

	resolved, err := Resolve(dist, rules, "x86_64-unknown-linux-gnu", newFakeCompiler)
	require.NoError(t, err)

	assert.Contains(t, resolved.Embedded.AllModules, "os")
	assert.NotContains(t, resolved.Embedded.AllModules, "xml.parsers", "filtered out before bytecode materialization")
	assert.Contains(t, resolved.ReadFiles, namesFile)
}

func TestResolveDuplicateWriteLicenseFilesIsConfigurationError(t *testing.T) {
	dist := sampleDistribution()
	rules := []Rule{
		NewWriteLicenseFiles("licenses"),
		NewWriteLicenseFiles("licenses2"),
	}

	_, err := Resolve(dist, rules, "x86_64-unknown-linux-gnu", newFakeCompiler)
	require.Error(t, err)
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestResolveMaterializeFailureIsExternalToolError(t *testing.T) {
	dist := sampleDistribution()
	rules := []Rule{
		NewStdlibExtensionsPolicy("minimal"),
		NewStdlib(0),
	}

	failing := func() (BytecodeCompiler, error) { return &fakeCompiler{failModule: "os"}, nil }

	_, err := Resolve(dist, rules, "x86_64-unknown-linux-gnu", failing)
	require.Error(t, err)
	var toolErr *ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "os", toolErr.Module)
}

func TestResolveAppRelativeLayout(t *testing.T) {
	dist := sampleDistribution()
	rules := []Rule{
		&literalRule{name: "AppRelativeFixture", ops: []ResourceOp{
			{Action: Add, Location: AppRelativeAt("lib"), Resource: ModuleSourceResource{Name: "mypkg.mod", Source: []byte("print(1)")}},
			{Action: Add, Location: AppRelativeAt("lib"), Resource: ModuleBytecodeRequestResource{Name: "mypkg.mod", Source: []byte("print(1)")}},
		}},
	}

	resolved, err := Resolve(dist, rules, "x86_64-unknown-linux-gnu", newFakeCompiler)
	require.NoError(t, err)

	require.Contains(t, resolved.AppRelative, "lib")
	bucket := resolved.AppRelative["lib"]
	assert.Contains(t, bucket.ModuleSources, "mypkg.mod")
	assert.Equal(t, []byte("BC:print(1)"), bucket.ModuleBytecodes["mypkg.mod"].Bytecode)
}

// literalRule is a test-only Rule that replays a fixed RuleResult, used to
// exercise Reducer/Repair/Finalize combinations rules.go's real rules don't
// produce on their own (e.g. an app-relative module pair).
type literalRule struct {
	name string
	ops  []ResourceOp
}

func (r *literalRule) RuleName() string { return r.name }
func (r *literalRule) Verbose() bool    { return false }
func (r *literalRule) Evaluate(*distribution.Distribution) (RuleResult, error) {
	return RuleResult{Ops: r.ops}, nil
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
