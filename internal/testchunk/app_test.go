package testchunk

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/pkg/testfilter"
)

const suiteYaml = `
tests:
  - name: test_a1.js
    path: /src/a/test_a1.js
    relpath: a/test_a1.js
    manifest: a/manifest.ini
    skip-if: os == "linux"
  - name: test_a2.js
    path: /src/a/test_a2.js
    relpath: a/test_a2.js
    manifest: a/manifest.ini
    tags: [network, slow]
  - name: test_b1.js
    path: /src/b/test_b1.js
    relpath: b/test_b1.js
    manifest: b/manifest.ini
    fail-if: debug
  - name: test_b2.js
    path: /src/b/test_b2.js
    relpath: b/test_b2.js
    manifest: b/manifest.ini
    subsuite: browser
  - name: test_c1.js
    path: /src/c/test_c1.js
    relpath: c/test_c1.js
    manifest: c/manifest.ini
    tags: network
`

// Descriptor files are loaded concurrently; make sure every worker is done when a command returns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, content string) string {
	filePath := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func testApp(t *testing.T) (*App, *bytes.Buffer) {
	dir := t.TempDir()
	writeFile(t, dir, "suite.yaml", suiteYaml)
	buf := new(bytes.Buffer)
	app := New()
	app.Out = buf
	app.Params.Tests = []string{filepath.Join(dir, "*.yaml")}
	app.Params.Values = map[string]interface{}{"os": "linux", "debug": true}
	return app, buf
}

func relPaths(tests []*testfilter.Descriptor) []string {
	rv := make([]string, len(tests))
	for i, test := range tests {
		rv[i] = test.RelPath
	}
	return rv
}

func TestVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	app := &App{
		Params: &Params{},
		Out:    buf,
	}

	err := app.Version()
	require.NoError(t, err)

	out := buf.String()
	for _, s := range []string{"Version", "Commit", "Go version", "Built"} {
		assert.Contains(t, out, s)
	}
}

func TestApp_Filter(t *testing.T) {
	app, buf := testApp(t)

	require.NoError(t, app.Filter())

	tests, err := DescriptorsFromBytes(buf.Bytes(), "out")
	require.NoError(t, err)
	// test_b2.js is in a subsuite.
	assert.Equal(t, []string{"a/test_a1.js", "a/test_a2.js", "b/test_b1.js", "c/test_c1.js"}, relPaths(tests))
	assert.Equal(t, `skip-if: os == "linux"`, tests[0].DisabledReason())
	assert.Equal(t, testfilter.ExpectedFail, tests[2].Expected)
}

func TestApp_Filter_Options(t *testing.T) {
	tests := map[string]struct {
		configure func(p *Params)
		expected  []string
	}{
		"enabled only": {
			configure: func(p *Params) { p.EnabledOnly = true },
			expected:  []string{"a/test_a2.js", "b/test_b1.js", "c/test_c1.js"},
		},
		"subsuite": {
			configure: func(p *Params) { p.Subsuite = "browser" },
			expected:  []string{"b/test_b2.js"},
		},
		"tags": {
			configure: func(p *Params) { p.Tags = []string{"network"} },
			expected:  []string{"a/test_a2.js", "c/test_c1.js"},
		},
		"tags are anded": {
			configure: func(p *Params) { p.Tags = []string{"network", "slow other"} },
			expected:  []string{"a/test_a2.js"},
		},
		"path prefixes": {
			configure: func(p *Params) { p.PathPrefixes = []string{"b", "c/test_c1.js"} },
			expected:  []string{"b/test_b1.js", "c/test_c1.js"},
		},
		"failures": {
			configure: func(p *Params) { p.Failures = `"debug"` },
			expected:  []string{"b/test_b1.js"},
		},
		"chunk by dir": {
			configure: func(p *Params) {
				p.Chunk = ChunkParams{Strategy: StrategyDir, This: 1, Total: 2, Depth: 1}
			},
			// Three directories have enabled tests; the first chunk gets two of them.
			expected: []string{"a/test_a1.js", "a/test_a2.js", "b/test_b1.js"},
		},
		"chunk by slice": {
			configure: func(p *Params) {
				p.Chunk = ChunkParams{Strategy: StrategySlice, This: 3, Total: 3}
			},
			expected: []string{"c/test_c1.js"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app, buf := testApp(t)
			tc.configure(app.Params)

			require.NoError(t, app.Filter())

			out, err := DescriptorsFromBytes(buf.Bytes(), "out")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, relPaths(out))
		})
	}
}

func TestApp_Filter_Exists(t *testing.T) {
	app, buf := testApp(t)
	app.Params.ExistsOnly = true
	app.FileSystem = existing{"/src/b/test_b1.js": true}

	require.NoError(t, app.Filter())

	out, err := DescriptorsFromBytes(buf.Bytes(), "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"b/test_b1.js"}, relPaths(out))
}

func TestApp_Filter_Metrics(t *testing.T) {
	app, _ := testApp(t)
	app.Params.Metrics.File = filepath.Join(t.TempDir(), "testchunk.prom")
	app.Params.EnabledOnly = true

	require.NoError(t, app.Filter())

	data, err := os.ReadFile(app.Params.Metrics.File)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `testchunk_stage_tests{stage="00-input"} 5`)
	assert.Contains(t, out, `testchunk_stage_tests{stage="04-subsuite"} 4`)
	assert.Contains(t, out, `testchunk_stage_tests{stage="05-enabled"} 3`)
	assert.Contains(t, out, `testchunk_chunk_tests{chunk="1"} 3`)
}

func TestApp_Filter_InvalidParams(t *testing.T) {
	tests := map[string]func(p *Params){
		"no tests":         func(p *Params) { p.Tests = nil },
		"unknown strategy": func(p *Params) { p.Chunk.Strategy = "random" },
		"unknown format":   func(p *Params) { p.Output.Format = "xml" },
		"chunk too large": func(p *Params) {
			p.Chunk = ChunkParams{Strategy: StrategySlice, This: 3, Total: 2}
		},
		"duplicate tags": func(p *Params) { p.Tags = []string{"a", "a"} },
		"negative default runtime": func(p *Params) {
			p.Runtimes.Default = -1
		},
	}
	for name, configure := range tests {
		t.Run(name, func(t *testing.T) {
			app, _ := testApp(t)
			configure(app.Params)
			err := app.Filter()
			assert.Equal(t, armadaerrors.ExitCodeInvalidInput, armadaerrors.ExitCodeFromError(err), "%v", err)
		})
	}
}

func TestApp_Filter_NoMatchingFiles(t *testing.T) {
	app, _ := testApp(t)
	app.Params.Tests = []string{filepath.Join(t.TempDir(), "*.yaml")}
	err := app.Filter()
	assert.Equal(t, armadaerrors.ExitCodeNotFound, armadaerrors.ExitCodeFromError(err))
}

func TestApp_Plan(t *testing.T) {
	for _, strategy := range []string{StrategySlice, StrategyDir, StrategyRuntime, StrategyManifest} {
		t.Run(strategy, func(t *testing.T) {
			app, buf := testApp(t)
			app.Params.Chunk = ChunkParams{Strategy: strategy, Total: 2, Depth: 1}
			app.Params.Runtimes.Default = 2

			require.NoError(t, app.Plan())

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 4)
			assert.Equal(t, []string{"CHUNK", "TESTS", "ENABLED", "RUNTIME"}, strings.Fields(lines[0]))
			// Every test not in a subsuite is in exactly one chunk.
			assert.Equal(t, []string{"total", "4", "3", "6.0s"}, strings.Fields(lines[3]))
		})
	}
}

func TestApp_Plan_Runtimes(t *testing.T) {
	app, buf := testApp(t)
	app.Params.Runtimes.File = writeFile(t, t.TempDir(), "runtimes.json", `{"a/test_a2.js": 10, "c/test_c1.js": 4}`)
	app.Params.Runtimes.Default = 1
	app.Params.Chunk = ChunkParams{Strategy: StrategyRuntime, Total: 2}

	require.NoError(t, app.Plan())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	// Manifest a takes 10s, c 4s and b 1s; c and b share the lighter chunk.
	assert.Equal(t, []string{"1", "2", "2", "5.0s"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "2", "1", "10.0s"}, strings.Fields(lines[2]))
}

func TestApp_Plan_None(t *testing.T) {
	app, buf := testApp(t)

	require.NoError(t, app.Plan())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"1", "4", "3", "0.0s"}, strings.Fields(lines[1]))
}

type existing map[string]bool

func (fs existing) Exists(path string) bool {
	return fs[path]
}
