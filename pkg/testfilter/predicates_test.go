package testfilter

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/testchunk/pkg/expression"
)

func TestSkipIf(t *testing.T) {
	tests := suite("a/1", "a/2", "a/3", "a/4")
	tests[0].SkipIf = "os == 'linux'"
	tests[1].SkipIf = "os == 'win'"
	tests[2].SkipIf = "debug"
	tests[2].Disable("bug 1")

	out, err := SkipIf(newEvaluator()).Apply(tests, Values{"os": "linux", "debug": true})
	require.NoError(t, err)

	// skip-if never drops tests.
	assert.Equal(t, names(tests), names(out))
	assert.Equal(t, "skip-if: os == 'linux'", tests[0].DisabledReason())
	assert.False(t, tests[1].IsDisabled())
	assert.Equal(t, "bug 1", tests[2].DisabledReason())
	assert.False(t, tests[3].IsDisabled())
}

func TestSkipIf_Idempotent(t *testing.T) {
	tests := suite("a/1")
	tests[0].SkipIf = "debug"
	f := SkipIf(newEvaluator())

	_, err := f.Apply(tests, Values{"debug": true})
	require.NoError(t, err)
	first := tests[0].DisabledReason()

	tests[0].SkipIf = "asan"
	_, err = f.Apply(tests, Values{"debug": true, "asan": true})
	require.NoError(t, err)
	assert.Equal(t, first, tests[0].DisabledReason())
}

func TestRunIf(t *testing.T) {
	tests := suite("a/1", "a/2", "a/3")
	tests[0].RunIf = "os == 'linux'"
	tests[1].RunIf = "os == 'mac'"
	tests[2].RunIf = "os == 'mac'"
	tests[2].Disable("skip-if: debug")

	out, err := RunIf(newEvaluator()).Apply(tests, Values{"os": "linux"})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.False(t, tests[0].IsDisabled())
	assert.Equal(t, "run-if: os == 'mac'", tests[1].DisabledReason())
	assert.Equal(t, "skip-if: debug", tests[2].DisabledReason())
}

func TestFailIf_Overwrites(t *testing.T) {
	tests := suite("a/1", "a/2")
	tests[0].FailIf = "debug"
	tests[1].FailIf = "asan"
	tests[1].Expected = "pass"
	f := FailIf(newEvaluator())

	out, err := f.Apply(tests, Values{"debug": true, "asan": true})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, ExpectedFail, tests[0].Expected)
	assert.Equal(t, ExpectedFail, tests[1].Expected)

	// A second evaluation that is true again rewrites the value;
	// one that is false leaves whatever is there.
	tests[0].Expected = "timeout"
	tests[0].FailIf = "os == 'linux'"
	tests[1].Expected = "timeout"
	tests[1].FailIf = "os == 'mac'"
	_, err = f.Apply(tests, Values{"os": "linux"})
	require.NoError(t, err)
	assert.Equal(t, ExpectedFail, tests[0].Expected)
	assert.Equal(t, "timeout", tests[1].Expected)
}

func TestConditionFilters_ParseErrorsPropagate(t *testing.T) {
	for name, f := range map[string]Filter{
		"skip-if": SkipIf(newEvaluator()),
		"run-if":  RunIf(newEvaluator()),
		"fail-if": FailIf(newEvaluator()),
	} {
		t.Run(name, func(t *testing.T) {
			tests := suite("a/1")
			tests[0].SkipIf = "os =="
			tests[0].RunIf = "os =="
			tests[0].FailIf = "os =="

			out, err := f.Apply(tests, Values{})
			assert.Nil(t, out)
			var parseErr *expression.ParseError
			assert.True(t, errors.As(err, &parseErr), "expected a parse error but got %v", err)
			assert.Contains(t, err.Error(), "a/1")
		})
	}
}

func TestEnabled(t *testing.T) {
	tests := suite("a/1", "a/2", "a/3")
	tests[1].Disable("")

	out, err := Enabled().Apply(tests, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/3"}, names(out))
	assert.Len(t, tests, 3)
}

func TestExists(t *testing.T) {
	tests := suite("a/1", "a/2", "a/3")
	fs := fakeFileSystem{"/src/a/1": true, "/src/a/3": true}

	out, err := Exists(fs).Apply(tests, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/3"}, names(out))
}

func TestExists_OSFileSystem(t *testing.T) {
	dir := t.TempDir()
	tests := []*Descriptor{
		{Name: "here", Path: dir},
		{Name: "missing", Path: dir + "/missing"},
	}
	out, err := Exists(nil).Apply(tests, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"here"}, names(out))
}
