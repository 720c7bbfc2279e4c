package testfilter

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
)

func kinds(l *FilterList) []Kind {
	rv := make([]Kind, l.Len())
	for i := range rv {
		rv[i] = l.At(i).Kind()
	}
	return rv
}

func mustSlice(t *testing.T, this, total int) *SliceChunker {
	f, err := ChunkBySlice(this, total, false)
	require.NoError(t, err)
	return f
}

func mustTags(t *testing.T, tags ...string) *TagsFilter {
	f, err := Tags(tags...)
	require.NoError(t, err)
	return f
}

func TestDefaultFilterList(t *testing.T) {
	l := DefaultFilterList(newEvaluator())
	assert.Equal(t, []Kind{KindSkipIf, KindRunIf, KindFailIf}, kinds(l))
	assert.Equal(t, "[skip-if, run-if, fail-if]", l.String())
}

func TestFilterList_StringIncludesParameters(t *testing.T) {
	pathPrefix, err := PathPrefix("a/b/", "c")
	require.NoError(t, err)
	failures, err := Failures(`"win"`)
	require.NoError(t, err)

	l, err := NewFilterList(
		Subsuite("gpu", newEvaluator()),
		mustTags(t, "slow", "net"),
		pathPrefix,
		failures,
		mustSlice(t, 2, 3),
	)
	require.NoError(t, err)
	assert.Equal(t,
		`[subsuite("gpu"), tags(slow, net), pathprefix(a/b, c), failures(win), chunk-by-slice(2/3)]`,
		l.String())
	assert.Equal(t, `subsuite("")`, Subsuite("", newEvaluator()).String())
}

func TestFilterList_RejectsDuplicates(t *testing.T) {
	l := DefaultFilterList(newEvaluator())

	// Parameters don't matter for unique filters.
	require.NoError(t, l.Append(mustSlice(t, 1, 2)))
	err := l.Append(mustSlice(t, 2, 3))
	var duplicate *ErrDuplicateFilter
	require.True(t, errors.As(err, &duplicate))
	assert.Equal(t, KindChunkBySlice, duplicate.Kind)
	assert.Equal(t, 3, duplicate.Index)
	var alreadyExists *armadaerrors.ErrAlreadyExists
	assert.True(t, errors.As(err, &alreadyExists))

	err = l.Append(SkipIf(newEvaluator()))
	assert.True(t, errors.As(err, &duplicate))

	// Non-unique filters are duplicates only if their parameters match.
	require.NoError(t, l.Append(mustTags(t, "x")))
	require.NoError(t, l.Append(mustTags(t, "y")))
	err = l.Append(mustTags(t, "x"))
	assert.True(t, errors.As(err, &duplicate))

	// Different kinds of chunker may coexist.
	dir, err := ChunkByDir(1, 2, 1)
	require.NoError(t, err)
	require.NoError(t, l.Append(dir))

	assert.Equal(
		t,
		[]Kind{KindSkipIf, KindRunIf, KindFailIf, KindChunkBySlice, KindTags, KindTags, KindChunkByDir},
		kinds(l),
	)
}

func TestFilterList_RejectsNil(t *testing.T) {
	l := &FilterList{}
	var typedNil *SliceChunker
	for name, f := range map[string]Filter{
		"nil":           nil,
		"typed nil":     typedNil,
		"nil func":      NewFuncFilter("custom", nil),
		"nil interface": Filter(nil),
	} {
		t.Run(name, func(t *testing.T) {
			err := l.Append(f)
			var invalid *armadaerrors.ErrInvalidArgument
			assert.True(t, errors.As(err, &invalid))
			assert.Equal(t, 0, l.Len())
		})
	}
}

func TestFilterList_AppendIsAtomic(t *testing.T) {
	l := DefaultFilterList(newEvaluator())
	err := l.Append(Enabled(), mustTags(t, "a"), Enabled())
	assert.Error(t, err)
	assert.Equal(t, 3, l.Len())
}

func TestFilterList_InsertSetDelete(t *testing.T) {
	l, err := NewFilterList(Enabled(), mustSlice(t, 1, 2))
	require.NoError(t, err)

	require.NoError(t, l.Insert(0, mustTags(t, "a")))
	require.NoError(t, l.Insert(3, Exists(nil)))
	assert.Equal(t, []Kind{KindTags, KindEnabled, KindChunkBySlice, KindExists}, kinds(l))

	assert.Error(t, l.Insert(5, mustTags(t, "b")))
	assert.Error(t, l.Insert(-1, mustTags(t, "b")))
	assert.Error(t, l.Insert(1, Enabled()))

	// Replacing a filter with one of the same kind is fine...
	require.NoError(t, l.Set(2, mustSlice(t, 2, 2)))
	// ...but not with a duplicate of another member.
	assert.Error(t, l.Set(2, Enabled()))
	assert.Error(t, l.Set(4, Enabled()))
	assert.Error(t, l.Set(0, nil))

	require.NoError(t, l.Delete(1))
	assert.Equal(t, []Kind{KindTags, KindChunkBySlice, KindExists}, kinds(l))
	assert.Error(t, l.Delete(3))
	require.NoError(t, l.Append(Enabled()))

	other, err := NewFilterList(mustTags(t, "b"), mustTags(t, "a"))
	require.NoError(t, err)
	assert.Error(t, l.Extend(other))
	assert.Equal(t, 4, l.Len())

	other, err = NewFilterList(mustTags(t, "b"))
	require.NoError(t, err)
	require.NoError(t, l.Extend(other))
	assert.Equal(t, 5, l.Len())

	filters := l.Filters()
	filters[0] = nil
	assert.NotNil(t, l.At(0))
}

func TestFilterList_Apply(t *testing.T) {
	tests := suite("a/1", "a/2", "a/3", "a/4", "b/1", "b/2")
	tests[0].SkipIf = "os == 'linux'"
	tests[1].RunIf = "os == 'mac'"
	tests[2].FailIf = "debug"
	tests[2].Tags = "x"
	tests[3].Tags = "x"
	tests[4].Tags = "x y"

	l := DefaultFilterList(newEvaluator())
	require.NoError(t, l.Append(mustTags(t, "x"), Enabled(), mustSlice(t, 1, 2)))

	var stages []int
	out, err := l.ApplyObserved(tests, Values{"os": "linux", "debug": true}, func(stage int, f Filter, out []*Descriptor) {
		stages = append(stages, len(out))
	})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 6, 6, 3, 3, 2}, stages)
	assert.Equal(t, []string{"a/3", "a/4"}, names(out))
	assert.Equal(t, ExpectedFail, tests[2].Expected)
	assert.True(t, tests[0].IsDisabled())
	assert.True(t, tests[1].IsDisabled())
}

func TestFilterList_OrderMatters(t *testing.T) {
	newSuite := func() []*Descriptor {
		tests := numbered(6)
		for _, i := range []int{0, 1, 5} {
			tests[i].Tags = "x"
		}
		return tests
	}

	tagsFirst, err := NewFilterList(mustTags(t, "x"), mustSlice(t, 1, 3))
	require.NoError(t, err)
	out, err := tagsFirst.Apply(newSuite(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/t0"}, names(out))

	chunkFirst, err := NewFilterList(mustSlice(t, 1, 3), mustTags(t, "x"))
	require.NoError(t, err)
	out, err = chunkFirst.Apply(newSuite(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/t0", "dir/t1"}, names(out))
}

func TestFilterList_ApplyStopsOnError(t *testing.T) {
	called := false
	l, err := NewFilterList(
		NewFuncFilter("boom", func([]*Descriptor, Values) ([]*Descriptor, error) {
			return nil, errors.New("boom")
		}),
		NewFuncFilter("after", func(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
			called = true
			return tests, nil
		}),
	)
	require.NoError(t, err)

	_, err = l.Apply(numbered(2), nil)
	assert.EqualError(t, err, "error applying filter boom: boom")
	assert.False(t, called)
}

func TestFiltersEqual(t *testing.T) {
	assert.True(t, FiltersEqual(Enabled(), Enabled()))
	assert.False(t, FiltersEqual(Enabled(), Exists(nil)))
	assert.True(t, FiltersEqual(NewFuncFilter("a", passThrough), NewFuncFilter("a", passThrough)))
	assert.False(t, FiltersEqual(NewFuncFilter("a", passThrough), NewFuncFilter("b", passThrough)))
}

func passThrough(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return tests, nil
}
