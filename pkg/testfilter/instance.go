package testfilter

import (
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
	goslices "golang.org/x/exp/slices"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/internal/common/slices"
)

// SubsuiteFilter selects the tests of one subsuite.
//
// A subsuite of the form "name,condition" is first normalised in place: it becomes "name"
// if condition is true and "" otherwise. This happens for every test, including those not selected.
type SubsuiteFilter struct {
	name      string
	evaluator Evaluator
}

// Subsuite returns a filter keeping tests whose subsuite is name.
// An empty name keeps only tests that don't belong to any subsuite.
func Subsuite(name string, evaluator Evaluator) *SubsuiteFilter {
	return &SubsuiteFilter{name: name, evaluator: evaluator}
}

func (f *SubsuiteFilter) Kind() Kind   { return KindSubsuite }
func (f *SubsuiteFilter) Unique() bool { return true }

func (f *SubsuiteFilter) String() string {
	return fmt.Sprintf("%s(%q)", f.Kind(), f.name)
}

func (f *SubsuiteFilter) Apply(tests []*Descriptor, values Values) ([]*Descriptor, error) {
	for _, test := range tests {
		if !strings.Contains(test.Subsuite, ",") {
			continue
		}
		parts := strings.Split(test.Subsuite, ",")
		if len(parts) != 2 {
			return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
				Name:    "subsuite",
				Value:   test.Subsuite,
				Message: "subsuite condition can't contain commas; test " + test.String(),
			})
		}
		matched, err := evaluate(f.evaluator, KindSubsuite, test, parts[1], values)
		if err != nil {
			return nil, err
		}
		if matched {
			test.Subsuite = parts[0]
		} else {
			test.Subsuite = ""
		}
	}
	return slices.Filter(tests, func(test *Descriptor) bool { return test.Subsuite == f.name }), nil
}

// TagsFilter keeps tests having at least one of the given tags.
// Several TagsFilters may be combined in a FilterList, in which case a test must pass all of them.
type TagsFilter struct {
	tags []string
}

// Tags returns a filter keeping tests tagged with any of tags.
func Tags(tags ...string) (*TagsFilter, error) {
	if len(tags) == 0 {
		return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "tags",
			Value:   tags,
			Message: "at least one tag is required",
		})
	}
	return &TagsFilter{tags: goslices.Clone(tags)}, nil
}

func (f *TagsFilter) Kind() Kind   { return KindTags }
func (f *TagsFilter) Unique() bool { return false }

func (f *TagsFilter) String() string {
	return fmt.Sprintf("%s(%s)", f.Kind(), strings.Join(f.tags, ", "))
}

func (f *TagsFilter) Equal(other Filter) bool {
	o, ok := other.(*TagsFilter)
	return ok && goslices.Equal(f.tags, o.tags)
}

func (f *TagsFilter) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return slices.Filter(tests, func(test *Descriptor) bool {
		for _, tag := range strings.Fields(test.Tags) {
			if goslices.Contains(f.tags, tag) {
				return true
			}
		}
		return false
	}), nil
}

// PathPrefixFilter keeps tests under any of the given paths.
//
// Relative paths are matched against the test's relpath, absolute ones against its path.
// A path naming a single test exactly re-enables that test if it was disabled.
type PathPrefixFilter struct {
	paths []string
}

func PathPrefix(paths ...string) (*PathPrefixFilter, error) {
	if len(paths) == 0 {
		return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "paths",
			Value:   paths,
			Message: "at least one path is required",
		})
	}
	normalized := make([]string, len(paths))
	for i, p := range paths {
		normalized[i] = normalizePath(p)
	}
	return &PathPrefixFilter{paths: normalized}, nil
}

func (f *PathPrefixFilter) Kind() Kind   { return KindPathPrefix }
func (f *PathPrefixFilter) Unique() bool { return true }

func (f *PathPrefixFilter) String() string {
	return fmt.Sprintf("%s(%s)", f.Kind(), strings.Join(f.paths, ", "))
}

func (f *PathPrefixFilter) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return slices.Filter(tests, func(test *Descriptor) bool {
		relPath := normalizePath(test.RelPath)
		for _, prefix := range f.paths {
			testPath := relPath
			if path.IsAbs(prefix) {
				testPath = normalizePath(test.Path)
			}
			if !strings.HasPrefix(testPath, prefix) {
				continue
			}
			// A single test named explicitly runs even if it was disabled.
			if testPath == prefix {
				test.Enable()
			}
			return true
		}
		return false
	}), nil
}

// FailuresFilter keeps tests whose skip-if or fail-if condition mentions a keyword,
// e.g. to rerun everything known to fail on a given platform.
type FailuresFilter struct {
	keyword string
}

func Failures(keyword string) (*FailuresFilter, error) {
	keyword = strings.Trim(keyword, `"`)
	if keyword == "" {
		return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "keyword",
			Value:   keyword,
			Message: "keyword must not be empty",
		})
	}
	return &FailuresFilter{keyword: keyword}, nil
}

func (f *FailuresFilter) Kind() Kind   { return KindFailures }
func (f *FailuresFilter) Unique() bool { return false }

func (f *FailuresFilter) String() string {
	return fmt.Sprintf("%s(%s)", f.Kind(), f.keyword)
}

func (f *FailuresFilter) Equal(other Filter) bool {
	o, ok := other.(*FailuresFilter)
	return ok && f.keyword == o.keyword
}

func (f *FailuresFilter) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return slices.Filter(tests, func(test *Descriptor) bool {
		return strings.Contains(test.SkipIf, f.keyword) || strings.Contains(test.FailIf, f.keyword)
	}), nil
}
