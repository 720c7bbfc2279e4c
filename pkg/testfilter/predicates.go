package testfilter

import (
	"github.com/pkg/errors"

	"github.com/armadaproject/testchunk/internal/common/slices"
)

// evaluate wraps evaluator errors with the test and condition that failed.
func evaluate(ev Evaluator, kind Kind, test *Descriptor, expr string, values Values) (bool, error) {
	ok, err := ev.Evaluate(expr, values)
	if err != nil {
		return false, errors.WithMessagef(err, "error evaluating %s condition of test %s", kind, test)
	}
	return ok, nil
}

// clone returns a shallow copy of tests, never nil.
func clone(tests []*Descriptor) []*Descriptor {
	rv := make([]*Descriptor, len(tests))
	copy(rv, tests)
	return rv
}

// SkipIfFilter disables tests whose skip-if condition is true.
// A test that is already disabled keeps its original reason.
type SkipIfFilter struct {
	evaluator Evaluator
}

func SkipIf(evaluator Evaluator) *SkipIfFilter {
	return &SkipIfFilter{evaluator: evaluator}
}

func (f *SkipIfFilter) Kind() Kind   { return KindSkipIf }
func (f *SkipIfFilter) Unique() bool { return true }

func (f *SkipIfFilter) Apply(tests []*Descriptor, values Values) ([]*Descriptor, error) {
	for _, test := range tests {
		if test.SkipIf == "" {
			continue
		}
		skip, err := evaluate(f.evaluator, KindSkipIf, test, test.SkipIf, values)
		if err != nil {
			return nil, err
		}
		if skip && !test.IsDisabled() {
			test.Disable("skip-if: " + test.SkipIf)
		}
	}
	return clone(tests), nil
}

// RunIfFilter disables tests whose run-if condition is false.
// A test that is already disabled keeps its original reason.
type RunIfFilter struct {
	evaluator Evaluator
}

func RunIf(evaluator Evaluator) *RunIfFilter {
	return &RunIfFilter{evaluator: evaluator}
}

func (f *RunIfFilter) Kind() Kind   { return KindRunIf }
func (f *RunIfFilter) Unique() bool { return true }

func (f *RunIfFilter) Apply(tests []*Descriptor, values Values) ([]*Descriptor, error) {
	for _, test := range tests {
		if test.RunIf == "" {
			continue
		}
		run, err := evaluate(f.evaluator, KindRunIf, test, test.RunIf, values)
		if err != nil {
			return nil, err
		}
		if !run && !test.IsDisabled() {
			test.Disable("run-if: " + test.RunIf)
		}
	}
	return clone(tests), nil
}

// FailIfFilter marks tests whose fail-if condition is true as expected to fail.
// Unlike skip-if, the latest evaluation always wins.
type FailIfFilter struct {
	evaluator Evaluator
}

func FailIf(evaluator Evaluator) *FailIfFilter {
	return &FailIfFilter{evaluator: evaluator}
}

func (f *FailIfFilter) Kind() Kind   { return KindFailIf }
func (f *FailIfFilter) Unique() bool { return true }

func (f *FailIfFilter) Apply(tests []*Descriptor, values Values) ([]*Descriptor, error) {
	for _, test := range tests {
		if test.FailIf == "" {
			continue
		}
		fail, err := evaluate(f.evaluator, KindFailIf, test, test.FailIf, values)
		if err != nil {
			return nil, err
		}
		if fail {
			test.Expected = ExpectedFail
		}
	}
	return clone(tests), nil
}

// EnabledFilter drops disabled tests, whatever the reason they were disabled.
type EnabledFilter struct{}

func Enabled() *EnabledFilter {
	return &EnabledFilter{}
}

func (f *EnabledFilter) Kind() Kind   { return KindEnabled }
func (f *EnabledFilter) Unique() bool { return true }

func (f *EnabledFilter) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return slices.Filter(tests, func(test *Descriptor) bool { return !test.IsDisabled() }), nil
}

// ExistsFilter drops tests whose path does not exist.
type ExistsFilter struct {
	fs FileSystem
}

// Exists returns a filter checking paths with fs, or with the local filesystem if fs is nil.
func Exists(fs FileSystem) *ExistsFilter {
	if fs == nil {
		fs = OSFileSystem{}
	}
	return &ExistsFilter{fs: fs}
}

func (f *ExistsFilter) Kind() Kind   { return KindExists }
func (f *ExistsFilter) Unique() bool { return true }

func (f *ExistsFilter) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return slices.Filter(tests, func(test *Descriptor) bool { return f.fs.Exists(test.Path) }), nil
}
