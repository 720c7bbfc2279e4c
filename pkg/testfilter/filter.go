package testfilter

import (
	"fmt"
	"os"
	"reflect"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
)

// Values is the condition context every filter is applied with, e.g. {"os": "linux", "debug": true}.
type Values map[string]interface{}

// Evaluator evaluates a condition expression against a values mapping.
// A syntax error must be returned as an error rather than as false.
type Evaluator interface {
	Evaluate(expr string, values map[string]interface{}) (bool, error)
}

// FileSystem is used by the exists filter.
type FileSystem interface {
	Exists(path string) bool
}

// OSFileSystem checks paths on the local filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Kind identifies the type of a filter.
type Kind string

const (
	KindSkipIf          Kind = "skip-if"
	KindRunIf           Kind = "run-if"
	KindFailIf          Kind = "fail-if"
	KindEnabled         Kind = "enabled"
	KindExists          Kind = "exists"
	KindSubsuite        Kind = "subsuite"
	KindTags            Kind = "tags"
	KindPathPrefix      Kind = "pathprefix"
	KindFailures        Kind = "failures"
	KindChunkBySlice    Kind = "chunk-by-slice"
	KindChunkByDir      Kind = "chunk-by-dir"
	KindChunkByManifest Kind = "chunk-by-manifest"
	KindChunkByRuntime  Kind = "chunk-by-runtime"
)

// Filter transforms a sequence of tests.
type Filter interface {
	// Kind identifies the type of the filter.
	Kind() Kind
	// Unique filters are considered equal to any other filter of the same Kind,
	// regardless of parameters. Filters that aren't unique must implement Equaler.
	Unique() bool
	// Apply returns the tests that pass the filter. It may annotate tests in place,
	// but must not reorder the input slice.
	Apply(tests []*Descriptor, values Values) ([]*Descriptor, error)
}

// Equaler is implemented by non-unique filters to compare their parameters with another filter of the same Kind.
type Equaler interface {
	Equal(other Filter) bool
}

// FiltersEqual reports whether a and b are duplicates of each other for the purposes of a FilterList.
func FiltersEqual(a, b Filter) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.Unique() || b.Unique() {
		return true
	}
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}
	return false
}

// ErrDuplicateFilter is returned when adding a filter equal to one already in a FilterList.
type ErrDuplicateFilter struct {
	Kind Kind
	// Position of the existing filter.
	Index int
}

func (err *ErrDuplicateFilter) Error() string {
	return fmt.Sprintf("filter %s already exists at position %d", err.Kind, err.Index)
}

// Unwrap allows errors.As to treat a duplicate filter as an *armadaerrors.ErrAlreadyExists.
func (err *ErrDuplicateFilter) Unwrap() error {
	return &armadaerrors.ErrAlreadyExists{
		Type:    "filter",
		Value:   string(err.Kind),
		Message: fmt.Sprintf("at position %d", err.Index),
	}
}

// isNil reports whether f is nil or a typed nil pointer.
func isNil(f Filter) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// FuncFilter adapts a function to a unique Filter of the given kind.
type FuncFilter struct {
	kind Kind
	fn   func(tests []*Descriptor, values Values) ([]*Descriptor, error)
}

// NewFuncFilter returns a filter applying fn. It is unique within its kind.
func NewFuncFilter(kind Kind, fn func(tests []*Descriptor, values Values) ([]*Descriptor, error)) *FuncFilter {
	if fn == nil {
		return nil
	}
	return &FuncFilter{kind: kind, fn: fn}
}

func (f *FuncFilter) Kind() Kind   { return f.kind }
func (f *FuncFilter) Unique() bool { return true }

func (f *FuncFilter) Apply(tests []*Descriptor, values Values) ([]*Descriptor, error) {
	return f.fn(tests, values)
}
