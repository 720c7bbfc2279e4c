package testfilter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
)

// FilterList is an ordered sequence of filters with no duplicates.
// Filters are validated when added, so a FilterList that was built without errors is always applicable.
type FilterList struct {
	filters []Filter
}

// DefaultFilters returns skip-if, run-if and fail-if, in the order they're applied by default.
func DefaultFilters(evaluator Evaluator) []Filter {
	return []Filter{SkipIf(evaluator), RunIf(evaluator), FailIf(evaluator)}
}

// DefaultFilterList returns a FilterList seeded with DefaultFilters.
func DefaultFilterList(evaluator Evaluator) *FilterList {
	return &FilterList{filters: DefaultFilters(evaluator)}
}

// NewFilterList returns a FilterList holding filters, in order.
func NewFilterList(filters ...Filter) (*FilterList, error) {
	l := &FilterList{}
	if err := l.Append(filters...); err != nil {
		return nil, err
	}
	return l, nil
}

// validate returns an error if f can't be stored at index i.
// The filter currently at index skip, if any, is ignored when looking for duplicates.
func (l *FilterList) validate(f Filter, skip int) error {
	if isNil(f) {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "filter",
			Value:   f,
			Message: "filter must not be nil",
		})
	}
	for i, existing := range l.filters {
		if i == skip {
			continue
		}
		if FiltersEqual(existing, f) {
			return errors.WithStack(&ErrDuplicateFilter{Kind: f.Kind(), Index: i})
		}
	}
	return nil
}

func (l *FilterList) checkIndex(i, limit int) error {
	if i < 0 || i > limit {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "index",
			Value:   i,
			Message: fmt.Sprintf("must be in [0, %d]", limit),
		})
	}
	return nil
}

// Len returns the number of filters.
func (l *FilterList) Len() int {
	return len(l.filters)
}

// At returns the filter at index i.
func (l *FilterList) At(i int) Filter {
	return l.filters[i]
}

// Filters returns a copy of the filters, in order.
func (l *FilterList) Filters() []Filter {
	return append([]Filter(nil), l.filters...)
}

// Append adds filters to the end of the list. Either all filters are added or, on error, none.
func (l *FilterList) Append(filters ...Filter) error {
	candidate := &FilterList{filters: l.Filters()}
	for _, f := range filters {
		if err := candidate.validate(f, -1); err != nil {
			return err
		}
		candidate.filters = append(candidate.filters, f)
	}
	l.filters = candidate.filters
	return nil
}

// Extend appends every filter of other.
func (l *FilterList) Extend(other *FilterList) error {
	return l.Append(other.filters...)
}

// Insert inserts f at index i, shifting later filters back.
func (l *FilterList) Insert(i int, f Filter) error {
	if err := l.checkIndex(i, len(l.filters)); err != nil {
		return err
	}
	if err := l.validate(f, -1); err != nil {
		return err
	}
	l.filters = append(l.filters, nil)
	copy(l.filters[i+1:], l.filters[i:])
	l.filters[i] = f
	return nil
}

// Set replaces the filter at index i with f.
func (l *FilterList) Set(i int, f Filter) error {
	if err := l.checkIndex(i, len(l.filters)-1); err != nil {
		return err
	}
	if err := l.validate(f, i); err != nil {
		return err
	}
	l.filters[i] = f
	return nil
}

// Delete removes the filter at index i.
func (l *FilterList) Delete(i int) error {
	if err := l.checkIndex(i, len(l.filters)-1); err != nil {
		return err
	}
	l.filters = append(l.filters[:i], l.filters[i+1:]...)
	return nil
}

func (l *FilterList) String() string {
	names := make([]string, len(l.filters))
	for i, f := range l.filters {
		if s, ok := f.(fmt.Stringer); ok {
			names[i] = s.String()
		} else {
			names[i] = string(f.Kind())
		}
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Apply passes tests through every filter in order, each filter receiving the output of the previous one.
func (l *FilterList) Apply(tests []*Descriptor, values Values) ([]*Descriptor, error) {
	return l.ApplyObserved(tests, values, nil)
}

// ApplyObserved is like Apply, but calls observe, if not nil, with the output of each filter.
func (l *FilterList) ApplyObserved(
	tests []*Descriptor,
	values Values,
	observe func(stage int, f Filter, out []*Descriptor),
) ([]*Descriptor, error) {
	for i, f := range l.filters {
		in := len(tests)
		out, err := f.Apply(tests, values)
		if err != nil {
			return nil, errors.WithMessagef(err, "error applying filter %s", f.Kind())
		}
		log.WithFields(log.Fields{"filter": f.Kind(), "in": in, "out": len(out)}).Debug("applied filter")
		if observe != nil {
			observe(i, f, out)
		}
		tests = out
	}
	return tests, nil
}
