package expression

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// DefaultCacheSize is the number of parsed expressions an Evaluator created by New keeps.
const DefaultCacheSize = 1024

// Evaluator evaluates condition expressions against a values mapping.
// Parsed expressions are cached, so an Evaluator should be shared between filters.
// It is safe for concurrent use.
type Evaluator struct {
	// If true, referencing an identifier missing from the values is an error.
	Strict bool
	cache  *lru.Cache
}

// New returns a non-strict Evaluator caching DefaultCacheSize parsed expressions.
func New() *Evaluator {
	ev, err := NewWithCacheSize(DefaultCacheSize)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return ev
}

// NewWithCacheSize returns a non-strict Evaluator caching up to size parsed expressions.
func NewWithCacheSize(size int) (*Evaluator, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Evaluator{cache: cache}, nil
}

// Evaluate parses expr (or fetches it from the cache) and evaluates it against values.
// A syntax error is returned as a *ParseError rather than as a false result.
func (ev *Evaluator) Evaluate(expr string, values map[string]interface{}) (bool, error) {
	n, err := ev.parse(expr)
	if err != nil {
		return false, err
	}
	v, err := n.eval(&evalContext{expr: expr, values: values, strict: ev.Strict})
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

func (ev *Evaluator) parse(expr string) (Node, error) {
	if ev.cache == nil {
		return Parse(expr)
	}
	if n, ok := ev.cache.Get(expr); ok {
		return n.(Node), nil
	}
	n, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	ev.cache.Add(expr, n)
	return n, nil
}

// Cached returns the number of parsed expressions currently cached.
func (ev *Evaluator) Cached() int {
	if ev.cache == nil {
		return 0
	}
	return ev.cache.Len()
}

// Evaluate evaluates expr against values without caching, in non-strict mode.
func Evaluate(expr string, values map[string]interface{}) (bool, error) {
	return (&Evaluator{}).Evaluate(expr, values)
}
