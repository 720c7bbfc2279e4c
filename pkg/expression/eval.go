package expression

import (
	"reflect"
	"strings"
)

type evalContext struct {
	expr   string
	values map[string]interface{}
	strict bool
}

func (n *literal) eval(_ *evalContext) (interface{}, error) {
	return n.value, nil
}

func (n *identifier) eval(ctx *evalContext) (interface{}, error) {
	v, ok := ctx.values[n.name]
	if !ok && ctx.strict {
		return nil, &UndefinedError{Expr: ctx.expr, Name: n.name}
	}
	return v, nil
}

func (n *not) eval(ctx *evalContext) (interface{}, error) {
	v, err := n.operand.eval(ctx)
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}

func (n *binary) eval(ctx *evalContext) (interface{}, error) {
	left, err := n.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "&&":
		if !Truthy(left) {
			return false, nil
		}
		right, err := n.right.eval(ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case "||":
		if Truthy(left) {
			return true, nil
		}
		right, err := n.right.eval(ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	right, err := n.right.eval(ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "==":
		return equal(left, right), nil
	case "!=":
		return !equal(left, right), nil
	}
	c, ok := compare(left, right)
	if !ok {
		return false, nil
	}
	switch n.op {
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	default:
		return c >= 0, nil
	}
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toNumber(v); ok {
		return f != 0
	}
	return true
}

func toNumber(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toNumber(a); ok {
		fb, ok := toNumber(b)
		return ok && fa == fb
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

// compare returns the ordering of a and b, and false if they are not ordered with respect to each other.
func compare(a, b interface{}) (int, bool) {
	if fa, ok := toNumber(a); ok {
		fb, ok := toNumber(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}
