// Package filter implements the boolean filter expression tree evaluated
// against a payload record. Seed resolution for in-place filtered search
// walks this tree but lives in pkg/index (inplace.go).
package filter

import (
	"github.com/liliang-cn/vecseg/pkg/payload"
)

// Filter is a boolean predicate tree over a payload record. Which fields
// are populated depends on Kind: key and value for Match, key, op and
// value for Compare, children for And/Or, inner for Not.
type Filter struct {
	kind Kind

	// Match / Compare
	key   string
	value payload.Value
	op    payload.ScalarOp // Compare only

	// And / Or
	children []Filter

	// Not
	inner *Filter
}

type Kind int

const (
	KindMatch Kind = iota
	KindCompare
	KindAnd
	KindOr
	KindNot
)

// Match builds a filter requiring record[key] == value. A missing key
// evaluates to false, never an error.
func Match(key string, value payload.Value) Filter {
	return Filter{kind: KindMatch, key: key, value: value}
}

// Compare builds a filter requiring record[key] op value to hold, using
// a scalar comparison operator. A missing key, or a key whose stored
// type does not support op against value's type, evaluates to an error
// (ErrInvalidPayload), not false.
func Compare(key string, op payload.ScalarOp, value payload.Value) Filter {
	return Filter{kind: KindCompare, key: key, op: op, value: value}
}

// And builds a filter requiring every child to hold; evaluation short-
// circuits on the first child that evaluates false or errors.
func And(children ...Filter) Filter {
	return Filter{kind: KindAnd, children: children}
}

// Or builds a filter requiring at least one child to hold; evaluation
// short-circuits on the first child that evaluates true.
func Or(children ...Filter) Filter {
	return Filter{kind: KindOr, children: children}
}

// Not negates inner.
func Not(inner Filter) Filter {
	return Filter{kind: KindNot, inner: &inner}
}

func (f Filter) Kind() Kind                { return f.kind }
func (f Filter) Key() string               { return f.key }
func (f Filter) Value() payload.Value      { return f.value }
func (f Filter) Op() payload.ScalarOp      { return f.op }
func (f Filter) Children() []Filter        { return f.children }
func (f Filter) Inner() *Filter            { return f.inner }

// Evaluate evaluates f against record. Match's missing-key case returns
// (false, nil); Compare's missing-key or type-mismatch case returns
// (false, err) wrapping ErrInvalidPayload. This asymmetry is load-bearing:
// Match is a best-effort membership test, Compare asserts a typed
// relationship the caller expects to hold.
func Evaluate(f Filter, record payload.Record) (bool, error) {
	switch f.kind {
	case KindMatch:
		return record.Matches(f.key, f.value), nil

	case KindCompare:
		return record.CompareField(f.key, f.op, f.value)

	case KindAnd:
		for _, child := range f.children {
			ok, err := Evaluate(child, record)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case KindOr:
		for _, child := range f.children {
			ok, err := Evaluate(child, record)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case KindNot:
		ok, err := Evaluate(*f.inner, record)
		if err != nil {
			return false, err
		}
		return !ok, nil

	default:
		return false, nil
	}
}
