package payload

import (
	"fmt"

	"github.com/liliang-cn/vecseg"
)

// Record is the payload attached to a single point: an arbitrary set of
// named fields, each holding one tagged Value.
type Record map[string]Value

// CompareField evaluates a scalar comparison of record[field] against
// value using op. A missing field, or a field whose stored kind differs
// from value's kind (or an ordering op applied to a Bool field), returns
// a wrapped ErrInvalidPayload — this is the asymmetric half of filter
// evaluation: unlike Match, Compare treats an undefined comparison as an
// error, not as "no match".
func (r Record) CompareField(field string, op ScalarOp, value Value) (bool, error) {
	stored, ok := r[field]
	if !ok {
		return false, fmt.Errorf("%w: field %q not present", vecseg.ErrInvalidPayload, field)
	}
	result, defined := stored.CompareScalar(op, value)
	if !defined {
		return false, fmt.Errorf("%w: field %q: cannot compare %s %s %s", vecseg.ErrInvalidPayload, field, stored.Kind(), op, value.Kind())
	}
	return result, nil
}

// Matches reports whether record[field] equals value, per the Match
// filter node's semantics: a missing field is simply "no match", never
// an error.
func (r Record) Matches(field string, value Value) bool {
	stored, ok := r[field]
	if !ok {
		return false
	}
	return stored.Equal(value)
}

// EvaluateListContains evaluates the Contains list query op for field
// against scalar.
func (r Record) EvaluateListContains(field string, scalar Value) (bool, error) {
	stored, ok := r[field]
	if !ok {
		return false, fmt.Errorf("%w: field %q not present", vecseg.ErrInvalidPayload, field)
	}
	result, defined := stored.EvaluateListContains(scalar)
	if !defined {
		return false, fmt.Errorf("%w: field %q: cannot evaluate list-contains against %s", vecseg.ErrInvalidPayload, field, scalar.Kind())
	}
	return result, nil
}

// EvaluateListEquals evaluates the Equals list query op for field
// against other.
func (r Record) EvaluateListEquals(field string, other Value) (bool, error) {
	stored, ok := r[field]
	if !ok {
		return false, fmt.Errorf("%w: field %q not present", vecseg.ErrInvalidPayload, field)
	}
	result, defined := stored.EvaluateListEquals(other)
	if !defined {
		return false, fmt.Errorf("%w: field %q: cannot compare list equality with %s", vecseg.ErrInvalidPayload, field, other.Kind())
	}
	return result, nil
}

// EvaluateListLength evaluates the Length list query op for field.
func (r Record) EvaluateListLength(field string, op ScalarOp, n int64) (bool, error) {
	stored, ok := r[field]
	if !ok {
		return false, fmt.Errorf("%w: field %q not present", vecseg.ErrInvalidPayload, field)
	}
	result, defined := stored.EvaluateListLength(op, n)
	if !defined {
		return false, fmt.Errorf("%w: field %q: not a list", vecseg.ErrInvalidPayload, field)
	}
	return result, nil
}

// EvaluateListElement evaluates the ElementCompare list query op for
// field at index.
func (r Record) EvaluateListElement(field string, index int, op ScalarOp, scalar Value) (bool, error) {
	stored, ok := r[field]
	if !ok {
		return false, fmt.Errorf("%w: field %q not present", vecseg.ErrInvalidPayload, field)
	}
	result, defined := stored.EvaluateListElement(index, op, scalar)
	if !defined {
		return false, fmt.Errorf("%w: field %q: index %d out of range or type mismatch", vecseg.ErrInvalidPayload, field, index)
	}
	return result, nil
}

// IsIndexable reports whether v is a scalar value type eligible for the
// inverted payload index: only scalars are indexed, lists never are.
func IsIndexable(v Value) bool {
	return v.IsScalar()
}
