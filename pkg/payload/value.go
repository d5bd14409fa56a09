// Package payload implements the tagged-union payload value model, the
// per-point payload record with its comparison operators, and the
// inverted index used to seed and gate filtered search.
package payload

import "fmt"

// Kind identifies the concrete type carried by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindStr
	KindBool
	KindListInt
	KindListFloat
	KindListStr
	KindListBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	case KindListInt:
		return "list<int>"
	case KindListFloat:
		return "list<float>"
	case KindListStr:
		return "list<str>"
	case KindListBool:
		return "list<bool>"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged union over the scalar and list payload types: Int,
// Float, Str, Bool and their four list counterparts. Only one of the
// fields is meaningful, selected by Kind.
type Value struct {
	kind Kind

	i   int64
	f   float64
	s   string
	b   bool

	listInt   []int64
	listFloat []float64
	listStr   []string
	listBool  []bool
}

func Int(v int64) Value     { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func Str(v string) Value    { return Value{kind: KindStr, s: v} }
func Bool(v bool) Value     { return Value{kind: KindBool, b: v} }

func ListInt(v []int64) Value     { return Value{kind: KindListInt, listInt: v} }
func ListFloat(v []float64) Value { return Value{kind: KindListFloat, listFloat: v} }
func ListStr(v []string) Value    { return Value{kind: KindListStr, listStr: v} }
func ListBool(v []bool) Value     { return Value{kind: KindListBool, listBool: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsScalar() bool {
	switch v.kind {
	case KindInt, KindFloat, KindStr, KindBool:
		return true
	default:
		return false
	}
}

func (v Value) IsList() bool { return !v.IsScalar() }

// AsInt returns the underlying int64 and whether v was a KindInt.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the underlying float64 and whether v was a KindFloat.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsStr returns the underlying string and whether v was a KindStr.
func (v Value) AsStr() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.s, true
}

// AsBool returns the underlying bool and whether v was a KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsListInt() ([]int64, bool) {
	if v.kind != KindListInt {
		return nil, false
	}
	return v.listInt, true
}

func (v Value) AsListFloat() ([]float64, bool) {
	if v.kind != KindListFloat {
		return nil, false
	}
	return v.listFloat, true
}

func (v Value) AsListStr() ([]string, bool) {
	if v.kind != KindListStr {
		return nil, false
	}
	return v.listStr, true
}

func (v Value) AsListBool() ([]bool, bool) {
	if v.kind != KindListBool {
		return nil, false
	}
	return v.listBool, true
}

// Equal reports whether two values have the same kind and content. Used
// by Record.Matches (the Match filter node) and by EvaluateListEquals.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindStr:
		return v.s == other.s
	case KindBool:
		return v.b == other.b
	case KindListInt:
		return equalSlice(v.listInt, other.listInt)
	case KindListFloat:
		return equalSlice(v.listFloat, other.listFloat)
	case KindListStr:
		return equalSlice(v.listStr, other.listStr)
	case KindListBool:
		return equalSlice(v.listBool, other.listBool)
	default:
		return false
	}
}

func equalSlice[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mapKey returns a hashable representation suitable for use as a Go map
// key, used by the inverted index to bucket point ids by (field, value).
// Lists are not indexable and never reach this function.
func (v Value) mapKey() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindStr:
		return v.s
	case KindBool:
		return v.b
	default:
		panic(fmt.Sprintf("payload: value of kind %s has no map key", v.kind))
	}
}

// ScalarOp is a comparison operator over two scalar payload values.
type ScalarOp int

const (
	Eq ScalarOp = iota
	Neq
	Lt
	Lte
	Gt
	Gte
)

func (op ScalarOp) String() string {
	switch op {
	case Eq:
		return "eq"
	case Neq:
		return "neq"
	case Lt:
		return "lt"
	case Lte:
		return "lte"
	case Gt:
		return "gt"
	case Gte:
		return "gte"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// CompareScalar compares v against other using op. It returns
// (result, true) when the comparison is defined, and (false, false) when
// it is not: a kind mismatch, or an ordering operator (Lt/Lte/Gt/Gte)
// applied to Bool, which only supports Eq/Neq.
func (v Value) CompareScalar(op ScalarOp, other Value) (bool, bool) {
	if v.kind != other.kind {
		return false, false
	}

	switch v.kind {
	case KindInt:
		return compareOrdered(op, v.i, other.i)
	case KindFloat:
		return compareOrdered(op, v.f, other.f)
	case KindStr:
		return compareOrdered(op, v.s, other.s)
	case KindBool:
		switch op {
		case Eq:
			return v.b == other.b, true
		case Neq:
			return v.b != other.b, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

type ordered interface {
	~int64 | ~float64 | ~string
}

func compareOrdered[T ordered](op ScalarOp, a, b T) (bool, bool) {
	switch op {
	case Eq:
		return a == b, true
	case Neq:
		return a != b, true
	case Lt:
		return a < b, true
	case Lte:
		return a <= b, true
	case Gt:
		return a > b, true
	case Gte:
		return a >= b, true
	default:
		return false, false
	}
}

// ListOp identifies a query operation over a list-typed payload value.
type ListOp int

const (
	// Contains reports whether the element equal to the query scalar
	// appears anywhere in the list.
	Contains ListOp = iota
	// Equals reports whether the whole list equals the query list.
	Equals
	// Length compares len(list) against an int64 query scalar using a
	// ScalarOp supplied alongside it.
	Length
	// ElementCompare compares the element at a given index against a
	// query scalar using a ScalarOp.
	ElementCompare
)

// EvaluateListContains reports whether scalar appears in v's list. v must
// be a list kind matching scalar's element type; returns (false, false)
// on any kind mismatch.
func (v Value) EvaluateListContains(scalar Value) (bool, bool) {
	switch v.kind {
	case KindListInt:
		n, ok := scalar.AsInt()
		if !ok {
			return false, false
		}
		for _, x := range v.listInt {
			if x == n {
				return true, true
			}
		}
		return false, true
	case KindListFloat:
		n, ok := scalar.AsFloat()
		if !ok {
			return false, false
		}
		for _, x := range v.listFloat {
			if x == n {
				return true, true
			}
		}
		return false, true
	case KindListStr:
		n, ok := scalar.AsStr()
		if !ok {
			return false, false
		}
		for _, x := range v.listStr {
			if x == n {
				return true, true
			}
		}
		return false, true
	case KindListBool:
		n, ok := scalar.AsBool()
		if !ok {
			return false, false
		}
		for _, x := range v.listBool {
			if x == n {
				return true, true
			}
		}
		return false, true
	default:
		return false, false
	}
}

// EvaluateListEquals reports whether v's list equals other's list. Both
// must be the same list kind.
func (v Value) EvaluateListEquals(other Value) (bool, bool) {
	if v.kind != other.kind || v.IsScalar() {
		return false, false
	}
	return v.Equal(other), true
}

// EvaluateListLength compares the list length against n using op.
func (v Value) EvaluateListLength(op ScalarOp, n int64) (bool, bool) {
	length, ok := v.listLen()
	if !ok {
		return false, false
	}
	return compareOrdered(op, int64(length), n)
}

func (v Value) listLen() (int, bool) {
	switch v.kind {
	case KindListInt:
		return len(v.listInt), true
	case KindListFloat:
		return len(v.listFloat), true
	case KindListStr:
		return len(v.listStr), true
	case KindListBool:
		return len(v.listBool), true
	default:
		return 0, false
	}
}

// EvaluateListElement compares the element at index against scalar using
// op. An out-of-bounds index is undefined, matching the out-of-bounds
// element access semantics used throughout the original reference.
func (v Value) EvaluateListElement(index int, op ScalarOp, scalar Value) (bool, bool) {
	switch v.kind {
	case KindListInt:
		if index < 0 || index >= len(v.listInt) {
			return false, false
		}
		n, ok := scalar.AsInt()
		if !ok {
			return false, false
		}
		return compareOrdered(op, v.listInt[index], n)
	case KindListFloat:
		if index < 0 || index >= len(v.listFloat) {
			return false, false
		}
		n, ok := scalar.AsFloat()
		if !ok {
			return false, false
		}
		return compareOrdered(op, v.listFloat[index], n)
	case KindListStr:
		if index < 0 || index >= len(v.listStr) {
			return false, false
		}
		n, ok := scalar.AsStr()
		if !ok {
			return false, false
		}
		return compareOrdered(op, v.listStr[index], n)
	case KindListBool:
		if index < 0 || index >= len(v.listBool) {
			return false, false
		}
		n, ok := scalar.AsBool()
		if !ok {
			return false, false
		}
		if op != Eq && op != Neq {
			return false, false
		}
		eq := v.listBool[index] == n
		if op == Neq {
			eq = !eq
		}
		return eq, true
	default:
		return false, false
	}
}
