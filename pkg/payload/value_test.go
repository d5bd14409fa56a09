package payload

import "testing"

func TestCompareScalarInt(t *testing.T) {
	a := Int(5)
	b := Int(3)
	if ok, defined := a.CompareScalar(Gt, b); !ok || !defined {
		t.Fatalf("expected 5 > 3")
	}
	if ok, defined := a.CompareScalar(Lt, b); ok || !defined {
		t.Fatalf("expected 5 < 3 to be false")
	}
}

func TestCompareScalarKindMismatch(t *testing.T) {
	if _, defined := Int(1).CompareScalar(Eq, Str("1")); defined {
		t.Fatalf("expected kind mismatch to be undefined")
	}
}

func TestCompareScalarBoolOnlyEqNeq(t *testing.T) {
	a := Bool(true)
	b := Bool(false)
	if ok, defined := a.CompareScalar(Neq, b); !ok || !defined {
		t.Fatalf("expected true != false")
	}
	if _, defined := a.CompareScalar(Lt, b); defined {
		t.Fatalf("expected Lt on bools to be undefined")
	}
}

func TestEvaluateListContains(t *testing.T) {
	l := ListInt([]int64{1, 2, 3})
	ok, defined := l.EvaluateListContains(Int(2))
	if !defined || !ok {
		t.Fatalf("expected list to contain 2")
	}
	ok, defined = l.EvaluateListContains(Int(9))
	if !defined || ok {
		t.Fatalf("expected list to not contain 9")
	}
	if _, defined := l.EvaluateListContains(Str("2")); defined {
		t.Fatalf("expected kind mismatch to be undefined")
	}
}

func TestEvaluateListLength(t *testing.T) {
	l := ListStr([]string{"a", "b"})
	ok, defined := l.EvaluateListLength(Eq, 2)
	if !defined || !ok {
		t.Fatalf("expected length 2")
	}
}

func TestEvaluateListElementOutOfBounds(t *testing.T) {
	l := ListFloat([]float64{1.5, 2.5})
	if _, defined := l.EvaluateListElement(5, Eq, Float(1.5)); defined {
		t.Fatalf("expected out-of-bounds index to be undefined")
	}
	ok, defined := l.EvaluateListElement(0, Eq, Float(1.5))
	if !defined || !ok {
		t.Fatalf("expected element 0 == 1.5")
	}
}

func TestEqual(t *testing.T) {
	if !Int(5).Equal(Int(5)) {
		t.Fatalf("expected equal ints to be equal")
	}
	if Int(5).Equal(Float(5)) {
		t.Fatalf("expected different kinds to be unequal")
	}
	if !ListBool([]bool{true, false}).Equal(ListBool([]bool{true, false})) {
		t.Fatalf("expected equal list-bools to be equal")
	}
}
