package payload

import (
	"errors"
	"testing"

	"github.com/liliang-cn/vecseg"
)

func TestCompareFieldMissing(t *testing.T) {
	r := Record{}
	_, err := r.CompareField("age", Gt, Int(10))
	if !errors.Is(err, vecseg.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for missing field, got %v", err)
	}
}

func TestCompareFieldTypeMismatch(t *testing.T) {
	r := Record{"age": Str("thirty")}
	_, err := r.CompareField("age", Gt, Int(10))
	if !errors.Is(err, vecseg.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for type mismatch, got %v", err)
	}
}

func TestCompareFieldOK(t *testing.T) {
	r := Record{"age": Int(42)}
	ok, err := r.CompareField("age", Gte, Int(42))
	if err != nil || !ok {
		t.Fatalf("expected age >= 42 to hold, got ok=%v err=%v", ok, err)
	}
}

func TestMatchesMissingFieldIsFalseNotError(t *testing.T) {
	r := Record{}
	if r.Matches("city", Str("nyc")) {
		t.Fatalf("expected Matches on missing field to be false")
	}
}

func TestMatchesAsymmetryWithCompare(t *testing.T) {
	// Match treats a missing field as "no match"; Compare treats it as
	// an error. Same record, two different outcomes.
	r := Record{}
	if r.Matches("score", Int(1)) {
		t.Fatalf("expected no match")
	}
	if _, err := r.CompareField("score", Eq, Int(1)); err == nil {
		t.Fatalf("expected compare on missing field to error")
	}
}

func TestIsIndexable(t *testing.T) {
	if !IsIndexable(Int(1)) {
		t.Fatalf("expected scalar to be indexable")
	}
	if IsIndexable(ListInt([]int64{1})) {
		t.Fatalf("expected list to not be indexable")
	}
}
