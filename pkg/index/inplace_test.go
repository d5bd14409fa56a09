package index

import (
	"testing"

	"github.com/liliang-cn/vecseg/pkg/filter"
	"github.com/liliang-cn/vecseg/pkg/metric"
	"github.com/liliang-cn/vecseg/pkg/payload"
)

func TestSearchFilteredOnlyReturnsMatching(t *testing.T) {
	h := NewHNSW(metric.Euclidean, 8, 50, 16, 2)
	idx := payload.NewIndex()
	records := map[uint64]payload.Record{}

	insert := func(id uint64, v []float32, city string) {
		h.Insert(id, v)
		rec := payload.Record{"city": payload.Str(city)}
		records[id] = rec
		idx.Insert(id, rec)
	}

	insert(1, vec(0, 0), "nyc")
	insert(2, vec(0.1, 0.1), "nyc")
	insert(3, vec(0.2, 0.2), "sf")
	insert(4, vec(0.3, 0.3), "sf")

	lookup := func(id PointID) (payload.Record, bool) {
		r, ok := records[id]
		return r, ok
	}

	f := filter.Match("city", payload.Str("sf"))
	results, err := h.SearchFiltered(vec(0, 0), 10, f, lookup, idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matching results, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if records[r.ID].Matches("city", payload.Str("sf")) == false {
			t.Fatalf("expected only sf points, got %d", r.ID)
		}
	}
}

func TestSearchFilteredNoMatchesReturnsEmpty(t *testing.T) {
	h := NewHNSW(metric.Euclidean, 8, 50, 16, 2)
	idx := payload.NewIndex()
	records := map[uint64]payload.Record{}

	h.Insert(1, vec(0, 0))
	records[1] = payload.Record{"city": payload.Str("nyc")}
	idx.Insert(1, records[1])

	lookup := func(id PointID) (payload.Record, bool) {
		r, ok := records[id]
		return r, ok
	}

	f := filter.Match("city", payload.Str("tokyo"))
	results, err := h.SearchFiltered(vec(0, 0), 10, f, lookup, idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestSearchFilteredEmptyIndex(t *testing.T) {
	h := NewHNSW(metric.Euclidean, 8, 50, 16, 2)
	idx := payload.NewIndex()
	lookup := func(id PointID) (payload.Record, bool) { return nil, false }

	f := filter.Match("city", payload.Str("nyc"))
	results, err := h.SearchFiltered(vec(0, 0), 10, f, lookup, idx)
	if err != nil || results != nil {
		t.Fatalf("expected nil, nil for empty index, got %v, %v", results, err)
	}
}

func TestSearchFilteredCompareErrorIsNotFatal(t *testing.T) {
	h := NewHNSW(metric.Euclidean, 8, 50, 16, 2)
	idx := payload.NewIndex()
	records := map[uint64]payload.Record{
		1: {}, // no "age" field
	}
	h.Insert(1, vec(0, 0))

	lookup := func(id PointID) (payload.Record, bool) {
		r, ok := records[id]
		return r, ok
	}

	// The entry point itself fails the filter with a Compare error;
	// resolveSeed must not propagate that as fatal (skip handles it
	// later per-node), but if the *only* point errors, the beam search
	// just has no results.
	f := filter.Compare("age", payload.Gt, payload.Int(10))
	results, err := h.SearchFiltered(vec(0, 0), 10, f, lookup, idx)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results when the only point errors on Compare, got %+v", results)
	}
}
