package index

import (
	"testing"

	"github.com/liliang-cn/vecseg/pkg/metric"
	"github.com/liliang-cn/vecseg/pkg/payload"
)

func lookupFor(records map[uint64]payload.Record) RecordLookup {
	return func(id uint64) (payload.Record, bool) {
		rec, ok := records[id]
		return rec, ok
	}
}

func TestBuildFilterAwareEdgesFastPath(t *testing.T) {
	h := NewHNSW(metric.Euclidean, 4, 10, 16, 2)
	idx := payload.NewIndex()

	records := map[uint64]payload.Record{
		1: {"city": payload.Str("nyc")},
		2: {"city": payload.Str("nyc")},
		3: {"city": payload.Str("sf")},
	}
	for id, rec := range records {
		h.Insert(id, vec(float32(id), 0))
		idx.Insert(id, rec)
	}

	h.BuildFilterAwareEdges(1, records[1], idx, lookupFor(records), 4)

	found := false
	for _, n := range h.NeighborsAt(0, 1) {
		if n == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected point 1 to gain an edge to point 2 (same city), got neighbors %v", h.NeighborsAt(0, 1))
	}
}

// TestBuildFilterAwareEdgesFallbackFullScan exercises the full-scan
// fallback when no exact index hit exists, and asserts that every edge
// it adds actually shares the triggering field's value - the fallback's
// candidates are nearest-by-distance only and must be checked against
// the payload before being accepted.
func TestBuildFilterAwareEdgesFallbackFullScan(t *testing.T) {
	h := NewHNSW(metric.Euclidean, 4, 10, 16, 2)
	idx := payload.NewIndex()

	records := map[uint64]payload.Record{
		1: {"city": payload.Str("nyc")},
		2: {"city": payload.Str("sf")},
		3: {"city": payload.Str("nyc")},
	}
	// Only point 1 is indexed under "nyc" at insert time, so the fast
	// path (QueryExact) finds no other candidate and the full-scan
	// fallback has to do the work; point 2 is nearer to point 1 in
	// vector space than point 3 but does not share its city.
	h.Insert(1, vec(0, 0))
	idx.Insert(1, records[1])
	h.Insert(2, vec(0.5, 0.5))
	idx.Insert(2, records[2])
	h.Insert(3, vec(10, 10))

	before := make(map[uint64]bool)
	for _, n := range h.NeighborsAt(0, 1) {
		before[n] = true
	}

	h.BuildFilterAwareEdges(1, records[1], idx, lookupFor(records), 4)

	// Ordinary HNSW insertion already linked point 1 to point 2 at level
	// 0; only the edges added by BuildFilterAwareEdges must match.
	neighbors := h.NeighborsAt(0, 1)
	sawNYC := false
	for _, n := range neighbors {
		rec := records[n]
		if !before[n] && !rec.Matches("city", payload.Str("nyc")) {
			t.Fatalf("expected every filter-aware edge to match city=nyc, got neighbor %d with %v", n, rec)
		}
		if n == 3 {
			sawNYC = true
		}
	}
	if !sawNYC {
		t.Fatalf("expected the fallback to find point 3 despite point 2 being closer, got neighbors %v", neighbors)
	}
}

func TestBuildFilterAwareEdgesCapsAtM(t *testing.T) {
	h := NewHNSW(metric.Euclidean, 16, 50, 16, 2)
	idx := payload.NewIndex()

	rec := payload.Record{"group": payload.Str("g")}
	records := make(map[uint64]payload.Record)
	for id := uint64(1); id <= 20; id++ {
		h.Insert(id, vec(float32(id), 0))
		idx.Insert(id, rec)
		records[id] = rec
	}

	before := len(h.NeighborsAt(0, 1))
	h.BuildFilterAwareEdges(1, rec, idx, lookupFor(records), 3)
	after := len(h.NeighborsAt(0, 1))
	if after-before > 3 {
		t.Fatalf("expected at most 3 additional edges from filter-aware building, went from %d to %d", before, after)
	}
}
