package index

import (
	"sort"

	"github.com/liliang-cn/vecseg/pkg/metric"
	"github.com/liliang-cn/vecseg/pkg/payload"
)

// sampleCap bounds how many candidate ids the fast path pulls from an
// exact inverted-index hit before scoring and sorting them.
const sampleCap = 100

// BuildFilterAwareEdges adds extra level-0 edges from id to other points
// that share at least one indexed payload field value with record, so
// that strict filtered queries retain enough graph connectivity to find
// their way to matching points. It never touches any level above 0.
//
// For each of record's indexable fields it first tries the fast path:
// sampling up to sampleCap candidates directly from the inverted index
// for that (field, value) pair (already exact, since the index only
// returns ids stored under that value). If fewer than m extra neighbors
// have been collected after that path, it falls back to an unfiltered
// descent+beam search (when the graph has upper layers) or a full linear
// scan (when it doesn't), but - unlike the fast path - those candidates
// are not known to share the field's value, so they are re-checked
// against records before being accepted. Each path contributes at most
// m neighbors per field; fields stop being scanned once at least m extra
// neighbors have been collected, so the total can exceed m when one
// field's fast path and fallback both contribute.
func (h *HNSW) BuildFilterAwareEdges(id PointID, record payload.Record, index *payload.Index, records RecordLookup, m int) {
	vec, ok := h.Vector(id)
	if !ok {
		return
	}

	extra := make(map[PointID]struct{})
	for field, value := range record {
		if !payload.IsIndexable(value) {
			continue
		}

		sampled := h.sampleFromIndex(id, field, value, index)
		for _, n := range h.scoreAndTruncate(vec, sampled, m) {
			extra[n] = struct{}{}
		}
		if len(extra) >= m {
			break
		}

		matchesField := func(cand PointID) bool {
			rec, ok := records(cand)
			return ok && rec.Matches(field, value)
		}
		fallback := h.fallbackCandidates(id, vec, m)
		for _, n := range h.filterScoredAndTruncate(vec, fallback, matchesField, m) {
			extra[n] = struct{}{}
		}
		if len(extra) >= m {
			break
		}
	}

	for n := range extra {
		h.addBidirectionalEdge(0, id, n)
	}
}

// sampleFromIndex samples up to sampleCap live ids stored under
// (field, value) in index, excluding id itself.
func (h *HNSW) sampleFromIndex(id PointID, field string, value payload.Value, index *payload.Index) []PointID {
	bm, ok := index.QueryExact(field, value)
	if !ok {
		return nil
	}

	var out []PointID
	it := bm.Iterator()
	for it.HasNext() && len(out) < sampleCap {
		cand := it.Next()
		if cand == id || h.IsDeleted(cand) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// fallbackCandidates returns candidate ids when the index-sampling fast
// path yields fewer than m neighbors: a descent+beam search when the graph has upper
// layers to descend through, otherwise a full scan. These candidates
// are nearest by vector distance only - the caller is responsible for
// filtering them against the payload field/value that triggered the
// fallback before accepting any of them as an edge.
func (h *HNSW) fallbackCandidates(id PointID, vec []float32, m int) []PointID {
	if h.currentMaxLevel == 0 || h.entryPoint == nil {
		return h.fullScanCandidates(id)
	}

	entry := *h.entryPoint
	if h.IsDeleted(entry) {
		if alt, ok := h.firstLiveID(); ok {
			entry = alt
		} else {
			return h.fullScanCandidates(id)
		}
	}
	for l := h.currentMaxLevel; l > 0; l-- {
		entry = h.greedySearchLayer(vec, entry, l)
	}
	results := h.searchLayer(vec, entry, max(h.ef, m), 0, func(cand PointID) bool { return cand == id })

	out := make([]PointID, 0, len(results))
	for _, r := range results {
		out = append(out, r.id)
	}
	return out
}

func (h *HNSW) fullScanCandidates(id PointID) []PointID {
	var out []PointID
	for cand := range h.vectors {
		if cand == id || h.IsDeleted(cand) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// scoreSorted scores candidateIDs against query and returns them in
// increasing sort-key order (best match first).
func (h *HNSW) scoreSorted(query []float32, candidateIDs []PointID) []scored {
	scoredCands := make([]scored, 0, len(candidateIDs))
	for _, cid := range candidateIDs {
		cv, ok := h.vectors[cid]
		if !ok {
			continue
		}
		raw := metric.Distance(h.metric, query, cv)
		scoredCands = append(scoredCands, scored{id: cid, sortKey: metric.SortKey(h.metric, raw)})
	}
	sort.Slice(scoredCands, func(i, j int) bool { return scoredCands[i].sortKey < scoredCands[j].sortKey })
	return scoredCands
}

// scoreAndTruncate scores candidateIDs, sorts by increasing distance,
// and truncates to at most m - used for the index-sampled fast path,
// where every candidate is already known to match the triggering
// field/value exactly.
func (h *HNSW) scoreAndTruncate(query []float32, candidateIDs []PointID, m int) []PointID {
	scoredCands := h.scoreSorted(query, candidateIDs)
	if len(scoredCands) > m {
		scoredCands = scoredCands[:m]
	}
	out := make([]PointID, len(scoredCands))
	for i, c := range scoredCands {
		out[i] = c.id
	}
	return out
}

// filterScoredAndTruncate scores candidateIDs, sorts by increasing
// distance, then keeps only the first m that satisfy matches - used for
// the fallback path, whose candidates are not pre-filtered by the
// payload index and so must be checked individually.
func (h *HNSW) filterScoredAndTruncate(query []float32, candidateIDs []PointID, matches func(PointID) bool, m int) []PointID {
	scoredCands := h.scoreSorted(query, candidateIDs)
	out := make([]PointID, 0, m)
	for _, c := range scoredCands {
		if !matches(c.id) {
			continue
		}
		out = append(out, c.id)
		if len(out) >= m {
			break
		}
	}
	return out
}
