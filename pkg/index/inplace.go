package index

import (
	"sort"

	"github.com/liliang-cn/vecseg/pkg/filter"
	"github.com/liliang-cn/vecseg/pkg/payload"
)

// RecordLookup resolves a point id to the payload record attached to it,
// and whether one exists. Segment supplies this; the index package has
// no notion of payload storage of its own.
type RecordLookup func(id PointID) (payload.Record, bool)

// SearchFiltered runs an in-place filtered top-K search: query is
// compared only against points whose payload record satisfies f. Seed
// resolution first tries the current entry point (if it satisfies f),
// then walks f looking for a cheap exact seed via index, falling back to
// the (possibly filter-failing) entry point, and finally to no results
// if the graph is empty.
func (h *HNSW) SearchFiltered(query []float32, topK int, f filter.Filter, records RecordLookup, index *payload.Index) ([]Neighbor, error) {
	if h.entryPoint == nil {
		return nil, nil
	}

	matches := func(id PointID) (bool, error) {
		rec, ok := records(id)
		if !ok {
			return false, nil
		}
		return filter.Evaluate(f, rec)
	}

	seed, err := h.resolveSeed(*h.entryPoint, f, matches, index)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, nil
	}
	entry := *seed

	skip := func(id PointID) bool {
		ok, evalErr := matches(id)
		if evalErr != nil {
			return true
		}
		return !ok
	}

	for l := h.currentMaxLevel; l > 0; l-- {
		entry = h.greedySearchLayerFiltered(query, entry, l, skip)
	}

	results := h.searchLayer(query, entry, h.ef, 0, skip)
	sort.Slice(results, func(i, j int) bool { return results[i].sortKey < results[j].sortKey })
	if len(results) > topK {
		results = results[:topK]
	}

	out := make([]Neighbor, len(results))
	for i, r := range results {
		out[i] = Neighbor{ID: r.id, Score: rawScoreFor(h.metric, r)}
	}
	return out, nil
}

// greedySearchLayerFiltered mirrors greedySearchLayer but never steps
// into a node that fails skip.
func (h *HNSW) greedySearchLayerFiltered(query []float32, entry PointID, level int, skip func(PointID) bool) PointID {
	best := entry
	bestKey := h.sortKeyTo(query, entry)
	steps := 0

	for steps < greedyStepCap {
		steps++
		improved := false
		for _, n := range h.layers[level][best] {
			if h.IsDeleted(n) || skip(n) {
				continue
			}
			key := h.sortKeyTo(query, n)
			if key < bestKey {
				bestKey = key
				best = n
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return best
}

// resolveSeed finds a starting point for filtered search. It tries, in
// order: the current entry point (if live and filter-matching), an
// exact seed derived from f via the payload index, and finally the
// entry point again regardless of whether it matches (greedy descent
// from a non-matching seed can still reach matching points; only the
// level-0 beam enforces the filter). Returns nil if there is no entry
// point at all.
func (h *HNSW) resolveSeed(entryPoint PointID, f filter.Filter, matches func(PointID) (bool, error), index *payload.Index) (*PointID, error) {
	if !h.IsDeleted(entryPoint) {
		// A Compare error here means only that the entry point itself
		// doesn't resolve under the filter - fall through to the other
		// seeding strategies rather than failing the whole search.
		if ok, err := matches(entryPoint); err == nil && ok {
			e := entryPoint
			return &e, nil
		}
	}

	if seed := h.findEntryPointMatchingFilter(f, index); seed != nil {
		return seed, nil
	}

	if !h.IsDeleted(entryPoint) {
		e := entryPoint
		return &e, nil
	}
	if alt, ok := h.firstLiveID(); ok {
		return &alt, nil
	}
	return nil, nil
}

// findEntryPointMatchingFilter walks f structurally looking for a cheap
// exact seed: Match resolves directly via the inverted index (first
// live id with a stored vector); And/Or try each child in order and
// return the first hit; Not recurses into its inner filter; Compare has
// no index-backed resolution and returns no seed.
func (h *HNSW) findEntryPointMatchingFilter(f filter.Filter, index *payload.Index) *PointID {
	switch f.Kind() {
	case filter.KindMatch:
		bm, ok := index.QueryExact(f.Key(), f.Value())
		if !ok {
			return nil
		}
		it := bm.Iterator()
		for it.HasNext() {
			id := it.Next()
			if h.IsDeleted(id) {
				continue
			}
			if _, has := h.vectors[id]; has {
				return &id
			}
		}
		return nil

	case filter.KindAnd, filter.KindOr:
		for _, child := range f.Children() {
			if seed := h.findEntryPointMatchingFilter(child, index); seed != nil {
				return seed
			}
		}
		return nil

	case filter.KindNot:
		return h.findEntryPointMatchingFilter(*f.Inner(), index)

	case filter.KindCompare:
		return nil

	default:
		return nil
	}
}
