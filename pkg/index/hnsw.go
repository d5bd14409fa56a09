// Package index implements the filter-aware HNSW (Hierarchical
// Navigable Small World) graph index: graph construction and
// unfiltered search (this file), the filter-aware edge builder
// (edges.go), and in-place filtered search (inplace.go).
package index

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"

	"github.com/liliang-cn/vecseg/pkg/metric"
)

// PointID identifies a point within a single HNSW index. Ids are
// assigned by the owning segment, not by the index itself.
type PointID = uint64

// scored pairs a point id with the sort-key score it was found at
// (smaller is always better, regardless of metric - see metric.SortKey).
type scored struct {
	id      PointID
	sortKey float32
}

// Neighbor is one result of a search: the point id and its raw distance
// score under the index's metric (NOT the internal sort key - callers
// never see the sign flip applied for Dot).
type Neighbor struct {
	ID    PointID
	Score float32
}

// candidateHeap is a min-heap ordered by sort key, used as the
// candidate frontier during beam search: the next node to expand is
// always the closest unexpanded candidate.
type candidateHeap []scored

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].sortKey < h[j].sortKey }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)         { *h = append(*h, x.(scored)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// resultHeap is a max-heap ordered by sort key, used to hold the current
// best `ef` results so the worst of them can be evicted in O(log ef)
// when a better candidate is found.
type resultHeap []scored

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].sortKey > h[j].sortKey }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)         { *h = append(*h, x.(scored)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// greedyStepCap bounds the number of nodes visited during greedy
// descent through the upper layers, guarding against pathological
// non-termination on a corrupted graph.
const greedyStepCap = 1000

// HNSW is a single-segment, in-memory HNSW graph index. It is not safe
// for concurrent mutation: callers needing concurrent access must
// serialize it themselves (see the package-level design note in the
// root doc.go).
type HNSW struct {
	metric      metric.Kind
	m           int // max bidirectional links per node above layer 0
	ef          int // dynamic candidate list size used at construction and search
	maxLevelCap int // hard cap on assigned levels
	dim         int
	levelScale  float64 // 1 / ln(m)

	vectors map[PointID][]float32
	levels  map[PointID]int
	// layers[l][id] = neighbor ids of id at level l.
	layers []map[PointID][]PointID

	entryPoint      *PointID
	currentMaxLevel int

	deleted map[PointID]struct{}

	rng *rand.Rand
}

// NewHNSW returns an empty HNSW index. m bounds the number of bidirectional
// links kept per node above layer 0 (layer 0 keeps up to 2*m); ef is the
// dynamic candidate list size used both at construction and at search
// time; maxLevelCap bounds how high a node's randomly assigned level can
// climb; dim is the fixed vector dimensionality every inserted vector
// must match.
func NewHNSW(kind metric.Kind, m, ef, maxLevelCap, dim int) *HNSW {
	return &HNSW{
		metric:      kind,
		m:           m,
		ef:          ef,
		maxLevelCap: maxLevelCap,
		dim:         dim,
		levelScale:  1.0 / math.Log(float64(m)),
		vectors:     make(map[PointID][]float32),
		levels:      make(map[PointID]int),
		layers:      []map[PointID][]PointID{make(map[PointID][]PointID)},
		deleted:     make(map[PointID]struct{}),
		rng:         rand.New(rand.NewSource(1)),
	}
}

func (h *HNSW) Metric() metric.Kind { return h.metric }
func (h *HNSW) M() int              { return h.m }
func (h *HNSW) Ef() int             { return h.ef }
func (h *HNSW) MaxLevelCap() int    { return h.maxLevelCap }
func (h *HNSW) Dim() int            { return h.dim }
func (h *HNSW) Len() int            { return len(h.vectors) }

// Contains reports whether id exists in the index (deleted or not).
func (h *HNSW) Contains(id PointID) bool {
	_, ok := h.vectors[id]
	return ok
}

// IsDeleted reports whether id has been tombstoned.
func (h *HNSW) IsDeleted(id PointID) bool {
	_, ok := h.deleted[id]
	return ok
}

// Vector returns the stored (possibly normalized) vector for id, or nil
// if id does not exist or has been deleted.
func (h *HNSW) Vector(id PointID) ([]float32, bool) {
	if h.IsDeleted(id) {
		return nil, false
	}
	v, ok := h.vectors[id]
	return v, ok
}

// EntryPoint returns the current entry point id, if any.
func (h *HNSW) EntryPoint() (PointID, bool) {
	if h.entryPoint == nil {
		return 0, false
	}
	return *h.entryPoint, true
}

func (h *HNSW) SetEntryPoint(id PointID) {
	v := id
	h.entryPoint = &v
}

func (h *HNSW) CurrentMaxLevel() int { return h.currentMaxLevel }

// NeighborsAt returns the neighbor ids of id at level, or nil if id has
// no neighbors recorded at that level.
func (h *HNSW) NeighborsAt(level int, id PointID) []PointID {
	if level >= len(h.layers) {
		return nil
	}
	return h.layers[level][id]
}

// Each calls fn for every non-deleted point id and its stored vector.
func (h *HNSW) Each(fn func(id PointID, vec []float32)) {
	for id, v := range h.vectors {
		if h.IsDeleted(id) {
			continue
		}
		fn(id, v)
	}
}

func (h *HNSW) assignRandomLevel() int {
	r := h.rng.Float64()
	if r <= 0 {
		r = 1e-12
	}
	l := int(math.Floor(-math.Log(r) * h.levelScale))
	if l > h.maxLevelCap {
		l = h.maxLevelCap
	}
	return l
}

func (h *HNSW) ensureLayer(level int) {
	for len(h.layers) <= level {
		h.layers = append(h.layers, make(map[PointID][]PointID))
	}
}

// Insert adds id with vector vec to the graph. vec must already be
// dimension-validated, finite, and metric-normalized by the caller (see
// metric.MaybeNormalize) - the index performs no validation of its own.
// Re-inserting an id that already exists is a no-op.
func (h *HNSW) Insert(id PointID, vec []float32) {
	if h.Contains(id) {
		return
	}

	level := h.assignRandomLevel()
	h.ensureLayer(level)
	h.vectors[id] = vec
	h.levels[id] = level
	for l := 0; l <= level; l++ {
		h.layers[l][id] = nil
	}

	if h.entryPoint == nil {
		h.SetEntryPoint(id)
		h.currentMaxLevel = level
		return
	}

	current := *h.entryPoint
	if h.IsDeleted(current) {
		if alt, ok := h.firstLiveID(); ok {
			current = alt
		}
	}

	for l := h.currentMaxLevel; l > level; l-- {
		current = h.greedySearchLayer(vec, current, l)
	}

	for l := level; l >= 0; l-- {
		candidates := h.searchLayer(vec, current, h.ef, l, nil)
		neighbors := selectNeighbors(candidates, h.m)
		for _, n := range neighbors {
			h.addBidirectionalEdge(l, id, n.id)
		}
		if len(neighbors) > 0 {
			current = neighbors[0].id
		}
	}

	if level > h.currentMaxLevel {
		h.currentMaxLevel = level
		h.SetEntryPoint(id)
	}
}

func (h *HNSW) firstLiveID() (PointID, bool) {
	for id := range h.vectors {
		if !h.IsDeleted(id) {
			return id, true
		}
	}
	return 0, false
}

// addBidirectionalEdge links a and b at level in both directions,
// pruning a's (and b's) neighbor list back down to the level's link cap
// when it grows past it.
func (h *HNSW) addBidirectionalEdge(level int, a, b PointID) {
	cap := h.m
	if level == 0 {
		cap = h.m * 2
	}
	h.layers[level][a] = h.addAndPrune(level, a, b, cap)
	h.layers[level][b] = h.addAndPrune(level, b, a, cap)
}

func (h *HNSW) addAndPrune(level int, id, newNeighbor PointID, capSize int) []PointID {
	neighbors := h.layers[level][id]
	for _, n := range neighbors {
		if n == newNeighbor {
			return neighbors
		}
	}
	neighbors = append(neighbors, newNeighbor)
	if len(neighbors) <= capSize {
		return neighbors
	}

	base := h.vectors[id]
	cands := make([]scored, 0, len(neighbors))
	for _, n := range neighbors {
		nv, ok := h.vectors[n]
		if !ok {
			continue
		}
		raw := metric.Distance(h.metric, base, nv)
		cands = append(cands, scored{id: n, sortKey: metric.SortKey(h.metric, raw)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].sortKey < cands[j].sortKey })
	if len(cands) > capSize {
		cands = cands[:capSize]
	}
	out := make([]PointID, len(cands))
	for i, c := range cands {
		out[i] = c.id
	}
	return out
}

// greedySearchLayer descends from entry greedily towards query at level,
// returning the closest node found. Used only for the upper-layer
// descent, where only the single best node matters.
func (h *HNSW) greedySearchLayer(query []float32, entry PointID, level int) PointID {
	best := entry
	bestKey := h.sortKeyTo(query, entry)
	steps := 0

	for steps < greedyStepCap {
		steps++
		improved := false
		for _, n := range h.layers[level][best] {
			if h.IsDeleted(n) {
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

func (h *HNSW) sortKeyTo(query []float32, id PointID) float32 {
	raw := metric.Distance(h.metric, query, h.vectors[id])
	return metric.SortKey(h.metric, raw)
}

// searchLayer runs the standard two-heap beam search at level, starting
// from entry, keeping up to ef results. skip, if non-nil, excludes
// candidate ids it reports true for (used by filtered search variants);
// pass nil for the unfiltered search.
func (h *HNSW) searchLayer(query []float32, entry PointID, ef, level int, skip func(PointID) bool) []scored {
	visited := map[PointID]struct{}{entry: {}}

	cq := &candidateHeap{}
	rq := &resultHeap{}

	entrySkipped := skip != nil && skip(entry)
	entryDeleted := h.IsDeleted(entry)
	if !entryDeleted && !entrySkipped {
		key := h.sortKeyTo(query, entry)
		s := scored{id: entry, sortKey: key}
		heap.Push(cq, s)
		heap.Push(rq, s)
	} else {
		heap.Push(cq, scored{id: entry, sortKey: h.sortKeyTo(query, entry)})
	}

	for cq.Len() > 0 {
		worst := float32(math.Inf(1))
		if rq.Len() >= ef {
			worst = (*rq)[0].sortKey
		}

		c := heap.Pop(cq).(scored)
		if rq.Len() >= ef && c.sortKey > worst {
			break
		}

		for _, n := range h.layers[level][c.id] {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			if h.IsDeleted(n) || (skip != nil && skip(n)) {
				continue
			}

			key := h.sortKeyTo(query, n)
			worstNow := float32(math.Inf(1))
			if rq.Len() >= ef {
				worstNow = (*rq)[0].sortKey
			}
			if rq.Len() < ef || key < worstNow {
				s := scored{id: n, sortKey: key}
				heap.Push(cq, s)
				heap.Push(rq, s)
				if rq.Len() > ef {
					heap.Pop(rq)
				}
			}
		}
	}

	out := make([]scored, rq.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(rq).(scored)
	}
	return out
}

// selectNeighbors truncates candidates (assumed already in sort-key
// order from searchLayer) to at most m entries.
func selectNeighbors(candidates []scored, m int) []scored {
	if len(candidates) <= m {
		return candidates
	}
	return candidates[:m]
}

// Search runs an unfiltered top-K approximate nearest-neighbor search
// for query, returning up to topK neighbors best match first under the
// index's metric: increasing distance for Euclidean/Cosine, decreasing
// raw dot product for Dot.
func (h *HNSW) Search(query []float32, topK int) []Neighbor {
	if h.entryPoint == nil {
		return nil
	}

	entry := *h.entryPoint
	if h.IsDeleted(entry) {
		if alt, ok := h.firstLiveID(); ok {
			entry = alt
		} else {
			return nil
		}
	}

	for l := h.currentMaxLevel; l > 0; l-- {
		entry = h.greedySearchLayer(query, entry, l)
	}

	results := h.searchLayer(query, entry, h.ef, 0, nil)
	sort.Slice(results, func(i, j int) bool { return results[i].sortKey < results[j].sortKey })
	if len(results) > topK {
		results = results[:topK]
	}

	out := make([]Neighbor, len(results))
	for i, r := range results {
		out[i] = Neighbor{ID: r.id, Score: rawScoreFor(h.metric, r)}
	}
	return out
}

// rawScoreFor recovers the metric-native distance from a sort-keyed
// result (undoing the Dot negation), so callers always see the raw
// score regardless of metric.
func rawScoreFor(kind metric.Kind, s scored) float32 {
	if kind == metric.Dot {
		return -s.sortKey
	}
	return s.sortKey
}

// MarkDeleted tombstones id. If id was the entry point, a new entry
// point is chosen from the remaining live points (or cleared if none
// remain). Returns false if id does not exist.
func (h *HNSW) MarkDeleted(id PointID) bool {
	if !h.Contains(id) {
		return false
	}
	h.deleted[id] = struct{}{}

	if h.entryPoint != nil && *h.entryPoint == id {
		if alt, ok := h.firstLiveID(); ok {
			h.SetEntryPoint(alt)
		} else {
			h.entryPoint = nil
			h.currentMaxLevel = 0
		}
	}
	return true
}
