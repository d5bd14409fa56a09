// Package segment ties the HNSW index, the payload record store, the
// inverted payload index, and lazy deletion/compaction into the single
// externally-facing unit of this module: a Segment.
package segment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/liliang-cn/vecseg"
	"github.com/liliang-cn/vecseg/pkg/filter"
	"github.com/liliang-cn/vecseg/pkg/index"
	"github.com/liliang-cn/vecseg/pkg/metric"
	"github.com/liliang-cn/vecseg/pkg/payload"
	"github.com/liliang-cn/vecseg/pkg/quantization"
)

// Result is one entry of a search response: a point id, its distance
// score under the segment's metric, and its payload record (if any).
type Result struct {
	ID      uint64
	Score   float32
	Payload payload.Record
}

// Segment is a single-node, in-memory, filter-aware vector search unit.
// It owns an HNSW graph, an inverted payload index, and the payload
// records themselves, and coordinates lazy deletion with periodic
// compaction. It is not safe for concurrent mutation - see the
// package-level design note in the root doc.go.
type Segment struct {
	id     uuid.UUID
	cfg    Config
	hnsw   *index.HNSW
	pindex *payload.Index
	// payloads holds the record attached to each live point id. A point
	// with no payload simply has no entry here.
	payloads map[uint64]payload.Record

	nextID     uint64
	deletedIDs map[uint64]struct{}
	deletedN   int
	log        Logger
}

// New constructs an empty Segment from cfg. Returns a wrapped
// ErrInvalidConfig if cfg fails validation.
func New(cfg Config) (*Segment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, vecseg.WrapError("new", err)
	}
	log := cfg.Logger
	if log == nil {
		log = NopLogger()
	}

	id := uuid.New()
	log.Info("segment created", "segment_id", id, "dim", cfg.Dim, "metric", cfg.Metric.String())

	return &Segment{
		id:         id,
		cfg:        cfg,
		hnsw:       index.NewHNSW(cfg.Metric, cfg.M, cfg.Ef, cfg.MaxLevelCap, cfg.Dim),
		pindex:     payload.NewIndex(),
		payloads:   make(map[uint64]payload.Record),
		deletedIDs: make(map[uint64]struct{}),
		log:        log.With("segment_id", id),
	}, nil
}

// ID returns the segment's log-correlation identifier. It is not a
// point id and carries no meaning beyond this process's logs.
func (s *Segment) ID() uuid.UUID { return s.id }

// Len returns the number of live (non-deleted) points.
func (s *Segment) Len() int { return s.hnsw.Len() - s.deletedN }

// Insert validates vec against the segment's dimension and finiteness
// requirements, assigns the next monotonically increasing point id
// (starting at 1), inserts it into the HNSW graph, records its payload
// (if any), extends the inverted payload index, and builds filter-aware
// extra edges so the new point stays reachable under strict predicates.
// Returns the assigned id.
func (s *Segment) Insert(vec []float32, record payload.Record) (uint64, error) {
	if len(vec) != s.cfg.Dim {
		return 0, vecseg.WrapError("insert", fmt.Errorf("%w: expected %d, got %d", vecseg.ErrVectorLengthMismatch, s.cfg.Dim, len(vec)))
	}
	if !metric.Finite(vec) {
		return 0, vecseg.WrapError("insert", vecseg.ErrInvalidVector)
	}

	stored := metric.MaybeNormalize(s.cfg.Metric, vec)

	s.nextID++
	id := s.nextID
	s.hnsw.Insert(id, stored)

	if record != nil {
		s.payloads[id] = record
		s.pindex.Insert(id, record)
		s.hnsw.BuildFilterAwareEdges(id, record, s.pindex, s.payloadLookup, s.cfg.M)
		s.log.Debug("filter-aware edges built", "id", id, "fields", len(record))
	}

	s.log.Info("point inserted", "id", id, "live", s.Len())
	return id, nil
}

// Delete tombstones id. Returns ErrNotFound if id does not exist or has
// already been deleted. Triggers a compaction purge when the reference
// thresholds are met.
func (s *Segment) Delete(id uint64) error {
	if _, already := s.deletedIDs[id]; already {
		return vecseg.WrapError("delete", vecseg.ErrNotFound)
	}
	if !s.hnsw.MarkDeleted(id) {
		return vecseg.WrapError("delete", vecseg.ErrNotFound)
	}

	if rec, ok := s.payloads[id]; ok {
		s.pindex.Remove(id, rec)
		delete(s.payloads, id)
	}
	s.deletedIDs[id] = struct{}{}
	s.deletedN++

	s.log.Info("point deleted", "id", id, "deleted", s.deletedN, "live", s.Len())

	if s.shouldPurge() {
		s.Purge()
	}
	return nil
}

func (s *Segment) payloadLookup(id uint64) (payload.Record, bool) {
	rec, ok := s.payloads[id]
	return rec, ok
}

func (s *Segment) shouldPurge() bool {
	total := s.hnsw.Len()
	if total == 0 {
		return false
	}
	if s.deletedN < s.cfg.MinDeletionsBeforePurge {
		return false
	}
	ratio := float64(s.deletedN) / float64(total)
	return ratio >= s.cfg.MaxDeletionRatio
}

// Purge rebuilds the HNSW graph and the inverted payload index from
// only the currently-live points, discarding tombstones entirely. This
// is the only way to reclaim the memory held by deleted points (the
// index supports no in-place edge deletion).
func (s *Segment) Purge() {
	before := s.deletedN
	live := make(map[uint64][]float32)
	s.hnsw.Each(func(id uint64, vec []float32) { live[id] = vec })

	fresh := index.NewHNSW(s.cfg.Metric, s.cfg.M, s.cfg.Ef, s.cfg.MaxLevelCap, s.cfg.Dim)
	freshIndex := payload.NewIndex()
	freshPayloads := make(map[uint64]payload.Record, len(live))

	for id, vec := range live {
		fresh.Insert(id, vec)
		if rec, ok := s.payloads[id]; ok {
			freshPayloads[id] = rec
			freshIndex.Insert(id, rec)
		}
	}
	freshLookup := func(id uint64) (payload.Record, bool) {
		rec, ok := freshPayloads[id]
		return rec, ok
	}
	for id, rec := range freshPayloads {
		fresh.BuildFilterAwareEdges(id, rec, freshIndex, freshLookup, s.cfg.M)
	}

	s.hnsw = fresh
	s.pindex = freshIndex
	s.payloads = freshPayloads
	s.deletedIDs = make(map[uint64]struct{})
	s.deletedN = 0

	s.log.Info("segment purged", "reclaimed", before, "live", s.Len())
}

// Search runs an unfiltered top-K nearest-neighbor search.
func (s *Segment) Search(query []float32, topK int) ([]Result, error) {
	if err := s.checkSearchable(query); err != nil {
		return nil, err
	}
	q := metric.MaybeNormalize(s.cfg.Metric, query)
	neighbors := s.hnsw.Search(q, topK)
	return s.toResults(neighbors), nil
}

// SearchWithFilter runs an in-place filtered top-K nearest-neighbor
// search: only points whose payload satisfies f are considered.
func (s *Segment) SearchWithFilter(query []float32, topK int, f filter.Filter) ([]Result, error) {
	if err := s.checkSearchable(query); err != nil {
		return nil, err
	}
	q := metric.MaybeNormalize(s.cfg.Metric, query)

	lookup := func(id uint64) (payload.Record, bool) {
		rec, ok := s.payloads[id]
		return rec, ok
	}
	neighbors, err := s.hnsw.SearchFiltered(q, topK, f, lookup, s.pindex)
	if err != nil {
		return nil, vecseg.WrapError("search_with_filter", err)
	}
	return s.toResults(neighbors), nil
}

// PostFilter runs an unfiltered search oversampled by factor (typically
// 2-4x topK), then drops any result whose payload fails f, truncating
// to topK. This trades index-side precision for the ability to apply an
// arbitrary filter (including one with no index-backed seed) against an
// otherwise ordinary ranked result set.
func (s *Segment) PostFilter(query []float32, topK int, f filter.Filter, oversample int) ([]Result, error) {
	if oversample < 1 {
		oversample = 1
	}
	raw, err := s.Search(query, topK*oversample)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, topK)
	for _, r := range raw {
		if len(out) >= topK {
			break
		}
		ok, err := filter.Evaluate(f, r.Payload)
		if err != nil {
			// A typed Compare error drops only the offending point, it
			// never fails the whole search.
			continue
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Segment) checkSearchable(query []float32) error {
	if len(query) != s.cfg.Dim {
		return vecseg.WrapError("search", fmt.Errorf("%w: expected %d, got %d", vecseg.ErrVectorLengthMismatch, s.cfg.Dim, len(query)))
	}
	if s.Len() == 0 {
		return vecseg.WrapError("search", vecseg.ErrSearchError)
	}
	return nil
}

func (s *Segment) toResults(neighbors []index.Neighbor) []Result {
	out := make([]Result, len(neighbors))
	for i, n := range neighbors {
		out[i] = Result{ID: n.ID, Score: n.Score, Payload: s.payloads[n.ID]}
	}
	return out
}

// Payload returns the payload record attached to id, if any.
func (s *Segment) Payload(id uint64) (payload.Record, bool) {
	rec, ok := s.payloads[id]
	return rec, ok
}

// IsDeleted reports whether id has been tombstoned.
func (s *Segment) IsDeleted(id uint64) bool {
	_, ok := s.deletedIDs[id]
	return ok
}

// Footprint reports the estimated raw vs. quantized memory footprint of
// the segment's live vectors, using cfg.Quantizer if one was configured.
// It is purely informational: the quantizer is never used for search.
func (s *Segment) Footprint() (rawBytes, quantizedBytes int64, ok bool) {
	if s.cfg.Quantizer == nil {
		return 0, 0, false
	}
	raw, quantized := quantization.Footprint(s.cfg.Quantizer, s.cfg.Dim, s.Len())
	return raw, quantized, true
}
