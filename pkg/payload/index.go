package payload

import (
	roaring "github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Index is the inverted payload index: for every indexable (field,
// value) pair seen across inserted records, it tracks the set of point
// ids whose payload carries that exact value. Only scalar values are
// indexed; lists are never indexable (IsIndexable).
//
// It backs two things: exact-match seeding for Match filter nodes during
// in-place filtered search, and the candidate sampling used by the
// filter-aware edge builder.
type Index struct {
	// buckets[field][mapKey] -> bitmap of point ids carrying that value.
	buckets map[string]map[any]*roaring.Bitmap
}

// NewIndex returns an empty inverted payload index.
func NewIndex() *Index {
	return &Index{buckets: make(map[string]map[any]*roaring.Bitmap)}
}

// Insert adds id to the index for every indexable field in record.
func (idx *Index) Insert(id uint64, record Record) {
	for field, v := range record {
		if !IsIndexable(v) {
			continue
		}
		idx.insertOne(field, v, id)
	}
}

func (idx *Index) insertOne(field string, v Value, id uint64) {
	byValue, ok := idx.buckets[field]
	if !ok {
		byValue = make(map[any]*roaring.Bitmap)
		idx.buckets[field] = byValue
	}
	key := v.mapKey()
	bm, ok := byValue[key]
	if !ok {
		bm = roaring.New()
		byValue[key] = bm
	}
	bm.Add(id)
}

// Remove removes id from the index entries derived from record. Call
// this before a point's record is dropped, e.g. on delete or during
// purge/compaction.
func (idx *Index) Remove(id uint64, record Record) {
	for field, v := range record {
		if !IsIndexable(v) {
			continue
		}
		byValue, ok := idx.buckets[field]
		if !ok {
			continue
		}
		key := v.mapKey()
		bm, ok := byValue[key]
		if !ok {
			continue
		}
		bm.Remove(id)
		if bm.IsEmpty() {
			delete(byValue, key)
		}
		if len(byValue) == 0 {
			delete(idx.buckets, field)
		}
	}
}

// QueryExact returns the bitmap of point ids whose record has field set
// to exactly value, and whether any such entry exists. The returned
// bitmap must not be mutated by the caller.
func (idx *Index) QueryExact(field string, value Value) (*roaring.Bitmap, bool) {
	if !IsIndexable(value) {
		return nil, false
	}
	byValue, ok := idx.buckets[field]
	if !ok {
		return nil, false
	}
	bm, ok := byValue[value.mapKey()]
	if !ok || bm.IsEmpty() {
		return nil, false
	}
	return bm, true
}

// AllForKey returns the union of every bitmap indexed under field,
// across all distinct values it has taken, and whether field has any
// indexed entries at all.
func (idx *Index) AllForKey(field string) (*roaring.Bitmap, bool) {
	byValue, ok := idx.buckets[field]
	if !ok || len(byValue) == 0 {
		return nil, false
	}
	bitmaps := make([]*roaring.Bitmap, 0, len(byValue))
	for _, bm := range byValue {
		bitmaps = append(bitmaps, bm)
	}
	return roaring.FastOr(bitmaps...), true
}
