package payload

import "testing"

func TestIndexInsertQueryExact(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Record{"city": Str("nyc")})
	idx.Insert(2, Record{"city": Str("nyc")})
	idx.Insert(3, Record{"city": Str("sf")})

	bm, ok := idx.QueryExact("city", Str("nyc"))
	if !ok {
		t.Fatalf("expected nyc bucket to exist")
	}
	if bm.GetCardinality() != 2 {
		t.Fatalf("expected 2 ids for nyc, got %d", bm.GetCardinality())
	}
	if !bm.Contains(1) || !bm.Contains(2) {
		t.Fatalf("expected ids 1 and 2 in nyc bucket")
	}
}

func TestIndexQueryExactMissing(t *testing.T) {
	idx := NewIndex()
	if _, ok := idx.QueryExact("city", Str("nyc")); ok {
		t.Fatalf("expected no bucket for unindexed value")
	}
}

func TestIndexSkipsLists(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Record{"tags": ListStr([]string{"a", "b"})})
	if _, ok := idx.AllForKey("tags"); ok {
		t.Fatalf("expected list fields to never be indexed")
	}
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex()
	rec := Record{"city": Str("nyc")}
	idx.Insert(1, rec)
	idx.Remove(1, rec)
	if _, ok := idx.QueryExact("city", Str("nyc")); ok {
		t.Fatalf("expected bucket to be gone after removing its only member")
	}
}

func TestIndexAllForKey(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Record{"city": Str("nyc")})
	idx.Insert(2, Record{"city": Str("sf")})
	idx.Insert(3, Record{"city": Str("nyc")})

	bm, ok := idx.AllForKey("city")
	if !ok {
		t.Fatalf("expected city key to have entries")
	}
	if bm.GetCardinality() != 3 {
		t.Fatalf("expected union of 3 ids, got %d", bm.GetCardinality())
	}
}
