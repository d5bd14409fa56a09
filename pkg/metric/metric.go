// Package metric implements the distance kernels used by the HNSW index:
// Euclidean, cosine, and inner-product ("dot") distance, plus the
// sort-key normalizer that maps all three onto a single "smaller is
// better" ordering.
package metric

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
)

// Kind identifies which distance semantics an index was built with.
type Kind int

const (
	// Euclidean is plain L2 distance. Smaller is more similar.
	Euclidean Kind = iota
	// Cosine is 1 - cosine similarity. Smaller is more similar.
	Cosine
	// Dot is the raw inner product. Larger is more similar.
	Dot
)

func (k Kind) String() string {
	switch k {
	case Euclidean:
		return "euclidean"
	case Cosine:
		return "cosine"
	case Dot:
		return "dot"
	default:
		return fmt.Sprintf("metric(%d)", int(k))
	}
}

// cosineEpsilon guards the cosine denominator against division by zero
// when one of the vectors has zero norm.
const cosineEpsilon = 1e-10

// Distance computes the raw distance between a and b under the given
// metric. a and b must have equal length; a mismatch is a programmer
// error and panics rather than returning an error, matching the kernel
// contract (length checks belong to the caller, at the index boundary).
func Distance(kind Kind, a, b []float32) float32 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("metric: vector length mismatch: %d vs %d", len(a), len(b)))
	}

	switch kind {
	case Euclidean:
		return euclidean(a, b)
	case Cosine:
		return cosine(a, b)
	case Dot:
		return vek32.Dot(a, b)
	default:
		panic(fmt.Sprintf("metric: unknown kind %d", int(kind)))
	}
}

func euclidean(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

func cosine(a, b []float32) float32 {
	dot := vek32.Dot(a, b)
	normA := float32(math.Sqrt(float64(vek32.Dot(a, a))))
	normB := float32(math.Sqrt(float64(vek32.Dot(b, b))))
	return 1 - dot/(normA*normB+cosineEpsilon)
}

// SortKey maps a raw distance produced by Distance into the single
// "smaller is better" ordering used by every heap and top-K truncation
// in the index: identity for Euclidean/Cosine, negation for Dot.
func SortKey(kind Kind, raw float32) float32 {
	if kind == Dot {
		return -raw
	}
	return raw
}

// Normalize returns an L2-normalized copy of v (v itself is unchanged),
// used to pre-normalize vectors and queries for the Cosine metric. A
// zero vector is returned unchanged, per spec: cosine distance already
// guards the zero-norm case via cosineEpsilon.
func Normalize(v []float32) []float32 {
	norm := float32(math.Sqrt(float64(vek32.Dot(v, v))))
	if norm == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// MaybeNormalize normalizes v only when kind is Cosine; other metrics
// pass the vector through unchanged (the reference explicitly does not
// normalize for Dot, preserving magnitude for ranking by raw score).
func MaybeNormalize(kind Kind, v []float32) []float32 {
	if kind == Cosine {
		return Normalize(v)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// Finite reports whether every component of v is a finite float32 (no
// NaN, no +/-Inf). Used at insert boundaries to reject vectors that
// would otherwise produce undefined sort-key ordering.
func Finite(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}
