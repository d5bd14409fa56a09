// Package quantization provides an optional scalar quantizer for
// estimating the memory footprint of a segment's vectors. It is never
// wired into the hot search path: the index's exact-recall guarantees
// depend on searching the full-precision stored vectors, so quantized
// encodings exist here only as a size estimate, not a search shortcut.
package quantization

import (
	"errors"
	"fmt"
)

// Quantizer compresses and decompresses float32 vectors, and reports
// the resulting compression ratio.
type Quantizer interface {
	Encode(vector []float32) ([]byte, error)
	Decode(encoded []byte) ([]float32, error)
	CompressionRatio() float32
}

// ScalarQuantizer maps each vector component into an NBits-wide integer
// range per-dimension, trained from a sample of vectors.
type ScalarQuantizer struct {
	Dimension int
	Min       []float32
	Max       []float32
	NBits     int
	Trained   bool
}

// NewScalarQuantizer returns an untrained ScalarQuantizer for the given
// dimension and bit width (1-8 bits per component).
func NewScalarQuantizer(dimension, nbits int) (*ScalarQuantizer, error) {
	if nbits < 1 || nbits > 8 {
		return nil, fmt.Errorf("nbits must be between 1 and 8, got %d", nbits)
	}
	return &ScalarQuantizer{
		Dimension: dimension,
		NBits:     nbits,
		Min:       make([]float32, dimension),
		Max:       make([]float32, dimension),
	}, nil
}

// Train learns per-dimension min/max ranges from a sample of vectors.
func (sq *ScalarQuantizer) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return errors.New("no training vectors provided")
	}

	for d := 0; d < sq.Dimension; d++ {
		sq.Min[d] = vectors[0][d]
		sq.Max[d] = vectors[0][d]
	}

	for _, vec := range vectors {
		if len(vec) != sq.Dimension {
			return fmt.Errorf("vector dimension %d doesn't match quantizer dimension %d", len(vec), sq.Dimension)
		}
		for d := 0; d < sq.Dimension; d++ {
			if vec[d] < sq.Min[d] {
				sq.Min[d] = vec[d]
			}
			if vec[d] > sq.Max[d] {
				sq.Max[d] = vec[d]
			}
		}
	}

	for d := 0; d < sq.Dimension; d++ {
		if sq.Max[d] == sq.Min[d] {
			sq.Max[d] += 1e-6
		}
	}

	sq.Trained = true
	return nil
}

// Encode quantizes vector into a bit-packed byte slice.
func (sq *ScalarQuantizer) Encode(vector []float32) ([]byte, error) {
	if !sq.Trained {
		return nil, errors.New("quantizer not trained")
	}
	if len(vector) != sq.Dimension {
		return nil, fmt.Errorf("vector dimension %d doesn't match quantizer dimension %d", len(vector), sq.Dimension)
	}

	maxVal := float32((int(1) << uint(sq.NBits)) - 1)
	bitsNeeded := sq.Dimension * sq.NBits
	encoded := make([]byte, (bitsNeeded+7)/8)

	bitOffset := 0
	for d := 0; d < sq.Dimension; d++ {
		normalized := (vector[d] - sq.Min[d]) / (sq.Max[d] - sq.Min[d])
		if normalized < 0 {
			normalized = 0
		} else if normalized > 1 {
			normalized = 1
		}
		quantized := uint32(normalized * maxVal)

		for b := 0; b < sq.NBits; b++ {
			byteIdx := bitOffset / 8
			bitIdx := bitOffset % 8
			if (quantized & (1 << b)) != 0 {
				encoded[byteIdx] |= 1 << bitIdx
			}
			bitOffset++
		}
	}
	return encoded, nil
}

// Decode reconstructs an approximate vector from a quantized encoding.
func (sq *ScalarQuantizer) Decode(encoded []byte) ([]float32, error) {
	if !sq.Trained {
		return nil, errors.New("quantizer not trained")
	}

	maxVal := float32((int(1) << uint(sq.NBits)) - 1)
	vector := make([]float32, sq.Dimension)

	bitOffset := 0
	for d := 0; d < sq.Dimension; d++ {
		quantized := uint32(0)
		for b := 0; b < sq.NBits; b++ {
			byteIdx := bitOffset / 8
			bitIdx := bitOffset % 8
			if byteIdx >= len(encoded) {
				return nil, errors.New("encoded data too short")
			}
			if (encoded[byteIdx] & (1 << bitIdx)) != 0 {
				quantized |= 1 << b
			}
			bitOffset++
		}
		normalized := float32(quantized) / maxVal
		vector[d] = normalized*(sq.Max[d]-sq.Min[d]) + sq.Min[d]
	}
	return vector, nil
}

// CompressionRatio returns how many times smaller the quantized
// encoding is than the original float32 vector.
func (sq *ScalarQuantizer) CompressionRatio() float32 {
	originalBits := sq.Dimension * 32
	compressedBits := sq.Dimension * sq.NBits
	return float32(originalBits) / float32(compressedBits)
}

// Footprint estimates the bytes occupied by n vectors of dimension dim
// under full float32 precision versus q's compressed encoding (raw size
// divided by q's compression ratio). It is purely informational: nothing
// in pkg/index or pkg/segment substitutes the quantized encoding into
// the actual search path.
func Footprint(q Quantizer, dim, n int) (rawBytes, quantizedBytes int64) {
	rawBytes = int64(n) * int64(dim) * 4
	ratio := q.CompressionRatio()
	if ratio <= 0 {
		ratio = 1
	}
	quantizedBytes = int64(float32(rawBytes) / ratio)
	return rawBytes, quantizedBytes
}
