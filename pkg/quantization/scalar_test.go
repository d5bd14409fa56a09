package quantization

import "testing"

func trainedQuantizer(t *testing.T, nbits int) *ScalarQuantizer {
	t.Helper()
	sq, err := NewScalarQuantizer(3, nbits)
	if err != nil {
		t.Fatalf("unexpected error constructing quantizer: %v", err)
	}
	if err := sq.Train([][]float32{
		{0, 0, 0},
		{1, 2, 3},
		{2, 4, 6},
	}); err != nil {
		t.Fatalf("unexpected error training quantizer: %v", err)
	}
	return sq
}

func TestEncodeDecodeRoundTripApproximates(t *testing.T) {
	sq := trainedQuantizer(t, 8)
	encoded, err := sq.Encode([]float32{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	decoded, err := sq.Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	for i, v := range decoded {
		want := []float32{1, 2, 3}[i]
		if diff := v - want; diff > 0.1 || diff < -0.1 {
			t.Fatalf("decoded value %v too far from %v at index %d", v, want, i)
		}
	}
}

func TestEncodeUntrainedErrors(t *testing.T) {
	sq, _ := NewScalarQuantizer(3, 8)
	if _, err := sq.Encode([]float32{1, 2, 3}); err == nil {
		t.Fatalf("expected error encoding with untrained quantizer")
	}
}

func TestEncodeDimensionMismatch(t *testing.T) {
	sq := trainedQuantizer(t, 8)
	if _, err := sq.Encode([]float32{1, 2}); err == nil {
		t.Fatalf("expected error for dimension mismatch")
	}
}

func TestCompressionRatio(t *testing.T) {
	sq := trainedQuantizer(t, 8)
	if got := sq.CompressionRatio(); got != 4 {
		t.Fatalf("expected 4x compression for 8-bit quantization of float32, got %v", got)
	}
}

func TestFootprint(t *testing.T) {
	sq := trainedQuantizer(t, 8)
	raw, quantized := Footprint(sq, 3, 1000)
	if raw != 3*1000*4 {
		t.Fatalf("unexpected raw footprint: %d", raw)
	}
	if quantized >= raw {
		t.Fatalf("expected quantized footprint to be smaller than raw, got %d vs %d", quantized, raw)
	}
}
