package segment

import (
	"errors"
	"testing"

	"github.com/liliang-cn/vecseg"
	"github.com/liliang-cn/vecseg/pkg/metric"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig(128, metric.Cosine)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestValidateRejectsBadDim(t *testing.T) {
	cfg := DefaultConfig(0, metric.Euclidean)
	if err := cfg.Validate(); !errors.Is(err, vecseg.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsBadDeletionRatio(t *testing.T) {
	cfg := DefaultConfig(8, metric.Euclidean)
	cfg.MaxDeletionRatio = 1.5
	if err := cfg.Validate(); !errors.Is(err, vecseg.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
