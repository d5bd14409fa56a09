package segment

import (
	"fmt"

	"github.com/liliang-cn/vecseg"
	"github.com/liliang-cn/vecseg/pkg/metric"
	"github.com/liliang-cn/vecseg/pkg/quantization"
)

// Reference thresholds for triggering a compaction purge after enough
// lazy deletions accumulate.
const (
	// DefaultMinDeletionsBeforePurge is the minimum number of tombstoned
	// points required before a purge is even considered.
	DefaultMinDeletionsBeforePurge = 100
	// DefaultMaxDeletionRatio is the fraction of tombstoned-to-total
	// points that triggers a purge once DefaultMinDeletionsBeforePurge
	// is met.
	DefaultMaxDeletionRatio = 0.25

	// DefaultM is the default max bidirectional links per node above
	// layer 0.
	DefaultM = 16
	// DefaultEf is the default dynamic candidate list size used at
	// construction and search time.
	DefaultEf = 50
	// DefaultMaxLevelCap bounds how high a node's randomly assigned
	// level can climb.
	DefaultMaxLevelCap = 16
)

// Config holds the tunables for a Segment and its underlying HNSW
// index. Construct one with DefaultConfig and override fields as
// needed, or build one by hand for full control.
type Config struct {
	Dim    int
	Metric metric.Kind

	M           int
	Ef          int
	MaxLevelCap int

	MinDeletionsBeforePurge int
	MaxDeletionRatio        float64

	Logger Logger
	// Quantizer, if set, is used only to report an estimated memory
	// footprint (Segment.Footprint) - it never participates in search,
	// preserving the index's exact-recall guarantees.
	Quantizer quantization.Quantizer
}

// DefaultConfig returns a Config with the reference parameter values for
// dim-dimensional vectors under the given metric.
func DefaultConfig(dim int, kind metric.Kind) Config {
	return Config{
		Dim:                     dim,
		Metric:                  kind,
		M:                       DefaultM,
		Ef:                      DefaultEf,
		MaxLevelCap:             DefaultMaxLevelCap,
		MinDeletionsBeforePurge: DefaultMinDeletionsBeforePurge,
		MaxDeletionRatio:        DefaultMaxDeletionRatio,
		Logger:                  NopLogger(),
	}
}

// Validate reports a wrapped ErrInvalidConfig if the configuration is
// unusable.
func (c Config) Validate() error {
	if c.Dim <= 0 {
		return fmt.Errorf("%w: dim must be positive, got %d", vecseg.ErrInvalidConfig, c.Dim)
	}
	if c.M <= 1 {
		return fmt.Errorf("%w: m must be greater than 1, got %d", vecseg.ErrInvalidConfig, c.M)
	}
	if c.Ef <= 0 {
		return fmt.Errorf("%w: ef must be positive, got %d", vecseg.ErrInvalidConfig, c.Ef)
	}
	if c.MaxLevelCap <= 0 {
		return fmt.Errorf("%w: maxLevelCap must be positive, got %d", vecseg.ErrInvalidConfig, c.MaxLevelCap)
	}
	if c.MinDeletionsBeforePurge < 0 {
		return fmt.Errorf("%w: minDeletionsBeforePurge cannot be negative, got %d", vecseg.ErrInvalidConfig, c.MinDeletionsBeforePurge)
	}
	if c.MaxDeletionRatio <= 0 || c.MaxDeletionRatio > 1 {
		return fmt.Errorf("%w: maxDeletionRatio must be in (0, 1], got %v", vecseg.ErrInvalidConfig, c.MaxDeletionRatio)
	}
	return nil
}
