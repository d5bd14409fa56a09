package segment

import (
	"bytes"
	"strings"
	"testing"
)

func TestDefaultLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelWarn)
	log.Info("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected info message to be filtered out, got %q", buf.String())
	}
	log.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message to be logged, got %q", buf.String())
	}
}

func TestDefaultLoggerIncludesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelDebug)
	log.Info("hello", "k", "v")
	out := buf.String()
	if !strings.Contains(out, "k=v") || !strings.Contains(out, "hello") {
		t.Fatalf("expected log line to contain keyval and message, got %q", out)
	}
}

func TestWithMergesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelDebug).With("segment_id", "abc")
	log.Info("hi")
	if !strings.Contains(buf.String(), "segment_id=abc") {
		t.Fatalf("expected base keyval from With to appear, got %q", buf.String())
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	log := NopLogger()
	// Must not panic; has no observable output to check.
	log.Debug("x")
	log.Info("x")
	log.Warn("x")
	log.Error("x")
	log.With("a", "b").Info("x")
}

func TestCountStrFormatsThousands(t *testing.T) {
	if got := countStr(1234567); got != "1,234,567" {
		t.Fatalf("expected comma-formatted count, got %q", got)
	}
}

func TestLogAutoHumanizesIntegerKeyvals(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelDebug)
	log.Info("point inserted", "id", 7, "live", 1234567)
	out := buf.String()
	if !strings.Contains(out, "live=1,234,567") {
		t.Fatalf("expected an int keyval to be auto-humanized, got %q", out)
	}
	if !strings.Contains(out, "id=7") {
		t.Fatalf("expected a small int keyval to still render plainly, got %q", out)
	}
}

func TestLogLeavesNonIntegerKeyvalsAlone(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelDebug)
	log.Info("segment created", "metric", "cosine")
	if !strings.Contains(buf.String(), "metric=cosine") {
		t.Fatalf("expected a string keyval to render unchanged, got %q", buf.String())
	}
}
