package segment

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// LogLevel is the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the logging interface used throughout pkg/segment. Segment
// operations log point ids, live and deleted point counts at Info level,
// and the payload field count of each filter-aware edge build at Debug
// level.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type defaultLogger struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel LogLevel
	prefix   string
	keyvals  []any
}

// NewLogger returns a Logger writing to writer, filtering out messages
// below minLevel.
func NewLogger(writer io.Writer, minLevel LogLevel) Logger {
	return &defaultLogger{writer: writer, minLevel: minLevel}
}

// NewStdLogger returns a Logger writing to stdout.
func NewStdLogger(minLevel LogLevel) Logger {
	return NewLogger(os.Stdout, minLevel)
}

func (l *defaultLogger) Debug(msg string, keyvals ...any) { l.log(LevelDebug, msg, keyvals...) }
func (l *defaultLogger) Info(msg string, keyvals ...any)  { l.log(LevelInfo, msg, keyvals...) }
func (l *defaultLogger) Warn(msg string, keyvals ...any)  { l.log(LevelWarn, msg, keyvals...) }
func (l *defaultLogger) Error(msg string, keyvals ...any) { l.log(LevelError, msg, keyvals...) }

func (l *defaultLogger) With(keyvals ...any) Logger {
	merged := make([]any, 0, len(l.keyvals)+len(keyvals))
	merged = append(merged, l.keyvals...)
	merged = append(merged, keyvals...)
	return &defaultLogger{writer: l.writer, minLevel: l.minLevel, prefix: l.prefix, keyvals: merged}
}

func (l *defaultLogger) log(level LogLevel, msg string, keyvals ...any) {
	if level < l.minLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.writer, "%s [%s] %s", timestamp, level, l.prefix)

	for i := 0; i+1 < len(l.keyvals); i += 2 {
		fmt.Fprintf(l.writer, " %v=%s", l.keyvals[i], formatKeyval(l.keyvals[i+1]))
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(l.writer, " %v=%s", keyvals[i], formatKeyval(keyvals[i+1]))
	}

	fmt.Fprintf(l.writer, ": %s\n", msg)
}

// formatKeyval renders a single keyval for a log line. Integer counts -
// point totals, deletion totals, candidate counts - are rendered with
// thousands separators so a segment with six-figure point counts stays
// readable in the log; every other value falls back to %v. This runs
// for every keyval passed to every Logger call, not just the ones a
// caller happens to pre-format.
func formatKeyval(v any) string {
	switch n := v.(type) {
	case int:
		return humanize.Comma(int64(n))
	case int64:
		return humanize.Comma(n)
	case uint:
		return humanize.Comma(int64(n))
	case uint64:
		return humanize.Comma(int64(n))
	default:
		return fmt.Sprintf("%v", v)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, keyvals ...any) {}
func (nopLogger) Info(msg string, keyvals ...any)  {}
func (nopLogger) Warn(msg string, keyvals ...any)  {}
func (nopLogger) Error(msg string, keyvals ...any) {}
func (n nopLogger) With(keyvals ...any) Logger     { return n }

// NopLogger returns a Logger that discards every message.
func NopLogger() Logger { return nopLogger{} }

// countStr formats n with thousands separators, e.g. "12,345" instead of
// "12345" - for embedding a count directly inside a message string.
// Structured keyvals don't need this: formatKeyval applies the same
// treatment to every int-typed keyval automatically.
func countStr(n int) string {
	return humanize.Comma(int64(n))
}
