// Package logbuf keeps a bounded, persisted buffer of diagnostic log lines.
//
// Every call appends one formatted line, drops the oldest lines beyond the
// capacity, mirrors the whole buffer into a Store under a single key and
// writes the entry to slog. Persisting is best-effort: a failing store never
// affects the caller.
package logbuf

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/pagecast/models"
)

// DefaultCapacity is the number of lines kept before the oldest are evicted.
const DefaultCapacity = 1000

// StorageKey is the key the buffer is persisted under.
const StorageKey = "pagecast_logs"

// Store persists the buffer. storage.MemoryStore and storage.BadgerStore
// satisfy it.
type Store interface {
	Load(ctx context.Context, key string) ([]string, error)
	Save(ctx context.Context, key string, lines []string) error
	Delete(ctx context.Context, key string) error
}

// Logger is the bounded log buffer. A nil *Logger discards everything, so
// components can hold one unconditionally.
type Logger struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	store    Store
	slog     *slog.Logger
	now      func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithCapacity overrides DefaultCapacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithStore persists the buffer into s.
func WithStore(s Store) Option {
	return func(l *Logger) { l.store = s }
}

// WithSlog mirrors entries into the given slog logger instead of slog.Default().
func WithSlog(s *slog.Logger) Option {
	return func(l *Logger) { l.slog = s }
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// New creates a Logger.
func New(opts ...Option) *Logger {
	l := &Logger{
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.slog == nil {
		l.slog = slog.Default()
	}
	return l
}

// Restore seeds the in-memory buffer from the store so a new process keeps
// appending to the previous history instead of overwriting it. A persisted
// buffer longer than the capacity is trimmed in the store too.
func (l *Logger) Restore(ctx context.Context) {
	if l == nil || l.store == nil {
		return
	}
	lines, err := l.store.Load(ctx, StorageKey)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := append(lines, l.lines...)
	l.lines = tail(merged, l.capacity)
	if len(l.lines) < len(merged) {
		if err := l.store.Save(ctx, StorageKey, append([]string(nil), l.lines...)); err != nil {
			l.slog.Debug("logbuf: persist failed", "error", err)
		}
	}
}

// Log appends an informational entry.
func (l *Logger) Log(msg string, args ...any) {
	l.append(models.LogLevelLog, msg, args)
}

// Warn appends a warning entry.
func (l *Logger) Warn(msg string, args ...any) {
	l.append(models.LogLevelWarn, msg, args)
}

// Error appends an error entry.
func (l *Logger) Error(msg string, args ...any) {
	l.append(models.LogLevelError, msg, args)
}

func (l *Logger) append(level models.LogLevel, msg string, args []any) {
	if l == nil {
		return
	}
	entry := models.LogEntry{
		Timestamp: l.now(),
		Level:     level,
		Message:   msg,
		Args:      args,
	}

	l.mu.Lock()
	l.lines = tail(append(l.lines, entry.String()), l.capacity)
	snapshot := append([]string(nil), l.lines...)
	if l.store != nil {
		if err := l.store.Save(context.Background(), StorageKey, snapshot); err != nil {
			l.slog.Debug("logbuf: persist failed", "error", err)
		}
	}
	l.mu.Unlock()

	l.mirror(level, msg, args)
}

func (l *Logger) mirror(level models.LogLevel, msg string, args []any) {
	var attrs []any
	if len(args) > 0 {
		attrs = append(attrs, "args", args)
	}
	switch level {
	case models.LogLevelError:
		l.slog.Error(msg, attrs...)
	case models.LogLevelWarn:
		l.slog.Warn(msg, attrs...)
	default:
		l.slog.Info(msg, attrs...)
	}
}

// Logs returns the persisted buffer when the store has one, otherwise the
// in-memory buffer. Either is capped at the capacity.
func (l *Logger) Logs(ctx context.Context) []string {
	if l == nil {
		return []string{}
	}
	if l.store != nil {
		if lines, err := l.store.Load(ctx, StorageKey); err == nil && lines != nil {
			return tail(lines, l.capacity)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.lines...)
}

// Clear empties both the in-memory and the persisted buffer.
func (l *Logger) Clear(ctx context.Context) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.lines = nil
	l.mu.Unlock()
	if l.store != nil {
		if err := l.store.Delete(ctx, StorageKey); err != nil {
			l.slog.Debug("logbuf: clear persisted buffer failed", "error", err)
		}
	}
}

// tail returns the last n elements of s.
func tail(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	out := make([]string, n)
	copy(out, s[len(s)-n:])
	return out
}
