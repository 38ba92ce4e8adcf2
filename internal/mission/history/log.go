// Package history keeps the command history, newest first.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// AutoSensorCommand is shown in place of a command for automatic sensor events.
const AutoSensorCommand = "— AUTO SENSOR EVENT —"

// DefaultMirrorTimeout bounds a single mirror write.
const DefaultMirrorTimeout = 500 * time.Millisecond

// Log is the in-memory command history. Entries are never evicted.
// When a mirror is set, every append is also written there within the mirror
// timeout; mirror failures are logged and do not affect the in-memory log.
type Log struct {
	mu            sync.RWMutex
	entries       []model.HistoryEntry
	mirror        model.HistoryRepository
	mirrorTimeout time.Duration
	now           func() time.Time
}

type Option func(*Log)

// WithMirror copies appended entries to repo.
func WithMirror(repo model.HistoryRepository) Option {
	return func(l *Log) { l.mirror = repo }
}

// WithMirrorTimeout overrides DefaultMirrorTimeout. Non-positive values are ignored.
func WithMirrorTimeout(d time.Duration) Option {
	return func(l *Log) {
		if d > 0 {
			l.mirrorTimeout = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

func NewLog(opts ...Option) *Log {
	l := &Log{now: time.Now, mirrorTimeout: DefaultMirrorTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append inserts entry at the front, filling ID and Timestamp when unset, and
// returns the stored entry.
func (l *Log) Append(ctx context.Context, entry model.HistoryEntry) model.HistoryEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, model.HistoryEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	l.mu.Unlock()

	if l.mirror != nil {
		mctx, cancel := context.WithTimeout(ctx, l.mirrorTimeout)
		defer cancel()
		if err := l.mirror.Append(mctx, entry); err != nil {
			logx.Warn().Err(err).Str("entry_id", entry.ID).Msg("history mirror append failed")
		}
	}
	return entry
}

// Entries returns a copy of every entry, newest first.
func (l *Log) Entries() []model.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(n int) []model.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n <= 0 {
		return nil
	}
	out := make([]model.HistoryEntry, n)
	copy(out, l.entries[:n])
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
