package model

import (
	"context"
	"time"
)

// HistoryEntry records one submitted command, or an automatic sensor event
// when Auto is set and Command is empty.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Command   string    `json:"command,omitempty"`
	Auto      bool      `json:"auto,omitempty"`
	Intent    string    `json:"intent"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryRepository interface {
	// Append stores entry as the newest one.
	Append(ctx context.Context, entry HistoryEntry) error

	// Load returns every stored entry, newest first.
	Load(ctx context.Context) ([]HistoryEntry, error)

	// Clear removes all stored entries.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
