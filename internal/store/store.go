package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/agenthands/sentinel/internal/model"
)

var (
	// ErrDuplicate means an event already exists for the (author, text) key.
	ErrDuplicate = errors.New("store: duplicate dedup key")
	ErrNotFound  = errors.New("store: not found")
)

// EventStore is the durable, append-only event table with a secondary
// (author, text) index.
type EventStore interface {
	// Put atomically inserts ev unless an event already holds its dedup key.
	// Re-putting the same event id is a no-op; a different id returns ErrDuplicate.
	Put(ctx context.Context, ev model.DisasterEvent) error
	// FindByKey is the indexed lookup. Expired events are not returned.
	FindByKey(ctx context.Context, author, text string) (*model.DisasterEvent, error)
	// ScanSince returns unexpired events created at or after since, newest first.
	ScanSince(ctx context.Context, since time.Time) ([]model.DisasterEvent, error)
	Get(ctx context.Context, id string) (*model.DisasterEvent, error)
	// DeleteExpired removes events whose TTL has passed at now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// KeyHash is the fixed-size index key for (author, text).
func KeyHash(author, text string) string {
	h := sha256.New()
	h.Write([]byte(author))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
