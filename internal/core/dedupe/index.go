package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/model"
	"github.com/agenthands/sentinel/internal/store"
)

// ErrLookupUnavailable is returned when neither the index nor the fallback
// scan could answer. Callers should retry rather than assume "not seen".
var ErrLookupUnavailable = errors.New("dedupe: lookup unavailable")

// Lookup is the read side of the event store.
type Lookup interface {
	FindByKey(ctx context.Context, author, text string) (*model.DisasterEvent, error)
	ScanSince(ctx context.Context, since time.Time) ([]model.DisasterEvent, error)
}

type Index struct {
	Store  Lookup
	Window time.Duration // fallback scan horizon
	Recent *Recent       // optional
	Logger zerolog.Logger
	now    func() time.Time
}

func NewIndex(s Lookup, window time.Duration, recent *Recent, logger zerolog.Logger) *Index {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Index{Store: s, Window: window, Recent: recent, Logger: logger, now: time.Now}
}

// IsDuplicate reports whether an event already exists for (author, text).
// Matching is exact; no normalization is applied to either field.
func (x *Index) IsDuplicate(ctx context.Context, author, text string) (bool, error) {
	key := store.KeyHash(author, text)
	if x.Recent != nil && x.Recent.Seen(key) {
		return true, nil
	}

	_, err := x.Store.FindByKey(ctx, author, text)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}

	x.Logger.Warn().Err(err).Str("author", author).Dur("window", x.Window).
		Msg("dedup index lookup failed, scanning recent events")

	events, scanErr := x.Store.ScanSince(ctx, x.now().Add(-x.Window))
	if scanErr != nil {
		return false, fmt.Errorf("%w: index: %v; scan: %v", ErrLookupUnavailable, err, scanErr)
	}
	for _, ev := range events {
		if ev.Author == author && ev.Text == text {
			return true, nil
		}
	}
	return false, nil
}

// MarkPersisted records a successful write so repeats short-circuit in process.
func (x *Index) MarkPersisted(author, text string) {
	if x.Recent != nil {
		x.Recent.Mark(store.KeyHash(author, text))
	}
}
