package verify

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/agenthands/sentinel/internal/model"
)

// CachedSource memoizes readings per ~1km coordinate cell for ttl.
// Errors are never cached.
type CachedSource struct {
	inner SignalSource
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cachedSignal
}

type cachedSignal struct {
	sig Signal
	exp time.Time
}

func NewCachedSource(inner SignalSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedSignal),
	}
}

func (c *CachedSource) Fetch(ctx context.Context, coords *model.Coordinates) (Signal, error) {
	key := cellKey(coords)
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Before(e.exp) {
		c.mu.Unlock()
		return e.sig, nil
	}
	c.mu.Unlock()

	sig, err := c.inner.Fetch(ctx, coords)
	if err != nil {
		return Signal{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedSignal{sig: sig, exp: now.Add(c.ttl)}
	for k, e := range c.entries {
		if !now.Before(e.exp) {
			delete(c.entries, k)
		}
	}
	return sig, nil
}

func cellKey(coords *model.Coordinates) string {
	if coords == nil {
		return "baseline"
	}
	return fmt.Sprintf("%.2f,%.2f", math.Round(coords.Lat*100)/100, math.Round(coords.Lon*100)/100)
}
