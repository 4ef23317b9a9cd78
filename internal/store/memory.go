package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agenthands/sentinel/internal/model"
)

// MemoryStore keeps events in process. It is used by tests and single-node
// development setups.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]model.DisasterEvent
	byID  map[string]string
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[string]model.DisasterEvent),
		byID:  make(map[string]string),
		now:   time.Now,
	}
}

func (m *MemoryStore) Put(ctx context.Context, ev model.DisasterEvent) error {
	key := KeyHash(ev.Author, ev.Text)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byKey[key]; ok {
		if !existing.Expired(m.now()) {
			if existing.ID == ev.ID {
				return nil
			}
			return ErrDuplicate
		}
		delete(m.byID, existing.ID)
	}
	if _, ok := m.byID[ev.ID]; ok {
		return ErrDuplicate
	}
	m.byKey[key] = ev
	m.byID[ev.ID] = key
	return nil
}

func (m *MemoryStore) FindByKey(ctx context.Context, author, text string) (*model.DisasterEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ev, ok := m.byKey[KeyHash(author, text)]
	if !ok || ev.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return &ev, nil
}

func (m *MemoryStore) ScanSince(ctx context.Context, since time.Time) ([]model.DisasterEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	var out []model.DisasterEvent
	for _, ev := range m.byKey {
		if !ev.CreatedAt.Before(since) && !ev.Expired(now) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*model.DisasterEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	ev := m.byKey[key]
	return &ev, nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key, ev := range m.byKey {
		if ev.Expired(now) {
			delete(m.byKey, key)
			delete(m.byID, ev.ID)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored events, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey)
}

func (m *MemoryStore) Close() error { return nil }
