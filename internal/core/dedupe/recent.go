package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Recent is a TTL-bound LRU of dedup keys that were persisted by this process.
type Recent struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List // most recent at front
	items map[string]*list.Element
	now   func() time.Time
}

type entry struct {
	key string
	exp time.Time
}

func NewRecent(maxKeys int, ttl time.Duration) *Recent {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Recent{cap: maxKeys, ttl: ttl, ll: list.New(), items: make(map[string]*list.Element), now: time.Now}
}

func (r *Recent) Seen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.items[key]
	if !ok {
		return false
	}
	if r.now().Before(el.Value.(entry).exp) {
		r.ll.MoveToFront(el)
		return true
	}
	r.ll.Remove(el)
	delete(r.items, key)
	return false
}

func (r *Recent) Mark(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if el, ok := r.items[key]; ok {
		el.Value = entry{key: key, exp: now.Add(r.ttl)}
		r.ll.MoveToFront(el)
		return
	}
	r.items[key] = r.ll.PushFront(entry{key: key, exp: now.Add(r.ttl)})

	for r.ll.Len() > r.cap {
		r.evict(r.ll.Back())
	}
	for t := r.ll.Back(); t != nil && !now.Before(t.Value.(entry).exp); t = r.ll.Back() {
		r.evict(t)
	}
}

func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ll.Len()
}

func (r *Recent) evict(el *list.Element) {
	r.ll.Remove(el)
	delete(r.items, el.Value.(entry).key)
}
