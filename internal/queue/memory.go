package queue

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memMessage struct {
	id             string
	body           []byte
	attrs          map[string]string
	receiveCount   int
	receipt        string
	invisibleUntil time.Time
}

// MemoryQueue is an in-process Queue with the same visibility and receive
// count semantics as the Redis backend.
type MemoryQueue struct {
	mu    sync.Mutex
	name  string
	order []*memMessage
	now   func() time.Time
}

func NewMemoryQueue(name string) *MemoryQueue {
	return &MemoryQueue{name: name, now: time.Now}
}

func (q *MemoryQueue) Name() string { return q.name }

func (q *MemoryQueue) Send(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	m := &memMessage{
		id:    uuid.NewString(),
		body:  append([]byte(nil), body...),
		attrs: maps.Clone(attrs),
	}
	q.order = append(q.order, m)
	return m.id, nil
}

func (q *MemoryQueue) Receive(ctx context.Context, max int, visibility time.Duration) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var out []Message
	for _, m := range q.order {
		if len(out) >= max {
			break
		}
		if now.Before(m.invisibleUntil) {
			continue
		}
		m.receiveCount++
		m.receipt = uuid.NewString()
		m.invisibleUntil = now.Add(visibility)
		out = append(out, q.deliver(m))
	}
	return out, nil
}

func (q *MemoryQueue) Delete(ctx context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, m := range q.order {
		if m.receipt == receipt {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return nil
		}
	}
	return ErrReceiptNotFound
}

func (q *MemoryQueue) Peek(ctx context.Context, max int) ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Message
	for _, m := range q.order {
		if len(out) >= max {
			break
		}
		msg := q.deliver(m)
		msg.Receipt = ""
		out = append(out, msg)
	}
	return out, nil
}

func (q *MemoryQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order), nil
}

func (q *MemoryQueue) deliver(m *memMessage) Message {
	return Message{
		ID:           m.id,
		Body:         append([]byte(nil), m.body...),
		Attributes:   maps.Clone(m.attrs),
		Receipt:      m.receipt,
		ReceiveCount: m.receiveCount,
		Queue:        q.name,
	}
}
