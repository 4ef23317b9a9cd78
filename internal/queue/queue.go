package queue

import (
	"context"
	"errors"
	"time"
)

// ErrReceiptNotFound means the receipt is stale: the message was deleted or
// redelivered to someone else after its visibility timeout.
var ErrReceiptNotFound = errors.New("queue: receipt not found")

// Message is one delivery of a queued body.
type Message struct {
	ID           string
	Body         []byte
	Attributes   map[string]string
	Receipt      string
	ReceiveCount int // deliveries so far, including this one
	Queue        string
}

// Queue is an at-least-once queue with visibility timeouts.
type Queue interface {
	Name() string
	Send(ctx context.Context, body []byte, attrs map[string]string) (string, error)
	// Receive claims up to max visible messages and hides them for visibility.
	// Unacknowledged messages reappear once the timeout lapses.
	Receive(ctx context.Context, max int, visibility time.Duration) ([]Message, error)
	Delete(ctx context.Context, receipt string) error
	// Peek lists up to max waiting messages without claiming them.
	Peek(ctx context.Context, max int) ([]Message, error)
	Len(ctx context.Context) (int, error)
}
