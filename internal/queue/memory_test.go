package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_ReceiveHidesUntilTimeout(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	q := NewMemoryQueue("posts")
	q.now = func() time.Time { return now }

	_, err := q.Send(ctx, []byte(`{"a":1}`), nil)
	require.NoError(t, err)

	msgs, err := q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, msgs[0].ReceiveCount)
	assert.Equal(t, "posts", msgs[0].Queue)
	assert.JSONEq(t, `{"a":1}`, string(msgs[0].Body))

	again, err := q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "in flight")

	now = now.Add(2 * time.Minute)
	again, err = q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, 2, again[0].ReceiveCount)

	// the first receipt went stale with the redelivery
	assert.ErrorIs(t, q.Delete(ctx, msgs[0].Receipt), ErrReceiptNotFound)
	require.NoError(t, q.Delete(ctx, again[0].Receipt))

	n, _ := q.Len(ctx)
	assert.Equal(t, 0, n)
}

func TestMemoryQueue_BatchLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue("posts")
	for _, b := range []string{"1", "2", "3"} {
		_, err := q.Send(ctx, []byte(b), nil)
		require.NoError(t, err)
	}

	msgs, err := q.Receive(ctx, 2, time.Minute)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", string(msgs[0].Body))
	assert.Equal(t, "2", string(msgs[1].Body))
}

func TestMemoryQueue_PeekAndAttributes(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue("dlq")
	attrs := map[string]string{"failureReason": "boom"}
	_, err := q.Send(ctx, []byte("x"), attrs)
	require.NoError(t, err)
	attrs["failureReason"] = "mutated"

	msgs, err := q.Peek(ctx, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "boom", msgs[0].Attributes["failureReason"])
	assert.Empty(t, msgs[0].Receipt)

	// peek does not claim
	got, err := q.Receive(ctx, 5, time.Minute)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryQueue_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryQueue("q").Receive(ctx, 1, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
