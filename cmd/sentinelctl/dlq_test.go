package main

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/sentinel/internal/model"
	"github.com/agenthands/sentinel/internal/queue"
)

func TestRedrive(t *testing.T) {
	ctx := context.Background()
	qs := &queue.Set{
		Normal:     queue.NewMemoryQueue("posts"),
		High:       queue.NewMemoryQueue("posts:high"),
		DeadLetter: queue.NewMemoryQueue("posts:dlq"),
	}
	_, err := qs.DeadLetter.Send(ctx, []byte(`{"post":{"text":"a"}}`), map[string]string{model.AttrOriginalQueue: "posts:high"})
	require.NoError(t, err)
	_, err = qs.DeadLetter.Send(ctx, []byte(`{"post":{"text":"b"}}`), map[string]string{model.AttrOriginalQueue: "gone"})
	require.NoError(t, err)

	n, err := redrive(ctx, qs, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	high, _ := qs.High.Receive(ctx, 10, time.Minute)
	require.Len(t, high, 1)
	assert.JSONEq(t, `{"post":{"text":"a"}}`, string(high[0].Body))

	normal, _ := qs.Normal.Len(ctx)
	assert.Equal(t, 1, normal, "unknown origin falls back to the normal queue")

	dlq, _ := qs.DeadLetter.Len(ctx)
	assert.Equal(t, 0, dlq)
}

func TestPostFlagsPayload(t *testing.T) {
	cmd := &cobra.Command{Use: "submit"}
	f := &postFlags{}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--text", "Banjir", "--lat", "3.1", "--lon", "101.6", "--location", "KL"}))

	p := f.payload(cmd)
	assert.Equal(t, "Banjir", p["text"])
	assert.NotContains(t, p, "author")

	loc, ok := p["location"].(model.Location)
	require.True(t, ok)
	assert.Equal(t, "KL", loc.Name)
	require.True(t, loc.HasCoordinates())
	assert.Equal(t, 101.6, *loc.Lon)
}

func TestPostFlagsPayload_NoCoordinates(t *testing.T) {
	cmd := &cobra.Command{Use: "submit"}
	f := &postFlags{}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--text", "Banjir", "--lat", "3.1"}))

	assert.NotContains(t, f.payload(cmd), "location", "a lone latitude is dropped")
}
