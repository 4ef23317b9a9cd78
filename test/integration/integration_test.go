//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/sentinel/internal/driver"
	"github.com/agenthands/sentinel/internal/model"
	"github.com/agenthands/sentinel/internal/store"
)

func init() {
	_ = godotenv.Load("../../.env")
}

func memgraphStore(t *testing.T) *store.GraphStore {
	t.Helper()
	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}

	ctx := context.Background()
	d, err := driver.NewMemgraphDriver(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, d.BuildIndices(ctx))

	s := store.NewGraphStore(d)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGraphStore_Contract(t *testing.T) {
	s := memgraphStore(t)
	ctx := context.Background()

	author := "it-" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	ev := model.DisasterEvent{
		ID:            uuid.NewString(),
		Text:          "Flood warning in downtown area, roads blocked",
		Author:        author,
		EventType:     "flood",
		Verified:      1,
		DisasterScore: 0.77,
		CreatedAt:     now,
		TTL:           now.Add(time.Hour).Unix(),
		Coordinates:   &model.Coordinates{Lat: 3.139, Lon: 101.6869},
	}

	require.NoError(t, s.Put(ctx, ev))
	require.NoError(t, s.Put(ctx, ev), "same id is idempotent")

	other := ev
	other.ID = uuid.NewString()
	assert.ErrorIs(t, s.Put(ctx, other), store.ErrDuplicate)

	got, err := s.FindByKey(ctx, author, ev.Text)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, now, got.CreatedAt)
	require.NotNil(t, got.Coordinates)

	recent, err := s.ScanSince(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	found := false
	for _, r := range recent {
		found = found || r.ID == ev.ID
	}
	assert.True(t, found)

	n, err := s.DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	_, err = s.Get(ctx, ev.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGraphStore_ZeroTTL(t *testing.T) {
	s := memgraphStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	ev := model.DisasterEvent{
		ID:        uuid.NewString(),
		Text:      "Earthquake felt across the valley",
		Author:    "it-" + uuid.NewString(),
		EventType: "earthquake",
		CreatedAt: now,
	}
	require.NoError(t, s.Put(ctx, ev))

	repeat := ev
	repeat.ID = uuid.NewString()
	assert.ErrorIs(t, s.Put(ctx, repeat), store.ErrDuplicate)

	got, err := s.FindByKey(ctx, ev.Author, ev.Text)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)

	_, err = s.DeleteExpired(ctx, now.Add(48*time.Hour))
	require.NoError(t, err)
	_, err = s.Get(ctx, ev.ID)
	assert.NoError(t, err)
}
