package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/sentinel/internal/config"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	cfg.Queue.Backend = "memory"
	return cfg
}

func TestBuild_Memory(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.NotNil(t, a.Pipeline)
	assert.NotNil(t, a.Coordinator)
	assert.NotNil(t, a.Server())
	assert.NoError(t, a.Close())
}

func TestBuild_FailuresReturnErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown store backend",
			mutate: func(c *config.Config) { c.Store.Backend = "cassandra" },
			want:   "failed to open event store",
		},
		{
			name: "redis unreachable",
			mutate: func(c *config.Config) {
				c.Queue.Backend = "redis"
				c.Queue.RedisURL = "redis://127.0.0.1:1/0"
			},
			want: "failed to open queues",
		},
		{
			name: "missing lexicon",
			mutate: func(c *config.Config) {
				c.Classifier.LexiconPath = filepath.Join(t.TempDir(), "absent.yaml")
			},
			want: "failed to load lexicon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig()
			tt.mutate(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var (
				a   *App
				err error
			)
			require.NotPanics(t, func() {
				a, err = Build(ctx, cfg, zerolog.Nop())
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Nil(t, a)
		})
	}
}

func TestClose_RunsClosersInReverse(t *testing.T) {
	var order []string
	a := &App{closers: []func() error{
		func() error { order = append(order, "store"); return nil },
		func() error { order = append(order, "queues"); return nil },
	}}

	require.NoError(t, a.Close())
	assert.Equal(t, []string{"queues", "store"}, order)
	assert.NoError(t, a.Close())
}
