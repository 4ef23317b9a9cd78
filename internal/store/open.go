package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/driver"
)

// Open builds the configured backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (EventStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		return OpenSQLite(cfg.SQLitePath)
	case "memgraph", "neo4j":
		d, err := driver.NewMemgraphDriver(ctx, cfg.MemgraphURI, cfg.MemgraphUser, cfg.MemgraphPass, logger)
		if err != nil {
			return nil, err
		}
		if err := d.BuildIndices(ctx); err != nil {
			return nil, err
		}
		return NewGraphStore(d), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// Sweep deletes expired events every interval until ctx is done.
func Sweep(ctx context.Context, s EventStore, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.DeleteExpired(ctx, now)
			if err != nil {
				logger.Warn().Err(err).Msg("ttl sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("removed", n).Msg("expired events swept")
			}
		}
	}
}
