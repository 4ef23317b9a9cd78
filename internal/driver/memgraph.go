package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	Logger zerolog.Logger
}

func NewMemgraphDriver(ctx context.Context, uri, username, password string, logger zerolog.Logger) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("memgraph unreachable at %s: %w", uri, err)
	}

	logger.Info().Str("uri", uri).Msg("connected to memgraph")
	return &MemgraphDriver{Driver: driver, Logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE CONSTRAINT ON (k:DedupKey) ASSERT k.key_hash IS UNIQUE;",
		"CREATE INDEX ON :DedupKey(key_hash);",
		"CREATE INDEX ON :DisasterEvent(id);",
		"CREATE INDEX ON :DisasterEvent(created_at);",
		"CREATE INDEX ON :DisasterEvent(ttl);",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// already existing indices report an error; keep going
			d.Logger.Warn().Err(err).Str("query", q).Msg("failed to create index")
		}
	}

	return nil
}
