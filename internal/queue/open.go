package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/sentinel/internal/config"
)

// Set is the trio of queues a deployment uses.
type Set struct {
	Normal     Queue
	High       Queue
	DeadLetter Queue
	close      func() error
}

func (s *Set) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects the configured backend. The memory backend is only useful
// when producer and consumer share a process.
func Open(ctx context.Context, cfg config.QueueConfig) (*Set, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return &Set{
			Normal:     NewMemoryQueue(cfg.NormalQueue),
			High:       NewMemoryQueue(cfg.HighPriorityQueue),
			DeadLetter: NewMemoryQueue(cfg.DeadLetterQueue),
		}, nil
	case "redis", "":
		rdb, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		return &Set{
			Normal:     NewRedisQueue(rdb, cfg.NormalQueue),
			High:       NewRedisQueue(rdb, cfg.HighPriorityQueue),
			DeadLetter: NewRedisQueue(rdb, cfg.DeadLetterQueue),
			close:      rdb.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", cfg.Backend)
	}
}
