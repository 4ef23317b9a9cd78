package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Keys per queue:
//
//	<name>:pending     list of message ids, consumed from the right
//	<name>:inflight    sorted set of claimed ids scored by visibility deadline (ms)
//	<name>:msg:<id>    hash with body, attrs, count, receipt
//
// Message keys are derived inside the scripts, so a queue must live on a
// single node.

var receiveScript = redis.NewScript(`
local expired = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1])
for _, id in ipairs(expired) do
	redis.call('ZREM', KEYS[2], id)
	redis.call('RPUSH', KEYS[1], id)
end
local out = {}
for i = 1, tonumber(ARGV[3]) do
	local id = redis.call('RPOP', KEYS[1])
	if not id then break end
	local key = ARGV[4] .. id
	if redis.call('EXISTS', key) == 1 then
		local count = redis.call('HINCRBY', key, 'count', 1)
		local receipt = id .. ':' .. count
		redis.call('HSET', key, 'receipt', receipt)
		redis.call('ZADD', KEYS[2], ARGV[2], id)
		local fields = redis.call('HMGET', key, 'body', 'attrs')
		table.insert(out, {id, fields[1] or '', fields[2] or '', count, receipt})
	end
end
return out
`)

var deleteScript = redis.NewScript(`
local key = ARGV[2] .. ARGV[1]
if redis.call('HGET', key, 'receipt') ~= ARGV[3] then
	return 0
end
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('DEL', key)
return 1
`)

type RedisQueue struct {
	rdb  redis.UniversalClient
	name string
	now  func() time.Time
}

func NewRedisQueue(rdb redis.UniversalClient, name string) *RedisQueue {
	return &RedisQueue{rdb: rdb, name: name, now: time.Now}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func (q *RedisQueue) Name() string { return q.name }

func (q *RedisQueue) pendingKey() string  { return q.name + ":pending" }
func (q *RedisQueue) inflightKey() string { return q.name + ":inflight" }
func (q *RedisQueue) msgPrefix() string   { return q.name + ":msg:" }

func (q *RedisQueue) Send(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	id := uuid.NewString()
	rawAttrs := ""
	if len(attrs) > 0 {
		b, err := json.Marshal(attrs)
		if err != nil {
			return "", err
		}
		rawAttrs = string(b)
	}

	_, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, q.msgPrefix()+id, "body", body, "attrs", rawAttrs, "count", 0)
		p.LPush(ctx, q.pendingKey(), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to send to %s: %w", q.name, err)
	}
	return id, nil
}

func (q *RedisQueue) Receive(ctx context.Context, max int, visibility time.Duration) ([]Message, error) {
	now := q.now()
	res, err := receiveScript.Run(ctx, q.rdb,
		[]string{q.pendingKey(), q.inflightKey()},
		now.UnixMilli(), now.Add(visibility).UnixMilli(), max, q.msgPrefix(),
	).Slice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to receive from %s: %w", q.name, err)
	}

	out := make([]Message, 0, len(res))
	for _, row := range res {
		fields, ok := row.([]any)
		if !ok || len(fields) != 5 {
			return nil, fmt.Errorf("unexpected receive reply from %s: %v", q.name, row)
		}
		msg := Message{
			ID:      asString(fields[0]),
			Body:    []byte(asString(fields[1])),
			Receipt: asString(fields[4]),
			Queue:   q.name,
		}
		if n, ok := fields[3].(int64); ok {
			msg.ReceiveCount = int(n)
		}
		msg.Attributes = decodeAttrs(asString(fields[2]))
		out = append(out, msg)
	}
	return out, nil
}

func (q *RedisQueue) Delete(ctx context.Context, receipt string) error {
	id, _, ok := strings.Cut(receipt, ":")
	if !ok {
		return ErrReceiptNotFound
	}
	n, err := deleteScript.Run(ctx, q.rdb, []string{q.inflightKey()}, id, q.msgPrefix(), receipt).Int()
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", q.name, err)
	}
	if n == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (q *RedisQueue) Peek(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		return nil, nil
	}
	ids, err := q.rdb.LRange(ctx, q.pendingKey(), int64(-max), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to peek %s: %w", q.name, err)
	}

	out := make([]Message, 0, len(ids))
	// oldest is at the right end
	for i := len(ids) - 1; i >= 0; i-- {
		vals, err := q.rdb.HMGet(ctx, q.msgPrefix()+ids[i], "body", "attrs", "count").Result()
		if err != nil {
			return nil, err
		}
		if vals[0] == nil {
			continue
		}
		msg := Message{
			ID:         ids[i],
			Body:       []byte(asString(vals[0])),
			Attributes: decodeAttrs(asString(vals[1])),
			Queue:      q.name,
		}
		msg.ReceiveCount, _ = strconv.Atoi(asString(vals[2]))
		out = append(out, msg)
	}
	return out, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	var pending *redis.IntCmd
	var inflight *redis.IntCmd
	_, err := q.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		pending = p.LLen(ctx, q.pendingKey())
		inflight = p.ZCard(ctx, q.inflightKey())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(pending.Val() + inflight.Val()), nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func decodeAttrs(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var attrs map[string]string
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil
	}
	return attrs
}
