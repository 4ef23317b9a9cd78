package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/sentinel/internal/driver"
	"github.com/agenthands/sentinel/internal/model"
)

// GraphStore keeps events as :DisasterEvent nodes owned by a unique :DedupKey
// node, on Memgraph or Neo4j.
type GraphStore struct {
	Driver driver.GraphDriver
	now    func() time.Time
}

func NewGraphStore(d driver.GraphDriver) *GraphStore {
	return &GraphStore{Driver: d, now: time.Now}
}

func (g *GraphStore) Put(ctx context.Context, ev model.DisasterEvent) error {
	params := map[string]any{
		"key_hash":        KeyHash(ev.Author, ev.Text),
		"id":              ev.ID,
		"text":            ev.Text,
		"author":          ev.Author,
		"location":        ev.Location,
		"lat":             nil,
		"lon":             nil,
		"event_type":      ev.EventType,
		"verified":        int64(ev.Verified),
		"disaster_score":  ev.DisasterScore,
		"created_at":      ev.CreatedAt.Unix(),
		"ttl":             ev.TTL,
		"platform":        ev.Platform,
		"url":             ev.URL,
		"source_post_id":  ev.SourcePostID,
		"classifier_tier": string(ev.ClassifierTier),
		"now":             g.now().Unix(),
	}
	if ev.Coordinates != nil {
		params["lat"] = ev.Coordinates.Lat
		params["lon"] = ev.Coordinates.Lon
	}

	res, err := g.Driver.ExecuteQuery(ctx, driver.PutEventQuery, params)
	if err != nil {
		return fmt.Errorf("failed to save event %s: %w", ev.ID, err)
	}
	if len(res.Records) == 0 {
		return ErrDuplicate
	}
	return nil
}

func (g *GraphStore) FindByKey(ctx context.Context, author, text string) (*model.DisasterEvent, error) {
	res, err := g.Driver.ExecuteQuery(ctx, driver.FindEventByKeyQuery, map[string]any{
		"key_hash": KeyHash(author, text),
		"author":   author,
		"text":     text,
		"now":      g.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("index lookup failed: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}
	ev := eventFromRecord(res.Records[0])
	return &ev, nil
}

func (g *GraphStore) ScanSince(ctx context.Context, since time.Time) ([]model.DisasterEvent, error) {
	res, err := g.Driver.ExecuteQuery(ctx, driver.ScanEventsSinceQuery, map[string]any{
		"since": since.Unix(),
		"now":   g.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("scan since %s failed: %w", since.Format(time.RFC3339), err)
	}
	out := make([]model.DisasterEvent, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, eventFromRecord(rec))
	}
	return out, nil
}

func (g *GraphStore) Get(ctx context.Context, id string) (*model.DisasterEvent, error) {
	res, err := g.Driver.ExecuteQuery(ctx, driver.GetEventQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}
	ev := eventFromRecord(res.Records[0])
	return &ev, nil
}

func (g *GraphStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	params := map[string]any{"now": now.Unix()}
	if _, err := g.Driver.ExecuteQuery(ctx, driver.DeleteExpiredKeysQuery, params); err != nil {
		return 0, fmt.Errorf("ttl sweep of keys failed: %w", err)
	}
	res, err := g.Driver.ExecuteQuery(ctx, driver.DeleteExpiredEventsQuery, params)
	if err != nil {
		return 0, fmt.Errorf("ttl sweep of events failed: %w", err)
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return int(recordInt(res.Records[0], "removed")), nil
}

func (g *GraphStore) Close() error {
	return g.Driver.Close(context.Background())
}

func eventFromRecord(rec *neo4j.Record) model.DisasterEvent {
	ev := model.DisasterEvent{
		ID:             recordString(rec, "id"),
		Text:           recordString(rec, "text"),
		Author:         recordString(rec, "author"),
		Location:       recordString(rec, "location"),
		EventType:      recordString(rec, "event_type"),
		Verified:       int(recordInt(rec, "verified")),
		DisasterScore:  recordFloat(rec, "disaster_score"),
		CreatedAt:      time.Unix(recordInt(rec, "created_at"), 0).UTC(),
		TTL:            recordInt(rec, "ttl"),
		Platform:       recordString(rec, "platform"),
		URL:            recordString(rec, "url"),
		SourcePostID:   recordString(rec, "source_post_id"),
		ClassifierTier: model.Tier(recordString(rec, "classifier_tier")),
	}
	lat, latOK := rec.Get("lat")
	lon, lonOK := rec.Get("lon")
	if latOK && lonOK && lat != nil && lon != nil {
		ev.Coordinates = &model.Coordinates{Lat: toFloat(lat), Lon: toFloat(lon)}
	}
	return ev
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func recordFloat(rec *neo4j.Record, key string) float64 {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	return toFloat(v)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
