package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/agenthands/sentinel/internal/model"
)

type eventRow struct {
	ID             string `gorm:"primaryKey;size:36"`
	KeyHash        string `gorm:"uniqueIndex;size:64;not null"`
	Author         string `gorm:"not null"`
	Text           string `gorm:"not null"`
	Location       string
	Lat            *float64
	Lon            *float64
	EventType      string
	Verified       int
	DisasterScore  float64
	CreatedAt      time.Time `gorm:"index"`
	TTL            int64     `gorm:"index"`
	Platform       string
	URL            string
	SourcePostID   string
	ClassifierTier string
}

func (eventRow) TableName() string { return "disaster_events" }

func rowFromEvent(ev model.DisasterEvent) eventRow {
	row := eventRow{
		ID:             ev.ID,
		KeyHash:        KeyHash(ev.Author, ev.Text),
		Author:         ev.Author,
		Text:           ev.Text,
		Location:       ev.Location,
		EventType:      ev.EventType,
		Verified:       ev.Verified,
		DisasterScore:  ev.DisasterScore,
		CreatedAt:      ev.CreatedAt.UTC(),
		TTL:            ev.TTL,
		Platform:       ev.Platform,
		URL:            ev.URL,
		SourcePostID:   ev.SourcePostID,
		ClassifierTier: string(ev.ClassifierTier),
	}
	if ev.Coordinates != nil {
		lat, lon := ev.Coordinates.Lat, ev.Coordinates.Lon
		row.Lat, row.Lon = &lat, &lon
	}
	return row
}

func (r eventRow) event() model.DisasterEvent {
	ev := model.DisasterEvent{
		ID:             r.ID,
		Text:           r.Text,
		Location:       r.Location,
		EventType:      r.EventType,
		Verified:       r.Verified,
		DisasterScore:  r.DisasterScore,
		CreatedAt:      r.CreatedAt,
		Author:         r.Author,
		TTL:            r.TTL,
		Platform:       r.Platform,
		URL:            r.URL,
		SourcePostID:   r.SourcePostID,
		ClassifierTier: model.Tier(r.ClassifierTier),
	}
	if r.Lat != nil && r.Lon != nil {
		ev.Coordinates = &model.Coordinates{Lat: *r.Lat, Lon: *r.Lon}
	}
	return ev
}

// SQLStore persists events in a relational table through GORM. The unique
// index on key_hash makes Put a single conditional insert.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database file at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewSQLStore(db)
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&eventRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate events table: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

func (s *SQLStore) Put(ctx context.Context, ev model.DisasterEvent) error {
	row := rowFromEvent(ev)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to insert event %s: %w", ev.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Conflict: either a retry of this very event or a different event holding the key.
	var existing eventRow
	err := s.db.WithContext(ctx).Where("key_hash = ?", row.KeyHash).First(&existing).Error
	if err == nil && existing.ID == ev.ID {
		return nil
	}
	if err == nil && existing.TTL > 0 && s.now().Unix() >= existing.TTL {
		// expired but not yet swept; take the key over
		return s.replaceExpired(ctx, existing, row)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to resolve insert conflict for %s: %w", ev.ID, err)
	}
	return ErrDuplicate
}

func (s *SQLStore) replaceExpired(ctx context.Context, old, row eventRow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND ttl = ?", old.ID, old.TTL).Delete(&eventRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicate
		}
		return tx.Create(&row).Error
	})
}

func (s *SQLStore) FindByKey(ctx context.Context, author, text string) (*model.DisasterEvent, error) {
	var row eventRow
	err := s.db.WithContext(ctx).
		Where("key_hash = ? AND author = ? AND text = ?", KeyHash(author, text), author, text).
		Where("ttl = 0 OR ttl > ?", s.now().Unix()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index lookup failed: %w", err)
	}
	ev := row.event()
	return &ev, nil
}

func (s *SQLStore) ScanSince(ctx context.Context, since time.Time) ([]model.DisasterEvent, error) {
	var rows []eventRow
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since.UTC()).
		Where("ttl = 0 OR ttl > ?", s.now().Unix()).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("scan since %s failed: %w", since.Format(time.RFC3339), err)
	}
	out := make([]model.DisasterEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.event())
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*model.DisasterEvent, error) {
	var row eventRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ev := row.event()
	return &ev, nil
}

func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("ttl > 0 AND ttl <= ?", now.Unix()).Delete(&eventRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("ttl sweep failed: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
