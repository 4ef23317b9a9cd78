package model

import "time"

// DisasterEvent is the persisted, write-once record of a processed post.
type DisasterEvent struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Location       string       `json:"location,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	EventType      string       `json:"eventType"`
	Verified       int          `json:"verified"` // 0 or 1
	DisasterScore  float64      `json:"disasterScore"`
	CreatedAt      time.Time    `json:"createdAt"`
	Author         string       `json:"author"`
	TTL            int64        `json:"ttl"` // unix seconds after which the record expires
	Platform       string       `json:"platform,omitempty"`
	URL            string       `json:"url,omitempty"`
	SourcePostID   string       `json:"sourcePostId,omitempty"`
	ClassifierTier Tier         `json:"classifierTier,omitempty"`
}

// IsVerified reports whether the event passed corroboration.
func (e DisasterEvent) IsVerified() bool {
	return e.Verified == 1
}

// Expired reports whether the event's TTL has passed at t.
func (e DisasterEvent) Expired(t time.Time) bool {
	return e.TTL > 0 && t.Unix() >= e.TTL
}
