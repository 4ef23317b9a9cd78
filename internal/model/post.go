package model

import "time"

type Location struct {
	Name string   `json:"name,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// HasCoordinates reports whether both lat and lon are present.
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Lat != nil && l.Lon != nil
}

// ValidCoordinates reports whether present coordinates are within range.
// Missing coordinates are valid.
func (l *Location) ValidCoordinates() bool {
	if l == nil {
		return true
	}
	if l.Lat != nil && (*l.Lat < -90 || *l.Lat > 90) {
		return false
	}
	if l.Lon != nil && (*l.Lon < -180 || *l.Lon > 180) {
		return false
	}
	return true
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Engagement struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
}

// Total returns the sum of all interactions.
func (e *Engagement) Total() int {
	if e == nil {
		return 0
	}
	return e.Likes + e.Shares + e.Comments
}

// RawPost is produced by the scraping adapters and is never modified after it is queued.
type RawPost struct {
	ID         string      `json:"id"`
	Platform   string      `json:"platform"`
	Text       string      `json:"text"`
	Author     string      `json:"author"`
	CreatedAt  time.Time   `json:"createdAt"`
	URL        string      `json:"url,omitempty"`
	Location   *Location   `json:"location,omitempty"`
	Hashtags   []string    `json:"hashtags,omitempty"`
	Mentions   []string    `json:"mentions,omitempty"`
	Engagement *Engagement `json:"engagement,omitempty"`
}

// Coordinates returns the post coordinates if both are present.
func (p RawPost) Coordinates() *Coordinates {
	if !p.Location.HasCoordinates() {
		return nil
	}
	return &Coordinates{Lat: *p.Location.Lat, Lon: *p.Location.Lon}
}

// LocationName returns the free-text location name, if any.
func (p RawPost) LocationName() string {
	if p.Location == nil {
		return ""
	}
	return p.Location.Name
}
