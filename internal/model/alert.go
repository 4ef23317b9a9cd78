package model

import "time"

type AlertSeverity string

const (
	AlertSeverityMedium AlertSeverity = "MEDIUM"
	AlertSeverityHigh   AlertSeverity = "HIGH"
)

// AlertMessage is the body published for a verified, high-severity event.
type AlertMessage struct {
	EventID       string    `json:"eventId"`
	EventType     string    `json:"eventType"`
	Platform      string    `json:"platform"`
	Text          string    `json:"text"`
	Author        string    `json:"author"`
	Location      string    `json:"location"`
	DisasterScore float64   `json:"disasterScore"`
	URL           string    `json:"url"`
	ProcessedAt   time.Time `json:"processedAt"`
	Verified      bool      `json:"verified"`
}

// Alert pairs the message with its subject and transport attributes.
type Alert struct {
	Subject    string            `json:"subject"`
	Message    AlertMessage      `json:"message"`
	Attributes map[string]string `json:"attributes"`
}
