package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/agenthands/sentinel/internal/model"
)

// Notifier delivers one alert to a downstream channel.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) error
}

const highSeverityScore = 0.8

// Severity maps a disaster score to the alert severity attribute.
func Severity(score float64) model.AlertSeverity {
	if score >= highSeverityScore {
		return model.AlertSeverityHigh
	}
	return model.AlertSeverityMedium
}

// BuildAlert assembles the published payload for a persisted event.
func BuildAlert(ev model.DisasterEvent, post model.RawPost, processedAt time.Time) model.Alert {
	platform := ev.Platform
	if platform == "" {
		platform = post.Platform
	}
	location := ev.Location
	if location == "" {
		location = "unknown location"
	}

	return model.Alert{
		Subject: fmt.Sprintf("Disaster alert: %s reported on %s near %s", ev.EventType, platform, location),
		Message: model.AlertMessage{
			EventID:       ev.ID,
			EventType:     ev.EventType,
			Platform:      platform,
			Text:          ev.Text,
			Author:        ev.Author,
			Location:      ev.Location,
			DisasterScore: ev.DisasterScore,
			URL:           post.URL,
			ProcessedAt:   processedAt.UTC(),
			Verified:      ev.IsVerified(),
		},
		Attributes: map[string]string{
			"platform": platform,
			"severity": string(Severity(ev.DisasterScore)),
			"verified": strconv.FormatBool(ev.IsVerified()),
		},
	}
}
