package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/model"
)

// LogNotifier writes alerts to the log. Used when no transport is configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, alert model.Alert) error {
	l.Logger.Info().
		Str("subject", alert.Subject).
		Str("event_id", alert.Message.EventID).
		Str("severity", alert.Attributes["severity"]).
		Float64("score", alert.Message.DisasterScore).
		Msg("alert")
	return nil
}
