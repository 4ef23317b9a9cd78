package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/model"
)

// ErrDispatch marks a failed alert delivery. It never undoes the persisted event.
var ErrDispatch = errors.New("alert dispatch failed")

type Dispatcher struct {
	Notifier  Notifier
	Threshold float64
	Logger    zerolog.Logger
	now       func() time.Time
}

func NewDispatcher(n Notifier, threshold float64, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{Notifier: n, Threshold: threshold, Logger: logger, now: time.Now}
}

// ShouldAlert reports whether ev is verified and scores strictly above the threshold.
func (d *Dispatcher) ShouldAlert(ev model.DisasterEvent) bool {
	return ev.IsVerified() && ev.DisasterScore > d.Threshold
}

// Dispatch publishes an alert for ev when it qualifies. The returned bool is
// true only when an alert was delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.DisasterEvent, post model.RawPost) (bool, error) {
	if !d.ShouldAlert(ev) {
		return false, nil
	}

	alert := BuildAlert(ev, post, d.now())
	if err := d.Notifier.Notify(ctx, alert); err != nil {
		d.Logger.Error().Err(err).Str("event_id", ev.ID).Msg("failed to dispatch alert")
		return false, fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	d.Logger.Info().Str("event_id", ev.ID).Str("severity", alert.Attributes["severity"]).Msg("alert dispatched")
	return true, nil
}

// FromConfig builds the notifier chain: webhook and Redis channel when set,
// falling back to the log.
func FromConfig(cfg config.NotifyConfig, rdb redis.UniversalClient, logger zerolog.Logger) Notifier {
	var chain Multi
	if cfg.WebhookURL != "" {
		chain = append(chain, NewWebhook(cfg.WebhookURL, WithHeaders(cfg.WebhookHeaders)))
	}
	if cfg.RedisChannel != "" && rdb != nil {
		chain = append(chain, NewRedisPublisher(rdb, cfg.RedisChannel))
	}
	if len(chain) == 0 {
		return LogNotifier{Logger: logger}
	}
	if len(chain) == 1 {
		return chain[0]
	}
	return chain
}
