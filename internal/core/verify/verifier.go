package verify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/model"
)

const unavailableSource = "unavailable"

type Verdict struct {
	Verified    int     `json:"verified"`
	Signal      float64 `json:"signal"`
	Source      string  `json:"source"`
	Unavailable bool    `json:"unavailable"`
}

// Verifier gates the verified flag on an independent hazard signal: text
// severity alone never verifies an event.
type Verifier struct {
	Source        SignalSource
	Threshold     float64
	DefaultSignal float64
	Timeout       time.Duration
	Logger        zerolog.Logger
}

func NewVerifier(source SignalSource, cfg config.VerifyConfig, logger zerolog.Logger) *Verifier {
	return &Verifier{
		Source:        source,
		Threshold:     cfg.Threshold,
		DefaultSignal: cfg.DefaultSignal,
		Timeout:       cfg.Timeout.Duration,
		Logger:        logger,
	}
}

// NewSourceFromConfig picks the HTTP feed when configured, otherwise a static baseline.
func NewSourceFromConfig(cfg config.VerifyConfig) SignalSource {
	var src SignalSource
	if cfg.SignalURL != "" {
		src = NewHTTPSource(cfg.SignalURL, cfg.Timeout.Duration)
	} else {
		src = StaticSource{Value: Signal{Severity: cfg.BaselineSignal, Source: "baseline"}}
	}
	if cfg.CacheTTL.Duration > 0 {
		src = NewCachedSource(src, cfg.CacheTTL.Duration)
	}
	return src
}

// Verify returns Verified=1 iff both the severity score and the independent
// signal exceed the threshold. An unreachable source degrades to DefaultSignal.
func (v *Verifier) Verify(ctx context.Context, score float64, coords *model.Coordinates) Verdict {
	sig := v.fetch(ctx, coords)

	verdict := Verdict{
		Signal:      sig.Severity,
		Source:      sig.Source,
		Unavailable: sig.Source == unavailableSource,
	}
	if score > v.Threshold && sig.Severity > v.Threshold {
		verdict.Verified = 1
	}
	return verdict
}

func (v *Verifier) fetch(ctx context.Context, coords *model.Coordinates) Signal {
	fallback := Signal{Severity: v.DefaultSignal, Source: unavailableSource}
	if v.Source == nil {
		return fallback
	}

	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	sig, err := v.Source.Fetch(ctx, coords)
	if err != nil {
		v.Logger.Warn().Err(err).Float64("default_signal", v.DefaultSignal).Msg("corroboration unavailable")
		return fallback
	}
	return sig
}
