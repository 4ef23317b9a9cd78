package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/core/verify"
	"github.com/agenthands/sentinel/internal/metrics"
	"github.com/agenthands/sentinel/internal/model"
	"github.com/agenthands/sentinel/internal/store"
)

type Status string

const (
	StatusDuplicate   Status = "duplicate"
	StatusNotDisaster Status = "not_disaster"
	StatusCreated     Status = "created"
)

type Deduper interface {
	IsDuplicate(ctx context.Context, author, text string) (bool, error)
	MarkPersisted(author, text string)
}

type Classifier interface {
	Classify(ctx context.Context, text string) model.ClassificationResult
}

type Scorer interface {
	Score(res model.ClassificationResult, post model.RawPost) float64
}

type Verifier interface {
	Verify(ctx context.Context, score float64, coords *model.Coordinates) verify.Verdict
}

// Persister is the conditional write of the event store.
type Persister interface {
	Put(ctx context.Context, ev model.DisasterEvent) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev model.DisasterEvent, post model.RawPost) (bool, error)
}

// Outcome describes what happened to one post.
type Outcome struct {
	Status         Status
	Event          *model.DisasterEvent
	Classification *model.ClassificationResult
	Verdict        *verify.Verdict
	Alerted        bool
}

// Pipeline runs dedup, classify, score, verify, persist and dispatch for a
// single post. The HTTP handler and the queue coordinator share it.
type Pipeline struct {
	Dedup      Deduper
	Classifier Classifier
	Scorer     Scorer
	Verifier   Verifier
	Store      Persister
	Dispatcher Dispatcher
	Retention  time.Duration
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger

	now   func() time.Time
	newID func() string
}

func New(dedup Deduper, classifier Classifier, scorer Scorer, verifier Verifier,
	st Persister, dispatcher Dispatcher, retention time.Duration, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		Dedup:      dedup,
		Classifier: classifier,
		Scorer:     scorer,
		Verifier:   verifier,
		Store:      st,
		Dispatcher: dispatcher,
		Retention:  retention,
		Logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Process handles one post. Errors are ErrTransient or ErrPersistence; an
// alert failure is logged and never returned.
func (p *Pipeline) Process(ctx context.Context, post model.RawPost) (Outcome, error) {
	log := p.Logger.With().Str("post_id", post.ID).Str("platform", post.Platform).Logger()

	dup, err := p.Dedup.IsDuplicate(ctx, post.Author, post.Text)
	if err != nil {
		p.Metrics.Outcome("failed")
		return Outcome{}, fmt.Errorf("%w: dedup lookup: %w", ErrTransient, err)
	}
	if dup {
		log.Debug().Str("author", post.Author).Msg("duplicate post skipped")
		p.Metrics.Outcome(string(StatusDuplicate))
		return Outcome{Status: StatusDuplicate}, nil
	}

	res := p.Classifier.Classify(ctx, post.Text)
	p.Metrics.Tier(string(res.Tier))
	if !res.IsDisaster {
		log.Debug().Str("tier", string(res.Tier)).Str("reasoning", res.Reasoning).Msg("not disaster related")
		p.Metrics.Outcome(string(StatusNotDisaster))
		return Outcome{Status: StatusNotDisaster, Classification: &res}, nil
	}

	score := p.Scorer.Score(res, post)
	coords := post.Coordinates()
	verdict := p.Verifier.Verify(ctx, score, coords)
	p.Metrics.Verdict(verdict.Verified == 1, verdict.Source)

	ev := p.buildEvent(post, res, score, verdict, coords)
	if err := p.Store.Put(ctx, ev); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// lost a race with a concurrent copy of this post
			log.Info().Str("author", post.Author).Msg("duplicate detected at write")
			p.Dedup.MarkPersisted(post.Author, post.Text)
			p.Metrics.Outcome(string(StatusDuplicate))
			return Outcome{Status: StatusDuplicate, Classification: &res}, nil
		}
		p.Metrics.Outcome("failed")
		return Outcome{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	p.Dedup.MarkPersisted(post.Author, post.Text)
	p.Metrics.Outcome(string(StatusCreated))
	p.Metrics.Score(score)

	log.Info().
		Str("event_id", ev.ID).
		Str("event_type", ev.EventType).
		Float64("score", score).
		Int("verified", ev.Verified).
		Str("tier", string(res.Tier)).
		Msg("event persisted")

	out := Outcome{Status: StatusCreated, Event: &ev, Classification: &res, Verdict: &verdict}

	alerted, err := p.Dispatcher.Dispatch(ctx, ev, post)
	switch {
	case err != nil:
		p.Metrics.Alert("failed")
	case alerted:
		p.Metrics.Alert("sent")
		out.Alerted = true
	}
	return out, nil
}

func (p *Pipeline) buildEvent(post model.RawPost, res model.ClassificationResult, score float64,
	verdict verify.Verdict, coords *model.Coordinates) model.DisasterEvent {
	now := p.now().UTC()

	eventType := res.Type()
	if eventType == "" {
		eventType = "other"
	}
	location := post.LocationName()
	if location == "" {
		location = res.LocationName()
	}

	ev := model.DisasterEvent{
		ID:             p.newID(),
		Text:           post.Text,
		Location:       location,
		Coordinates:    coords,
		EventType:      eventType,
		Verified:       verdict.Verified,
		DisasterScore:  score,
		CreatedAt:      now,
		Author:         post.Author,
		Platform:       post.Platform,
		URL:            post.URL,
		SourcePostID:   post.ID,
		ClassifierTier: res.Tier,
	}
	if p.Retention > 0 {
		ev.TTL = now.Add(p.Retention).Unix()
	}
	return ev
}
