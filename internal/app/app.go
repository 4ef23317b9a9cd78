package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/coordinator"
	"github.com/agenthands/sentinel/internal/core/classify"
	"github.com/agenthands/sentinel/internal/core/dedupe"
	"github.com/agenthands/sentinel/internal/core/score"
	"github.com/agenthands/sentinel/internal/core/verify"
	"github.com/agenthands/sentinel/internal/llm"
	"github.com/agenthands/sentinel/internal/metrics"
	"github.com/agenthands/sentinel/internal/notify"
	"github.com/agenthands/sentinel/internal/pipeline"
	"github.com/agenthands/sentinel/internal/queue"
	"github.com/agenthands/sentinel/internal/server"
	"github.com/agenthands/sentinel/internal/store"
)

// App is the wired component graph shared by the server and worker binaries.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	Store       store.EventStore
	Queues      *queue.Set
	Pipeline    *pipeline.Pipeline
	Coordinator *coordinator.Coordinator

	closers []func() error
}

// Build connects every backend named in cfg. Close releases them. On error
// whatever was already opened is closed and the returned App is nil.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Store, err = store.Open(ctx, cfg.Store, logger.With().Str("component", "store").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	a.closers = append(a.closers, a.Store.Close)

	a.Queues, err = queue.Open(ctx, cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to open queues: %w", err)
	}
	a.closers = append(a.closers, a.Queues.Close)

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		// the classifier still answers through its heuristic tier
		logger.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("LLM client unavailable, classifier runs on heuristics only")
		llmClient = nil
	}

	lexicon := classify.DefaultLexicon()
	if cfg.Classifier.LexiconPath != "" {
		lexicon, err = classify.LoadLexicon(cfg.Classifier.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load lexicon: %w", err)
		}
	}
	classifier := classify.NewClassifier(llmClient, lexicon, logger.With().Str("component", "classifier").Logger())
	if cfg.LLM.PromptTemplate != "" {
		classifier.Prompt = cfg.LLM.PromptTemplate
	}

	var rdb redis.UniversalClient
	if cfg.Notify.RedisChannel != "" {
		c, err := queue.NewRedisClient(cfg.Queue.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		rdb = c
	}
	notifier := notify.FromConfig(cfg.Notify, rdb, logger.With().Str("component", "notify").Logger())

	var recent *dedupe.Recent
	if cfg.Store.RecentCache > 0 {
		recent = dedupe.NewRecent(cfg.Store.RecentCache, cfg.Store.Retention.Duration)
	}

	a.Pipeline = pipeline.New(
		dedupe.NewIndex(a.Store, cfg.Store.DedupWindow.Duration, recent, logger),
		classifier,
		score.NewScorer(cfg.Scoring),
		verify.NewVerifier(verify.NewSourceFromConfig(cfg.Verify), cfg.Verify, logger),
		a.Store,
		notify.NewDispatcher(notifier, cfg.Notify.AlertThreshold, logger),
		cfg.Store.Retention.Duration,
		logger.With().Str("component", "pipeline").Logger(),
	)
	a.Pipeline.Metrics = a.Metrics

	a.Coordinator = coordinator.New(a.Queues, a.Pipeline, cfg.Queue, logger.With().Str("component", "coordinator").Logger())
	a.Coordinator.Metrics = a.Metrics

	return a, nil
}

func (a *App) Server() *server.Server {
	return &server.Server{
		Pipeline:      a.Pipeline,
		Events:        a.Store,
		Normal:        a.Queues.Normal,
		High:          a.Queues.High,
		Metrics:       a.Metrics,
		MaxTextLength: a.Config.Server.MaxTextLength,
		Logger:        a.Logger.With().Str("component", "http").Logger(),
	}
}

// Sweep runs the TTL sweeper until ctx is done.
func (a *App) Sweep(ctx context.Context) {
	store.Sweep(ctx, a.Store, a.Config.Store.SweepInterval.Duration, a.Logger)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
