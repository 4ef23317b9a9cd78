package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/metrics"
	"github.com/agenthands/sentinel/internal/model"
	"github.com/agenthands/sentinel/internal/pipeline"
	"github.com/agenthands/sentinel/internal/queue"
)

// ErrPoisonMessage marks a body that cannot be decoded into a QueueEnvelope.
var ErrPoisonMessage = errors.New("poison message")

type Processor interface {
	Process(ctx context.Context, post model.RawPost) (pipeline.Outcome, error)
}

// Coordinator drains the source queues in bounded batches. A message is
// deleted only after the pipeline succeeded; failures are left for
// redelivery until MaxReceives, then copied to the dead-letter queue.
type Coordinator struct {
	Sources     []queue.Queue // polled in order; put the high priority queue first
	DeadLetter  queue.Queue
	Pipeline    Processor
	BatchSize   int
	Visibility  time.Duration
	MaxReceives int
	Concurrency int
	Poll        time.Duration
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger

	now func() time.Time
}

func New(qs *queue.Set, p Processor, cfg config.QueueConfig, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		Sources:     []queue.Queue{qs.High, qs.Normal},
		DeadLetter:  qs.DeadLetter,
		Pipeline:    p,
		BatchSize:   cfg.BatchSize,
		Visibility:  cfg.Visibility.Duration,
		MaxReceives: cfg.MaxReceives,
		Concurrency: cfg.Concurrency,
		Poll:        cfg.PollInterval.Duration,
		Logger:      logger,
		now:         time.Now,
	}
}

// Run polls until ctx is canceled. An empty round waits Poll before the next one.
func (c *Coordinator) Run(ctx context.Context) error {
	c.Logger.Info().Int("batch", c.BatchSize).Int("concurrency", c.Concurrency).Msg("coordinator started")
	for {
		results, err := c.RunOnce(ctx)
		if ctx.Err() != nil {
			c.Logger.Info().Msg("coordinator stopped")
			return nil
		}
		if err != nil {
			c.Logger.Error().Err(err).Msg("receive failed")
		}
		if len(results) > 0 && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			c.Logger.Info().Msg("coordinator stopped")
			return nil
		case <-time.After(c.Poll):
		}
	}
}

// RunOnce receives one batch from each source queue and processes it.
func (c *Coordinator) RunOnce(ctx context.Context) ([]Result, error) {
	var all []Result
	var errs []error
	for _, q := range c.Sources {
		if q == nil {
			continue
		}
		msgs, err := q.Receive(ctx, c.BatchSize, c.Visibility)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: receive %s: %w", pipeline.ErrTransient, q.Name(), err))
			continue
		}
		if len(msgs) == 0 {
			continue
		}
		all = append(all, c.ProcessBatch(ctx, q, msgs)...)
	}
	return all, errors.Join(errs...)
}

// ProcessBatch handles msgs with bounded parallelism. A failing message never
// affects the others in the batch.
func (c *Coordinator) ProcessBatch(ctx context.Context, q queue.Queue, msgs []queue.Message) []Result {
	results := make([]Result, len(msgs))

	var g errgroup.Group
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, msg := range msgs {
		i, msg := i, msg
		g.Go(func() error {
			results[i] = c.handle(ctx, q, msg)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Coordinator) handle(ctx context.Context, q queue.Queue, msg queue.Message) (res Result) {
	start := time.Now()
	defer c.Metrics.Observe("queue", start)

	res = Result{MessageID: msg.ID, Queue: q.Name()}
	res.advance(StateReceived)
	log := c.Logger.With().Str("message_id", msg.ID).Str("queue", q.Name()).Int("receive_count", msg.ReceiveCount).Logger()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
			log.Error().Interface("panic", r).Msg("message handler panicked")
			c.fail(ctx, q, msg, &res, log)
		}
	}()

	var env model.QueueEnvelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrPoisonMessage, err)
		c.fail(ctx, q, msg, &res, log)
		return res
	}

	res.advance(StateProcessing)
	out, err := c.Pipeline.Process(ctx, env.Post)
	if err != nil {
		res.Err = err
		c.fail(ctx, q, msg, &res, log)
		return res
	}

	switch out.Status {
	case pipeline.StatusDuplicate:
		res.advance(StateDuplicateDropped)
	case pipeline.StatusCreated:
		res.advance(StatePersisted)
		if out.Alerted {
			res.advance(StateAlerted)
		}
	}

	if err := q.Delete(ctx, msg.Receipt); err != nil {
		// the visibility timeout lapsed mid-processing; the redelivery will
		// be dropped as a duplicate
		log.Warn().Err(err).Msg("failed to acknowledge message")
		res.Err = err
		return res
	}
	res.advance(StateAcknowledged)
	log.Debug().Str("status", string(out.Status)).Msg("message acknowledged")
	return res
}

// fail leaves the message for redelivery or dead-letters it once the receive
// budget is spent. Failures during shutdown always leave it for redelivery.
func (c *Coordinator) fail(ctx context.Context, q queue.Queue, msg queue.Message, res *Result, log zerolog.Logger) {
	if ctx.Err() != nil {
		res.advance(StateRetryPending)
		log.Warn().Err(res.Err).Msg("shutting down, leaving message for redelivery")
		return
	}
	if msg.ReceiveCount < c.MaxReceives {
		res.advance(StateRetryPending)
		c.Metrics.Retried(q.Name())
		log.Warn().Err(res.Err).Msg("processing failed, leaving for redelivery")
		return
	}

	attrs := map[string]string{
		model.AttrOriginalQueue: q.Name(),
		model.AttrFailureReason: res.Err.Error(),
		model.AttrFailedAt:      c.now().UTC().Format(time.RFC3339),
	}
	if _, err := c.DeadLetter.Send(ctx, msg.Body, attrs); err != nil {
		res.advance(StateRetryPending)
		log.Error().Err(err).Msg("failed to dead-letter message")
		return
	}
	if err := q.Delete(ctx, msg.Receipt); err != nil {
		log.Warn().Err(err).Msg("dead-lettered message could not be removed from source")
	}
	res.advance(StateDeadLettered)
	c.Metrics.DeadLettered(q.Name())
	log.Error().Err(res.Err).Msg("message dead-lettered")
}
