package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// GuardedClient bounds every Generate call with a timeout and an optional
// client-side rate limit so a slow or throttled provider cannot stall the pipeline.
type GuardedClient struct {
	inner   LLMClient
	limiter *rate.Limiter
	timeout time.Duration
}

// Wrap returns inner guarded by rps/burst and timeout. rps <= 0 disables
// throttling; timeout <= 0 disables the per-call deadline.
func Wrap(inner LLMClient, rps float64, burst int, timeout time.Duration) *GuardedClient {
	g := &GuardedClient{inner: inner, timeout: timeout}
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return g
}

func (g *GuardedClient) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm rate limit: %w", err)
		}
	}
	return g.inner.Generate(ctx, prompt)
}
