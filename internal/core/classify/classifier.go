package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/llm"
	"github.com/agenthands/sentinel/internal/model"
)

// Classifier turns post text into a ClassificationResult. The model is tried
// first; unusable output falls back to keyword rules, and a failed call falls
// back to the local heuristic. Classify never fails.
type Classifier struct {
	LLM     llm.LLMClient
	Lexicon *Lexicon
	Prompt  string
	Logger  zerolog.Logger
}

func NewClassifier(llmClient llm.LLMClient, lexicon *Lexicon, logger zerolog.Logger) *Classifier {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Classifier{
		LLM:     llmClient,
		Lexicon: lexicon,
		Logger:  logger,
	}
}

func (c *Classifier) Classify(ctx context.Context, text string) (result model.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error().Interface("panic", r).Msg("classifier panicked, using heuristic tier")
			result = c.lastResort(text, fmt.Sprintf("recovered: %v", r))
		}
	}()

	if strings.TrimSpace(text) == "" {
		return nonDisaster(model.TierHeuristicFallback, heuristicConfidence, "empty post")
	}
	if c.LLM == nil {
		return c.degrade(model.TierHeuristicFallback, "no model configured", text, "")
	}

	raw, err := c.LLM.Generate(ctx, c.buildPrompt(text))
	if errors.Is(err, llm.ErrEmptyResponse) {
		// the call succeeded, it just carried no JSON
		return c.degrade(model.TierSafeFallback, err.Error(), text, "")
	}
	if err != nil {
		return c.degrade(model.TierHeuristicFallback, err.Error(), text, "")
	}

	res, err := parseJudgment(raw)
	if err == nil {
		return res
	}
	return c.degrade(model.TierSafeFallback, err.Error(), text, raw)
}

func (c *Classifier) degrade(tier model.Tier, reason, text, raw string) model.ClassificationResult {
	c.Logger.Warn().
		Str("tier", string(tier)).
		Str("reason", reason).
		Msg("classification degraded")

	if tier == model.TierSafeFallback {
		return c.safeResponse(raw, text)
	}
	return c.heuristic(text, "model unavailable")
}

// lastResort runs the heuristic tier, and if even that fails returns a fixed
// low-confidence non-disaster result.
func (c *Classifier) lastResort(text, why string) (result model.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = nonDisaster(model.TierHeuristicFallback, heuristicConfidence, why)
		}
	}()
	return c.heuristic(text, why)
}
