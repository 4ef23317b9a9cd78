package classify

import (
	"fmt"
	"strings"

	"github.com/agenthands/sentinel/internal/model"
)

// safeResponse handles a model answer that could not be parsed. It trusts
// explicit negative signals first, then falls back to a short keyword list.
func (c *Classifier) safeResponse(raw, text string) model.ClassificationResult {
	rawDoc := newDocument(raw)
	textDoc := newDocument(text)

	if m := rawDoc.matches(c.Lexicon.NegativeMarkers); len(m) > 0 {
		return nonDisaster(model.TierSafeFallback, 0.9,
			fmt.Sprintf("model output indicated non-disaster (%q)", m[0]))
	}
	if m := textDoc.matches(c.Lexicon.NegativeMarkers); len(m) > 0 {
		return nonDisaster(model.TierSafeFallback, 0.85,
			fmt.Sprintf("post states it is not a disaster (%q)", m[0]))
	}
	if m := textDoc.matches(c.Lexicon.MundaneKeywords); len(m) > 0 {
		return nonDisaster(model.TierSafeFallback, 0.85,
			fmt.Sprintf("mundane context: %s", strings.Join(m, ", ")))
	}

	hits := textDoc.matchTypes(c.Lexicon.SafeKeywords)
	n := countKeywords(hits)
	positive := len(rawDoc.matches(c.Lexicon.PositiveMarkers)) > 0

	if n == 0 && !positive {
		return nonDisaster(model.TierSafeFallback, 0.6, "unparseable model output and no disaster keywords")
	}

	t := "other"
	if len(hits) > 0 {
		t = hits[0].Type
	}
	confidence := 0.4 + 0.1*float64(n-1)
	severity := 0.5 + 0.1*float64(n-1)
	reason := fmt.Sprintf("unparseable model output; disaster keywords: %s", strings.Join(flattenKeywords(hits), ", "))
	if positive {
		confidence += 0.1
		if n == 0 {
			severity = 0.5
			reason = "unparseable model output flagged the post as a disaster"
		}
	}

	return model.ClassificationResult{
		IsDisaster:   true,
		DisasterType: &t,
		Severity:     clampRange(severity, 0, 0.8),
		Confidence:   clampRange(confidence, 0.4, 0.6),
		Entities:     keywordEntities(hits, 0.5),
		Sentiment:    model.Sentiment{Label: "negative", Confidence: 0.4},
		KeyPhrases:   []model.KeyPhrase{},
		Reasoning:    reason,
		Tier:         model.TierSafeFallback,
	}
}

func nonDisaster(tier model.Tier, confidence float64, reason string) model.ClassificationResult {
	return model.ClassificationResult{
		IsDisaster: false,
		Severity:   0,
		Confidence: confidence,
		Entities:   []model.Entity{},
		Sentiment:  model.Sentiment{Label: "neutral", Confidence: 0.5},
		KeyPhrases: []model.KeyPhrase{},
		Reasoning:  reason,
		Tier:       tier,
	}
}

func keywordEntities(hits []typeHit, confidence float64) []model.Entity {
	out := []model.Entity{}
	for _, h := range hits {
		for _, k := range h.Keywords {
			out = append(out, model.Entity{Text: k, Type: "EVENT", Confidence: confidence})
		}
	}
	return out
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
