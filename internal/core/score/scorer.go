package score

import (
	"math"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/model"
)

// engagementSaturation is the interaction count at which the engagement bonus maxes out.
const engagementSaturation = 10000

type Scorer struct {
	NonDisasterScore float64
	MaxEngagement    float64
	MaxKeyword       float64
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		NonDisasterScore: cfg.NonDisasterScore,
		MaxEngagement:    cfg.MaxEngagement,
		MaxKeyword:       cfg.MaxKeyword,
	}
}

// Score combines the classifier judgment with engagement and keyword signals
// into a single value in [0,1]. A non-disaster judgment pins the score low no
// matter what else the post carries.
func (s *Scorer) Score(res model.ClassificationResult, post model.RawPost) float64 {
	if !res.IsDisaster {
		return clamp(s.NonDisasterScore)
	}

	// Low-trust tiers report severities the model never confirmed, so weight
	// the severity by how much the tier can be believed.
	weight := 0.6 + 0.4*clamp(res.Confidence)
	if res.Tier == model.TierParsed {
		weight = math.Max(weight, 0.9)
	}
	base := clamp(res.Severity) * weight

	return clamp(base + s.engagementBonus(post.Engagement) + s.keywordBonus(res))
}

// engagementBonus grows with the log of interactions and is capped at MaxEngagement.
func (s *Scorer) engagementBonus(e *model.Engagement) float64 {
	total := e.Total()
	if total <= 0 || s.MaxEngagement <= 0 {
		return 0
	}
	ratio := math.Log1p(float64(total)) / math.Log1p(engagementSaturation)
	return math.Min(ratio, 1) * s.MaxEngagement
}

// keywordBonus rewards corroborating EVENT entities, capped at MaxKeyword.
func (s *Scorer) keywordBonus(res model.ClassificationResult) float64 {
	if s.MaxKeyword <= 0 {
		return 0
	}
	events := 0
	for _, e := range res.Entities {
		if e.Type == "EVENT" {
			events++
		}
	}
	return math.Min(float64(events)*0.02, s.MaxKeyword)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
