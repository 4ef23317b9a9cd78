package classify

import (
	"errors"
	"math"
	"strings"

	"github.com/agenthands/sentinel/internal/core/common"
	"github.com/agenthands/sentinel/internal/model"
)

var errMissingVerdict = errors.New("model output has no isDisaster field")

// judgment mirrors the JSON object requested from the model. Pointers tell
// missing fields apart from zero values.
type judgment struct {
	IsDisaster   *bool             `json:"isDisaster"`
	DisasterType *string           `json:"disasterType"`
	Severity     *float64          `json:"severity"`
	Confidence   *float64          `json:"confidence"`
	Entities     []model.Entity    `json:"entities"`
	Sentiment    *model.Sentiment  `json:"sentiment"`
	KeyPhrases   []model.KeyPhrase `json:"keyPhrases"`
	Location     *string           `json:"location"`
	Reasoning    string            `json:"reasoning"`
}

var knownTypes = map[string]string{
	"flood":       "flood",
	"flooding":    "flood",
	"flash flood": "flood",
	"earthquake":  "earthquake",
	"quake":       "earthquake",
	"fire":        "fire",
	"wildfire":    "fire",
	"storm":       "storm",
	"typhoon":     "storm",
	"hurricane":   "storm",
	"cyclone":     "storm",
	"tornado":     "storm",
	"landslide":   "landslide",
	"mudslide":    "landslide",
	"tsunami":     "tsunami",
	"haze":        "haze",
	"other":       "other",
}

// parseJudgment turns raw model output into a validated result or an error when
// the output cannot be trusted as-is.
func parseJudgment(raw string) (model.ClassificationResult, error) {
	j, err := common.ParseJSON[judgment](raw)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	if j.IsDisaster == nil {
		return model.ClassificationResult{}, errMissingVerdict
	}

	res := model.ClassificationResult{
		IsDisaster: *j.IsDisaster,
		Severity:   0.5,
		Confidence: 0.5,
		Reasoning:  strings.TrimSpace(j.Reasoning),
		Tier:       model.TierParsed,
	}
	if j.Severity != nil {
		res.Severity = clamp01(*j.Severity)
	}
	if j.Confidence != nil {
		res.Confidence = clamp01(*j.Confidence)
	}

	if res.IsDisaster {
		t := "other"
		if j.DisasterType != nil {
			if known, ok := knownTypes[strings.ToLower(strings.TrimSpace(*j.DisasterType))]; ok {
				t = known
			}
		}
		res.DisasterType = &t
	} else {
		res.Severity = 0
	}

	if j.Location != nil {
		if loc := strings.TrimSpace(*j.Location); loc != "" && !strings.EqualFold(loc, "null") {
			res.Location = &loc
		}
	}

	res.Entities = cleanEntities(j.Entities)
	res.KeyPhrases = cleanKeyPhrases(j.KeyPhrases)
	res.Sentiment = cleanSentiment(j.Sentiment)
	if res.Reasoning == "" {
		res.Reasoning = "model gave no reasoning"
	}

	return res, nil
}

func cleanEntities(in []model.Entity) []model.Entity {
	out := make([]model.Entity, 0, len(in))
	for _, e := range in {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		typ := strings.ToUpper(strings.TrimSpace(e.Type))
		if typ == "" {
			typ = "OTHER"
		}
		out = append(out, model.Entity{Text: text, Type: typ, Confidence: clamp01(e.Confidence)})
	}
	return out
}

func cleanKeyPhrases(in []model.KeyPhrase) []model.KeyPhrase {
	out := make([]model.KeyPhrase, 0, len(in))
	for _, k := range in {
		text := strings.TrimSpace(k.Text)
		if text == "" {
			continue
		}
		out = append(out, model.KeyPhrase{Text: text, Confidence: clamp01(k.Confidence)})
	}
	return out
}

func cleanSentiment(s *model.Sentiment) model.Sentiment {
	if s == nil {
		return model.Sentiment{Label: "neutral", Confidence: 0.5}
	}
	label := strings.ToLower(strings.TrimSpace(s.Label))
	switch label {
	case "negative", "neutral", "positive":
	default:
		label = "neutral"
	}
	return model.Sentiment{Label: label, Confidence: clamp01(s.Confidence)}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
