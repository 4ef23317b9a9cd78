package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agenthands/sentinel/internal/model"
)

const (
	heuristicConfidence = 0.3
	maxKeyPhrases       = 5
	maxLocations        = 5
)

var (
	capitalized   = regexp.MustCompile(`\b[A-Z][\p{L}'-]*(?:\s+[A-Z][\p{L}'-]*)*`)
	sentenceSplit = regexp.MustCompile(`[.!?\n]+`)
)

// heuristic is the local, model-free classifier used when the model call fails.
func (c *Classifier) heuristic(text, why string) model.ClassificationResult {
	doc := newDocument(text)

	hits := doc.matchTypes(c.Lexicon.DisasterKeywords)
	disasterCount := countKeywords(hits)
	mundane := doc.matches(c.Lexicon.MundaneKeywords)
	negated := doc.matches(c.Lexicon.NegativeMarkers)

	entities := append(c.locationEntities(text), keywordEntities(hits, 0.6)...)
	res := model.ClassificationResult{
		Confidence: heuristicConfidence,
		Entities:   entities,
		Sentiment:  c.sentiment(doc),
		KeyPhrases: c.keyPhrases(text),
		Tier:       model.TierHeuristicFallback,
	}
	for _, e := range entities {
		if e.Type == "LOCATION" {
			loc := e.Text
			res.Location = &loc
			break
		}
	}

	switch {
	case disasterCount == 0:
		res.Reasoning = fmt.Sprintf("heuristic (%s): no disaster keywords", why)
	case len(negated) > 0:
		res.Reasoning = fmt.Sprintf("heuristic (%s): post negates a disaster (%q)", why, negated[0])
	case len(mundane) >= disasterCount:
		res.Reasoning = fmt.Sprintf("heuristic (%s): mundane context outweighs keywords (%s)", why, strings.Join(mundane, ", "))
	default:
		t := hits[0].Type
		res.IsDisaster = true
		res.DisasterType = &t
		intensity := len(doc.matches(c.Lexicon.IntensityTerms))
		res.Severity = clampRange(0.5+0.1*float64(disasterCount-1)+0.1*float64(intensity), 0, 0.9)
		res.Reasoning = fmt.Sprintf("heuristic (%s): disaster keywords: %s", why, strings.Join(flattenKeywords(hits), ", "))
	}

	return res
}

// locationEntities treats capitalized runs that are not stopwords or disaster
// keywords as candidate locations.
func (c *Classifier) locationEntities(text string) []model.Entity {
	out := []model.Entity{}
	seen := make(map[string]struct{})
	for _, m := range capitalized.FindAllString(text, -1) {
		words := strings.Fields(m)
		for len(words) > 0 && (c.Lexicon.isStopword(words[0]) || c.isKeyword(words[0])) {
			words = words[1:]
		}
		for len(words) > 0 && (c.Lexicon.isStopword(words[len(words)-1]) || c.isKeyword(words[len(words)-1])) {
			words = words[:len(words)-1]
		}
		if len(words) == 0 {
			continue
		}
		name := strings.Join(words, " ")
		if len([]rune(name)) < 3 {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, model.Entity{Text: name, Type: "LOCATION", Confidence: 0.5})
		if len(out) == maxLocations {
			break
		}
	}
	return out
}

func (c *Classifier) isKeyword(word string) bool {
	doc := newDocument(word)
	for _, words := range c.Lexicon.DisasterKeywords {
		if len(doc.matches(words)) > 0 {
			return true
		}
	}
	return false
}

func (c *Classifier) sentiment(doc document) model.Sentiment {
	neg := len(doc.matches(c.Lexicon.NegativeSentiment))
	pos := len(doc.matches(c.Lexicon.PositiveSentiment))
	diff := neg - pos
	if diff < 0 {
		diff = -diff
	}
	confidence := clampRange(0.5+0.1*float64(diff), 0.5, 0.9)
	switch {
	case neg > pos:
		return model.Sentiment{Label: "negative", Confidence: confidence}
	case pos > neg:
		return model.Sentiment{Label: "positive", Confidence: confidence}
	default:
		return model.Sentiment{Label: "neutral", Confidence: 0.5}
	}
}

// keyPhrases returns the sentences that mention a disaster keyword.
func (c *Classifier) keyPhrases(text string) []model.KeyPhrase {
	out := []model.KeyPhrase{}
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		doc := newDocument(s)
		if len(doc.matchTypes(c.Lexicon.DisasterKeywords)) == 0 {
			continue
		}
		out = append(out, model.KeyPhrase{Text: truncateRunes(s, 200), Confidence: 0.6})
		if len(out) == maxKeyPhrases {
			break
		}
	}
	return out
}
