package model

// Tier records which classifier strategy produced a result.
type Tier string

const (
	TierParsed            Tier = "parsed"
	TierSafeFallback      Tier = "safe_fallback"
	TierHeuristicFallback Tier = "heuristic_fallback"
)

type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

type Sentiment struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type KeyPhrase struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult is the structured judgment for a single post.
// DisasterType and Location are nil when unknown.
type ClassificationResult struct {
	IsDisaster   bool        `json:"isDisaster"`
	DisasterType *string     `json:"disasterType"`
	Severity     float64     `json:"severity"`
	Confidence   float64     `json:"confidence"`
	Entities     []Entity    `json:"entities"`
	Sentiment    Sentiment   `json:"sentiment"`
	KeyPhrases   []KeyPhrase `json:"keyPhrases"`
	Location     *string     `json:"location"`
	Reasoning    string      `json:"reasoning"`
	Tier         Tier        `json:"tier"`
}

// Type returns the disaster type or "" when unknown.
func (r ClassificationResult) Type() string {
	if r.DisasterType == nil {
		return ""
	}
	return *r.DisasterType
}

// LocationName returns the extracted location or "" when unknown.
func (r ClassificationResult) LocationName() string {
	if r.Location == nil {
		return ""
	}
	return *r.Location
}
