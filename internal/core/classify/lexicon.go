package classify

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

type Lexicon struct {
	SafeKeywords      map[string][]string `yaml:"safe_keywords"`
	DisasterKeywords  map[string][]string `yaml:"disaster_keywords"`
	MundaneKeywords   []string            `yaml:"mundane_keywords"`
	NegativeMarkers   []string            `yaml:"negative_markers"`
	PositiveMarkers   []string            `yaml:"positive_markers"`
	NegativeSentiment []string            `yaml:"negative_sentiment"`
	PositiveSentiment []string            `yaml:"positive_sentiment"`
	IntensityTerms    []string            `yaml:"intensity_terms"`
	EntityStopwords   []string            `yaml:"entity_stopwords"`

	stopwords map[string]struct{}
}

// DefaultLexicon parses the embedded lexicon.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// LoadLexicon reads a lexicon file, or returns the embedded one when path is empty.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon '%s': %w", path, err)
	}
	return ParseLexicon(data)
}

func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if len(lex.DisasterKeywords) == 0 || len(lex.SafeKeywords) == 0 {
		return nil, fmt.Errorf("lexicon must define safe_keywords and disaster_keywords")
	}
	lex.stopwords = make(map[string]struct{}, len(lex.EntityStopwords))
	for _, w := range lex.EntityStopwords {
		lex.stopwords[normalize(w)] = struct{}{}
	}
	return &lex, nil
}

// normalize case-folds s and collapses every run of non letters/digits into a
// single space, so phrases can be matched on word boundaries.
func normalize(s string) string {
	folded := cases.Fold().String(s)
	var sb strings.Builder
	sb.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			space = false
			continue
		}
		if !space {
			sb.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(sb.String())
}

// document is a normalized text ready for phrase lookups.
type document struct {
	padded string
}

func newDocument(text string) document {
	return document{padded: " " + normalize(text) + " "}
}

func (d document) has(phrase string) bool {
	p := normalize(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(d.padded, " "+p+" ")
}

// matches returns the phrases from list found in d, in list order.
func (d document) matches(list []string) []string {
	var out []string
	for _, p := range list {
		if d.has(p) {
			out = append(out, p)
		}
	}
	return out
}

type typeHit struct {
	Type     string
	Keywords []string
}

// matchTypes returns per-type keyword hits sorted by hit count, ties broken by type name.
// The catch-all "other" type sorts after concrete types with the same count.
func (d document) matchTypes(groups map[string][]string) []typeHit {
	var hits []typeHit
	for typ, words := range groups {
		if m := d.matches(words); len(m) > 0 {
			hits = append(hits, typeHit{Type: typ, Keywords: m})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if len(hits[i].Keywords) != len(hits[j].Keywords) {
			return len(hits[i].Keywords) > len(hits[j].Keywords)
		}
		if (hits[i].Type == "other") != (hits[j].Type == "other") {
			return hits[j].Type == "other"
		}
		return hits[i].Type < hits[j].Type
	})
	return hits
}

func countKeywords(hits []typeHit) int {
	n := 0
	for _, h := range hits {
		n += len(h.Keywords)
	}
	return n
}

func flattenKeywords(hits []typeHit) []string {
	var out []string
	for _, h := range hits {
		out = append(out, h.Keywords...)
	}
	return out
}

func (l *Lexicon) isStopword(token string) bool {
	_, ok := l.stopwords[normalize(token)]
	return ok
}
