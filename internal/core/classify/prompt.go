package classify

import (
	"fmt"
	"strings"
)

const maxPromptRunes = 4000

const defaultPrompt = `Analyze the following social media post and decide whether it reports a real, ongoing natural disaster or emergency.

Post:
"""
%s
"""

Respond with ONE JSON object and nothing else. No markdown, no commentary. Use exactly these fields:
{
  "isDisaster": boolean,
  "disasterType": "flood" | "earthquake" | "fire" | "storm" | "landslide" | "tsunami" | "haze" | "other" | null,
  "severity": number between 0 and 1,
  "confidence": number between 0 and 1,
  "entities": [{"text": string, "type": "LOCATION" | "EVENT" | "ORGANIZATION" | "PERSON", "confidence": number}],
  "sentiment": {"label": "negative" | "neutral" | "positive", "confidence": number},
  "keyPhrases": [{"text": string, "confidence": number}],
  "location": string | null,
  "reasoning": string
}

Figurative language ("this burger is fire", "a storm of emails"), food, commuting and leisure posts are NOT disasters.
If the post is not about a disaster set "isDisaster" to false, "disasterType" to null and "severity" to 0.`

func (c *Classifier) buildPrompt(text string) string {
	tmpl := c.Prompt
	if tmpl == "" || strings.Count(tmpl, "%s") != 1 {
		tmpl = defaultPrompt
	}
	return fmt.Sprintf(tmpl, truncateRunes(text, maxPromptRunes))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
