package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONObject is returned when a response contains no '{' ... '}' span.
var ErrNoJSONObject = errors.New("no JSON object found in response")

var codeFence = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// StripCodeFences returns the contents of the first markdown code block, or s
// trimmed when there is none.
func StripCodeFences(s string) string {
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the span from the first '{' to the last '}'.
func ExtractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONObject
	}
	return s[start : end+1], nil
}

// ParseJSON cleans and strictly unmarshals an LLM response into T.
// It handles surrounding markdown or prose, and rejects trailing data so
// near-JSON never half-populates a result.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr, err := ExtractJSONObject(StripCodeFences(response))
	if err != nil {
		return zero, err
	}

	dec := json.NewDecoder(strings.NewReader(jsonStr))

	var result T
	if err := dec.Decode(&result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if dec.More() {
		return zero, fmt.Errorf("failed to unmarshal JSON: trailing data after object")
	}

	return result, nil
}
