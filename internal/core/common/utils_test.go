package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    sample
		wantErr bool
	}{
		{"plain", `{"name":"a","score":0.5}`, sample{"a", 0.5}, false},
		{"fenced", "```json\n{\"name\":\"b\",\"score\":1}\n```", sample{"b", 1}, false},
		{"fenced no lang", "```\n{\"name\":\"c\"}\n```", sample{Name: "c"}, false},
		{"prose around", `Sure! Here it is: {"name":"d"} hope that helps`, sample{Name: "d"}, false},
		{"no object", `I cannot help with that`, sample{}, true},
		{"broken", `{"name": "e", "score": }`, sample{}, true},
		{"unknown field ignored", `{"name":"f","extra":true}`, sample{Name: "f"}, false},
		{"wrong type", `{"name": 12}`, sample{}, true},
		{"two objects", `{"name":"g"} and {"name":"h"}`, sample{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON[sample](tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject_Missing(t *testing.T) {
	_, err := ExtractJSONObject("} backwards {")
	assert.True(t, errors.Is(err, ErrNoJSONObject))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", StripCodeFences("  plain \n"))
}
