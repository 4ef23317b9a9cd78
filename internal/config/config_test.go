package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
[llm]
provider = "openai"
model = "gpt-4o-mini"
timeout = "3s"

[queue]
max_receives = 5
visibility_timeout = "90s"

[notify]
webhook_url = "http://alerts.local/hook"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 3*time.Second, cfg.LLM.Timeout.Duration)
	assert.Equal(t, 5, cfg.Queue.MaxReceives)
	assert.Equal(t, 90*time.Second, cfg.Queue.Visibility.Duration)
	assert.Equal(t, "http://alerts.local/hook", cfg.Notify.WebhookURL)

	// untouched sections keep defaults
	assert.Equal(t, 0.5, cfg.Verify.Threshold)
	assert.Equal(t, 30*24*time.Hour, cfg.Store.Retention.Duration)
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm]\ntimeout = \"soon\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("PORT", "9090")
	t.Setenv("SENTINEL_RUN_WORKER", "true")

	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Server.RunWorker)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Queue.MaxReceives = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Verify.Threshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_NonDisasterScoreBelowGates(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		wantErr bool
	}{
		{"default", 0.1, false},
		{"just under verify threshold", 0.49, false},
		{"at verify threshold", 0.5, true},
		{"above alert threshold", 0.8, true},
		{"negative", -0.1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Scoring.NonDisasterScore = tt.score
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "non_disaster_score")
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// a lowered alert threshold bounds the score too
	cfg := Default()
	cfg.Notify.AlertThreshold = 0.3
	cfg.Scoring.NonDisasterScore = 0.4
	assert.Error(t, cfg.Validate())
}
