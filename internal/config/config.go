package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string   `toml:"provider"`
	Model          string   `toml:"model"`
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	Timeout        Duration `toml:"timeout"`
	RatePerSecond  float64  `toml:"rate_per_second"` // 0 disables throttling
	Burst          int      `toml:"burst"`
	PromptTemplate string   `toml:"prompt"` // optional override, must contain one %s
}

type ClassifierConfig struct {
	LexiconPath string `toml:"lexicon_path"` // empty uses the embedded lexicon
}

type ScoringConfig struct {
	NonDisasterScore float64 `toml:"non_disaster_score"`
	MaxEngagement    float64 `toml:"max_engagement_bonus"`
	MaxKeyword       float64 `toml:"max_keyword_bonus"`
}

type VerifyConfig struct {
	Threshold      float64  `toml:"threshold"`
	SignalURL      string   `toml:"signal_url"` // empty uses the static baseline
	BaselineSignal float64  `toml:"baseline_signal"`
	DefaultSignal  float64  `toml:"default_signal"` // used when the source is unreachable
	Timeout        Duration `toml:"timeout"`
	CacheTTL       Duration `toml:"cache_ttl"`
}

type StoreConfig struct {
	Backend       string   `toml:"backend"` // sqlite | memgraph | memory
	SQLitePath    string   `toml:"sqlite_path"`
	MemgraphURI   string   `toml:"memgraph_uri"`
	MemgraphUser  string   `toml:"memgraph_user"`
	MemgraphPass  string   `toml:"memgraph_password"`
	Retention     Duration `toml:"retention"`
	DedupWindow   Duration `toml:"dedup_window"`
	RecentCache   int      `toml:"recent_cache_size"`
	SweepInterval Duration `toml:"sweep_interval"`
}

type QueueConfig struct {
	Backend           string   `toml:"backend"` // redis | memory
	RedisURL          string   `toml:"redis_url"`
	NormalQueue       string   `toml:"normal_queue"`
	HighPriorityQueue string   `toml:"high_priority_queue"`
	DeadLetterQueue   string   `toml:"dead_letter_queue"`
	BatchSize         int      `toml:"batch_size"`
	Visibility        Duration `toml:"visibility_timeout"`
	MaxReceives       int      `toml:"max_receives"`
	Concurrency       int      `toml:"concurrency"`
	PollInterval      Duration `toml:"poll_interval"`
}

type NotifyConfig struct {
	AlertThreshold float64           `toml:"alert_threshold"`
	WebhookURL     string            `toml:"webhook_url"`
	WebhookHeaders map[string]string `toml:"webhook_headers"`
	RedisChannel   string            `toml:"redis_channel"`
}

type ServerConfig struct {
	Addr          string `toml:"addr"`
	MaxTextLength int    `toml:"max_text_length"`
	RunWorker     bool   `toml:"run_worker"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json | console
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Classifier ClassifierConfig `toml:"classifier"`
	Scoring    ScoringConfig    `toml:"scoring"`
	Verify     VerifyConfig     `toml:"verify"`
	Store      StoreConfig      `toml:"store"`
	Queue      QueueConfig      `toml:"queue"`
	Notify     NotifyConfig     `toml:"notify"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
			Timeout:  Duration{20 * time.Second},
			Burst:    1,
		},
		Scoring: ScoringConfig{
			NonDisasterScore: 0.1,
			MaxEngagement:    0.1,
			MaxKeyword:       0.05,
		},
		Verify: VerifyConfig{
			Threshold:      0.5,
			BaselineSignal: 0.6,
			DefaultSignal:  0.0,
			Timeout:        Duration{5 * time.Second},
			CacheTTL:       Duration{10 * time.Minute},
		},
		Store: StoreConfig{
			Backend:       "sqlite",
			SQLitePath:    "sentinel.db",
			MemgraphURI:   "bolt://localhost:7687",
			Retention:     Duration{30 * 24 * time.Hour},
			DedupWindow:   Duration{24 * time.Hour},
			RecentCache:   10000,
			SweepInterval: Duration{time.Hour},
		},
		Queue: QueueConfig{
			Backend:           "redis",
			RedisURL:          "redis://localhost:6379/0",
			NormalQueue:       "sentinel:posts",
			HighPriorityQueue: "sentinel:posts:high",
			DeadLetterQueue:   "sentinel:posts:dlq",
			BatchSize:         10,
			Visibility:        Duration{60 * time.Second},
			MaxReceives:       3,
			Concurrency:       4,
			PollInterval:      Duration{2 * time.Second},
		},
		Notify: NotifyConfig{
			AlertThreshold: 0.7,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxTextLength: 5000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.Store.Backend, "SENTINEL_STORE")
	setString(&c.Store.SQLitePath, "SENTINEL_SQLITE_PATH")
	setString(&c.Store.MemgraphURI, "MEMGRAPH_URI")
	setString(&c.Store.MemgraphUser, "MEMGRAPH_USER")
	setString(&c.Store.MemgraphPass, "MEMGRAPH_PASSWORD")
	setString(&c.Queue.Backend, "SENTINEL_QUEUE")
	setString(&c.Queue.RedisURL, "REDIS_URL")
	setString(&c.Verify.SignalURL, "SENTINEL_SIGNAL_URL")
	setString(&c.Notify.WebhookURL, "SENTINEL_WEBHOOK_URL")
	setString(&c.Notify.RedisChannel, "SENTINEL_ALERT_CHANNEL")
	setString(&c.Server.Addr, "SENTINEL_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if v := os.Getenv("SENTINEL_RUN_WORKER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.RunWorker = b
		}
	}
}

// LoadWithEnv loads the file at path if it exists, falling back to defaults, then applies env overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Verify.Threshold <= 0 || c.Verify.Threshold > 1 {
		return fmt.Errorf("verify.threshold must be in (0,1], got %v", c.Verify.Threshold)
	}
	if c.Notify.AlertThreshold <= 0 || c.Notify.AlertThreshold > 1 {
		return fmt.Errorf("notify.alert_threshold must be in (0,1], got %v", c.Notify.AlertThreshold)
	}
	// non-disasters must never clear either gate
	if c.Scoring.NonDisasterScore < 0 || c.Scoring.NonDisasterScore >= c.Verify.Threshold {
		return fmt.Errorf("scoring.non_disaster_score must be in [0,verify.threshold), got %v", c.Scoring.NonDisasterScore)
	}
	if c.Scoring.NonDisasterScore >= c.Notify.AlertThreshold {
		return fmt.Errorf("scoring.non_disaster_score must be below notify.alert_threshold, got %v", c.Scoring.NonDisasterScore)
	}
	if c.Queue.MaxReceives < 1 {
		return fmt.Errorf("queue.max_receives must be at least 1")
	}
	if c.Queue.BatchSize < 1 {
		return fmt.Errorf("queue.batch_size must be at least 1")
	}
	if c.Server.MaxTextLength < 1 {
		return fmt.Errorf("server.max_text_length must be at least 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
