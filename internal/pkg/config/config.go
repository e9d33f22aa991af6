package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Provider kinds accepted in feed.kind / ODDS_PROVIDER.
const (
	ProviderPandaScore = "pandascore"
	ProviderSynthetic  = "synthetic"
)

type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Model    ModelConfig    `yaml:"model"`
	Telegram TelegramConfig `yaml:"telegram"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type FeedConfig struct {
	Kind                     string   `yaml:"kind" env:"ODDS_PROVIDER"` // pandascore | synthetic (MOCK / PANDASCORE accepted)
	BaseURL                  string   `yaml:"base_url" env:"PANDASCORE_BASE"`
	Token                    string   `yaml:"token" env:"PANDASCORE_TOKEN"`
	AuthMode                 string   `yaml:"auth_mode"` // header | query
	Game                     string   `yaml:"game" env:"PANDASCORE_GAME"`
	Leagues                  []string `yaml:"leagues" env:"MONITORED_LEAGUES"`
	MarketTypes              []string `yaml:"market_types" env:"MARKET_TYPES"` // empty = all kinds
	PageSize                 int      `yaml:"page_size" env:"PAGE_SIZE"`
	RequestTimeoutSeconds    int      `yaml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	MaxRetries               int      `yaml:"max_retries" env:"MAX_RETRIES"`
	BackoffUnitMillis        int      `yaml:"backoff_unit_ms"`
	RateLimitRequests        int      `yaml:"rate_limit_requests" env:"RATE_LIMIT_REQUESTS"`
	RateLimitWindowSeconds   int      `yaml:"rate_limit_window_seconds" env:"RATE_LIMIT_WINDOW_SECONDS"`
	RateLimitCooldownSeconds int      `yaml:"rate_limit_cooldown_seconds" env:"RATE_LIMIT_COOLDOWN_SECONDS"`
	CheckLeagues             bool     `yaml:"check_leagues"` // log configured slugs the feed does not offer at startup
}

type MonitorConfig struct {
	OpeningIntervalSeconds int     `yaml:"opening_interval_seconds" env:"POLL_INTERVAL_SECONDS"`
	LiveIntervalSeconds    int     `yaml:"live_interval_seconds" env:"LIVE_POLL_INTERVAL_SECONDS"`
	EdgeThreshold          float64 `yaml:"edge_threshold" env:"EDGE_THRESHOLD"`
	OpeningDedup           bool    `yaml:"opening_dedup"`
	DedupCapacity          int     `yaml:"dedup_capacity"`
	DedupRetain            int     `yaml:"dedup_retain"`
	SilenceWarnCycles      int     `yaml:"silence_warn_cycles"`
}

// ModelConfig overrides the per-league model constants. Keys are league slugs.
type ModelConfig struct {
	WinProbability        map[string]float64 `yaml:"win_probability"`
	DefaultWinProbability float64            `yaml:"default_win_probability"`
	KillMeans             map[string]float64 `yaml:"kill_means"`
	DefaultKillMean       float64            `yaml:"default_kill_mean"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

type RedisConfig struct {
	URL          string `yaml:"url" env:"REDIS_URL"`
	StreamPrefix string `yaml:"stream_prefix"`
	MaxLen       int64  `yaml:"max_len"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	File  string `yaml:"file" env:"LOG_FILE"`
}

// DefaultConfig returns the settings used when neither file nor environment overrides them.
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			Kind:                     ProviderSynthetic,
			BaseURL:                  "https://api.pandascore.co",
			AuthMode:                 "header",
			Game:                     "lol",
			Leagues:                  []string{"lck", "lpl", "lec", "lcs"},
			PageSize:                 25,
			RequestTimeoutSeconds:    30,
			MaxRetries:               3,
			BackoffUnitMillis:        1000,
			RateLimitRequests:        1000,
			RateLimitWindowSeconds:   3600,
			RateLimitCooldownSeconds: 60,
		},
		Monitor: MonitorConfig{
			OpeningIntervalSeconds: 60,
			LiveIntervalSeconds:    30,
			EdgeThreshold:          0.05,
			DedupCapacity:          100,
			DedupRetain:            50,
			SilenceWarnCycles:      10,
		},
		Model: ModelConfig{
			WinProbability: map[string]float64{
				"lck": 0.52, "lpl": 0.52,
				"lec": 0.48, "lcs": 0.48,
			},
			DefaultWinProbability: 0.5,
			KillMeans: map[string]float64{
				"lck": 28.5, "lpl": 32.0, "lec": 26.5, "lcs": 25.0, "worlds": 30.0,
			},
			DefaultKillMean: 27.0,
		},
		Redis:   RedisConfig{StreamPrefix: "opportunities", MaxLen: 10000},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file when
// configPath is not empty, then environment variables.
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) normalize() {
	switch strings.ToLower(strings.TrimSpace(c.Feed.Kind)) {
	case "mock", ProviderSynthetic:
		c.Feed.Kind = ProviderSynthetic
	case ProviderPandaScore:
		c.Feed.Kind = ProviderPandaScore
	}
	c.Feed.AuthMode = strings.ToLower(strings.TrimSpace(c.Feed.AuthMode))
	c.Feed.Leagues = cleanList(c.Feed.Leagues, strings.ToLower)
	c.Feed.MarketTypes = cleanList(c.Feed.MarketTypes, strings.ToUpper)
	c.Model.WinProbability = lowerKeys(c.Model.WinProbability)
	c.Model.KillMeans = lowerKeys(c.Model.KillMeans)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

func cleanList(in []string, fold func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = fold(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func lowerKeys(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// Validate reports settings the monitor cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Feed.Kind {
	case ProviderSynthetic:
	case ProviderPandaScore:
		if c.Feed.Token == "" {
			errs = append(errs, errors.New("feed.token (PANDASCORE_TOKEN) is required for the pandascore provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("feed.kind %q is not one of pandascore, synthetic", c.Feed.Kind))
	}
	if c.Feed.AuthMode != "header" && c.Feed.AuthMode != "query" {
		errs = append(errs, fmt.Errorf("feed.auth_mode %q is not one of header, query", c.Feed.AuthMode))
	}
	if c.Feed.MaxRetries < 1 {
		errs = append(errs, errors.New("feed.max_retries must be at least 1"))
	}
	if c.Feed.PageSize < 1 {
		errs = append(errs, errors.New("feed.page_size must be positive"))
	}
	if c.Monitor.OpeningIntervalSeconds <= 0 || c.Monitor.LiveIntervalSeconds <= 0 {
		errs = append(errs, errors.New("poll intervals must be positive"))
	}
	if c.Monitor.EdgeThreshold <= 0 {
		errs = append(errs, errors.New("monitor.edge_threshold must be positive"))
	}
	if c.Monitor.DedupCapacity < 1 || c.Monitor.DedupRetain < 1 || c.Monitor.DedupRetain > c.Monitor.DedupCapacity {
		errs = append(errs, errors.New("monitor.dedup_retain must be between 1 and monitor.dedup_capacity"))
	}
	for _, t := range c.Feed.MarketTypes {
		if !knownMarketType(t) {
			errs = append(errs, fmt.Errorf("unknown market type %q", t))
		}
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id is required when a bot token is set"))
	}
	return errors.Join(errs...)
}

// knownMarketType mirrors models.ParseMarketKind without importing models.
func knownMarketType(t string) bool {
	switch t {
	case "ML", "FIRST_BLOOD", "FIRST_TOWER", "KILLS", "OBJECTIVE":
		return true
	}
	return false
}

// Warnings lists soft problems worth logging at startup.
func (c *Config) Warnings() []string {
	var w []string
	if c.Monitor.EdgeThreshold >= 1 {
		w = append(w, fmt.Sprintf("edge threshold %.2f is 100%% or more, nothing will be flagged", c.Monitor.EdgeThreshold))
	}
	if c.Monitor.OpeningIntervalSeconds < 10 || c.Monitor.LiveIntervalSeconds < 10 {
		w = append(w, "poll intervals under 10s burn through the feed request budget")
	}
	if c.Monitor.LiveIntervalSeconds >= c.Monitor.OpeningIntervalSeconds {
		w = append(w, "live interval is not shorter than the opening interval")
	}
	if c.Feed.Kind == ProviderPandaScore && c.Feed.Token != "" && len(c.Feed.Token) < 20 {
		w = append(w, "PandaScore token looks too short")
	}
	if c.Feed.Kind == ProviderSynthetic {
		w = append(w, "synthetic provider selected, odds are sample data")
	}
	if c.Telegram.BotToken == "" && c.Redis.URL == "" {
		w = append(w, "no Telegram or Redis sink configured, notifications are only logged")
	}
	return w
}

func (c *Config) OpeningInterval() time.Duration {
	return time.Duration(c.Monitor.OpeningIntervalSeconds) * time.Second
}

func (c *Config) LiveInterval() time.Duration {
	return time.Duration(c.Monitor.LiveIntervalSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Feed.RequestTimeoutSeconds) * time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Feed.RateLimitWindowSeconds) * time.Second
}

func (c *Config) RateLimitCooldown() time.Duration {
	return time.Duration(c.Feed.RateLimitCooldownSeconds) * time.Second
}

func (c *Config) BackoffUnit() time.Duration {
	return time.Duration(c.Feed.BackoffUnitMillis) * time.Millisecond
}
