package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nohatek/autoblog/internal/pkg/apperr"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 4000
	defaultEnv        = "development"

	defaultMode             = "auto"
	defaultMaxRetries       = 2
	defaultRetryDelay       = 30
	defaultRecentTitleLimit = 20
)

// defaultMorningAfternoon mirrors the stock twice-daily schedule.
var defaultAt = []string{"09:00", "15:00"}

// defaultTopics is the fixed domain-focus list embedded in topic prompts.
var defaultTopics = []string{
	"Cloud Infrastructure",
	"DevOps",
	"Kubernetes",
	"Docker",
	"CI/CD Pipelines",
	"AI and Machine Learning",
	"Large Language Models",
	"Software Development",
	"API Development",
	"Cybersecurity",
	"Cloud Security",
	"Infrastructure as Code",
	"Serverless Computing",
	"Microservices Architecture",
}

// Load reads the YAML file, applies environment overrides for secrets, fills
// defaults and validates required credentials.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		// Missing file is fine when everything comes from the environment.
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("GHOST_URL"); v != "" {
		cfg.Ghost.URL = v
	}
	if v := os.Getenv("GHOST_ADMIN_API_KEY"); v != "" {
		cfg.Ghost.AdminAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("UNSPLASH_ACCESS_KEY"); v != "" {
		cfg.Unsplash.AccessKey = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.YouTube.APIKey = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		for i := range cfg.AI.Providers {
			if cfg.AI.Providers[i].APIKey == "" {
				cfg.AI.Providers[i].APIKey = v
			}
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.Ghost.URL = strings.TrimRight(cfg.Ghost.URL, "/")

	if cfg.Publish.Mode == "" {
		cfg.Publish.Mode = defaultMode
	}
	if len(cfg.Publish.At) == 0 && cfg.Publish.IntervalHours == 0 {
		cfg.Publish.At = defaultAt
	}
	// Nil means the key is absent; an explicit zero is a valid setting
	// (no retries, or retry without pause) and is left alone.
	if cfg.Publish.MaxRetries == nil {
		retries := defaultMaxRetries
		cfg.Publish.MaxRetries = &retries
	}
	if cfg.Publish.RetryDelaySeconds == nil {
		delay := defaultRetryDelay
		cfg.Publish.RetryDelaySeconds = &delay
	}
	if cfg.Publish.RecentTitleLimit == 0 {
		cfg.Publish.RecentTitleLimit = defaultRecentTitleLimit
	}
	if len(cfg.Publish.Topics) == 0 {
		cfg.Publish.Topics = defaultTopics
	}
	if cfg.Trending.Enable && len(cfg.Trending.Feeds) == 0 {
		cfg.Trending.Feeds = []TrendingFeed{
			{Name: "TechCrunch", URL: "https://techcrunch.com/feed/"},
			{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
			{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
		}
	}
}

func validate(cfg *AppConfig) error {
	var missing []string
	if cfg.Ghost.URL == "" {
		missing = append(missing, "ghost.url")
	}
	if cfg.Ghost.AdminAPIKey == "" {
		missing = append(missing, "ghost.admin_api_key")
	}
	if cfg.Telegram.BotToken == "" {
		missing = append(missing, "telegram.bot_token")
	}
	if cfg.Telegram.ChatID == 0 {
		missing = append(missing, "telegram.chat_id")
	}
	if cfg.Unsplash.AccessKey == "" {
		missing = append(missing, "unsplash.access_key")
	}
	if cfg.YouTube.APIKey == "" {
		missing = append(missing, "youtube.api_key")
	}
	if !hasEnabledProvider(cfg.AI) {
		missing = append(missing, "ai.providers (at least one enabled with api_key)")
	}
	if len(missing) > 0 {
		return &apperr.ConfigError{Missing: missing}
	}

	switch cfg.Publish.Mode {
	case "auto", "approval":
	default:
		return fmt.Errorf("publish.mode must be \"auto\" or \"approval\", got %q", cfg.Publish.Mode)
	}
	if len(cfg.Publish.At) > 0 && cfg.Publish.IntervalHours > 0 {
		return fmt.Errorf("publish.at and publish.interval_hours are mutually exclusive")
	}
	return nil
}

func hasEnabledProvider(ai AIConfig) bool {
	for _, p := range ai.Providers {
		if p.Enabled && strings.TrimSpace(p.APIKey) != "" {
			return true
		}
	}
	return false
}

// ActiveProvider returns the first enabled provider, or nil.
func (c *AppConfig) ActiveProvider() *AIProvider {
	for i := range c.AI.Providers {
		if c.AI.Providers[i].Enabled {
			return &c.AI.Providers[i]
		}
	}
	return nil
}
