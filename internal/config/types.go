package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML. It is
// constructed once in main and passed into every component constructor.
type AppConfig struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"` // "development" | "production"
	AdminToken     string   `yaml:"admin_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RedisURL       string   `yaml:"redis_url"`

	Ghost    GhostConfig    `yaml:"ghost"`
	AI       AIConfig       `yaml:"ai"`
	Telegram TelegramConfig `yaml:"telegram"`
	Unsplash UnsplashConfig `yaml:"unsplash"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Trending TrendingConfig `yaml:"trending"`
	Publish  PublishConfig  `yaml:"publish"`
}

// GhostConfig targets the Ghost Admin API.
type GhostConfig struct {
	URL         string `yaml:"url"`
	AdminAPIKey string `yaml:"admin_api_key"` // "id:secret"
}

// AIConfig lists the configured text-generation providers. The first enabled
// provider is used.
type AIConfig struct {
	Providers []AIProvider `yaml:"providers"`
}

// AIProvider is one text-generation backend.
type AIProvider struct {
	ID           string `yaml:"id"`
	Type         string `yaml:"type"` // openai | anthropic | openai-compatible
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// TelegramConfig wires the notification/approval transport. ChatID is the
// single authorized operator identity.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Endpoint string `yaml:"endpoint"`
}

// UnsplashConfig targets the image search service.
type UnsplashConfig struct {
	AccessKey string `yaml:"access_key"`
	Endpoint  string `yaml:"endpoint"`
}

// YouTubeConfig targets the video search service.
type YouTubeConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// TrendingFeed is one RSS source for trending hints.
type TrendingFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// TrendingConfig controls the trending-topics aggregator.
type TrendingConfig struct {
	Enable     bool           `yaml:"enable"`
	HNEndpoint string         `yaml:"hn_endpoint"`
	Feeds      []TrendingFeed `yaml:"feeds"`
}

// PublishConfig controls the pipeline's operating mode and trigger policy.
// At and IntervalHours are mutually exclusive.
type PublishConfig struct {
	Mode              string   `yaml:"mode"` // "auto" | "approval"
	At                []string `yaml:"at"`   // UTC "HH:MM" daily fire times
	IntervalHours     int      `yaml:"interval_hours"`
	MaxRetries        *int     `yaml:"max_retries"`
	RetryDelaySeconds *int     `yaml:"retry_delay_seconds"`
	RecentTitleLimit  int      `yaml:"recent_title_limit"`
	Topics            []string `yaml:"topics"`
}

// Retries returns the extra attempts after a failed scheduled run. An
// explicit zero in the config disables retrying; Load fills the default when
// the key is absent.
func (p PublishConfig) Retries() int {
	if p.MaxRetries == nil {
		return 0
	}
	return *p.MaxRetries
}

// RetryDelay returns the pause between scheduled-run retry attempts. An
// explicit zero means retry immediately.
func (p PublishConfig) RetryDelay() time.Duration {
	if p.RetryDelaySeconds == nil {
		return 0
	}
	return time.Duration(*p.RetryDelaySeconds) * time.Second
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }
