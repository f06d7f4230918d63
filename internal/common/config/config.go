// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Backend       BackendConfig      `mapstructure:"backend"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Push          PushConfig         `mapstructure:"push"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// Origin is the application's own origin, used to match open windows
	// on notification click.
	Origin string `mapstructure:"origin"`
}

// BackendConfig describes the REST backend the agent synchronizes
// subscriptions with. The bearer token is forwarded, never managed here.
type BackendConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	BearerToken string `mapstructure:"bearer_token"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PushConfig holds settings for the subscription manager and delivery handler.
type PushConfig struct {
	// SubscribeTimeout bounds the platform subscribe call. Milliseconds.
	SubscribeTimeout int `mapstructure:"subscribe_timeout"`
	// DefaultURL is opened on a bare notification click when the payload
	// carries no target URL.
	DefaultURL string `mapstructure:"default_url"`
	// LandingURL is the notifications landing page used as the window
	// focusing fallback.
	LandingURL string `mapstructure:"landing_url"`
	IconPath   string `mapstructure:"icon_path"`
	BadgePath  string `mapstructure:"badge_path"`
}

// NotificationConfig holds settings for the delivery worker's display relay.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RedisAddr returns the configured Redis address for logging contexts.
func (d DatabaseConfig) RedisAddr() string {
	return fmt.Sprintf("redis://%s/%d", d.Redis.Address, d.Redis.DB)
}
