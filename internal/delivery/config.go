package delivery

import (
	"push-agent/internal/common/config"
)

// ==========================
// Configuration
// ==========================

// Config holds everything the delivery handler needs that is not an event:
// the application origin for window matching and the fixed notification
// assets and fallback destinations.
type Config struct {
	Origin     string
	DefaultURL string
	LandingURL string
	IconPath   string
	BadgePath  string
}

// LoadConfig derives the handler configuration from the application config.
func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Origin:     cfg.App.Origin,
		DefaultURL: cfg.Push.DefaultURL,
		LandingURL: cfg.Push.LandingURL,
		IconPath:   cfg.Push.IconPath,
		BadgePath:  cfg.Push.BadgePath,
	}
	if c.LandingURL == "" {
		c.LandingURL = c.DefaultURL
	}
	return c
}
