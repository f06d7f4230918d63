// internal/subscription/config.go
package subscription

import "time"

type Config struct {
	// SubscribeTimeout bounds the platform subscribe call. Exceeding it is
	// reported as a timeout, distinct from platform-level rejection.
	SubscribeTimeout time.Duration
	// UserAgent is the raw user-agent string announced with the
	// subscription for backend-side diagnostics.
	UserAgent string
}

func LoadConfig() *Config {
	return &Config{
		SubscribeTimeout: 30 * time.Second,
	}
}
