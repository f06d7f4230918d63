// internal/backend/models.go
package backend

import (
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"
)

// PublicKeyResponse is the backend's current application server key.
type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// SubscriptionUpload is the subscription reference the backend stores,
// keyed by user on its side of the bearer token.
type SubscriptionUpload struct {
	Endpoint       string           `json:"endpoint"`
	ExpirationTime *string          `json:"expirationTime,omitempty"`
	Keys           pushapi.Keys     `json:"keys"`
	UserAgent      string           `json:"userAgent,omitempty"`
	Platform       platform.Profile `json:"platform"`
}

// SubscriptionRemoval identifies the subscription to forget by endpoint.
type SubscriptionRemoval struct {
	Endpoint string `json:"endpoint"`
}
