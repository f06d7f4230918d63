// Package pushapi defines the platform collaborator consumed by the
// subscription manager and the delivery handler: background-handler
// registration, the push subscription API, notification display, and window
// control. Implementations live in the memory and redisbridge subpackages.
package pushapi

import (
	"context"
	"time"

	"push-agent/internal/platform"
)

// Keys is the cryptographic key pair the backend uses to encrypt payloads
// for one subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one device's address for push delivery. The platform owns
// its lifecycle; the manager and backend only hold references by endpoint.
type Subscription struct {
	Endpoint       string     `json:"endpoint"`
	ExpirationTime *time.Time `json:"expirationTime,omitempty"`
	Keys           Keys       `json:"keys"`
}

// Valid reports whether the subscription carries everything needed to
// address the device. An invalid subscription is discarded and replaced.
func (s *Subscription) Valid() bool {
	return s != nil && s.Endpoint != "" && s.Keys.P256dh != "" && s.Keys.Auth != ""
}

// SubscribeOptions mirror the platform subscribe call's parameters.
type SubscribeOptions struct {
	UserVisibleOnly      bool
	ApplicationServerKey []byte
}

// Capabilities reports what the hosting platform supports.
type Capabilities struct {
	PushSupported          bool
	NotificationsSupported bool
}

// Permission states for showing notifications.
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionDefault = "default"
)

// Registration is an installed background delivery handler.
type Registration interface {
	// WaitActive blocks until the handler finishes installing and is
	// active, or the context ends.
	WaitActive(ctx context.Context) error
	// TakeoverWaiting asks a waiting previous version to take over
	// immediately.
	TakeoverWaiting(ctx context.Context) error
	// Push exposes the registration's push subscription API.
	Push() PushService
}

// Platform is the foreground-facing surface of the host.
type Platform interface {
	Capabilities() Capabilities
	// RequestPermission prompts for notification permission and returns
	// the resulting state.
	RequestPermission(ctx context.Context) (string, error)
	// Register installs the background delivery handler.
	Register(ctx context.Context) (Registration, error)
}

// PushService is the platform's push subscription API.
type PushService interface {
	// GetSubscription returns the existing subscription, or nil.
	GetSubscription(ctx context.Context) (*Subscription, error)
	Subscribe(ctx context.Context, opts SubscribeOptions) (*Subscription, error)
	// Unsubscribe removes the subscription by endpoint; reports whether
	// one was removed.
	Unsubscribe(ctx context.Context, endpoint string) (bool, error)
}

// NotificationCenter is the platform's notification display API.
type NotificationCenter interface {
	Show(ctx context.Context, title string, opts platform.Options) error
	Close(ctx context.Context, tag string) error
}

// Window is one open application window.
type Window interface {
	URL() string
	Focus(ctx context.Context) error
	// CanNavigate reports whether in-place navigation is supported.
	CanNavigate() bool
	Navigate(ctx context.Context, url string) error
}

// WindowManager enumerates and opens application windows.
type WindowManager interface {
	List(ctx context.Context) ([]Window, error)
	Open(ctx context.Context, url string) (Window, error)
}

// PushEvent is one inbound delivery from the push channel. RawData is the
// untrusted payload body; it may be JSON, plain text, or empty.
type PushEvent struct {
	RawData []byte
}

// ClickEvent is a user interaction with a shown notification.
type ClickEvent struct {
	Action string
	Tag    string
	Data   platform.Data
}

// SubscriptionChangeEvent is a platform-side rotation or expiry of the
// subscription, outside the app's control.
type SubscriptionChangeEvent struct {
	NewSubscription *Subscription
}

// DefaultTitle is used when a payload carries no title of its own.
const DefaultTitle = "Notification"
