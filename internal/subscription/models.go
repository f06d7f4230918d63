// internal/subscription/models.go
package subscription

import (
	"push-agent/internal/common/errors"
	"push-agent/internal/pushapi"
)

// State names the manager's position in the subscription lifecycle.
type State int

const (
	StateUnregistered State = iota
	StateRegistering
	StateReady
	StateSubscribed
	// StateUnsubscribed is terminal for the session; enabling again
	// requires a fresh manager.
	StateUnsubscribed
)

func (s State) String() string {
	switch s {
	case StateRegistering:
		return "registering"
	case StateReady:
		return "ready"
	case StateSubscribed:
		return "subscribed"
	case StateUnsubscribed:
		return "unsubscribed"
	default:
		return "unregistered"
	}
}

// Result is the outcome of an establishment flow: the primary subscription
// plus any advisory failures from best-effort side calls. Advisories never
// invalidate the subscription.
type Result struct {
	Subscription *pushapi.Subscription
	// Reused is true when an existing valid subscription was kept instead
	// of creating a duplicate.
	Reused     bool
	Advisories []errors.Advisory
	// Warning carries the platform reliability warning, if any.
	Warning string
}
