// internal/subscription/manager.go
package subscription

import (
	"context"
	stderrors "errors"
	"time"

	"push-agent/internal/backend"
	"push-agent/internal/common/errors"
	"push-agent/internal/common/logger"
	"push-agent/internal/common/metrics"
	"push-agent/internal/keycodec"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"
	"push-agent/internal/store"
)

// Manager orchestrates registration of the background delivery handler and
// the create/validate/renew/remove lifecycle of the push subscription. It
// never retries automatically; retry is a caller decision.
type Manager struct {
	config   *Config
	platform pushapi.Platform
	backend  backend.API
	mirror   *store.Mirror
	profile  platform.Profile
	logger   logger.Logger

	state State
}

func NewManager(
	config *Config,
	plat pushapi.Platform,
	api backend.API,
	mirror *store.Mirror,
	profile platform.Profile,
	log logger.Logger,
) *Manager {
	return &Manager{
		config:   config,
		platform: plat,
		backend:  api,
		mirror:   mirror,
		profile:  profile,
		logger:   log.WithFields(map[string]interface{}{"component": "subscription-manager"}),
		state:    StateUnregistered,
	}
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Enable runs the full establishment flow for the signed-in user: register
// the background handler, reuse or create the subscription, announce it to
// the backend, and mirror identity/preference for the delivery handler.
// Called on demand, not at application boot.
func (m *Manager) Enable(ctx context.Context, userID string, receive bool) (*Result, error) {
	caps := m.platform.Capabilities()
	if !caps.PushSupported || !caps.NotificationsSupported {
		metrics.SubscriptionsEstablished.WithLabelValues("unsupported").Inc()
		return nil, errors.NewPlatformUnsupportedError("push or notification API missing")
	}

	permission, err := m.platform.RequestPermission(ctx)
	if err != nil {
		metrics.SubscriptionsEstablished.WithLabelValues("failed").Inc()
		return nil, errors.NewRegistrationFailedError(err)
	}
	if permission != pushapi.PermissionGranted {
		metrics.SubscriptionsEstablished.WithLabelValues("denied").Inc()
		return nil, errors.NewPermissionDeniedError("permission state: " + permission)
	}

	registration, err := m.register(ctx)
	if err != nil {
		metrics.SubscriptionsEstablished.WithLabelValues("failed").Inc()
		return nil, err
	}

	// Mirror identity and preference before subscribing so the delivery
	// handler can function from the very first delivered payload.
	m.mirror.WriteIdentity(ctx, userID)
	m.mirror.WritePreference(ctx, receive)

	result, err := m.establish(ctx, registration.Push())
	if err != nil {
		metrics.SubscriptionsEstablished.WithLabelValues("failed").Inc()
		return nil, err
	}

	m.state = StateSubscribed
	result.Warning = m.profile.ReliabilityWarning()
	outcome := "created"
	if result.Reused {
		outcome = "reused"
	}
	metrics.SubscriptionsEstablished.WithLabelValues(outcome).Inc()

	m.logger.Info("push subscription established", map[string]interface{}{
		"endpoint": result.Subscription.Endpoint,
		"reused":   result.Reused,
	})
	return result, nil
}

func (m *Manager) register(ctx context.Context) (pushapi.Registration, error) {
	m.state = StateRegistering

	registration, err := m.platform.Register(ctx)
	if err != nil {
		m.state = StateUnregistered
		return nil, errors.NewRegistrationFailedError(err)
	}

	// If the handler is still installing, wait for activation; if a
	// previous version is waiting, ask it to take over immediately.
	if err := registration.TakeoverWaiting(ctx); err != nil {
		m.logger.Warn("takeover request failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := registration.WaitActive(ctx); err != nil {
		m.state = StateUnregistered
		return nil, errors.NewRegistrationFailedError(err)
	}

	m.state = StateReady
	return registration, nil
}

func (m *Manager) establish(ctx context.Context, push pushapi.PushService) (*Result, error) {
	var advisories []errors.Advisory

	existing, err := push.GetSubscription(ctx)
	if err != nil {
		m.logger.Warn("existing subscription lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if existing != nil {
		if existing.Valid() {
			// Reuse, so the platform never holds duplicate subscriptions
			// for this device. Re-announce best-effort.
			if err := m.backend.SaveSubscription(ctx, existing, m.config.UserAgent, m.profile); err != nil {
				m.logger.Warn("subscription re-announce failed", map[string]interface{}{
					"error": err.Error(),
				})
				advisories = append(advisories, errors.NewAdvisory(errors.ErrCodeAnnounceFailed, "re-announce", err))
			}
			return &Result{Subscription: existing, Reused: true, Advisories: advisories}, nil
		}

		// Invalid subscriptions are discarded wholesale before a new one
		// is created.
		if _, err := push.Unsubscribe(ctx, existing.Endpoint); err != nil {
			m.logger.Warn("stale subscription removal failed", map[string]interface{}{
				"error":    err.Error(),
				"endpoint": existing.Endpoint,
			})
			advisories = append(advisories, errors.NewAdvisory(errors.ErrCodeRemoveFailed, "remove-stale", err))
		}
	}

	rawKey, err := m.fetchApplicationKey(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := m.subscribe(ctx, push, rawKey)
	if err != nil {
		return nil, err
	}

	// A failed save does not roll back: the device is subscribed locally
	// even if the backend is temporarily unaware.
	if err := m.backend.SaveSubscription(ctx, sub, m.config.UserAgent, m.profile); err != nil {
		m.logger.Warn("subscription save failed", map[string]interface{}{
			"error":    err.Error(),
			"endpoint": sub.Endpoint,
		})
		advisories = append(advisories, errors.NewAdvisory(errors.ErrCodeAnnounceFailed, "announce", err))
	}

	return &Result{Subscription: sub, Advisories: advisories}, nil
}

func (m *Manager) fetchApplicationKey(ctx context.Context) ([]byte, error) {
	encoded, err := m.backend.PublicKey(ctx)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewRequestTimeoutError(m.config.SubscribeTimeout)
		}
		return nil, errors.NewSubscribeFailedError(err)
	}

	raw, err := keycodec.DecodeApplicationKey(encoded)
	if err != nil {
		return nil, errors.NewKeyPreparationError(err)
	}
	return raw, nil
}

func (m *Manager) subscribe(ctx context.Context, push pushapi.PushService, rawKey []byte) (*pushapi.Subscription, error) {
	subCtx, cancel := context.WithTimeout(ctx, m.config.SubscribeTimeout)
	defer cancel()

	started := time.Now()
	sub, err := push.Subscribe(subCtx, pushapi.SubscribeOptions{
		UserVisibleOnly:      true,
		ApplicationServerKey: rawKey,
	})
	metrics.SubscribeDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		switch {
		case stderrors.Is(subCtx.Err(), context.DeadlineExceeded):
			return nil, errors.NewRequestTimeoutError(m.config.SubscribeTimeout)
		case stderrors.Is(err, context.Canceled):
			return nil, errors.NewRequestAbortedError(err)
		default:
			return nil, errors.NewSubscribeFailedError(err)
		}
	}
	if !sub.Valid() {
		return nil, errors.NewSubscribeFailedError(
			stderrors.New("platform returned a subscription without endpoint or key material"))
	}
	return sub, nil
}

// SetPreference updates the user's "receive notifications" preference in
// both the fast-path cache and the durable mirror.
func (m *Manager) SetPreference(ctx context.Context, receive bool) {
	m.mirror.WritePreference(ctx, receive)
}

// Disable tears the subscription down on explicit user action. Local
// unsubscription is best-effort; informing the backend is handled by the
// surrounding API layer.
func (m *Manager) Disable(ctx context.Context) []errors.Advisory {
	var advisories []errors.Advisory

	registration, err := m.platform.Register(ctx)
	if err != nil {
		m.logger.Warn("registration lookup during disable failed", map[string]interface{}{
			"error": err.Error(),
		})
		advisories = append(advisories, errors.NewAdvisory(errors.ErrCodeRemoveFailed, "lookup-registration", err))
		m.state = StateUnsubscribed
		return advisories
	}

	push := registration.Push()
	existing, err := push.GetSubscription(ctx)
	if err == nil && existing != nil {
		if _, err := push.Unsubscribe(ctx, existing.Endpoint); err != nil {
			m.logger.Warn("unsubscribe failed", map[string]interface{}{
				"error":    err.Error(),
				"endpoint": existing.Endpoint,
			})
			advisories = append(advisories, errors.NewAdvisory(errors.ErrCodeRemoveFailed, "unsubscribe", err))
		}
	}

	m.mirror.WritePreference(ctx, false)
	m.state = StateUnsubscribed
	return advisories
}
