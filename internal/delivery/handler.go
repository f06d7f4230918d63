// Package delivery implements the background half of the push agent: it
// receives raw push events, decides whether to render them, shapes them for
// the detected platform family, and reacts to notification clicks and
// platform-side subscription rotations.
package delivery

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"push-agent/internal/backend"
	"push-agent/internal/common/errors"
	"push-agent/internal/common/logger"
	"push-agent/internal/common/metrics"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"
	"push-agent/internal/store"
	"push-agent/pkg/wire"
)

// ==========================
// Handler
// ==========================

// Deps are the collaborators the handler drives. All of them are interfaces
// or mirror views, so tests wire fakes.
type Deps struct {
	Notifications pushapi.NotificationCenter
	Windows       pushapi.WindowManager
	Push          pushapi.PushService
	Backend       backend.API
	Mirror        *store.Mirror
}

// Handler processes push, click and subscription-change events. Every event
// entrypoint recovers internally: a malformed or failing payload must never
// take the delivery pipeline down.
type Handler struct {
	config  *Config
	deps    Deps
	profile platform.Profile
	shaper  platform.Shaper
	parser  *Parser
	origin  *url.URL
	logger  logger.Logger

	// nowFunc is swapped in tests to pin time-derived tags.
	nowFunc func() time.Time
}

func NewHandler(cfg *Config, profile platform.Profile, deps Deps, log logger.Logger) (*Handler, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, fmt.Errorf("payload parser: %w", err)
	}

	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("invalid origin %q", cfg.Origin)
	}

	return &Handler{
		config:  cfg,
		deps:    deps,
		profile: profile,
		shaper: platform.Shaper{
			Icon:       cfg.IconPath,
			Badge:      cfg.BadgePath,
			DefaultURL: cfg.DefaultURL,
		},
		parser:  parser,
		origin:  origin,
		logger:  log.WithFields(map[string]interface{}{"component": "delivery-handler"}),
		nowFunc: time.Now,
	}, nil
}

// ==========================
// Push Events
// ==========================

// HandlePush runs the full per-payload pipeline: parse, decide, shape, show.
// Suppression and render failures are terminal outcomes for the payload, not
// errors; the returned error is non-nil only when even the fallback
// notification could not be shown.
func (h *Handler) HandlePush(ctx context.Context, ev pushapi.PushEvent) error {
	metrics.PushEventsReceived.Inc()

	parsed := h.parser.Parse(ev.RawData)
	if parsed.Source == SourceText {
		h.logger.Warn("push payload is not valid JSON, using text fallback", map[string]interface{}{
			"bytes": len(ev.RawData),
		})
	}

	snapshot := h.deps.Mirror.Snapshot(ctx)
	decision := Decide(parsed.Payload, snapshot)
	if !decision.Render {
		metrics.NotificationsSuppressed.WithLabelValues(string(decision.Reason)).Inc()
		h.logger.Info("notification suppressed", map[string]interface{}{
			"reason": string(decision.Reason),
			"source": string(parsed.Source),
		})
		return nil
	}

	return h.render(ctx, parsed.Payload)
}

func (h *Handler) render(ctx context.Context, payload wire.Payload) error {
	title := payload.Title
	if title == "" {
		title = pushapi.DefaultTitle
	}

	opts := h.shaper.Shape(h.profile, payload, h.nowFunc())
	if err := h.deps.Notifications.Show(ctx, title, opts); err != nil {
		h.logger.Error("notification display failed, showing fallback", map[string]interface{}{
			"error": err.Error(),
			"code":  string(errors.ErrCodeRenderFailed),
			"tag":   opts.Tag,
		})
		return h.renderFallback(ctx)
	}

	metrics.NotificationsRendered.WithLabelValues(h.profile.Family().String()).Inc()
	return nil
}

// renderFallback shows a generic notification under a distinct tag so it
// cannot collide with (or coalesce into) the one that just failed.
func (h *Handler) renderFallback(ctx context.Context) error {
	opts := h.shaper.Shape(h.profile, wire.Payload{
		Tag: fmt.Sprintf("notification-fallback-%d", h.nowFunc().Unix()),
	}, h.nowFunc())

	if err := h.deps.Notifications.Show(ctx, pushapi.DefaultTitle, opts); err != nil {
		h.logger.Error("fallback notification display failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(errors.ErrCodeRenderFailed),
		})
		return fmt.Errorf("show fallback notification: %w", err)
	}

	metrics.NotificationsRendered.WithLabelValues("fallback").Inc()
	return nil
}

// ==========================
// Click Events
// ==========================

// HandleClick dismisses the clicked notification and performs its action:
// mark-read posts a read receipt without surfacing a window, dismiss does
// nothing further, and everything else brings an application window to the
// target URL.
func (h *Handler) HandleClick(ctx context.Context, ev pushapi.ClickEvent) error {
	action := ev.Action
	if action == "" {
		action = wire.ActionView
	}
	metrics.NotificationClicks.WithLabelValues(action).Inc()

	if ev.Tag != "" {
		if err := h.deps.Notifications.Close(ctx, ev.Tag); err != nil {
			h.logger.Warn("notification close failed", map[string]interface{}{
				"error": err.Error(),
				"tag":   ev.Tag,
			})
		}
	}

	switch action {
	case wire.ActionDismiss:
		return nil

	case wire.ActionMarkRead:
		if ev.Data.NotificationID == "" {
			return nil
		}
		if err := h.deps.Backend.MarkNotificationRead(ctx, ev.Data.NotificationID); err != nil {
			h.logger.Warn("read receipt failed", map[string]interface{}{
				"error":          err.Error(),
				"code":           string(errors.ErrCodeReadReceiptFailed),
				"notificationId": ev.Data.NotificationID,
			})
		}
		return nil

	default:
		return h.surfaceWindow(ctx, h.resolveTarget(ev.Data.URL))
	}
}

// resolveTarget picks the URL a view click should land on and makes it
// absolute, so it can be compared against open window URLs.
func (h *Handler) resolveTarget(raw string) string {
	target := raw
	if target == "" {
		target = h.config.DefaultURL
	}
	if target == "" {
		target = h.config.LandingURL
	}
	if u, err := url.Parse(target); err == nil && !u.IsAbs() {
		return h.origin.ResolveReference(u).String()
	}
	return target
}

// surfaceWindow brings an application window to the target URL, preferring
// an already-open window over a new one: an exact match is focused, any
// same-origin window is focused and navigated, and only then a new window
// is opened. Failures degrade to opening the landing page.
func (h *Handler) surfaceWindow(ctx context.Context, target string) error {
	windows, err := h.deps.Windows.List(ctx)
	if err != nil {
		h.logger.Warn("window enumeration failed", map[string]interface{}{
			"error": err.Error(),
		})
		return h.openWindow(ctx, h.config.LandingURL)
	}

	for _, w := range windows {
		if w.URL() != target {
			continue
		}
		if err := w.Focus(ctx); err == nil {
			return nil
		}
		h.logger.Warn("window focus failed", map[string]interface{}{
			"url": w.URL(),
		})
	}

	for _, w := range windows {
		if !h.sameOrigin(w.URL()) || !w.CanNavigate() {
			continue
		}
		if err := w.Focus(ctx); err != nil {
			continue
		}
		if err := w.Navigate(ctx, target); err != nil {
			h.logger.Warn("window navigation failed", map[string]interface{}{
				"error": err.Error(),
				"url":   target,
			})
			return h.openWindow(ctx, h.config.LandingURL)
		}
		return nil
	}

	return h.openWindow(ctx, target)
}

func (h *Handler) openWindow(ctx context.Context, target string) error {
	if _, err := h.deps.Windows.Open(ctx, target); err != nil {
		h.logger.Error("window open failed", map[string]interface{}{
			"error": err.Error(),
			"url":   target,
		})
		return fmt.Errorf("open window %s: %w", target, err)
	}
	return nil
}

func (h *Handler) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == h.origin.Scheme && u.Host == h.origin.Host
}

// ==========================
// Subscription Changes
// ==========================

// HandleSubscriptionChange re-announces the platform's replacement
// subscription to the backend so delivery is not silently lost after a
// rotation. With no replacement available there is nothing to do here; the
// next foreground establishment run will subscribe from scratch.
func (h *Handler) HandleSubscriptionChange(ctx context.Context, ev pushapi.SubscriptionChangeEvent) error {
	sub := ev.NewSubscription
	if !sub.Valid() {
		current, err := h.deps.Push.GetSubscription(ctx)
		if err != nil {
			h.logger.Warn("subscription lookup after rotation failed", map[string]interface{}{
				"error": err.Error(),
			})
			return nil
		}
		sub = current
	}

	if !sub.Valid() {
		h.logger.Warn("subscription rotated away with no replacement", nil)
		return nil
	}

	if err := h.deps.Backend.SaveSubscription(ctx, sub, "", h.profile); err != nil {
		h.logger.Warn("rotated subscription announce failed", map[string]interface{}{
			"error":    err.Error(),
			"code":     string(errors.ErrCodeAnnounceFailed),
			"endpoint": sub.Endpoint,
		})
	}
	return nil
}
