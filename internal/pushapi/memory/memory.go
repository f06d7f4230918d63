// Package memory is the in-process platform implementation used by unit
// tests and standalone mode. It mimics the hosting platform's observable
// behavior: one subscription per host, permission prompts, notification
// display, and window bookkeeping.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"push-agent/internal/platform"
	"push-agent/internal/pushapi"

	"github.com/google/uuid"
)

// ShownNotification records one rendered notification.
type ShownNotification struct {
	Title   string
	Options platform.Options
}

// Host implements pushapi.Platform, PushService, NotificationCenter and
// WindowManager in one fake so tests can wire a single object everywhere.
type Host struct {
	mu sync.Mutex

	// Knobs for tests. Zero values model a fully capable platform that
	// grants permission.
	Caps            pushapi.Capabilities
	Permission      string
	RegisterErr     error
	SubscribeErr    error
	SubscribeDelay  time.Duration
	ShowErr         error
	ShowErrOnce     bool
	ListWindowsErr  error
	WaitingVersion  bool
	takeoverInvoked bool

	subscription *pushapi.Subscription
	shown        []ShownNotification
	closedTags   []string
	windows      []*Window
	subscribes   int
}

func NewHost() *Host {
	return &Host{
		Caps:       pushapi.Capabilities{PushSupported: true, NotificationsSupported: true},
		Permission: pushapi.PermissionGranted,
	}
}

// ---- pushapi.Platform ----

func (h *Host) Capabilities() pushapi.Capabilities {
	return h.Caps
}

func (h *Host) RequestPermission(_ context.Context) (string, error) {
	return h.Permission, nil
}

func (h *Host) Register(_ context.Context) (pushapi.Registration, error) {
	if h.RegisterErr != nil {
		return nil, h.RegisterErr
	}
	return &registration{host: h}, nil
}

type registration struct {
	host *Host
}

func (r *registration) WaitActive(_ context.Context) error {
	return nil
}

func (r *registration) TakeoverWaiting(_ context.Context) error {
	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	r.host.takeoverInvoked = true
	return nil
}

func (r *registration) Push() pushapi.PushService {
	return r.host
}

// TakeoverInvoked reports whether a waiting version was asked to take over.
func (h *Host) TakeoverInvoked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.takeoverInvoked
}

// ---- pushapi.PushService ----

func (h *Host) GetSubscription(_ context.Context) (*pushapi.Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscription == nil {
		return nil, nil
	}
	sub := *h.subscription
	return &sub, nil
}

func (h *Host) Subscribe(ctx context.Context, opts pushapi.SubscribeOptions) (*pushapi.Subscription, error) {
	if h.SubscribeDelay > 0 {
		select {
		case <-time.After(h.SubscribeDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if h.SubscribeErr != nil {
		return nil, h.SubscribeErr
	}
	if !opts.UserVisibleOnly {
		return nil, fmt.Errorf("subscribe: userVisibleOnly is required")
	}
	if len(opts.ApplicationServerKey) == 0 {
		return nil, fmt.Errorf("subscribe: application server key is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribes++
	h.subscription = &pushapi.Subscription{
		Endpoint: "https://push.local/ep/" + uuid.New().String(),
		Keys: pushapi.Keys{
			P256dh: randomKey(65),
			Auth:   randomKey(16),
		},
	}
	sub := *h.subscription
	return &sub, nil
}

func (h *Host) Unsubscribe(_ context.Context, endpoint string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscription == nil || h.subscription.Endpoint != endpoint {
		return false, nil
	}
	h.subscription = nil
	return true, nil
}

// SetSubscription seeds an existing subscription, as after a process restart.
func (h *Host) SetSubscription(sub *pushapi.Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscription = sub
}

// SubscribeCount returns how many platform subscriptions were created.
func (h *Host) SubscribeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribes
}

// ---- pushapi.NotificationCenter ----

func (h *Host) Show(_ context.Context, title string, opts platform.Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ShowErr != nil {
		err := h.ShowErr
		if h.ShowErrOnce {
			h.ShowErr = nil
		}
		return err
	}
	h.shown = append(h.shown, ShownNotification{Title: title, Options: opts})
	return nil
}

func (h *Host) Close(_ context.Context, tag string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closedTags = append(h.closedTags, tag)
	return nil
}

// Shown returns a copy of every rendered notification.
func (h *Host) Shown() []ShownNotification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ShownNotification, len(h.shown))
	copy(out, h.shown)
	return out
}

// ClosedTags returns the tags passed to Close, in order.
func (h *Host) ClosedTags() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.closedTags))
	copy(out, h.closedTags)
	return out
}

// ---- pushapi.WindowManager ----

// Window is the in-memory pushapi.Window.
type Window struct {
	mu          sync.Mutex
	url         string
	focused     bool
	canNavigate bool
	navigateErr error
	focusErr    error
}

func NewWindow(url string, canNavigate bool) *Window {
	return &Window{url: url, canNavigate: canNavigate}
}

func (w *Window) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *Window) Focus(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.focusErr != nil {
		return w.focusErr
	}
	w.focused = true
	return nil
}

func (w *Window) CanNavigate() bool {
	return w.canNavigate
}

func (w *Window) Navigate(_ context.Context, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.navigateErr != nil {
		return w.navigateErr
	}
	w.url = url
	return nil
}

// Focused reports whether Focus succeeded on this window.
func (w *Window) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// SetFocusErr forces Focus to fail, for fallback-path tests.
func (w *Window) SetFocusErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focusErr = err
}

func (h *Host) List(_ context.Context) ([]pushapi.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ListWindowsErr != nil {
		return nil, h.ListWindowsErr
	}
	out := make([]pushapi.Window, len(h.windows))
	for i, w := range h.windows {
		out[i] = w
	}
	return out, nil
}

func (h *Host) Open(_ context.Context, url string) (pushapi.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w := NewWindow(url, true)
	h.windows = append(h.windows, w)
	return w, nil
}

// AddWindow seeds an open window.
func (h *Host) AddWindow(w *Window) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windows = append(h.windows, w)
}

// Windows returns the current window list.
func (h *Host) Windows() []*Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Window, len(h.windows))
	copy(out, h.windows)
	return out
}

func randomKey(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
