package redisbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"push-agent/internal/common/logger"
	"push-agent/internal/pushapi"
)

const (
	keyWindows = "agent:windows"

	// ChannelWindows carries window commands to whichever UI surface owns
	// the window.
	ChannelWindows = "agent:commands:windows"
)

// windowRecord is the advertised state of one open window.
type windowRecord struct {
	URL         string `json:"url"`
	CanNavigate bool   `json:"canNavigate"`
}

// windowCommand is published for the owning surface to act on.
type windowCommand struct {
	Op  string `json:"op"` // "focus", "navigate", "open"
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// WindowRegistry implements pushapi.WindowManager on shared Redis state.
// Foreground surfaces advertise their windows; the delivery worker lists
// them on notification click and publishes focus/navigate/open commands.
type WindowRegistry struct {
	rdb    *redis.Client
	logger logger.Logger
}

func NewWindowRegistry(rdb *redis.Client, log logger.Logger) *WindowRegistry {
	return &WindowRegistry{
		rdb:    rdb,
		logger: log.WithFields(map[string]interface{}{"component": "window-registry"}),
	}
}

// RegisterWindow advertises a window owned by a foreground surface. The
// surface must unregister it on close.
func (w *WindowRegistry) RegisterWindow(ctx context.Context, id, url string, canNavigate bool) error {
	body, err := json.Marshal(windowRecord{URL: url, CanNavigate: canNavigate})
	if err != nil {
		return err
	}
	return w.rdb.HSet(ctx, keyWindows, id, body).Err()
}

func (w *WindowRegistry) UnregisterWindow(ctx context.Context, id string) error {
	return w.rdb.HDel(ctx, keyWindows, id).Err()
}

func (w *WindowRegistry) List(ctx context.Context) ([]pushapi.Window, error) {
	entries, err := w.rdb.HGetAll(ctx, keyWindows).Result()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	out := make([]pushapi.Window, 0, len(entries))
	for id, raw := range entries {
		var rec windowRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			w.logger.Warn("malformed window record dropped", map[string]interface{}{
				"id": id,
			})
			continue
		}
		out = append(out, &bridgeWindow{registry: w, id: id, rec: rec})
	}
	return out, nil
}

func (w *WindowRegistry) Open(ctx context.Context, url string) (pushapi.Window, error) {
	id := uuid.New().String()
	if err := w.RegisterWindow(ctx, id, url, true); err != nil {
		return nil, fmt.Errorf("open window: %w", err)
	}
	if err := w.publish(ctx, windowCommand{Op: "open", ID: id, URL: url}); err != nil {
		return nil, err
	}
	return &bridgeWindow{registry: w, id: id, rec: windowRecord{URL: url, CanNavigate: true}}, nil
}

func (w *WindowRegistry) publish(ctx context.Context, cmd windowCommand) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return w.rdb.Publish(ctx, ChannelWindows, body).Err()
}

// bridgeWindow is the worker-side handle on an advertised window. Focus and
// navigation are commands to the owning surface, not local state changes.
type bridgeWindow struct {
	registry *WindowRegistry
	id       string
	rec      windowRecord
}

func (b *bridgeWindow) URL() string {
	return b.rec.URL
}

func (b *bridgeWindow) Focus(ctx context.Context) error {
	return b.registry.publish(ctx, windowCommand{Op: "focus", ID: b.id})
}

func (b *bridgeWindow) CanNavigate() bool {
	return b.rec.CanNavigate
}

func (b *bridgeWindow) Navigate(ctx context.Context, url string) error {
	if !b.rec.CanNavigate {
		return fmt.Errorf("window %s does not accept navigation", b.id)
	}
	if err := b.registry.RegisterWindow(ctx, b.id, url, true); err != nil {
		return err
	}
	b.rec.URL = url
	return b.registry.publish(ctx, windowCommand{Op: "navigate", ID: b.id, URL: url})
}
