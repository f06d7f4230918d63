// Package redisbridge implements the platform collaborator across process
// boundaries: the foreground agent and the background delivery worker share
// registration state, the subscription record, and the event stream through
// Redis keys and pub/sub channels.
package redisbridge

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"push-agent/internal/common/logger"
	"push-agent/internal/pushapi"
)

// Redis keys and channels shared by both processes.
const (
	keySubscription = "agent:subscription"
	keyPermission   = "agent:permission"
	keyHeartbeat    = "agent:worker:heartbeat"

	ChannelPush      = "agent:events:push"
	ChannelClick     = "agent:events:click"
	ChannelSubChange = "agent:events:subchange"
	ChannelCommands  = "agent:commands"

	// CommandTakeover asks a waiting worker version to take over now.
	CommandTakeover = "takeover"

	// HeartbeatTTL is how long a worker heartbeat stays fresh. WaitActive
	// treats a missing or expired heartbeat as "still installing".
	HeartbeatTTL = 15 * time.Second

	waitActivePoll = 200 * time.Millisecond
)

// Bridge is the foreground-side view of the shared platform state. It
// implements pushapi.Platform and pushapi.PushService.
type Bridge struct {
	rdb    *redis.Client
	logger logger.Logger
}

func NewBridge(rdb *redis.Client, log logger.Logger) *Bridge {
	return &Bridge{
		rdb:    rdb,
		logger: log.WithFields(map[string]interface{}{"component": "redis-bridge"}),
	}
}

// ==========================
// pushapi.Platform
// ==========================

func (b *Bridge) Capabilities() pushapi.Capabilities {
	if err := b.rdb.Ping(context.Background()).Err(); err != nil {
		return pushapi.Capabilities{}
	}
	return pushapi.Capabilities{PushSupported: true, NotificationsSupported: true}
}

// RequestPermission reads the permission state from the shared store. Absent
// means granted; operators can park the fleet by setting it to denied.
func (b *Bridge) RequestPermission(ctx context.Context) (string, error) {
	state, err := b.rdb.Get(ctx, keyPermission).Result()
	if err == redis.Nil {
		return pushapi.PermissionGranted, nil
	}
	if err != nil {
		return "", fmt.Errorf("read permission state: %w", err)
	}
	return state, nil
}

func (b *Bridge) Register(_ context.Context) (pushapi.Registration, error) {
	return &registration{bridge: b}, nil
}

type registration struct {
	bridge *Bridge
}

// WaitActive blocks until a delivery worker heartbeat appears.
func (r *registration) WaitActive(ctx context.Context) error {
	ticker := time.NewTicker(waitActivePoll)
	defer ticker.Stop()

	for {
		n, err := r.bridge.rdb.Exists(ctx, keyHeartbeat).Result()
		if err != nil {
			return fmt.Errorf("check worker heartbeat: %w", err)
		}
		if n > 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for delivery worker: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *registration) TakeoverWaiting(ctx context.Context) error {
	return r.bridge.rdb.Publish(ctx, ChannelCommands, CommandTakeover).Err()
}

func (r *registration) Push() pushapi.PushService {
	return r.bridge
}

// ==========================
// pushapi.PushService
// ==========================

func (b *Bridge) GetSubscription(ctx context.Context) (*pushapi.Subscription, error) {
	raw, err := b.rdb.Get(ctx, keySubscription).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read subscription: %w", err)
	}

	var sub pushapi.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return nil, fmt.Errorf("decode subscription record: %w", err)
	}
	return &sub, nil
}

func (b *Bridge) Subscribe(ctx context.Context, opts pushapi.SubscribeOptions) (*pushapi.Subscription, error) {
	if !opts.UserVisibleOnly {
		return nil, fmt.Errorf("subscribe: userVisibleOnly is required")
	}
	if len(opts.ApplicationServerKey) == 0 {
		return nil, fmt.Errorf("subscribe: application server key is required")
	}

	sub := &pushapi.Subscription{
		Endpoint: "https://push.local/ep/" + uuid.New().String(),
		Keys: pushapi.Keys{
			P256dh: randomKey(65),
			Auth:   randomKey(16),
		},
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, err
	}
	if err := b.rdb.Set(ctx, keySubscription, body, 0).Err(); err != nil {
		return nil, fmt.Errorf("persist subscription: %w", err)
	}

	b.logger.Info("subscription persisted", map[string]interface{}{
		"endpoint": sub.Endpoint,
	})
	return sub, nil
}

func (b *Bridge) Unsubscribe(ctx context.Context, endpoint string) (bool, error) {
	existing, err := b.GetSubscription(ctx)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.Endpoint != endpoint {
		return false, nil
	}
	if err := b.rdb.Del(ctx, keySubscription).Err(); err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	return true, nil
}

// ==========================
// Event Publishing
// ==========================

// PublishPush injects a raw payload into the delivery stream. The backend's
// dispatcher (or a test) is the producer; the delivery worker consumes it.
func (b *Bridge) PublishPush(ctx context.Context, raw []byte) error {
	return b.rdb.Publish(ctx, ChannelPush, raw).Err()
}

func (b *Bridge) PublishClick(ctx context.Context, ev pushapi.ClickEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, ChannelClick, body).Err()
}

func (b *Bridge) PublishSubscriptionChange(ctx context.Context, ev pushapi.SubscriptionChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, ChannelSubChange, body).Err()
}

func randomKey(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
