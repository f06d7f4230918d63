package redisbridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"push-agent/internal/common/logger"
	"push-agent/internal/common/observability"
	"push-agent/internal/pushapi"
)

// EventHandler is the worker-side consumer of bridged platform events.
type EventHandler interface {
	HandlePush(ctx context.Context, ev pushapi.PushEvent) error
	HandleClick(ctx context.Context, ev pushapi.ClickEvent) error
	HandleSubscriptionChange(ctx context.Context, ev pushapi.SubscriptionChangeEvent) error
}

// Listener is the delivery worker's end of the bridge: it maintains the
// worker heartbeat and dispatches bridged events to the handler. One
// listener per worker process.
type Listener struct {
	rdb     *redis.Client
	handler EventHandler
	obs     *observability.Observability
	logger  logger.Logger

	heartbeatEvery time.Duration
}

func NewListener(rdb *redis.Client, handler EventHandler, obs *observability.Observability, log logger.Logger) *Listener {
	return &Listener{
		rdb:            rdb,
		handler:        handler,
		obs:            obs,
		logger:         log.WithFields(map[string]interface{}{"component": "bridge-listener"}),
		heartbeatEvery: HeartbeatTTL / 3,
	}
}

// Run consumes events until the context ends. The first heartbeat is
// written before subscribing, so a foreground WaitActive call observes the
// worker as soon as events can actually be handled.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.beat(ctx); err != nil {
		return err
	}

	sub := l.rdb.Subscribe(ctx, ChannelPush, ChannelClick, ChannelSubChange, ChannelCommands)
	defer sub.Close()

	// Confirm the subscription before reporting readiness.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	l.logger.Info("delivery worker listening", map[string]interface{}{
		"channels": []string{ChannelPush, ChannelClick, ChannelSubChange, ChannelCommands},
	})

	messages := sub.Channel()
	ticker := time.NewTicker(l.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := l.beat(ctx); err != nil && ctx.Err() == nil {
				l.logger.Warn("heartbeat write failed", map[string]interface{}{
					"error": err.Error(),
				})
			}

		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			l.dispatch(ctx, msg)
		}
	}
}

func (l *Listener) beat(ctx context.Context) error {
	return l.rdb.Set(ctx, keyHeartbeat, time.Now().UTC().Format(time.RFC3339), HeartbeatTTL).Err()
}

func (l *Listener) dispatch(ctx context.Context, msg *redis.Message) {
	started := time.Now()
	outcome := "ok"

	var err error
	switch msg.Channel {
	case ChannelPush:
		err = l.handler.HandlePush(ctx, pushapi.PushEvent{RawData: []byte(msg.Payload)})

	case ChannelClick:
		var ev pushapi.ClickEvent
		if err = json.Unmarshal([]byte(msg.Payload), &ev); err == nil {
			err = l.handler.HandleClick(ctx, ev)
		}

	case ChannelSubChange:
		var ev pushapi.SubscriptionChangeEvent
		if err = json.Unmarshal([]byte(msg.Payload), &ev); err == nil {
			err = l.handler.HandleSubscriptionChange(ctx, ev)
		}

	case ChannelCommands:
		if msg.Payload == CommandTakeover {
			// Heartbeat immediately so a waiting WaitActive returns.
			err = l.beat(ctx)
		}

	default:
		l.logger.Warn("message on unexpected channel", map[string]interface{}{
			"channel": msg.Channel,
		})
		return
	}

	if err != nil {
		outcome = "error"
		l.logger.Error("event handling failed", map[string]interface{}{
			"error":   err.Error(),
			"channel": msg.Channel,
		})
	}

	if l.obs != nil {
		l.obs.RecordEventProcessed(ctx, outcome)
		l.obs.RecordEventDuration(ctx, time.Since(started), outcome)
	}
}
