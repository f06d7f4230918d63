package notifier

import (
	"context"

	"push-agent/internal/common/logger"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"
)

// Tee forwards notification events to a primary center and, best-effort, to
// a secondary sink. The secondary never affects the primary outcome: display
// must not fail because a relay is down.
type Tee struct {
	primary   pushapi.NotificationCenter
	secondary pushapi.NotificationCenter
	logger    logger.Logger
}

func NewTee(primary, secondary pushapi.NotificationCenter, log logger.Logger) *Tee {
	return &Tee{primary: primary, secondary: secondary, logger: log}
}

func (t *Tee) Show(ctx context.Context, title string, opts platform.Options) error {
	err := t.primary.Show(ctx, title, opts)
	if relayErr := t.secondary.Show(ctx, title, opts); relayErr != nil {
		t.logger.Debug("secondary show relay failed", map[string]interface{}{
			"error": relayErr.Error(),
			"tag":   opts.Tag,
		})
	}
	return err
}

func (t *Tee) Close(ctx context.Context, tag string) error {
	err := t.primary.Close(ctx, tag)
	if relayErr := t.secondary.Close(ctx, tag); relayErr != nil {
		t.logger.Debug("secondary close relay failed", map[string]interface{}{
			"error": relayErr.Error(),
			"tag":   tag,
		})
	}
	return err
}
