package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"push-agent/internal/common/logger"
	"push-agent/internal/platform"
)

// Console renders notifications as JSON lines on a writer, one per event.
// It is the worker's display surface when no richer center is attached.
type Console struct {
	out    io.Writer
	logger logger.Logger
}

func NewConsole(out io.Writer, log logger.Logger) *Console {
	return &Console{
		out:    out,
		logger: log.WithFields(map[string]interface{}{"component": "console-notifier"}),
	}
}

func (c *Console) Show(_ context.Context, title string, opts platform.Options) error {
	line, err := json.Marshal(map[string]interface{}{
		"event":   "shown",
		"title":   title,
		"options": opts,
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(c.out, string(line)); err != nil {
		return err
	}

	c.logger.Info("notification shown", map[string]interface{}{
		"title": title,
		"tag":   opts.Tag,
	})
	return nil
}

func (c *Console) Close(_ context.Context, tag string) error {
	line, err := json.Marshal(map[string]interface{}{
		"event": "closed",
		"tag":   tag,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(line))
	return err
}
