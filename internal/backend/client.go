// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	commonhttp "push-agent/internal/common/http"
	"push-agent/internal/common/logger"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"
)

// API is the backend collaborator surface the push core consumes. The
// bearer token is forwarded, never managed here.
type API interface {
	PublicKey(ctx context.Context) (string, error)
	SaveSubscription(ctx context.Context, sub *pushapi.Subscription, userAgent string, profile platform.Profile) error
	RemoveSubscription(ctx context.Context, endpoint string) error
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

type Client struct {
	baseURL     string
	bearerToken string
	httpClient  *commonhttp.Client
	logger      logger.Logger
}

func NewClient(baseURL, bearerToken string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient:  commonhttp.NewClient(timeout),
		logger:      log.WithFields(map[string]interface{}{"component": "backend"}),
	}
}

func (c *Client) PublicKey(ctx context.Context) (string, error) {
	var resp PublicKeyResponse
	if err := c.do(ctx, http.MethodGet, "/api/push/key", nil, &resp); err != nil {
		return "", fmt.Errorf("fetch public key: %w", err)
	}
	if resp.PublicKey == "" {
		return "", fmt.Errorf("fetch public key: backend returned an empty key")
	}
	return resp.PublicKey, nil
}

func (c *Client) SaveSubscription(ctx context.Context, sub *pushapi.Subscription, userAgent string, profile platform.Profile) error {
	upload := SubscriptionUpload{
		Endpoint:  sub.Endpoint,
		Keys:      sub.Keys,
		UserAgent: userAgent,
		Platform:  profile,
	}
	if sub.ExpirationTime != nil {
		ts := sub.ExpirationTime.UTC().Format(time.RFC3339)
		upload.ExpirationTime = &ts
	}

	if err := c.do(ctx, http.MethodPost, "/api/push/subscriptions", upload, nil); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (c *Client) RemoveSubscription(ctx context.Context, endpoint string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/push/subscriptions", SubscriptionRemoval{Endpoint: endpoint}, nil); err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	path := fmt.Sprintf("/api/notifications/%s/read", url.PathEscape(notificationID))
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
