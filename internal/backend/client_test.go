package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"push-agent/internal/common/logger"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubscription() *pushapi.Subscription {
	return &pushapi.Subscription{
		Endpoint: "https://push.example/ep/abc",
		Keys:     pushapi.Keys{P256dh: "p256dh-material", Auth: "auth-material"},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", 5*time.Second, logger.NewTestLogger(t))
}

func TestClient_PublicKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/push/key", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(PublicKeyResponse{PublicKey: "BPubKey123"})
	})

	key, err := client.PublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BPubKey123", key)
}

func TestClient_PublicKey_EmptyKeyIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PublicKeyResponse{})
	})

	_, err := client.PublicKey(context.Background())
	assert.Error(t, err)
}

func TestClient_SaveSubscription(t *testing.T) {
	var received SubscriptionUpload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/push/subscriptions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	})

	profile := platform.Profile{IsAndroid: true, IsChrome: true}
	err := client.SaveSubscription(context.Background(), testSubscription(), "test-agent/1.0", profile)
	require.NoError(t, err)

	assert.Equal(t, "https://push.example/ep/abc", received.Endpoint)
	assert.Equal(t, "p256dh-material", received.Keys.P256dh)
	assert.Equal(t, "auth-material", received.Keys.Auth)
	assert.Equal(t, "test-agent/1.0", received.UserAgent)
	assert.True(t, received.Platform.IsAndroid)
	assert.Nil(t, received.ExpirationTime)
}

func TestClient_SaveSubscription_CarriesExpiration(t *testing.T) {
	var received SubscriptionUpload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	})

	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sub := testSubscription()
	sub.ExpirationTime = &exp

	require.NoError(t, client.SaveSubscription(context.Background(), sub, "", platform.Profile{}))
	require.NotNil(t, received.ExpirationTime)
	assert.Equal(t, "2026-01-02T03:04:05Z", *received.ExpirationTime)
}

func TestClient_RemoveSubscription(t *testing.T) {
	var removal SubscriptionRemoval
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/push/subscriptions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&removal))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.RemoveSubscription(context.Background(), "https://push.example/ep/abc"))
	assert.Equal(t, "https://push.example/ep/abc", removal.Endpoint)
}

func TestClient_MarkNotificationRead(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/notifications/n42/read", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.MarkNotificationRead(context.Background(), "n42"))
}

func TestClient_ErrorStatusSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	err := client.MarkNotificationRead(context.Background(), "n42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.PublicKey(ctx)
	assert.Error(t, err)
}
