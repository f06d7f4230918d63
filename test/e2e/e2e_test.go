// test/e2e/e2e_test.go
//
// End-to-end flow across both halves of the agent: the foreground manager
// establishes a subscription through the Redis bridge, the worker-side
// listener consumes bridged events, and the delivery handler renders or
// suppresses them against the shared mirror.
package e2e

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"push-agent/internal/backend"
	"push-agent/internal/common/config"
	"push-agent/internal/common/logger"
	"push-agent/internal/delivery"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"
	"push-agent/internal/pushapi/memory"
	"push-agent/internal/pushapi/redisbridge"
	"push-agent/internal/store"
	"push-agent/internal/subscription"
)

// ==========================
// Backend Fixture
// ==========================

type backendFixture struct {
	mu sync.Mutex

	saved []backend.SubscriptionUpload
	read  []string
}

func (f *backendFixture) handler() http.HandlerFunc {
	publicKey := base64.RawURLEncoding.EncodeToString([]byte("application-server-key"))

	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/push/key":
			json.NewEncoder(w).Encode(backend.PublicKeyResponse{PublicKey: publicKey})

		case r.Method == http.MethodPost && r.URL.Path == "/api/push/subscriptions":
			var upload backend.SubscriptionUpload
			json.NewDecoder(r.Body).Decode(&upload)
			f.saved = append(f.saved, upload)
			w.WriteHeader(http.StatusCreated)

		case r.Method == http.MethodPost &&
			strings.HasPrefix(r.URL.Path, "/api/notifications/") &&
			strings.HasSuffix(r.URL.Path, "/read"):
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/notifications/"), "/read")
			f.read = append(f.read, id)
			w.WriteHeader(http.StatusOK)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *backendFixture) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *backendFixture) readIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.read))
	copy(out, f.read)
	return out
}

// ==========================
// Fixture Wiring
// ==========================

type fixture struct {
	backend *backendFixture
	bridge  *redisbridge.Bridge
	manager *subscription.Manager
	mirror  *store.Mirror
	host    *memory.Host
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	bf := &backendFixture{}
	srv := httptest.NewServer(bf.handler())
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger(t)
	api := backend.NewClient(srv.URL, "e2e-token", 5*time.Second, log)
	mirror := store.NewMirror(store.NewRedisStore(client), log)
	bridge := redisbridge.NewBridge(client, log)
	profile := platform.Detect(platform.Environment{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	})

	// Worker side: the display surface is the in-memory host; the event
	// stream and windows come through the bridge.
	host := memory.NewHost()
	handler, err := delivery.NewHandler(
		&delivery.Config{
			Origin:     "https://app.example.com",
			DefaultURL: "https://app.example.com/notifications",
			LandingURL: "https://app.example.com/notifications",
			IconPath:   "/assets/icon-192.png",
			BadgePath:  "/assets/badge-72.png",
		},
		profile,
		delivery.Deps{
			Notifications: host,
			Windows:       host,
			Push:          bridge,
			Backend:       api,
			Mirror:        mirror,
		},
		log,
	)
	require.NoError(t, err)

	listenerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	listener := redisbridge.NewListener(client, handler, nil, log)
	go func() {
		defer close(done)
		_ = listener.Run(listenerCtx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool {
		counts, err := client.PubSubNumSub(context.Background(), redisbridge.ChannelPush).Result()
		return err == nil && counts[redisbridge.ChannelPush] > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Foreground side.
	mgrCfg := subscription.LoadConfig()
	mgrCfg.SubscribeTimeout = config.GetDuration(2000)
	manager := subscription.NewManager(mgrCfg, bridge, api, mirror, profile, log)

	return &fixture{
		backend: bf,
		bridge:  bridge,
		manager: manager,
		mirror:  mirror,
		host:    host,
	}
}

func (f *fixture) waitShown(t *testing.T, count int) []memory.ShownNotification {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.host.Shown()) >= count
	}, 3*time.Second, 10*time.Millisecond)
	return f.host.Shown()
}

// ==========================
// End-to-End Scenarios
// ==========================

func TestEndToEnd_EnableThenDeliver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.manager.Enable(ctx, "u1", true)
	require.NoError(t, err)
	assert.True(t, result.Subscription.Valid())
	assert.False(t, result.Reused)
	assert.Equal(t, 1, f.backend.savedCount())

	// The worker reads the same subscription record through the bridge.
	sub, err := f.bridge.GetSubscription(ctx)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, result.Subscription.Endpoint, sub.Endpoint)

	require.NoError(t, f.bridge.PublishPush(ctx,
		[]byte(`{"title":"New message","body":"Hi","tag":"msg-1","data":{"targetUserId":"u1"}}`)))

	shown := f.waitShown(t, 1)
	assert.Equal(t, "New message", shown[0].Title)
	assert.Equal(t, "Hi", shown[0].Options.Body)
	assert.Equal(t, "msg-1", shown[0].Options.Tag)
}

func TestEndToEnd_SecondEnableReuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.manager.Enable(ctx, "u1", true)
	require.NoError(t, err)

	second, err := f.manager.Enable(ctx, "u1", true)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Subscription.Endpoint, second.Subscription.Endpoint)
}

func TestEndToEnd_WrongRecipientSuppressed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Enable(ctx, "u1", true)
	require.NoError(t, err)

	require.NoError(t, f.bridge.PublishPush(ctx,
		[]byte(`{"title":"Not yours","data":{"targetUserId":"u2"}}`)))
	require.NoError(t, f.bridge.PublishPush(ctx,
		[]byte(`{"title":"Yours","data":{"targetUserId":"u1"}}`)))

	shown := f.waitShown(t, 1)
	require.Len(t, shown, 1)
	assert.Equal(t, "Yours", shown[0].Title)
}

func TestEndToEnd_PreferenceOffSuppressesUntilReenabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Enable(ctx, "u1", true)
	require.NoError(t, err)

	f.manager.SetPreference(ctx, false)
	require.NoError(t, f.bridge.PublishPush(ctx, []byte(`{"title":"Muted"}`)))
	require.Never(t, func() bool {
		return len(f.host.Shown()) > 0
	}, 500*time.Millisecond, 25*time.Millisecond)

	f.manager.SetPreference(ctx, true)
	require.NoError(t, f.bridge.PublishPush(ctx, []byte(`{"title":"Audible"}`)))

	shown := f.waitShown(t, 1)
	require.Len(t, shown, 1)
	assert.Equal(t, "Audible", shown[0].Title)
}

func TestEndToEnd_ClickMarkReadReachesBackend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Enable(ctx, "u1", true)
	require.NoError(t, err)

	require.NoError(t, f.bridge.PublishClick(ctx, pushapi.ClickEvent{
		Action: "mark-read",
		Tag:    "msg-1",
		Data:   platform.Data{NotificationID: "n-42"},
	}))

	require.Eventually(t, func() bool {
		ids := f.backend.readIDs()
		return len(ids) == 1 && ids[0] == "n-42"
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"msg-1"}, f.host.ClosedTags())
}

func TestEndToEnd_SubscriptionRotationReannounced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Enable(ctx, "u1", true)
	require.NoError(t, err)
	require.Equal(t, 1, f.backend.savedCount())

	require.NoError(t, f.bridge.PublishSubscriptionChange(ctx, pushapi.SubscriptionChangeEvent{
		NewSubscription: &pushapi.Subscription{
			Endpoint: "https://push.local/ep/rotated",
			Keys:     pushapi.Keys{P256dh: "p", Auth: "a"},
		},
	}))

	require.Eventually(t, func() bool {
		return f.backend.savedCount() == 2
	}, 3*time.Second, 10*time.Millisecond)
}
