package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"push-agent/internal/common/logger"
)

const (
	identityKey   = "currentUser"
	preferenceKey = "receivePush"
)

var errStoreFailure = errors.New("durable store failure")

// IdentityRecord mirrors the signed-in user's identifier for the background
// worker. Only the foreground writes it; the background reads a
// possibly-stale snapshot.
type IdentityRecord struct {
	UserID    string    `json:"userId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PreferenceRecord mirrors the "receive notifications" preference. Absent
// means receive (fail-open for convenience, not for security).
type PreferenceRecord struct {
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is what the delivery handler reads per event. It reflects the
// store at some recent moment, never guaranteed fresh.
type Snapshot struct {
	Identity      string
	IdentityKnown bool
	Receive       bool
}

// Mirror wraps a DurableStore with the typed identity/preference records and
// the store's failure policy: every storage failure is logged and swallowed,
// callers get the safe default.
type Mirror struct {
	store DurableStore
	log   logger.Logger

	mu         sync.RWMutex
	cachedPref *bool
}

func NewMirror(store DurableStore, log logger.Logger) *Mirror {
	return &Mirror{
		store: store,
		log:   log.WithFields(map[string]interface{}{"component": "mirror"}),
	}
}

// WriteIdentity replaces the mirrored identity record.
func (m *Mirror) WriteIdentity(ctx context.Context, userID string) {
	rec := IdentityRecord{UserID: userID, UpdatedAt: time.Now().UTC()}
	data, _ := json.Marshal(rec)
	if err := m.store.Put(ctx, NamespaceIdentity, identityKey, string(data)); err != nil {
		m.log.Error("identity mirror write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// ReadIdentity returns the mirrored identity, or ("", false) when absent or
// unreadable. An absent identity disables the security filter's positive
// match, so targeted payloads are suppressed rather than shown to a
// possibly-wrong user.
func (m *Mirror) ReadIdentity(ctx context.Context) (string, bool) {
	val, ok, err := m.store.Get(ctx, NamespaceIdentity, identityKey)
	if err != nil {
		m.log.Error("identity mirror read failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", false
	}
	if !ok {
		return "", false
	}

	var rec IdentityRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		m.log.Warn("identity mirror record malformed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", false
	}
	if rec.UserID == "" {
		return "", false
	}
	return rec.UserID, true
}

// WritePreference replaces the mirrored preference record. The fast-path
// cache is updated first so the UI reflects the choice without waiting on
// the durable round-trip.
func (m *Mirror) WritePreference(ctx context.Context, enabled bool) {
	m.mu.Lock()
	v := enabled
	m.cachedPref = &v
	m.mu.Unlock()

	rec := PreferenceRecord{Enabled: enabled, UpdatedAt: time.Now().UTC()}
	data, _ := json.Marshal(rec)
	if err := m.store.Put(ctx, NamespacePreference, preferenceKey, string(data)); err != nil {
		m.log.Error("preference mirror write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// ReadPreference returns the mirrored preference, defaulting to true when
// absent or unreadable.
func (m *Mirror) ReadPreference(ctx context.Context) bool {
	val, ok, err := m.store.Get(ctx, NamespacePreference, preferenceKey)
	if err != nil {
		m.log.Error("preference mirror read failed", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}
	if !ok {
		return true
	}

	var rec PreferenceRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		m.log.Warn("preference mirror record malformed", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}
	return rec.Enabled
}

// CachedPreference returns the foreground fast-path value without touching
// the durable store. The second result reports whether a toggle happened in
// this process.
func (m *Mirror) CachedPreference() (bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cachedPref == nil {
		return true, false
	}
	return *m.cachedPref, true
}

// Snapshot reads both records for one delivery decision.
func (m *Mirror) Snapshot(ctx context.Context) Snapshot {
	identity, known := m.ReadIdentity(ctx)
	return Snapshot{
		Identity:      identity,
		IdentityKnown: known,
		Receive:       m.ReadPreference(ctx),
	}
}
