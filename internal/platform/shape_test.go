package platform

import (
	"testing"
	"time"

	"push-agent/pkg/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShaper() Shaper {
	return Shaper{
		Icon:       "/icons/icon-192.png",
		Badge:      "/icons/badge-72.png",
		DefaultURL: "/app",
	}
}

func testPayload() wire.Payload {
	return wire.Payload{
		Title:          "Grade posted",
		Body:           "Math 9/10",
		URL:            "/app/grades/42",
		Tag:            "grade-42",
		NotificationID: "n42",
	}
}

func TestShape_IOS(t *testing.T) {
	opts := testShaper().Shape(Profile{IsIOS: true}, testPayload(), time.Now())

	assert.Equal(t, "Math 9/10", opts.Body)
	assert.Empty(t, opts.Actions)
	assert.Empty(t, opts.Vibrate)
	assert.False(t, opts.RequireInteraction)
	assert.Equal(t, "ios", opts.Data.Platform)
}

func TestShape_Android(t *testing.T) {
	tests := []struct {
		name               string
		urgent             bool
		expectedVibrate    []int
		requireInteraction bool
	}{
		{
			name:               "urgent payload",
			urgent:             true,
			expectedVibrate:    urgentVibration,
			requireInteraction: true,
		},
		{
			name:               "normal payload",
			urgent:             false,
			expectedVibrate:    normalVibration,
			requireInteraction: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := testPayload()
			payload.Urgent = tt.urgent

			opts := testShaper().Shape(Profile{IsAndroid: true}, payload, time.Now())

			require.Len(t, opts.Actions, 2)
			assert.Equal(t, wire.ActionView, opts.Actions[0].Action)
			assert.Equal(t, wire.ActionDismiss, opts.Actions[1].Action)
			assert.Equal(t, tt.expectedVibrate, opts.Vibrate)
			assert.Equal(t, tt.requireInteraction, opts.RequireInteraction)
			assert.Equal(t, "android", opts.Data.Platform)
		})
	}
}

func TestShape_Desktop(t *testing.T) {
	payload := testPayload()
	payload.Urgent = true

	opts := testShaper().Shape(Profile{IsWindows: true, IsChrome: true}, payload, time.Now())

	require.Len(t, opts.Actions, 3)
	assert.Equal(t, wire.ActionView, opts.Actions[0].Action)
	assert.Equal(t, wire.ActionMarkRead, opts.Actions[1].Action)
	assert.Equal(t, wire.ActionDismiss, opts.Actions[2].Action)
	assert.False(t, opts.Renotify)
	assert.True(t, opts.RequireInteraction)
	assert.Equal(t, "desktop", opts.Data.Platform)
}

func TestShape_Fallbacks(t *testing.T) {
	now := time.Unix(1700000000, 0)

	opts := testShaper().Shape(Profile{}, wire.Payload{}, now)

	assert.Equal(t, fallbackBody, opts.Body)
	assert.Equal(t, "notification-1700000000", opts.Tag)
	assert.Equal(t, "/app", opts.Data.URL)
	assert.Empty(t, opts.Data.NotificationID)
	assert.Equal(t, "/icons/icon-192.png", opts.Icon)
	assert.Equal(t, "/icons/badge-72.png", opts.Badge)
}

func TestShape_ExplicitTagWins(t *testing.T) {
	opts := testShaper().Shape(Profile{}, wire.Payload{Tag: "mine"}, time.Now())
	assert.Equal(t, "mine", opts.Tag)
}
