package platform

import (
	"fmt"
	"time"

	"push-agent/pkg/wire"
)

// Action is one button on a rendered notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Data is embedded into every shaped notification. The click handler depends
// entirely on it.
type Data struct {
	URL            string `json:"url"`
	NotificationID string `json:"notificationId"`
	Platform       string `json:"platform"`
}

// Options is the platform-specific notification description handed to the
// display API.
type Options struct {
	Body               string   `json:"body"`
	Icon               string   `json:"icon"`
	Badge              string   `json:"badge"`
	Tag                string   `json:"tag"`
	Renotify           bool     `json:"renotify"`
	RequireInteraction bool     `json:"requireInteraction"`
	Vibrate            []int    `json:"vibrate,omitempty"`
	Actions            []Action `json:"actions,omitempty"`
	Data               Data     `json:"data"`
}

// Shaper holds the fixed assets and fallbacks applied to every notification.
type Shaper struct {
	Icon       string
	Badge      string
	DefaultURL string
}

const fallbackBody = "You have a new notification"

var (
	urgentVibration = []int{200, 100, 200, 100, 200}
	normalVibration = []int{200}
)

// Shape produces the notification options for the profile's family.
func (s Shaper) Shape(p Profile, payload wire.Payload, now time.Time) Options {
	base := s.base(payload, p, now)

	switch p.Family() {
	case FamilyIOS:
		return shapeIOS(base)
	case FamilyAndroid:
		return shapeAndroid(base, payload.Urgent)
	default:
		return shapeDesktop(base, payload.Urgent)
	}
}

func (s Shaper) base(payload wire.Payload, p Profile, now time.Time) Options {
	body := payload.Body
	if body == "" {
		body = fallbackBody
	}

	tag := payload.Tag
	if tag == "" {
		// Time-derived tag still lets the platform coalesce rapid duplicates.
		tag = fmt.Sprintf("notification-%d", now.Unix())
	}

	url := payload.URL
	if url == "" {
		url = s.DefaultURL
	}

	return Options{
		Body:  body,
		Icon:  s.Icon,
		Badge: s.Badge,
		Tag:   tag,
		Data: Data{
			URL:            url,
			NotificationID: payload.NotificationID,
			Platform:       p.Family().String(),
		},
	}
}

// shapeIOS keeps the minimal feature set: the platform's notification surface
// does not reliably support action buttons or vibration patterns.
func shapeIOS(base Options) Options {
	base.RequireInteraction = false
	return base
}

func shapeAndroid(base Options, urgent bool) Options {
	base.RequireInteraction = urgent
	base.Vibrate = vibrationFor(urgent)
	base.Actions = []Action{
		{Action: wire.ActionView, Title: "View"},
		{Action: wire.ActionDismiss, Title: "Dismiss"},
	}
	return base
}

func shapeDesktop(base Options, urgent bool) Options {
	base.RequireInteraction = urgent
	base.Vibrate = vibrationFor(urgent)
	// Keep renotify off so a still-unread notification is not replaced with
	// a jarring re-alert.
	base.Renotify = false
	base.Actions = []Action{
		{Action: wire.ActionView, Title: "View"},
		{Action: wire.ActionMarkRead, Title: "Mark as read"},
		{Action: wire.ActionDismiss, Title: "Dismiss"},
	}
	return base
}

func vibrationFor(urgent bool) []int {
	if urgent {
		return urgentVibration
	}
	return normalVibration
}
