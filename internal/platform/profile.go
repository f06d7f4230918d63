// Package platform inspects the runtime environment and shapes notifications
// per platform family.
package platform

import (
	"os"
	"strconv"
	"strings"
)

// Environment is the raw capability snapshot a host reports for a device.
type Environment struct {
	UserAgent   string `json:"userAgent"`
	Standalone  bool   `json:"standalone"`
	TouchPoints int    `json:"touchPoints"`
}

// Profile is the capability descriptor derived from an Environment.
type Profile struct {
	IsIOS           bool `json:"isIOS"`
	IsAndroid       bool `json:"isAndroid"`
	IsWindows       bool `json:"isWindows"`
	IsSafari        bool `json:"isSafari"`
	IsChrome        bool `json:"isChrome"`
	IsFirefox       bool `json:"isFirefox"`
	IsStandaloneApp bool `json:"isStandaloneApp"`
}

// Family is the tagged variant notification shaping branches on.
type Family int

const (
	FamilyDesktop Family = iota
	FamilyIOS
	FamilyAndroid
)

func (f Family) String() string {
	switch f {
	case FamilyIOS:
		return "ios"
	case FamilyAndroid:
		return "android"
	default:
		return "desktop"
	}
}

// EnvironmentFromOS reads the environment snapshot from process environment
// variables. Hosts that cannot probe a real user agent run with the zero
// snapshot, which detects as a plain desktop.
func EnvironmentFromOS() Environment {
	env := Environment{
		UserAgent:  os.Getenv("PUSH_USER_AGENT"),
		Standalone: os.Getenv("PUSH_STANDALONE") == "true",
	}
	if tp, err := strconv.Atoi(os.Getenv("PUSH_TOUCH_POINTS")); err == nil {
		env.TouchPoints = tp
	}
	return env
}

// Detect derives a Profile from the environment. Pure function; safe to call
// repeatedly.
func Detect(env Environment) Profile {
	ua := strings.ToLower(env.UserAgent)

	isIOS := strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") ||
		strings.Contains(ua, "ipod")
	// iPadOS reports a desktop Macintosh user agent; the touch probe is the
	// only remaining signal.
	if !isIOS && strings.Contains(ua, "macintosh") && env.TouchPoints > 1 {
		isIOS = true
	}

	isAndroid := strings.Contains(ua, "android")

	isChrome := (strings.Contains(ua, "chrome") || strings.Contains(ua, "crios")) &&
		!strings.Contains(ua, "edg")
	isFirefox := strings.Contains(ua, "firefox") || strings.Contains(ua, "fxios")
	isSafari := strings.Contains(ua, "safari") && !isChrome && !isFirefox

	return Profile{
		IsIOS:           isIOS,
		IsAndroid:       isAndroid,
		IsWindows:       strings.Contains(ua, "windows"),
		IsSafari:        isSafari,
		IsChrome:        isChrome,
		IsFirefox:       isFirefox,
		IsStandaloneApp: env.Standalone,
	}
}

// Family maps the profile onto the shaping variant.
func (p Profile) Family() Family {
	switch {
	case p.IsIOS:
		return FamilyIOS
	case p.IsAndroid:
		return FamilyAndroid
	default:
		return FamilyDesktop
	}
}

// ReliabilityWarning returns a user-facing warning when push delivery is
// known to be degraded for the profile, or "" when there is nothing to say.
// On the iOS family, push is only dependable from installed-app mode.
func (p Profile) ReliabilityWarning() string {
	if p.IsIOS && !p.IsStandaloneApp {
		return "Notifications may be unreliable in a browser tab on this device. " +
			"Add the app to your home screen for dependable delivery."
	}
	return ""
}
