package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	uaIPhoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaIPadDesktop   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	uaAndroidChrome = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaWindowsChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaWindowsEdge   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	uaLinuxFirefox  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaMacSafari     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		env      Environment
		expected Profile
	}{
		{
			name: "iPhone Safari",
			env:  Environment{UserAgent: uaIPhoneSafari},
			expected: Profile{
				IsIOS:    true,
				IsSafari: true,
			},
		},
		{
			name: "iPad masquerading as desktop Mac",
			env:  Environment{UserAgent: uaIPadDesktop, TouchPoints: 5},
			expected: Profile{
				IsIOS:    true,
				IsSafari: true,
			},
		},
		{
			name: "Mac without touch stays desktop",
			env:  Environment{UserAgent: uaMacSafari},
			expected: Profile{
				IsSafari: true,
			},
		},
		{
			name: "Android Chrome",
			env:  Environment{UserAgent: uaAndroidChrome},
			expected: Profile{
				IsAndroid: true,
				IsChrome:  true,
			},
		},
		{
			name: "Windows Chrome",
			env:  Environment{UserAgent: uaWindowsChrome},
			expected: Profile{
				IsWindows: true,
				IsChrome:  true,
			},
		},
		{
			name: "Windows Edge is not Chrome or Safari",
			env:  Environment{UserAgent: uaWindowsEdge},
			expected: Profile{
				IsWindows: true,
			},
		},
		{
			name: "Linux Firefox",
			env:  Environment{UserAgent: uaLinuxFirefox},
			expected: Profile{
				IsFirefox: true,
			},
		},
		{
			name: "standalone flag is carried through",
			env:  Environment{UserAgent: uaIPhoneSafari, Standalone: true},
			expected: Profile{
				IsIOS:           true,
				IsSafari:        true,
				IsStandaloneApp: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Detect(tt.env))
		})
	}
}

func TestDetect_IsPure(t *testing.T) {
	env := Environment{UserAgent: uaAndroidChrome, Standalone: true}
	first := Detect(env)
	second := Detect(env)
	assert.Equal(t, first, second)
}

func TestProfile_Family(t *testing.T) {
	assert.Equal(t, FamilyIOS, Profile{IsIOS: true}.Family())
	assert.Equal(t, FamilyAndroid, Profile{IsAndroid: true}.Family())
	assert.Equal(t, FamilyDesktop, Profile{IsWindows: true, IsChrome: true}.Family())
	assert.Equal(t, FamilyDesktop, Profile{}.Family())
}

func TestProfile_ReliabilityWarning(t *testing.T) {
	assert.NotEmpty(t, Profile{IsIOS: true}.ReliabilityWarning())
	assert.Empty(t, Profile{IsIOS: true, IsStandaloneApp: true}.ReliabilityWarning())
	assert.Empty(t, Profile{IsAndroid: true}.ReliabilityWarning())
	assert.Empty(t, Profile{}.ReliabilityWarning())
}
