// Package fingerprint holds the operating-system labels a profile can
// present and the user agents that go with them.
package fingerprint

import "strings"

// OS is the operating system a profile claims to run on.
type OS string

const (
	Windows OS = "Windows"
	MacOS   OS = "macOS"
	Linux   OS = "Linux"
	Android OS = "Android"
	IOS     OS = "iOS"
)

// All lists the supported labels in display order.
var All = []OS{Windows, MacOS, Linux, Android, IOS}

var userAgents = map[OS]string{
	Windows: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	MacOS:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Linux:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Android: "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	IOS:     "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/120.0.0.0 Mobile/15E148 Safari/604.1",
}

// Valid reports whether o is one of the supported labels.
func (o OS) Valid() bool {
	_, ok := userAgents[o]
	return ok
}

// Parse matches s case-insensitively against the supported labels.
func Parse(s string) (OS, bool) {
	for _, os := range All {
		if strings.EqualFold(string(os), strings.TrimSpace(s)) {
			return os, true
		}
	}
	return "", false
}

// UserAgent returns the user agent for os, falling back to Windows for
// unknown labels.
func UserAgent(os OS) string {
	if ua, ok := userAgents[os]; ok {
		return ua
	}
	return userAgents[Windows]
}
