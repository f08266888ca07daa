// Package browser launches persistent, per-profile browser contexts through
// an automation engine and tracks which profiles are running.
//
// The Manager is the single source of truth for "is this profile running".
// It never trusts its map blindly: IsRunning probes the stored context and
// evicts it when the engine process has gone away underneath it.
package browser

// Launch flags that reduce automation fingerprinting.
var stealthArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
}

const (
	// ChannelChrome asks the engine for the installed Google Chrome build.
	ChannelChrome = "chrome"

	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)
