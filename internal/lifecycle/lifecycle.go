// Package lifecycle provides event hooks for profile, proxy and shutdown events.
package lifecycle

import (
	"sync"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
)

// Event types for lifecycle hooks
type Event string

const (
	// Server lifecycle events
	EventServerStarted    Event = "server_started"
	EventShutdownStarted  Event = "shutdown_started"
	EventShutdownComplete Event = "shutdown_complete"

	// Profile events, data is the profile id
	EventProfileLaunched Event = "profile_launched"
	EventProfileStopped  Event = "profile_stopped"
	EventProfileEvicted  Event = "profile_evicted"

	// Proxy events
	EventProxyChecked    Event = "proxy_checked"
	EventProxiesImported Event = "proxies_imported"
)

// Handler is a function that handles a lifecycle event
type Handler func(event Event, data any)

// Manager manages lifecycle event subscriptions and dispatching
type Manager struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

// NewManager creates an empty event manager.
func NewManager() *Manager {
	return &Manager{handlers: make(map[Event][]Handler)}
}

// Global lifecycle manager
var global = NewManager()

// On registers a handler for a lifecycle event
func On(event Event, handler Handler) {
	global.On(event, handler)
}

// Emit dispatches an event to all registered handlers
func Emit(event Event, data any) {
	global.Emit(event, data)
}

// EmitAsync dispatches an event asynchronously
func EmitAsync(event Event, data any) {
	go global.Emit(event, data)
}

// On registers a handler for a lifecycle event
func (m *Manager) On(event Event, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], handler)
}

// Emit dispatches an event to all registered handlers
func (m *Manager) Emit(event Event, data any) {
	m.mu.RLock()
	handlers := m.handlers[event]
	m.mu.RUnlock()

	logging.Debugf("[lifecycle] Emitting event: %s", event)
	for _, h := range handlers {
		// Run handlers synchronously (they can spawn goroutines if needed)
		h(event, data)
	}
}

// OnProfileLaunched registers a handler receiving the launched profile id
func OnProfileLaunched(handler func(profileID string)) {
	On(EventProfileLaunched, profileHandler(handler))
}

// OnProfileStopped registers a handler receiving the stopped profile id.
// Evictions of dead contexts are reported through the same handler.
func OnProfileStopped(handler func(profileID string)) {
	On(EventProfileStopped, profileHandler(handler))
	On(EventProfileEvicted, profileHandler(handler))
}

func profileHandler(handler func(string)) Handler {
	return func(e Event, data any) {
		if id, ok := data.(string); ok {
			handler(id)
		}
	}
}

// OnServerStarted is a convenience function to register a server started handler
func OnServerStarted(handler func()) {
	On(EventServerStarted, func(e Event, data any) {
		handler()
	})
}

// OnShutdown is a convenience function to register a shutdown handler
func OnShutdown(handler func()) {
	On(EventShutdownStarted, func(e Event, data any) {
		handler()
	})
}

// ProxyCheckedData is the payload of EventProxyChecked
type ProxyCheckedData struct {
	ProxyID int64
	State   string
	Error   string
}

// OnProxyChecked registers a handler for finished reachability checks
func OnProxyChecked(handler func(data ProxyCheckedData)) {
	On(EventProxyChecked, func(e Event, data any) {
		if d, ok := data.(ProxyCheckedData); ok {
			handler(d)
		}
	})
}

// ImportData is the payload of EventProxiesImported
type ImportData struct {
	Source   string
	Imported int
	Failed   int
}

// OnProxiesImported registers a handler for finished bulk imports
func OnProxiesImported(handler func(data ImportData)) {
	On(EventProxiesImported, func(e Event, data any) {
		if d, ok := data.(ImportData); ok {
			handler(d)
		}
	})
}
