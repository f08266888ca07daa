package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/lifecycle"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
)

var (
	// ErrDriverStart means the automation driver process could not start.
	ErrDriverStart = errors.New("browser: driver start failed")
	// ErrLaunch means the engine refused to open the persistent context.
	ErrLaunch = errors.New("browser: launch failed")
	// ErrClosed is returned by Launch after Cleanup.
	ErrClosed = errors.New("browser: manager closed")
)

// Options control how contexts are launched.
type Options struct {
	Headless bool
	// Channel is tried first; when it fails and FallbackToChromium is set
	// the bundled Chromium is used instead.
	Channel            string
	FallbackToChromium bool
	NoSandbox          bool
	Args               []string
	Viewport           Viewport
}

// DefaultOptions mirror the stock launch behavior.
func DefaultOptions() Options {
	return Options{
		Channel:            ChannelChrome,
		FallbackToChromium: true,
		NoSandbox:          true,
		Viewport:           Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
	}
}

// Manager owns the running profile contexts and the driver singleton.
// Every read and write of the running map happens under mu, including the
// liveness probe, so check-then-act sequences are atomic.
type Manager struct {
	mu sync.Mutex

	engine  Engine
	driver  Driver
	dirs    *ProfileDirs
	opts    Options
	running map[string]Context
	closed  bool
	log     *slog.Logger
}

// NewManager creates a manager. The driver is not started until the first launch.
func NewManager(engine Engine, dirs *ProfileDirs, opts Options) *Manager {
	return &Manager{
		engine:  engine,
		dirs:    dirs,
		opts:    opts,
		running: make(map[string]Context),
		log:     logging.Component("browser"),
	}
}

// Dirs returns the profile directory store.
func (m *Manager) Dirs() *ProfileDirs {
	return m.dirs
}

// Launch opens a persistent context for id, or returns the one already
// running. On failure nothing is recorded for id.
func (m *Manager) Launch(ctx context.Context, id string, proxy *ProxyConfig, settings LaunchSettings) (Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.running[id]; ok {
		return c, nil
	}
	if m.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	driver, err := m.ensureDriver()
	if err != nil {
		return nil, err
	}

	dir, err := m.dirs.Ensure(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	opts := m.launchOptions(proxy, settings)
	c, err := driver.LaunchPersistentContext(dir, opts)
	if err != nil && opts.Channel != "" && m.opts.FallbackToChromium {
		m.log.Info("channel unavailable, falling back to chromium", "profile_id", id, "channel", opts.Channel, "error", err)
		opts.Channel = ""
		c, err = driver.LaunchPersistentContext(dir, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s: %w", ErrLaunch, id, err)
	}

	m.running[id] = c
	m.log.Info("profile launched", "profile_id", id, "proxy", proxyServer(proxy))
	lifecycle.EmitAsync(lifecycle.EventProfileLaunched, id)
	return c, nil
}

// Stop closes the context for id. The entry is evicted even when close fails.
func (m *Manager) Stop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(id)
}

func (m *Manager) stopLocked(id string) {
	c, ok := m.running[id]
	if !ok {
		return
	}
	delete(m.running, id)
	if err := c.Close(); err != nil {
		m.log.Warn("close context failed", "profile_id", id, "error", err)
	}
	lifecycle.EmitAsync(lifecycle.EventProfileStopped, id)
}

// IsRunning reports whether id has a live context, evicting it if the
// probe shows the browser has died.
func (m *Manager) IsRunning(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.running[id]
	if !ok {
		return false
	}
	if err := c.Probe(); err != nil {
		delete(m.running, id)
		m.log.Info("evicted dead context", "profile_id", id, "error", err)
		lifecycle.EmitAsync(lifecycle.EventProfileEvicted, id)
		return false
	}
	return true
}

// Running returns the tracked ids in sorted order without probing them.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopAll stops every tracked profile.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopAllLocked()
}

func (m *Manager) stopAllLocked() {
	for id := range m.running {
		m.stopLocked(id)
	}
}

// Cleanup stops every profile and the driver. It is idempotent and does
// not depend on any caller context, so it can run from a signal handler
// or a deferred exit path.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopAllLocked()
	m.closed = true

	if m.driver == nil {
		return
	}
	if err := m.driver.Stop(); err != nil {
		m.log.Warn("stop driver failed", "error", err)
	}
	m.driver = nil
	m.log.Info("browser driver stopped")
}

func (m *Manager) ensureDriver() (Driver, error) {
	if m.driver != nil {
		return m.driver, nil
	}
	d, err := m.engine.Start()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDriverStart, err)
	}
	m.driver = d
	m.log.Info("browser driver started")
	return d, nil
}

func (m *Manager) launchOptions(proxy *ProxyConfig, settings LaunchSettings) LaunchOptions {
	args := append([]string(nil), stealthArgs...)
	if m.opts.NoSandbox {
		args = append(args, "--no-sandbox")
	}
	args = append(args, m.opts.Args...)

	viewport := m.opts.Viewport
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}

	return LaunchOptions{
		Headless: m.opts.Headless,
		Channel:  m.opts.Channel,
		Args:     args,
		Viewport: viewport,
		Proxy:    proxy,
		Settings: settings,
	}
}

func proxyServer(p *ProxyConfig) string {
	if p == nil {
		return ""
	}
	return p.Server
}
