package svc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/config"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/crashlog"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/dispatch"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/lifecycle"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/profiles"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxies"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxycheck"
)

// drainTimeout bounds how long Close waits for queued launches and checks.
const drainTimeout = 10 * time.Second

// ServiceContext owns every long-lived component. Close releases them
// all, including running browsers.
type ServiceContext struct {
	Config  config.Config
	Version string

	DB       *db.Store
	Lanes    *dispatch.LaneManager
	Browser  *browser.Manager
	Checker  *proxycheck.Checker
	Proxies  *proxies.Service
	Profiles *profiles.Service

	closeOnce sync.Once
}

// Options override the components built by NewServiceContext.
type Options struct {
	// Engine replaces the playwright engine.
	Engine browser.Engine
	// Checker replaces the default reachability checker.
	Checker func(store *db.Store, lanes *dispatch.LaneManager) *proxycheck.Checker
}

// NewServiceContext opens the store and wires the services. c must already
// be resolved against the data directory.
func NewServiceContext(c config.Config, opts ...Options) (*ServiceContext, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	store, err := db.NewSQLite(c.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	crashlog.Init(store)

	lanes := dispatch.NewLaneManager()
	if c.ProxyCheck.Concurrency > 0 {
		lanes.SetConcurrency(dispatch.LaneCheck, c.ProxyCheck.Concurrency)
	}

	engine := o.Engine
	if engine == nil {
		engine = browser.PlaywrightEngine{Install: c.Browser.Install}
	}
	manager := browser.NewManager(engine, browser.NewProfileDirs(c.ProfilesDir), browserOptions(c.Browser))

	var checker *proxycheck.Checker
	if o.Checker != nil {
		checker = o.Checker(store, lanes)
	} else {
		checker = proxycheck.New(store, lanes, proxycheck.Config{
			TargetURL:     c.ProxyCheck.TargetURL,
			Timeout:       c.ProxyCheck.Timeout,
			Retries:       c.ProxyCheck.Retries,
			FallbackURL:   c.ProxyCheck.FallbackURL,
			FallbackMatch: c.ProxyCheck.FallbackMatch,
		})
	}

	px := proxies.NewService(store, checker)

	return &ServiceContext{
		Config:   c,
		DB:       store,
		Lanes:    lanes,
		Browser:  manager,
		Checker:  checker,
		Proxies:  px,
		Profiles: profiles.NewService(store, manager, px, lanes),
	}, nil
}

func browserOptions(c config.BrowserConfig) browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Headless
	opts.Channel = c.Channel
	opts.FallbackToChromium = c.FallbackToChromium
	opts.NoSandbox = c.NoSandbox
	opts.Args = c.Args
	if c.Viewport.Width > 0 && c.Viewport.Height > 0 {
		opts.Viewport = browser.Viewport{Width: c.Viewport.Width, Height: c.Viewport.Height}
	}
	return opts
}

// Close waits briefly for queued lane work, stops every browser and the
// driver, shuts the lanes down and closes the store. It is safe to call
// more than once.
func (s *ServiceContext) Close() {
	s.closeOnce.Do(func() {
		lifecycle.Emit(lifecycle.EventShutdownStarted, nil)

		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := s.Lanes.Wait(ctx); err != nil {
			logging.Warnf("[svc] lanes not drained after %s: %v", drainTimeout, err)
		}
		cancel()

		s.Browser.Cleanup()
		s.Lanes.Shutdown()
		crashlog.Init(nil)
		if err := s.DB.Close(); err != nil {
			logging.Warnf("[svc] close database: %v", err)
		}

		lifecycle.Emit(lifecycle.EventShutdownComplete, nil)
	})
}
