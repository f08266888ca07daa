// Package proxycheck probes whether stored proxies can reach the internet
// and keeps the last result per proxy for polling clients.
package proxycheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/dispatch"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/lifecycle"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
)

// Store is the proxy lookup the checker needs.
type Store interface {
	GetProxy(ctx context.Context, id int64) (db.Proxy, error)
	ListProxies(ctx context.Context) ([]db.Proxy, error)
}

// Prober is the first, direct probe.
type Prober interface {
	Probe(ctx context.Context, px db.Proxy) Outcome
}

// Config holds the probe targets.
type Config struct {
	TargetURL     string
	Timeout       time.Duration
	Retries       int
	FallbackURL   string
	FallbackMatch string
	// ChromePath overrides browser discovery for the fallback probe.
	ChromePath string
}

// Checker runs reachability checks and owns the status map.
type Checker struct {
	store    Store
	lanes    *dispatch.LaneManager
	direct   Prober
	fallback FallbackProbe
	log      *slog.Logger

	mu       sync.RWMutex
	statuses map[int64]Status
	onChange func()
}

// New builds a checker with the HTTP probe and the headless Chrome fallback.
func New(store Store, lanes *dispatch.LaneManager, cfg Config) *Checker {
	chromePath := cfg.ChromePath
	if chromePath == "" {
		if exe := browser.FindExecutable(); exe != nil {
			chromePath = exe.Path
		}
	}
	return NewWithProbes(store, lanes,
		HTTPProbe{TargetURL: cfg.TargetURL, Timeout: cfg.Timeout, Retries: cfg.Retries},
		ChromeProbe{ExecPath: chromePath, URL: cfg.FallbackURL, Match: cfg.FallbackMatch, Timeout: cfg.Timeout},
	)
}

// NewWithProbes builds a checker with explicit probes.
func NewWithProbes(store Store, lanes *dispatch.LaneManager, direct Prober, fb FallbackProbe) *Checker {
	return &Checker{
		store:    store,
		lanes:    lanes,
		direct:   direct,
		fallback: fb,
		log:      logging.Component("proxycheck"),
		statuses: make(map[int64]Status),
	}
}

// OnChange registers the refresh notification. It runs on the ui lane
// after every status transition.
func (c *Checker) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Status returns the last status of a proxy.
func (c *Checker) Status(id int64) (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.statuses[id]
	return s, ok
}

// Statuses returns a copy of the status map.
func (c *Checker) Statuses() map[int64]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]Status, len(c.statuses))
	for id, s := range c.statuses {
		out[id] = s
	}
	return out
}

// Forget drops the status of a deleted proxy.
func (c *Checker) Forget(id int64) {
	c.mu.Lock()
	delete(c.statuses, id)
	c.mu.Unlock()
}

// Check probes one proxy and returns its final status. Unknown ids return
// db.ErrNotFound without touching the status map.
func (c *Checker) Check(ctx context.Context, id int64) (Status, error) {
	px, err := c.store.GetProxy(ctx, id)
	if err != nil {
		return Status{}, fmt.Errorf("load proxy %d: %w", id, err)
	}
	c.set(id, Status{State: StateChecking})
	return c.run(ctx, px), nil
}

// CheckAsync schedules a check on the check lane and returns immediately.
func (c *Checker) CheckAsync(ctx context.Context, id int64) {
	c.lanes.EnqueueAsync(ctx, dispatch.LaneCheck, func(ctx context.Context) error {
		_, err := c.Check(ctx, id)
		return err
	}, dispatch.WithDescription(fmt.Sprintf("check proxy %d", id)))
}

// CheckAll checks every stored proxy concurrently.
func (c *Checker) CheckAll(ctx context.Context) (Summary, error) {
	proxies, err := c.store.ListProxies(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list proxies: %w", err)
	}
	return c.checkMany(ctx, proxies), nil
}

// CheckSelected checks the given proxies; unknown ids are skipped.
func (c *Checker) CheckSelected(ctx context.Context, ids []int64) (Summary, error) {
	proxies := make([]db.Proxy, 0, len(ids))
	for _, id := range ids {
		px, err := c.store.GetProxy(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return Summary{}, fmt.Errorf("load proxy %d: %w", id, err)
		}
		proxies = append(proxies, px)
	}
	return c.checkMany(ctx, proxies), nil
}

func (c *Checker) checkMany(ctx context.Context, proxies []db.Proxy) Summary {
	for _, px := range proxies {
		c.set(px.ID, Status{State: StateChecking})
	}

	// Dispatched checks run to completion even if the caller goes away.
	taskCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for _, px := range proxies {
		g.Go(func() error {
			var started bool
			err := c.lanes.Enqueue(taskCtx, dispatch.LaneCheck, func(ctx context.Context) error {
				started = true
				c.run(ctx, px)
				return nil
			}, dispatch.WithDescription(fmt.Sprintf("check proxy %d", px.ID)), dispatch.WithWarnAfter(0))
			if err != nil && !started {
				// never dispatched: the slot must not stay "checking"
				c.finish(px.ID, Status{State: StateFailed, Error: err.Error()})
			}
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Total: len(proxies)}
	for _, px := range proxies {
		s, _ := c.Status(px.ID)
		switch s.State {
		case StateWorking:
			sum.Working++
		case StateFailed:
			sum.Failed++
		}
	}
	return sum
}

// run performs the two-step probe and records the result. The final
// refresh notification is sent whatever happens, including panics.
func (c *Checker) run(ctx context.Context, px db.Proxy) (final Status) {
	final = Status{State: StateFailed, Error: "check aborted"}
	defer func() {
		if r := recover(); r != nil {
			final = Status{State: StateFailed, Error: fmt.Sprintf("panic: %v", r)}
		}
		c.finish(px.ID, final)
	}()

	out := c.direct.Probe(ctx, px)
	switch out.Kind {
	case Success:
		final = Status{State: StateWorking}
	case RetryWithFallback:
		c.log.Debug("direct probe failed, trying browser", "proxy_id", px.ID, "type", px.Type, "error", out.Reason)
		if c.fallback == nil {
			final = Status{State: StateFailed, Error: out.Reason}
			break
		}
		if err := c.fallback.Probe(ctx, browser.ProxyConfigFor(&px)); err != nil {
			final = Status{State: StateFailed, Error: fmt.Sprintf("%s; browser: %v", out.Reason, err)}
		} else {
			final = Status{State: StateWorking}
		}
	default:
		final = Status{State: StateFailed, Error: out.Reason}
	}
	return final
}

func (c *Checker) finish(id int64, s Status) {
	c.set(id, s)
	c.log.Info("proxy checked", "proxy_id", id, "status", s.State, "error", s.Error)
	lifecycle.EmitAsync(lifecycle.EventProxyChecked, lifecycle.ProxyCheckedData{ProxyID: id, State: string(s.State), Error: s.Error})
}

func (c *Checker) set(id int64, s Status) {
	s.UpdatedAt = time.Now()
	c.mu.Lock()
	c.statuses[id] = s
	fn := c.onChange
	c.mu.Unlock()

	if fn == nil {
		return
	}
	c.lanes.EnqueueAsync(context.Background(), dispatch.LaneUI, func(context.Context) error {
		fn()
		return nil
	}, dispatch.WithDescription("refresh proxies"))
}
