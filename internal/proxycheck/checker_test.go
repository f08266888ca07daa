package proxycheck

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/dispatch"
)

type memStore struct {
	proxies map[int64]db.Proxy
}

func newMemStore(proxies ...db.Proxy) *memStore {
	s := &memStore{proxies: make(map[int64]db.Proxy)}
	for _, p := range proxies {
		s.proxies[p.ID] = p
	}
	return s
}

func (s *memStore) GetProxy(_ context.Context, id int64) (db.Proxy, error) {
	p, ok := s.proxies[id]
	if !ok {
		return db.Proxy{}, db.ErrNotFound
	}
	return p, nil
}

func (s *memStore) ListProxies(_ context.Context) ([]db.Proxy, error) {
	out := make([]db.Proxy, 0, len(s.proxies))
	for _, p := range s.proxies {
		out = append(out, p)
	}
	return out, nil
}

// proberFunc adapts a function to Prober.
type proberFunc func(ctx context.Context, px db.Proxy) Outcome

func (f proberFunc) Probe(ctx context.Context, px db.Proxy) Outcome { return f(ctx, px) }

type fallbackFunc func(ctx context.Context, px *browser.ProxyConfig) error

func (f fallbackFunc) Probe(ctx context.Context, px *browser.ProxyConfig) error { return f(ctx, px) }

func newChecker(t *testing.T, store Store, direct Prober, fb FallbackProbe) *Checker {
	t.Helper()
	lanes := dispatch.NewLaneManager()
	t.Cleanup(lanes.Shutdown)
	return NewWithProbes(store, lanes, direct, fb)
}

func TestCheckWorking(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 1, Type: "http", Host: "h", Port: 80})
	c := newChecker(t, store, proberFunc(func(context.Context, db.Proxy) Outcome { return succeeded() }), nil)

	s, err := c.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StateWorking, s.State)

	got, ok := c.Status(1)
	require.True(t, ok)
	assert.Equal(t, StateWorking, got.State)
}

func TestCheckFailureRecordsReason(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 1, Type: "http", Host: "h", Port: 80})
	var fallbackCalled bool
	c := newChecker(t, store,
		proberFunc(func(context.Context, db.Proxy) Outcome { return failed("HTTP 502") }),
		fallbackFunc(func(context.Context, *browser.ProxyConfig) error { fallbackCalled = true; return nil }))

	s, err := c.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Status{State: StateFailed, Error: "HTTP 502"}, Status{State: s.State, Error: s.Error})
	assert.False(t, fallbackCalled)
}

func TestCheckFallbackForSOCKS(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 7, Type: "socks5", Host: "10.0.0.1", Port: 1080})

	var seen *browser.ProxyConfig
	direct := proberFunc(func(context.Context, db.Proxy) Outcome { return fallback(errors.New("socks handshake failed")) })

	c := newChecker(t, store, direct, fallbackFunc(func(_ context.Context, px *browser.ProxyConfig) error {
		seen = px
		return nil
	}))
	s, err := c.Check(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, StateWorking, s.State)
	require.NotNil(t, seen)
	assert.Equal(t, "socks5://10.0.0.1:1080", seen.Server)

	c = newChecker(t, store, direct, fallbackFunc(func(context.Context, *browser.ProxyConfig) error {
		return errors.New("net::ERR_PROXY_CONNECTION_FAILED")
	}))
	s, err = c.Check(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, s.State)
	assert.Contains(t, s.Error, "socks handshake failed")
	assert.Contains(t, s.Error, "ERR_PROXY_CONNECTION_FAILED")
}

func TestCheckUnknownProxy(t *testing.T) {
	c := newChecker(t, newMemStore(), proberFunc(func(context.Context, db.Proxy) Outcome { return succeeded() }), nil)
	_, err := c.Check(context.Background(), 42)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Empty(t, c.Statuses())
}

func TestCheckPublishesCheckingFirst(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 1, Type: "http", Host: "h", Port: 80})
	release := make(chan struct{})
	c := newChecker(t, store, proberFunc(func(context.Context, db.Proxy) Outcome {
		<-release
		return succeeded()
	}), nil)

	var refreshes atomic.Int32
	c.OnChange(func() { refreshes.Add(1) })

	c.CheckAsync(context.Background(), 1)
	assert.Eventually(t, func() bool {
		s, ok := c.Status(1)
		return ok && s.State == StateChecking
	}, time.Second, 5*time.Millisecond)

	close(release)
	assert.Eventually(t, func() bool {
		s, _ := c.Status(1)
		return s.State == StateWorking
	}, time.Second, 5*time.Millisecond)
	// one for checking, one for the final state
	assert.Eventually(t, func() bool { return refreshes.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCheckRefreshesAfterPanic(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 1, Type: "http", Host: "h", Port: 80})
	c := newChecker(t, store, proberFunc(func(context.Context, db.Proxy) Outcome { panic("boom") }), nil)

	s, err := c.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, s.State)
	assert.Contains(t, s.Error, "boom")
}

func TestCheckAllSummary(t *testing.T) {
	var proxies []db.Proxy
	for i := int64(1); i <= 10; i++ {
		proxies = append(proxies, db.Proxy{ID: i, Type: "http", Host: "h", Port: int(8000 + i)})
	}
	store := newMemStore(proxies...)

	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	c := newChecker(t, store, proberFunc(func(_ context.Context, px db.Proxy) Outcome {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		if px.ID%2 == 0 {
			return succeeded()
		}
		return failed("HTTP 500")
	}), nil)
	c.lanes.SetConcurrency(dispatch.LaneCheck, 3)

	sum, err := c.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 10, Working: 5, Failed: 5}, sum)
	assert.LessOrEqual(t, peak, 3)
	assert.Len(t, c.Statuses(), 10)
}

func TestCheckSelectedSkipsUnknown(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 1, Type: "http", Host: "h", Port: 80}, db.Proxy{ID: 2, Type: "http", Host: "h", Port: 81})
	c := newChecker(t, store, proberFunc(func(context.Context, db.Proxy) Outcome { return succeeded() }), nil)

	sum, err := c.CheckSelected(context.Background(), []int64{2, 99})
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Working: 1}, sum)
	_, ok := c.Status(1)
	assert.False(t, ok)

	c.Forget(2)
	assert.Empty(t, c.Statuses())
}

func TestCheckAllOutlivesCallerDeadline(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 1, Type: "http", Host: "h", Port: 8080})
	c := newChecker(t, store, proberFunc(func(ctx context.Context, _ db.Proxy) Outcome {
		select {
		case <-time.After(200 * time.Millisecond):
			return succeeded()
		case <-ctx.Done():
			return failed(ctx.Err().Error())
		}
	}), nil)

	var refreshes atomic.Int32
	c.OnChange(func() { refreshes.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sum, err := c.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Working: 1}, sum)

	s, ok := c.Status(1)
	require.True(t, ok)
	assert.Equal(t, StateWorking, s.State)
	assert.Empty(t, s.Error)

	// checking, then exactly one final state
	assert.Eventually(t, func() bool { return refreshes.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), refreshes.Load())
}

func TestCheckAllAfterShutdownMarksFailed(t *testing.T) {
	store := newMemStore(db.Proxy{ID: 1, Type: "http", Host: "h", Port: 80})
	c := newChecker(t, store, proberFunc(func(context.Context, db.Proxy) Outcome { return succeeded() }), nil)
	c.lanes.Shutdown()

	sum, err := c.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "retry_with_fallback", RetryWithFallback.String())
	assert.Equal(t, "failure", Failure.String())
}
