package profiles

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser/browsertest"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/crashlog"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db/migrations"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/dispatch"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxies"
)

type fixture struct {
	svc     *Service
	store   *db.Store
	engine  *browsertest.Engine
	manager *browser.Manager
	proxies *proxies.Service
	base    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	migrations.QuietMode = true
	dir := t.TempDir()
	store, err := db.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	engine := browsertest.NewEngine()
	base := filepath.Join(dir, "profiles")
	manager := browser.NewManager(engine, browser.NewProfileDirs(base), browser.DefaultOptions())
	lanes := dispatch.NewLaneManager()
	px := proxies.NewService(store, nil)

	t.Cleanup(func() {
		manager.Cleanup()
		lanes.Shutdown()
		store.Close()
	})
	return &fixture{
		svc:     NewService(store, manager, px, lanes),
		store:   store,
		engine:  engine,
		manager: manager,
		proxies: px,
		base:    base,
	}
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, Input{OS: "Android"})
	require.NoError(t, err)
	assert.Equal(t, "ID_1", p.Name)
	assert.Len(t, p.ProfileID, 36)
	assert.Contains(t, p.UserAgent, "Android")
	assert.Equal(t, "[]", p.OpenTabs)
	assert.DirExists(t, filepath.Join(f.base, p.ProfileID))

	p2, err := f.svc.Create(ctx, Input{})
	require.NoError(t, err)
	assert.Equal(t, "ID_2", p2.Name)
	assert.NotEqual(t, p.ProfileID, p2.ProfileID)
}

func TestCreateInvalidLeavesNoDirectory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), Input{Name: "x", OS: "Plan9"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	entries, _ := os.ReadDir(f.base)
	assert.Empty(t, entries)
}

func TestCreateWithInlineProxy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, Input{Name: "a", NewProxy: &proxies.Input{Type: "socks5", Host: "9.9.9.9", Port: 1080}})
	require.NoError(t, err)
	require.NotNil(t, p.Proxy)
	assert.Equal(t, "Proxy 9.9.9.9:1080", p.Proxy.Name)

	_, err = f.svc.Create(ctx, Input{Name: "b", NewProxy: &proxies.Input{Type: "gopher", Host: "h", Port: 1}})
	assert.ErrorIs(t, err, proxies.ErrInvalidProxy)

	missing := int64(999)
	_, err = f.svc.Create(ctx, Input{Name: "c", ProxyID: &missing})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestUpdateKeepsIdentifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, Input{Name: "old"})
	require.NoError(t, err)

	up, err := f.svc.Update(ctx, p.ProfileID, Input{Name: "new", OS: "iOS", OpenTabs: []string{"https://a.test"}})
	require.NoError(t, err)
	assert.Equal(t, p.ProfileID, up.ProfileID)
	assert.Equal(t, p.ID, up.ID)
	assert.Equal(t, "new", up.Name)
	assert.Equal(t, "iOS", up.OS)
	assert.Equal(t, []string{"https://a.test"}, StoredTabs(up.Profile))

	_, err = f.svc.Update(ctx, "nope", Input{Name: "x"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestLaunchOpensTabsWithProxyAndSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, Input{
		Name:            "a",
		NewProxy:        &proxies.Input{Type: "http", Host: "1.2.3.4", Port: 8080, Username: "u", Password: "p"},
		OpenTabs:        []string{"https://a.test", "https://b.test"},
		GeolocationMode: "block",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Launch(ctx, p.ProfileID))
	assert.True(t, f.svc.IsRunning(p.ProfileID))

	launches := f.engine.Driver.Launches()
	require.Len(t, launches, 1)
	require.NotNil(t, launches[0].Proxy)
	assert.Equal(t, "http://1.2.3.4:8080", launches[0].Proxy.Server)
	assert.Equal(t, "u", launches[0].Proxy.Username)
	assert.True(t, launches[0].Settings.DenyAll())
	assert.Equal(t, p.UserAgent, launches[0].Settings.UserAgent)

	// A second launch of a running profile leaves its tabs alone.
	require.NoError(t, f.svc.Launch(ctx, p.ProfileID))
	assert.Len(t, f.engine.Driver.Launches(), 1)

	require.NoError(t, f.svc.Stop(ctx, p.ProfileID))
	assert.False(t, f.svc.IsRunning(p.ProfileID))
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, Input{Name: "a"})
	require.NoError(t, err)

	running, err := f.svc.Toggle(ctx, p.ProfileID)
	require.NoError(t, err)
	assert.True(t, running)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Running)

	running, err = f.svc.Toggle(ctx, p.ProfileID)
	require.NoError(t, err)
	assert.False(t, running)

	_, err = f.svc.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestToggleLaunchFailureLeavesStopped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.engine.Driver.LaunchErr = func(browser.LaunchOptions) error { return assert.AnError }

	p, err := f.svc.Create(ctx, Input{Name: "a"})
	require.NoError(t, err)

	crashlog.Init(f.store)
	defer crashlog.Init(nil)

	running, err := f.svc.Toggle(ctx, p.ProfileID)
	assert.ErrorIs(t, err, browser.ErrLaunch)
	assert.False(t, running)
	assert.False(t, f.svc.IsRunning(p.ProfileID))

	logs, err := f.store.ListErrorLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "error", logs[0].Level)
	assert.Equal(t, "profiles", logs[0].Module)
	assert.Contains(t, logs[0].Context, p.ProfileID)

	_, err = f.svc.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	logs, err = f.store.ListErrorLogs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestDeleteStopsAndRemovesDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, Input{Name: "a"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Launch(ctx, p.ProfileID))

	require.NoError(t, f.svc.Delete(ctx, p.ProfileID))
	assert.False(t, f.svc.IsRunning(p.ProfileID))
	assert.NoDirExists(t, filepath.Join(f.base, p.ProfileID))

	_, err = f.svc.Get(ctx, p.ProfileID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, p.ProfileID), ErrProfileNotFound)
}
