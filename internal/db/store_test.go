package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	migrations.QuietMode = true
	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProxyCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProxy(ctx, ProxyParams{Name: "Proxy 1.2.3.4:8080", Type: "http", Host: "1.2.3.4", Port: 8080, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "u", p.Username)

	got, err := s.GetProxy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, s.UpdateProxy(ctx, p.ID, ProxyParams{Name: "renamed", Type: "socks5", Host: "5.6.7.8", Port: 1080}))
	got, err = s.GetProxy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "socks5", got.Type)
	assert.Empty(t, got.Username)

	list, err := s.ListProxies(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.GetProxy(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateProxy(ctx, 999, ProxyParams{Name: "x", Type: "http", Host: "h", Port: 1}), ErrNotFound)
}

func TestCreateProxyRejectsBadType(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProxy(context.Background(), ProxyParams{Name: "n", Type: "ftp", Host: "h", Port: 21})
	assert.Error(t, err)
}

func TestProfileJoinAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	px, err := s.CreateProxy(ctx, ProxyParams{Name: "p", Type: "http", Host: "10.0.0.1", Port: 3128})
	require.NoError(t, err)

	lat, lon := 50.45, 30.52
	id, err := s.CreateProfile(ctx, ProfileParams{
		ProfileID:       "abc",
		Name:            "ID_1",
		ProxyID:         &px.ID,
		OS:              "Windows",
		TimezoneMode:    "custom",
		TimezoneValue:   "Europe/Kyiv",
		GeolocationMode: "manual",
		GeolocationLat:  &lat,
		GeolocationLon:  &lon,
		LanguageMode:    "custom",
		Languages:       `["uk-UA","en-US"]`,
	})
	require.NoError(t, err)

	p, err := s.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "abc", p.ProfileID)
	assert.Equal(t, "[]", p.OpenTabs)
	require.NotNil(t, p.Proxy)
	assert.Equal(t, "10.0.0.1", p.Proxy.Host)
	require.NotNil(t, p.GeolocationLat)
	assert.InDelta(t, 50.45, *p.GeolocationLat, 1e-9)

	byExt, err := s.GetProfileByProfileID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, id, byExt.ID)

	require.NoError(t, s.UpdateProfile(ctx, id, ProfileParams{
		ProfileID:       "ignored",
		Name:            "renamed",
		OS:              "macOS",
		TimezoneMode:    "ip",
		GeolocationMode: "block",
		LanguageMode:    "ip",
	}))
	p, err = s.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "abc", p.ProfileID)
	assert.Equal(t, "renamed", p.Name)
	assert.Nil(t, p.ProxyID)
	assert.Nil(t, p.Proxy)
	assert.Nil(t, p.GeolocationLat)

	require.NoError(t, s.DeleteProfile(ctx, id))
	_, err = s.GetProfile(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProfile(ctx, id), ErrNotFound)
}

func TestDeleteProxyDetachesProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	px, err := s.CreateProxy(ctx, ProxyParams{Name: "p", Type: "socks5", Host: "h", Port: 1080})
	require.NoError(t, err)
	a, err := s.CreateProfile(ctx, ProfileParams{ProfileID: "a", Name: "a", ProxyID: &px.ID, OS: "Windows", TimezoneMode: "ip", GeolocationMode: "ip", LanguageMode: "ip"})
	require.NoError(t, err)
	b, err := s.CreateProfile(ctx, ProfileParams{ProfileID: "b", Name: "b", ProxyID: &px.ID, OS: "Linux", TimezoneMode: "ip", GeolocationMode: "ip", LanguageMode: "ip"})
	require.NoError(t, err)

	n, err := s.CountProfilesUsingProxy(ctx, px.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	detached, err := s.DeleteProxy(ctx, px.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, detached)

	for _, id := range []int64{a, b} {
		p, err := s.GetProfile(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, p.ProxyID)
	}

	_, err = s.DeleteProxy(ctx, px.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextProfileNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.NextProfileNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var last int64
	for _, name := range []string{"ID_1", "work", "ID_3"} {
		last, err = s.CreateProfile(ctx, ProfileParams{ProfileID: name, Name: name, OS: "Windows", TimezoneMode: "ip", GeolocationMode: "ip", LanguageMode: "ip"})
		require.NoError(t, err)
	}

	n, err = s.NextProfileNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int(last)+1, n)
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.GetSetting(ctx, "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.SetSetting(ctx, "theme", "light"))
	require.NoError(t, s.SetSetting(ctx, "theme", "system"))

	v, err = s.GetSetting(ctx, "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "system", v)

	all, err := s.ListSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "system"}, all)
}

func TestErrorLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertErrorLog(ctx, InsertErrorLogParams{Level: "panic", Module: "launch", Message: "boom", Stacktrace: "trace"}))
	logs, err := s.ListErrorLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "boom", logs[0].Message)
	assert.Equal(t, "trace", logs[0].Stacktrace)
}

func TestMigrationsVersion(t *testing.T) {
	s := newTestStore(t)
	v, err := migrations.Version(s.DB())
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}
