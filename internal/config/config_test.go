package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/defaults"
)

func TestEmbeddedDefaultsMatchDefault(t *testing.T) {
	data, err := defaults.GetDefault("config.yaml")
	require.NoError(t, err)

	c, err := LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFromBytesPartial(t *testing.T) {
	c, err := LoadFromBytes([]byte("proxy_check:\n  timeout: 10s\nbrowser:\n  headless: true\n"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, c.ProxyCheck.Timeout)
	assert.True(t, c.Browser.Headless)
	assert.Equal(t, "https://api.ipify.org?format=json", c.ProxyCheck.TargetURL)
	assert.Equal(t, 1920, c.Browser.Viewport.Width)
}

func TestLoadFromBytesExpandsEnv(t *testing.T) {
	t.Setenv("CHECK_TARGET", "https://echo.example/ip")
	c, err := LoadFromBytes([]byte("proxy_check:\n  target_url: ${CHECK_TARGET}\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://echo.example/ip", c.ProxyCheck.TargetURL)
}

func TestLoadFromBytesRejectsRetries(t *testing.T) {
	_, err := LoadFromBytes([]byte("proxy_check:\n  retries: 3\n"))
	assert.Error(t, err)
}

func TestHeadlessEnvOverride(t *testing.T) {
	t.Setenv("ANTYDETECT_HEADLESS", "yes")
	c, err := LoadFromBytes([]byte("{}"))
	require.NoError(t, err)
	assert.True(t, c.Browser.Headless)
}

func TestResolve(t *testing.T) {
	c := Default()
	abs := filepath.Join(t.TempDir(), "elsewhere.db")
	c.Database.Path = abs
	c.Resolve("/data")

	assert.Equal(t, filepath.Join("/data", "profiles"), c.ProfilesDir)
	assert.Equal(t, abs, c.Database.Path)
	assert.Equal(t, filepath.Join("/data", "import"), c.Import.InboxDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("1", false))
	assert.True(t, parseBool(" YES ", false))
	assert.False(t, parseBool("no", true))
	assert.True(t, parseBool("", true))
}
