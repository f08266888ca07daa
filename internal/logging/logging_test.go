package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInitJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Init(Options{Level: "info", JSON: true, Output: &buf})

	Infof("launched %s", "p1")
	assert.Contains(t, buf.String(), `"msg":"launched p1"`)

	Debugf("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestComponentAttr(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Init(Options{Output: &buf})
	Component("browser").Info("stop failed", "profile_id", "abc")

	out := buf.String()
	assert.True(t, strings.Contains(out, "component=browser"), out)
	assert.Contains(t, out, "profile_id=abc")
}
