package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from config.yaml.
type Config struct {
	// DataDir is the root data directory. Relative paths below resolve against it.
	DataDir string `yaml:"data_dir,omitempty"`

	// ProfilesDir holds one persistent storage directory per profile.
	ProfilesDir string `yaml:"profiles_dir"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Browser    BrowserConfig    `yaml:"browser"`
	ProxyCheck ProxyCheckConfig `yaml:"proxy_check"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Import struct {
		InboxDir string `yaml:"inbox_dir"`
		Watch    bool   `yaml:"watch"`
	} `yaml:"import"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

// BrowserConfig configures persistent-context launches.
type BrowserConfig struct {
	Headless           bool     `yaml:"headless"`
	Install            bool     `yaml:"install"`
	Channel            string   `yaml:"channel"`
	FallbackToChromium bool     `yaml:"fallback_to_chromium"`
	NoSandbox          bool     `yaml:"no_sandbox"`
	Args               []string `yaml:"args,omitempty"`
	Viewport           struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"viewport"`
}

// ProxyCheckConfig configures the reachability checker.
type ProxyCheckConfig struct {
	TargetURL     string        `yaml:"target_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	FallbackURL   string        `yaml:"fallback_url"`
	FallbackMatch string        `yaml:"fallback_match"`
	Concurrency   int           `yaml:"concurrency"`
	Schedule      string        `yaml:"schedule"`
}

// Default returns the built-in configuration. It mirrors defaults/dotantydetect/config.yaml.
func Default() Config {
	var c Config
	c.ProfilesDir = "profiles"
	c.Database.Path = filepath.Join("data", "browser_profiles.db")
	c.Browser = BrowserConfig{
		Channel:            "chrome",
		FallbackToChromium: true,
		NoSandbox:          true,
	}
	c.Browser.Viewport.Width = 1920
	c.Browser.Viewport.Height = 1080
	c.ProxyCheck = ProxyCheckConfig{
		TargetURL:     "https://api.ipify.org?format=json",
		Timeout:       15 * time.Second,
		Retries:       1,
		FallbackURL:   "https://www.google.com",
		FallbackMatch: "google",
		Concurrency:   8,
	}
	c.Server.Addr = "127.0.0.1:27900"
	c.Import.InboxDir = "import"
	c.Import.Watch = true
	c.Log.Level = "info"
	return c
}

// Load reads a YAML config file with environment variable expansion.
// Missing keys keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (Config, error) {
	c := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// applyEnv applies the few overrides that are handy from a shell.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("ANTYDETECT_HEADLESS"); ok {
		c.Browser.Headless = parseBool(v, c.Browser.Headless)
	}
	if v := os.Getenv("ANTYDETECT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ANTYDETECT_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate rejects values the rest of the program cannot work with.
func (c Config) Validate() error {
	if c.ProxyCheck.Timeout <= 0 {
		return fmt.Errorf("proxy_check.timeout must be positive")
	}
	if c.ProxyCheck.Retries < 0 || c.ProxyCheck.Retries > 1 {
		return fmt.Errorf("proxy_check.retries must be 0 or 1, got %d", c.ProxyCheck.Retries)
	}
	if c.ProxyCheck.TargetURL == "" {
		return fmt.Errorf("proxy_check.target_url is required")
	}
	if c.Browser.Viewport.Width <= 0 || c.Browser.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport must be positive")
	}
	return nil
}

// Resolve makes relative paths absolute under dataDir.
func (c *Config) Resolve(dataDir string) {
	if c.DataDir == "" {
		c.DataDir = dataDir
	}
	c.ProfilesDir = under(c.DataDir, c.ProfilesDir)
	c.Database.Path = under(c.DataDir, c.Database.Path)
	if c.Import.InboxDir != "" {
		c.Import.InboxDir = under(c.DataDir, c.Import.InboxDir)
	}
}

func under(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}
