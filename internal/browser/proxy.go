package browser

import (
	"fmt"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
)

// ProxyConfig is the network proxy option of a browser context.
type ProxyConfig struct {
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// HasAuth reports whether credentials are attached.
func (c *ProxyConfig) HasAuth() bool {
	return c != nil && c.Username != "" && c.Password != ""
}

// ProxyConfigFor maps a stored proxy to the engine's proxy option. A nil
// proxy maps to nil. Credentials are only carried when both are set.
func ProxyConfigFor(p *db.Proxy) *ProxyConfig {
	if p == nil {
		return nil
	}
	cfg := &ProxyConfig{
		Server: fmt.Sprintf("%s://%s:%d", p.Type, p.Host, p.Port),
	}
	if p.Username != "" && p.Password != "" {
		cfg.Username = p.Username
		cfg.Password = p.Password
	}
	return cfg
}
