// Package proxies validates, parses, imports and stores proxy definitions.
package proxies

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
)

// ErrInvalidProxy wraps every validation failure.
var ErrInvalidProxy = errors.New("invalid proxy")

// Types lists the supported proxy kinds.
var Types = []string{"http", "https", "socks4", "socks5"}

// Input is a proxy as entered by a user or read from an import file.
type Input struct {
	Name     string
	Type     string
	Host     string
	Port     int
	Username string
	Password string
}

// Normalize trims fields and lowercases the type.
func (in Input) Normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Host = strings.TrimSpace(in.Host)
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)
	return in
}

// Validate is the one rule every proxy passes before it is stored, whether
// it came from a form, the API or an import file.
func (in Input) Validate() error {
	in = in.Normalize()
	if !validType(in.Type) {
		return fmt.Errorf("%w: type %q must be one of %s", ErrInvalidProxy, in.Type, strings.Join(Types, ", "))
	}
	if in.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidProxy)
	}
	if strings.ContainsAny(in.Host, " /@") {
		return fmt.Errorf("%w: host %q", ErrInvalidProxy, in.Host)
	}
	if in.Port < 1 || in.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range 1-65535", ErrInvalidProxy, in.Port)
	}
	return nil
}

// DefaultName is the display name given to proxies created without one.
func (in Input) DefaultName() string {
	return fmt.Sprintf("Proxy %s:%d", in.Host, in.Port)
}

func (in Input) params() db.ProxyParams {
	in = in.Normalize()
	name := in.Name
	if name == "" {
		name = in.DefaultName()
	}
	return db.ProxyParams{
		Name:     name,
		Type:     in.Type,
		Host:     in.Host,
		Port:     in.Port,
		Username: in.Username,
		Password: in.Password,
	}
}

func validType(t string) bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}
