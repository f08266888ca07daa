package proxycheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/net/proxy"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
)

// errSOCKS4 is reported when the HTTP client is asked to tunnel SOCKS4.
var errSOCKS4 = errors.New("socks4 is not supported by the http client")

// HTTPProbe requests TargetURL through the candidate proxy.
type HTTPProbe struct {
	TargetURL string
	Timeout   time.Duration
	Retries   int
	Backoff   time.Duration
}

// Probe returns Success on 2xx, Failure on any other status, and for
// transport errors RetryWithFallback on SOCKS proxies or Failure otherwise.
func (p HTTPProbe) Probe(ctx context.Context, px db.Proxy) Outcome {
	client, err := p.client(px)
	if err != nil {
		return p.transportError(px, err)
	}
	defer client.CloseIdleConnections()

	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}

	var status int
	err = retry.Do(ctx, retry.WithMaxRetries(uint64(retries), retry.NewConstant(backoff)), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.TargetURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		status = resp.StatusCode
		return nil
	})
	if err != nil {
		return p.transportError(px, err)
	}

	if status >= 200 && status < 300 {
		return succeeded()
	}
	return failed(fmt.Sprintf("HTTP %d", status))
}

func (p HTTPProbe) transportError(px db.Proxy, err error) Outcome {
	if isSOCKS(px.Type) {
		return fallback(err)
	}
	return failed(err.Error())
}

func (p HTTPProbe) client(px db.Proxy) (*http.Client, error) {
	addr := net.JoinHostPort(px.Host, strconv.Itoa(px.Port))
	transport := &http.Transport{
		TLSHandshakeTimeout:   p.Timeout,
		ResponseHeaderTimeout: p.Timeout,
		DisableKeepAlives:     true,
	}

	switch px.Type {
	case "http", "https":
		u := &url.URL{Scheme: px.Type, Host: addr}
		if px.Username != "" && px.Password != "" {
			u.User = url.UserPassword(px.Username, px.Password)
		}
		transport.Proxy = http.ProxyURL(u)
	case "socks5":
		var auth *proxy.Auth
		if px.Username != "" && px.Password != "" {
			auth = &proxy.Auth{User: px.Username, Password: px.Password}
		}
		dialer, err := proxy.SOCKS5("tcp", addr, auth, &net.Dialer{Timeout: p.Timeout})
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer: %w", err)
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer does not support contexts")
		}
		transport.DialContext = cd.DialContext
	case "socks4":
		return nil, errSOCKS4
	default:
		return nil, fmt.Errorf("unsupported proxy type %q", px.Type)
	}

	return &http.Client{Transport: transport, Timeout: p.Timeout}, nil
}

func isSOCKS(kind string) bool {
	return kind == "socks4" || kind == "socks5"
}
