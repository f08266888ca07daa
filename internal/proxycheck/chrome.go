package proxycheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
)

// FallbackProbe loads a page in a real browser routed through the proxy.
type FallbackProbe interface {
	Probe(ctx context.Context, proxy *browser.ProxyConfig) error
}

// ChromeProbe drives a throwaway headless Chrome through the proxy and
// checks that URL loaded.
type ChromeProbe struct {
	ExecPath string
	URL      string
	// Match must appear in the final page URL, case-insensitively.
	Match   string
	Timeout time.Duration
}

// Probe implements FallbackProbe.
func (p ChromeProbe) Probe(ctx context.Context, px *browser.ProxyConfig) error {
	if px == nil {
		return fmt.Errorf("no proxy configured")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ProxyServer(px.Server),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	runCtx, cancelRun := context.WithTimeout(tabCtx, timeout)
	defer cancelRun()

	var actions []chromedp.Action
	if px.HasAuth() {
		listenForAuth(tabCtx, px.Username, px.Password)
		actions = append(actions, fetch.Enable().WithHandleAuthRequests(true))
	}

	var location string
	actions = append(actions, chromedp.Navigate(p.URL), chromedp.Location(&location))
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("load %s through %s: %w", p.URL, px.Server, err)
	}

	if !strings.Contains(strings.ToLower(location), strings.ToLower(p.Match)) {
		return fmt.Errorf("unexpected page %q", location)
	}
	return nil
}

// listenForAuth answers proxy auth challenges. Chrome only issues them for
// HTTP proxies; SOCKS credentials cannot be supplied this way.
func listenForAuth(ctx context.Context, user, pass string) {
	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				_ = chromedp.Run(ctx, fetch.ContinueRequest(e.RequestID))
			}()
		case *fetch.EventAuthRequired:
			go func() {
				_ = chromedp.Run(ctx, fetch.ContinueWithAuth(e.RequestID, &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: user,
					Password: pass,
				}))
			}()
		}
	})
}
