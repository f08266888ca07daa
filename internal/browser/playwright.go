package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightEngine starts the playwright driver.
type PlaywrightEngine struct {
	// Install downloads the driver and Chromium before the first run.
	Install bool
}

// Start implements Engine.
func (e PlaywrightEngine) Start() (Driver, error) {
	// Discard driver output so it doesn't interleave with our logs.
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if e.Install {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	return &pwDriver{pw: pw}, nil
}

type pwDriver struct {
	pw *playwright.Playwright
}

func (d *pwDriver) LaunchPersistentContext(userDataDir string, opts LaunchOptions) (Context, error) {
	launch := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
		Viewport: &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height},
	}
	if opts.Channel != "" {
		launch.Channel = playwright.String(opts.Channel)
	}
	if p := opts.Proxy; p != nil {
		launch.Proxy = &playwright.Proxy{Server: p.Server}
		if p.HasAuth() {
			launch.Proxy.Username = playwright.String(p.Username)
			launch.Proxy.Password = playwright.String(p.Password)
		}
	}

	s := opts.Settings
	if s.UserAgent != "" {
		launch.UserAgent = playwright.String(s.UserAgent)
	}
	if s.Locale != "" {
		launch.Locale = playwright.String(s.Locale)
	}
	if s.TimezoneID != "" {
		launch.TimezoneId = playwright.String(s.TimezoneID)
	}
	if s.Geolocation != nil {
		launch.Geolocation = &playwright.Geolocation{Latitude: s.Geolocation.Latitude, Longitude: s.Geolocation.Longitude}
	}
	if len(s.Permissions) > 0 {
		launch.Permissions = s.Permissions
	}
	if len(s.ExtraHeaders) > 0 {
		launch.ExtraHttpHeaders = s.ExtraHeaders
	}

	bc, err := d.pw.Chromium.LaunchPersistentContext(userDataDir, launch)
	if err != nil {
		return nil, err
	}

	// An empty permission list would be dropped from the launch options,
	// so denial is applied to the live context instead.
	if s.DenyAll() {
		if err := bc.ClearPermissions(); err != nil {
			_ = bc.Close()
			return nil, fmt.Errorf("clear permissions: %w", err)
		}
	}
	return &pwContext{bc: bc}, nil
}

func (d *pwDriver) Stop() error {
	return d.pw.Stop()
}

type pwContext struct {
	bc playwright.BrowserContext
}

// Probe asks the browser for its cookie jar; Pages() alone is answered
// from client-side state and would not notice a dead process.
func (c *pwContext) Probe() error {
	_, err := c.bc.Cookies()
	return err
}

func (c *pwContext) Pages() []Page {
	pages := c.bc.Pages()
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, pwPage{p: p})
	}
	return out
}

func (c *pwContext) NewPage() (Page, error) {
	p, err := c.bc.NewPage()
	if err != nil {
		return nil, err
	}
	return pwPage{p: p}, nil
}

func (c *pwContext) Close() error {
	return c.bc.Close()
}

type pwPage struct {
	p playwright.Page
}

func (p pwPage) Goto(url string) error {
	_, err := p.p.Goto(url)
	return err
}

func (p pwPage) Evaluate(script string, arg ...any) (any, error) {
	return p.p.Evaluate(script, arg...)
}
