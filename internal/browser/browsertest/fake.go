// Package browsertest provides an in-memory automation engine for tests.
package browsertest

import (
	"errors"
	"sync"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
)

// ErrTargetClosed is what a killed context returns from Probe.
var ErrTargetClosed = errors.New("target closed")

// Engine records driver starts.
type Engine struct {
	mu       sync.Mutex
	starts   int
	StartErr error
	Driver   *Driver
}

// NewEngine returns an engine whose driver launches healthy contexts.
func NewEngine() *Engine {
	return &Engine{Driver: &Driver{}}
}

func (e *Engine) Start() (browser.Driver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts++
	if e.StartErr != nil {
		return nil, e.StartErr
	}
	return e.Driver, nil
}

// Starts returns how many times Start was called.
func (e *Engine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Driver records launches. LaunchErr, when set, decides per launch.
type Driver struct {
	mu        sync.Mutex
	launches  []browser.LaunchOptions
	dirs      []string
	contexts  []*Context
	stops     int
	LaunchErr func(opts browser.LaunchOptions) error
}

func (d *Driver) LaunchPersistentContext(dir string, opts browser.LaunchOptions) (browser.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launches = append(d.launches, opts)
	d.dirs = append(d.dirs, dir)
	if d.LaunchErr != nil {
		if err := d.LaunchErr(opts); err != nil {
			return nil, err
		}
	}
	c := &Context{pages: []*Page{{}}}
	d.contexts = append(d.contexts, c)
	return c, nil
}

func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

// Launches returns the options of every launch attempt.
func (d *Driver) Launches() []browser.LaunchOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]browser.LaunchOptions(nil), d.launches...)
}

// Dirs returns the user data dir of every launch attempt.
func (d *Driver) Dirs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dirs...)
}

// Stops returns how many times Stop was called.
func (d *Driver) Stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

// Context is a fake live context.
type Context struct {
	mu       sync.Mutex
	dead     bool
	closes   int
	pages    []*Page
	CloseErr error
}

func (c *Context) Probe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return ErrTargetClosed
	}
	return nil
}

func (c *Context) Pages() []browser.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]browser.Page, len(c.pages))
	for i, p := range c.pages {
		out[i] = p
	}
	return out
}

func (c *Context) NewPage() (browser.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &Page{}
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.CloseErr
}

// Kill makes every later Probe fail, as if the browser process died.
func (c *Context) Kill() {
	c.mu.Lock()
	c.dead = true
	c.mu.Unlock()
}

// Closes returns how many times Close was called.
func (c *Context) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// FakePages returns the concrete pages.
func (c *Context) FakePages() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

// Page records navigation and scripts.
type Page struct {
	mu      sync.Mutex
	visited []string
	scripts []string
	args    []any
	EvalErr error
}

func (p *Page) Goto(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	return nil
}

func (p *Page) Evaluate(script string, arg ...any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, script)
	p.args = append(p.args, arg...)
	return nil, p.EvalErr
}

// Visited returns navigated URLs.
func (p *Page) Visited() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visited...)
}

// Scripts returns evaluated scripts.
func (p *Page) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

// Args returns every argument passed to Evaluate.
func (p *Page) Args() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.args...)
}
