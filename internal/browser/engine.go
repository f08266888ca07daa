package browser

// Engine starts the automation driver process.
type Engine interface {
	Start() (Driver, error)
}

// Driver is a started automation driver. One exists per process.
type Driver interface {
	LaunchPersistentContext(userDataDir string, opts LaunchOptions) (Context, error)
	Stop() error
}

// Context is a live persistent browser context.
type Context interface {
	// Probe performs a cheap round trip to the browser; an error means the
	// context is gone.
	Probe() error
	Pages() []Page
	NewPage() (Page, error)
	Close() error
}

// Page is a single browser tab.
type Page interface {
	Goto(url string) error
	Evaluate(script string, arg ...any) (any, error)
}

// Viewport is the initial window content size.
type Viewport struct {
	Width  int
	Height int
}

// LaunchOptions are the engine parameters for one persistent context.
type LaunchOptions struct {
	Headless bool
	Channel  string
	Args     []string
	Viewport Viewport
	Proxy    *ProxyConfig
	Settings LaunchSettings
}
