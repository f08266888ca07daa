package browser

import "fmt"

const (
	maximizeScript = `() => { window.moveTo(0, 0); window.resizeTo(screen.availWidth, screen.availHeight); }`
	openTabScript  = `url => window.open(url, '_blank')`
)

// OpenTabs navigates the first page of c to tabs[0] and opens the rest in
// new tabs. With no tabs it only maximizes the existing window. Maximize
// failures are ignored; navigation failures are returned.
func OpenTabs(c Context, tabs []string) error {
	pages := c.Pages()

	if len(tabs) == 0 {
		if len(pages) > 0 {
			_, _ = pages[0].Evaluate(maximizeScript)
		}
		return nil
	}

	var page Page
	if len(pages) > 0 {
		page = pages[0]
	} else {
		p, err := c.NewPage()
		if err != nil {
			return fmt.Errorf("new page: %w", err)
		}
		page = p
	}

	if err := page.Goto(tabs[0]); err != nil {
		return fmt.Errorf("goto %s: %w", tabs[0], err)
	}
	_, _ = page.Evaluate(maximizeScript)

	for _, url := range tabs[1:] {
		if _, err := page.Evaluate(openTabScript, url); err != nil {
			return fmt.Errorf("open tab %s: %w", url, err)
		}
	}
	return nil
}
