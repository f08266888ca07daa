package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// BrowserKind identifies the type of Chromium-based browser.
type BrowserKind string

const (
	BrowserChrome   BrowserKind = "chrome"
	BrowserEdge     BrowserKind = "edge"
	BrowserChromium BrowserKind = "chromium"
)

// Executable is a browser binary found on this machine.
type Executable struct {
	Kind BrowserKind
	Path string
}

type candidate struct {
	kind BrowserKind
	path string
}

// FindExecutable looks for an installed Chromium-family browser, preferring
// Google Chrome. It returns nil when none is installed.
func FindExecutable() *Executable {
	for _, c := range candidates() {
		if fileExists(c.path) {
			return &Executable{Kind: c.kind, Path: c.path}
		}
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			kind := BrowserChromium
			if name != "chromium" && name != "chromium-browser" {
				kind = BrowserChrome
			}
			return &Executable{Kind: kind, Path: path}
		}
	}
	return nil
}

func candidates() []candidate {
	switch runtime.GOOS {
	case "darwin":
		home := os.Getenv("HOME")
		return []candidate{
			{BrowserChrome, "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
			{BrowserChrome, filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome")},
			{BrowserChromium, "/Applications/Chromium.app/Contents/MacOS/Chromium"},
			{BrowserEdge, "/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
		}
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		if programFilesX86 == "" {
			programFilesX86 = `C:\Program Files (x86)`
		}
		var out []candidate
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			out = append(out, candidate{BrowserChrome, filepath.Join(local, "Google", "Chrome", "Application", "chrome.exe")})
		}
		return append(out,
			candidate{BrowserChrome, filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe")},
			candidate{BrowserChrome, filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe")},
			candidate{BrowserEdge, filepath.Join(programFiles, "Microsoft", "Edge", "Application", "msedge.exe")},
		)
	default:
		return []candidate{
			{BrowserChrome, "/usr/bin/google-chrome"},
			{BrowserChrome, "/usr/bin/google-chrome-stable"},
			{BrowserChromium, "/usr/bin/chromium"},
			{BrowserChromium, "/usr/bin/chromium-browser"},
			{BrowserChromium, "/snap/bin/chromium"},
			{BrowserEdge, "/usr/bin/microsoft-edge"},
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
