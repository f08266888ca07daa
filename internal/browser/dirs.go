package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
)

// ProfileDirs maps profile identifiers to their persistent storage directories.
type ProfileDirs struct {
	base string
}

// NewProfileDirs returns a store rooted at base. The base directory is
// created lazily by Ensure.
func NewProfileDirs(base string) *ProfileDirs {
	return &ProfileDirs{base: base}
}

// Base returns the root directory.
func (d *ProfileDirs) Base() string {
	return d.base
}

// PathFor returns the directory for id without touching the filesystem.
func (d *ProfileDirs) PathFor(id string) string {
	return filepath.Join(d.base, id)
}

// Ensure creates the directory for id if needed and returns its path.
func (d *ProfileDirs) Ensure(id string) (string, error) {
	if err := checkID(id); err != nil {
		return "", err
	}
	path := d.PathFor(id)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create profile dir %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes the directory for id recursively. Failures are logged,
// never returned: a file still held by a dying browser must not block
// profile deletion.
func (d *ProfileDirs) Remove(id string) {
	if err := checkID(id); err != nil {
		logging.Warnf("[browser] refusing to remove profile dir: %v", err)
		return
	}
	path := d.PathFor(id)
	if err := os.RemoveAll(path); err != nil {
		logging.Component("browser").Warn("profile dir not fully removed", "profile_id", id, "path", path, "error", err)
	}
}

// checkID rejects identifiers that would escape the base directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return fmt.Errorf("invalid profile id %q", id)
	}
	return nil
}
