// Package defaults provides embedded default configuration files.
// These are copied to the platform data directory on first run or when reset is requested.
//
// Platform paths:
//
//	macOS:   ~/Library/Application Support/AntyDetect/
//	Windows: %AppData%\AntyDetect\
//	Linux:   ~/.config/antydetect/
//
// Override with ANTYDETECT_DATA_DIR environment variable.
package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

//go:embed dotantydetect/*
var defaultFiles embed.FS

const embedRoot = "dotantydetect"

// DataDirEnv overrides the platform data directory.
const DataDirEnv = "ANTYDETECT_DATA_DIR"

// DataDir returns the platform-appropriate data directory.
//
// Set ANTYDETECT_DATA_DIR to override.
func DataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}

	// Linux: lowercase per XDG convention
	// macOS/Windows: title case per platform convention
	if runtime.GOOS == "linux" {
		return filepath.Join(configDir, "antydetect"), nil
	}
	return filepath.Join(configDir, "AntyDetect"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist
// and copies default files if they're missing.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := copyDefaults(dir); err != nil {
		return "", err
	}

	return dir, nil
}

func copyDefaults(dir string) error {
	return fs.WalkDir(defaultFiles, embedRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == embedRoot {
			return nil
		}

		// embed.FS always uses forward slashes, so TrimPrefix instead of filepath.Rel.
		relPath := strings.TrimPrefix(path, embedRoot+"/")
		destPath := filepath.Join(dir, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}

		if _, err := os.Stat(destPath); err == nil {
			return nil
		}

		data, err := defaultFiles.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", path, err)
		}

		if err := os.WriteFile(destPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}

		return nil
	})
}

// GetDefault returns the content of a default file by name.
// Example: GetDefault("config.yaml")
func GetDefault(name string) ([]byte, error) {
	return defaultFiles.ReadFile(embedRoot + "/" + name)
}

// RestoreConfig moves the config file at path aside to path+".broken" and
// writes the embedded default in its place. It returns the backup path, or
// "" when there was no file to move.
func RestoreConfig(path string) (string, error) {
	data, err := GetDefault("config.yaml")
	if err != nil {
		return "", err
	}

	var backup string
	if _, err := os.Stat(path); err == nil {
		backup = path + ".broken"
		if err := os.Rename(path, backup); err != nil {
			return "", fmt.Errorf("back up %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return backup, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return backup, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return backup, nil
}
