package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	cli "github.com/oleksandr38kebab342/anty-detect-browser/cmd/antydetect"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/config"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/defaults"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Ensure data directory exists with default files
	dataDir, err := defaults.EnsureDataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize data directory: %v\n", err)
		os.Exit(1)
	}

	c, err := config.Load(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c.Resolve(dataDir)

	if err := cli.SetupRootCmd(&c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
