package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/config"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db/migrations"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/defaults"
)

// DoctorCmd creates the doctor command for health checks
func DoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system health and diagnose issues",
		Long: `Run diagnostics on your installation.

Checks:
  - Data directory and configuration
  - Database and migrations
  - Chrome / Chromium executable
  - Local API server
  - Direct reachability of the proxy check target

Examples:
  antydetect doctor           # Run all diagnostics
  antydetect doctor --fix     # Install the browser driver and create missing directories`,
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor(fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Attempt to fix detected issues")

	return cmd
}

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runDoctor(fix bool) {
	fmt.Println("\033[1mAnty-Detect Browser Doctor\033[0m")
	fmt.Println("==========================")
	fmt.Println()

	var results []checkResult
	results = append(results, checkDataDir()...)
	results = append(results, checkDatabase())
	results = append(results, checkBrowser())
	results = append(results, checkServer())
	results = append(results, checkTarget())

	okCount, warnCount, errorCount := 0, 0, 0
	for _, r := range results {
		switch r.status {
		case "ok":
			fmt.Printf("\033[32m✓\033[0m %s: %s\n", r.name, r.message)
			okCount++
		case "warn":
			fmt.Printf("\033[33m⚠\033[0m %s: %s\n", r.name, r.message)
			warnCount++
		case "error":
			fmt.Printf("\033[31m✗\033[0m %s: %s\n", r.name, r.message)
			errorCount++
		}
	}

	// Summary
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  \033[32m%d passed\033[0m", okCount)
	if warnCount > 0 {
		fmt.Printf("  \033[33m%d warnings\033[0m", warnCount)
	}
	if errorCount > 0 {
		fmt.Printf("  \033[31m%d errors\033[0m", errorCount)
	}
	fmt.Println()

	if (errorCount > 0 || warnCount > 0) && fix {
		fmt.Println()
		fmt.Println("Attempting fixes...")
		runFixes(results)
	}

	if errorCount > 0 {
		os.Exit(1)
	}
}

func checkDataDir() []checkResult {
	var results []checkResult

	dir := ServerConfig.DataDir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		results = append(results, checkResult{name: "Data Directory", status: "error", message: fmt.Sprintf("%s missing", dir)})
	} else {
		results = append(results, checkResult{name: "Data Directory", status: "ok", message: dir})
	}

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = dataDirPath("config.yaml")
	}
	if _, err := config.Load(cfgPath); err != nil {
		results = append(results, checkResult{name: "Config File", status: "error", message: err.Error()})
	} else {
		results = append(results, checkResult{name: "Config File", status: "ok", message: cfgPath})
	}

	if _, err := os.Stat(ServerConfig.ProfilesDir); err != nil {
		results = append(results, checkResult{name: "Profiles Directory", status: "warn", message: fmt.Sprintf("%s not created yet", ServerConfig.ProfilesDir)})
	} else {
		entries, _ := os.ReadDir(ServerConfig.ProfilesDir)
		results = append(results, checkResult{name: "Profiles Directory", status: "ok", message: fmt.Sprintf("%s (%d profiles)", ServerConfig.ProfilesDir, len(entries))})
	}
	return results
}

func checkDatabase() checkResult {
	path := ServerConfig.Database.Path
	if _, err := os.Stat(path); err != nil {
		return checkResult{name: "Database", status: "warn", message: fmt.Sprintf("%s not created yet", path)}
	}
	store, err := db.NewSQLite(path)
	if err != nil {
		return checkResult{name: "Database", status: "error", message: err.Error()}
	}
	defer store.Close()

	version, err := migrations.Version(store.DB())
	if err != nil {
		return checkResult{name: "Database", status: "error", message: err.Error()}
	}

	logs, err := store.ListErrorLogs(context.Background(), 5)
	if err == nil && len(logs) > 0 {
		last := logs[0]
		return checkResult{
			name:    "Database",
			status:  "warn",
			message: fmt.Sprintf("%s (schema v%d), last recorded %s in %s at %s: %s", path, version, last.Level, last.Module, last.CreatedAt.Format(time.DateTime), last.Message),
		}
	}
	return checkResult{name: "Database", status: "ok", message: fmt.Sprintf("%s (schema v%d)", path, version)}
}

func checkBrowser() checkResult {
	exe := browser.FindExecutable()
	if exe == nil {
		return checkResult{
			name:    "Browser",
			status:  "warn",
			message: fmt.Sprintf("no Chrome or Chromium found on %s; the bundled Chromium will be used", runtime.GOOS),
		}
	}
	return checkResult{name: "Browser", status: "ok", message: fmt.Sprintf("%s at %s", exe.Kind, exe.Path)}
}

func checkServer() checkResult {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ServerConfig.Server.Addr + "/health")
	if err != nil {
		return checkResult{name: "API Server", status: "warn", message: "Not running (start with 'antydetect serve')"}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return checkResult{name: "API Server", status: "warn", message: fmt.Sprintf("Unhealthy (status %d)", resp.StatusCode)}
	}
	return checkResult{name: "API Server", status: "ok", message: "Running on " + ServerConfig.Server.Addr}
}

func checkTarget() checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	target := ServerConfig.ProxyCheck.TargetURL
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return checkResult{name: "Check Target", status: "error", message: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return checkResult{name: "Check Target", status: "warn", message: fmt.Sprintf("%s unreachable without proxy: %v", target, err)}
	}
	resp.Body.Close()
	return checkResult{name: "Check Target", status: "ok", message: fmt.Sprintf("%s (status %d)", target, resp.StatusCode)}
}

func runFixes(results []checkResult) {
	for _, r := range results {
		if r.status == "ok" {
			continue
		}

		switch {
		case strings.Contains(r.name, "Directory"):
			for _, dir := range []string{ServerConfig.DataDir, ServerConfig.ProfilesDir, filepath.Dir(ServerConfig.Database.Path)} {
				if err := os.MkdirAll(dir, 0755); err != nil {
					fmt.Printf("  \033[31m✗\033[0m Could not create %s: %v\n", dir, err)
				} else {
					fmt.Printf("  \033[32m✓\033[0m Created %s\n", dir)
				}
			}
		case r.name == "Browser":
			fmt.Println("  Installing the playwright driver and Chromium...")
			d, err := browser.PlaywrightEngine{Install: true}.Start()
			if err != nil {
				fmt.Printf("  \033[31m✗\033[0m %v\n", err)
				continue
			}
			d.Stop()
			fmt.Printf("  \033[32m✓\033[0m Browser driver installed\n")
		case r.name == "Config File":
			cfgPath := cfgFile
			if cfgPath == "" {
				cfgPath = dataDirPath("config.yaml")
			}
			backup, err := defaults.RestoreConfig(cfgPath)
			if err != nil {
				fmt.Printf("  \033[31m✗\033[0m Could not restore %s: %v\n", cfgPath, err)
				continue
			}
			if backup != "" {
				fmt.Printf("  \033[32m✓\033[0m Restored default %s (previous file kept as %s)\n", cfgPath, backup)
			} else {
				fmt.Printf("  \033[32m✓\033[0m Wrote default %s\n", cfgPath)
			}
		}
	}
}
