package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/config"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db/migrations"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/svc"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile  string
	verbose  bool
	headless bool
	jsonOut  bool
)

// ServerConfig holds the loaded configuration (set by main)
var ServerConfig *config.Config

// Version is the build version, set with -ldflags.
var Version = "dev"

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	rootCmd := &cobra.Command{
		Use:   "antydetect",
		Short: "Anty-Detect Browser - isolated browser profiles",
		Long: `Anty-Detect Browser manages browser profiles that each run in their own
persistent Chromium context with a dedicated proxy, user agent, timezone,
geolocation and language.

Run 'antydetect serve' to start the local API, or use the profile and proxy
commands directly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				loaded, err := config.Load(cfgFile)
				if err != nil {
					return err
				}
				loaded.Resolve(ServerConfig.DataDir)
				*ServerConfig = loaded
			}
			if cmd.Flags().Changed("headless") {
				ServerConfig.Browser.Headless = headless
			}
			level := ServerConfig.Log.Level
			if verbose {
				level = "debug"
			}
			logging.Init(logging.Options{Level: level, JSON: ServerConfig.Log.JSON})
			migrations.QuietMode = !verbose
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <data dir>/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "launch browsers without a window")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print machine-readable JSON")

	// Add commands
	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(ProfileCmd())
	rootCmd.AddCommand(ProxyCmd())
	rootCmd.AddCommand(SettingsCmd())
	rootCmd.AddCommand(DoctorCmd())

	return rootCmd
}

// openServices builds the service context for one command run.
func openServices() (*svc.ServiceContext, error) {
	sc, err := svc.NewServiceContext(*ServerConfig)
	if err != nil {
		return nil, err
	}
	sc.Version = Version
	return sc, nil
}

func dataDirPath(name string) string {
	return filepath.Join(ServerConfig.DataDir, name)
}
