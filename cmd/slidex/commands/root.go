package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/slidex/slidex/cmd/slidex/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "slidex",
	Short: "AI presentation generation server",
	Long: `slidex - a server that turns a chat-refined outline into a slide deck.

The server streams slides from a language model backend over websockets as
they are generated, tracking progress in a markdown checklist.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/slidex/config.yaml
  Linux:   ~/.config/slidex/config.yaml
  Windows: %AppData%/slidex/config.yaml

Examples:
  # Run the server with the configured backend
  slidex serve

  # Run on a different address with a scratch data directory
  slidex serve --addr :9090 --data-dir /tmp/slidex`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	cfg, err := config.Load()
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}
