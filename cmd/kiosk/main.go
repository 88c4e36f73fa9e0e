// kiosk runs the voice ordering kiosk: the HTTP/websocket API server, a
// terminal simulator and database maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-kiosk/internal/config"
	"github.com/teslashibe/go-kiosk/internal/log"
)

var version = "0.1.0"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "kiosk",
	Short:         "Voice ordering kiosk",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, simulateCmd, migrateCmd, menuCmd)
}

// loadConfig reads configuration and initializes the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
