// Cloudlink-tap is a diagnostic tap for device-cloud serial traffic.
//
// It accepts serial-over-TCP bridge connections carrying enveloped
// device-cloud frames, decodes every frame and streams the decoded field
// views as JSON events to WebSocket diagnostic clients. Use it to watch
// live traffic between a host and a radio module without modifying either.
//
// Usage:
//
//	cloudlink-tap serve [flags]
//
// See 'cloudlink-tap serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/torvik/cloudlink/internal/config"
	"github.com/torvik/cloudlink/internal/tap"
	"github.com/torvik/cloudlink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cloudlink-tap",
	Short: "Device-cloud frame tap",
	Long: `A diagnostic tap for the device-cloud frames exchanged between a host and
a cloud-connected radio module.

Point a serial-over-TCP bridge (such as ser2net) at the tap's bridge port and
attach a WebSocket client to the diagnostic port to watch decoded frames live.

Note: For offline decoding and frame building, use the separate 'cloudlink'
utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	listenAddr string
	wsAddr     string
	modeName   string
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tap server",
	Long: `Start the tap server and block until interrupted.

Flags override the config file; the config file provides the defaults.`,
	Example: `  # Start with config file defaults
  cloudlink-tap serve

  # Custom bridge port, verbose logging
  cloudlink-tap serve --listen 0.0.0.0:9750 --log-level debug

  # Escaped-mode serial link
  cloudlink-tap serve --mode escaped`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Bridge listen address (default from config)")
	serveCmd.Flags().StringVar(&wsAddr, "ws-listen", "", "Diagnostic WebSocket listen address (default from config)")
	serveCmd.Flags().StringVar(&modeName, "mode", "", "Operating mode: api or escaped (default from config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Tap.Listen = listenAddr
	}
	if wsAddr != "" {
		cfg.Tap.WSListen = wsAddr
	}
	if modeName != "" {
		cfg.Mode = modeName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	mode, err := cfg.OperatingMode()
	if err != nil {
		return err
	}

	srv, err := tap.New(&tap.Config{
		Listen:   cfg.Tap.Listen,
		WSListen: cfg.Tap.WSListen,
		Mode:     mode,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		return err
	}
	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cloudlink-tap %s\n", version.Full())
	},
}
