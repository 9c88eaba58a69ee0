// Cloudlink is a command line codec for device-cloud frames.
//
// It decodes captured frames into their field views and builds well-formed
// frames from the command line, in both plain and escaped API modes. It is
// the offline companion to cloudlink-tap, which does the same decoding
// against a live serial bridge.
//
// Usage:
//
//	cloudlink [command] [flags]
//
// See 'cloudlink --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/torvik/cloudlink/internal/logging"
	"github.com/torvik/cloudlink/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cloudlink",
	Short: "Device-cloud frame codec",
	Long: `A command line codec for the device-cloud frames exchanged between a host
and a cloud-connected radio module over a framed serial link.

Decode captured frames into readable field views, or build and envelope
frames for injection with your own tooling.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cloudlink %s\n", version.Full())
	},
}
