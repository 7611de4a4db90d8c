// Wifirelay-daemon runs a WiFi repeater with a remote management channel.
//
// The daemon relays an upstream wireless network to local clients while
// exposing a websocket control channel for configuration and status,
// announced over mDNS. Configuration updates are validated field by field
// and applied to the radio; the uplink connection is supervised with
// bounded connect attempts and gated retries.
//
// Usage:
//
//	wifirelay-daemon run [flags]
//
// See 'wifirelay-daemon run --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifirelay/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wifirelay-daemon",
	Short: "WiFi repeater daemon with remote management",
	Long: `A daemon that bridges an upstream wireless network to local clients
and exposes a short-range management channel for configuration and status.

Use the separate 'wifirelay-ctl' utility to discover running daemons,
stream status snapshots, and push configuration updates.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wifirelay-daemon %s (commit: %s)\n", version.Version, version.Commit)
	},
}
