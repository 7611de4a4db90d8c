// Wifirelay-ctl is the operator utility for wifirelay daemons.
//
// It discovers running daemons over mDNS, streams status snapshots from
// the control channel, and pushes configuration updates. Secrets are
// always prompted interactively, never taken as flags.
//
// Usage:
//
//	wifirelay-ctl discover
//	wifirelay-ctl status --addr 192.168.4.1:8421
//	wifirelay-ctl set --addr 192.168.4.1:8421 --channel 11
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/version"
)

func main() {
	// Silent by default; WIFIRELAY_LOG_LEVEL enables diagnostics.
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
	Use:   "wifirelay-ctl",
	Short: "Control utility for wifirelay daemons",
	Long: `Discover, inspect and configure wifirelay daemons over their
management channel.

Configuration changes are validated by the daemon field by field: values
outside their accepted range are dropped individually while the rest of
the update still applies.`,
	Version: version.Version,
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wifirelay-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
