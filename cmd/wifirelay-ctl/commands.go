package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/wifirelay/internal/control"
	"github.com/muurk/wifirelay/internal/discovery"
	"github.com/muurk/wifirelay/internal/status"
)

// Output styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
)

// Common flags
var (
	daemonAddr  string
	scanTimeout int
)

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(versionCmd)
}

// discoverCmd finds daemons on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover wifirelay daemons on the network",
	Long: `Discover wifirelay daemons using mDNS/DNS-SD.

Each daemon announces its control channel as a '_wifirelay._tcp' service;
this command lists every announcement heard within the scan window.`,
	Example: `  # Scan with the default 5 second window
  wifirelay-ctl discover

  # Longer scan for sleepy networks
  wifirelay-ctl discover --timeout 15`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan window in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	fmt.Printf("Scanning for daemons (%ds)...\n", scanTimeout)

	daemons, err := scanner.Scan(context.Background())
	if err != nil {
		return err
	}

	if len(daemons) == 0 {
		fmt.Println("No daemons found.")
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d daemon(s):", len(daemons))))
	for _, d := range daemons {
		fmt.Printf("  %s  %s  %s\n",
			valueStyle.Render(d.Instance),
			keyStyle.Render(d.Addr()),
			keyStyle.Render(d.Version),
		)
	}
	return nil
}

// statusCmd streams status snapshots
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Attach to a daemon's control channel and print its status snapshot.

The daemon emits a snapshot immediately when a peer attaches, then every
few seconds and on configuration or link changes. With --watch, snapshots
are printed as they arrive until interrupted.`,
	Example: `  # One-shot status
  wifirelay-ctl status --addr 192.168.4.1:8421

  # Follow status updates
  wifirelay-ctl status --addr 192.168.4.1:8421 --watch`,
	RunE: runStatus,
}

var watchStatus bool

func init() {
	statusCmd.Flags().StringVar(&daemonAddr, "addr", "", "Daemon control address (host:port)")
	statusCmd.Flags().BoolVar(&watchStatus, "watch", false, "Keep printing snapshots as they arrive")
	_ = statusCmd.MarkFlagRequired("addr")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := control.Dial(context.Background(), daemonAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	for {
		payload, err := client.NextStatus(status.EmitInterval + 5*time.Second)
		if err != nil {
			return err
		}

		var snap status.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return fmt.Errorf("malformed status notification: %w", err)
		}

		printSnapshot(&snap)
		if !watchStatus {
			return nil
		}
		fmt.Println()
	}
}

func printSnapshot(snap *status.Snapshot) {
	link := badStyle.Render("disconnected")
	if snap.PrimaryConnected {
		link = okStyle.Render("connected")
	}
	power := "off"
	if snap.PowerSaving {
		power = fmt.Sprintf("on (mode %d, listen interval %d)", snap.PowerMode, snap.ListenInterval)
	}

	fmt.Println(headerStyle.Render("Uplink"))
	fmt.Printf("  %s %s\n", keyStyle.Render("state:"), link)
	fmt.Printf("  %s %s\n", keyStyle.Render("ssid:"), valueStyle.Render(snap.PrimarySSID))
	fmt.Printf("  %s %s\n", keyStyle.Render("address:"), valueStyle.Render(snap.PrimaryIP))
	fmt.Printf("  %s %s\n", keyStyle.Render("rssi:"), valueStyle.Render(fmt.Sprintf("%d dBm", snap.PrimaryRSSI)))

	fmt.Println(headerStyle.Render("Access point"))
	fmt.Printf("  %s %s\n", keyStyle.Render("ssid:"), valueStyle.Render(snap.APSSID))
	fmt.Printf("  %s %s\n", keyStyle.Render("address:"), valueStyle.Render(snap.APIP))
	fmt.Printf("  %s %s\n", keyStyle.Render("clients:"), valueStyle.Render(fmt.Sprintf("%d", snap.ConnectedClients)))

	fmt.Println(headerStyle.Render("System"))
	fmt.Printf("  %s %s\n", keyStyle.Render("power saving:"), valueStyle.Render(power))
	fmt.Printf("  %s %s\n", keyStyle.Render("free memory:"), valueStyle.Render(fmt.Sprintf("%d bytes", snap.FreeMemory)))
	fmt.Printf("  %s %s\n", keyStyle.Render("uptime:"), valueStyle.Render(formatUptime(snap.Uptime)))
}

func formatUptime(seconds int64) string {
	return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
}

// setCmd pushes a configuration update
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Push a configuration update to a daemon",
	Long: `Build a configuration payload from the given flags and push it over
the control channel.

Only the flags you pass are included in the update; everything else keeps
its current value on the daemon. SSID changes prompt for the matching
passphrase (press enter for an open network) because identifier and secret
are always replaced together.`,
	Example: `  # Move the access point to channel 11
  wifirelay-ctl set --addr 192.168.4.1:8421 --channel 11

  # Point the relay at a different upstream network (prompts for passphrase)
  wifirelay-ctl set --addr 192.168.4.1:8421 --uplink-ssid HomeNet

  # Turn power saving off
  wifirelay-ctl set --addr 192.168.4.1:8421 --power-saving=false`,
	RunE: runSet,
}

// Set command flags
var (
	setUplinkSSID     string
	setAPSSID         string
	setChannel        int
	setMaxClients     int
	setPowerSaving    bool
	setPowerMode      int
	setListenInterval int
)

func init() {
	setCmd.Flags().StringVar(&daemonAddr, "addr", "", "Daemon control address (host:port)")
	setCmd.Flags().StringVar(&setUplinkSSID, "uplink-ssid", "", "Upstream network to relay (prompts for passphrase)")
	setCmd.Flags().StringVar(&setAPSSID, "ap-ssid", "", "Local access point SSID (prompts for passphrase)")
	setCmd.Flags().IntVar(&setChannel, "channel", 0, "Access point channel (1-13)")
	setCmd.Flags().IntVar(&setMaxClients, "max-clients", 0, "Maximum simultaneous clients (1-10)")
	setCmd.Flags().BoolVar(&setPowerSaving, "power-saving", false, "Enable or disable power saving")
	setCmd.Flags().IntVar(&setPowerMode, "power-mode", 0, "Power-save mode (0=off, 1=low, 2=high)")
	setCmd.Flags().IntVar(&setListenInterval, "listen-interval", 0, "Beacon listen interval (1-10)")
	_ = setCmd.MarkFlagRequired("addr")
}

func runSet(cmd *cobra.Command, args []string) error {
	payload := make(map[string]any)

	if cmd.Flags().Changed("uplink-ssid") {
		pass, err := promptPassphrase(fmt.Sprintf("Passphrase for %q (empty for open network): ", setUplinkSSID))
		if err != nil {
			return err
		}
		payload["primarySSID"] = setUplinkSSID
		payload["primaryPass"] = pass
	}
	if cmd.Flags().Changed("ap-ssid") {
		pass, err := promptPassphrase(fmt.Sprintf("Passphrase for %q (empty for open network): ", setAPSSID))
		if err != nil {
			return err
		}
		payload["apSSID"] = setAPSSID
		payload["apPass"] = pass
	}
	if cmd.Flags().Changed("channel") {
		payload["channel"] = setChannel
	}
	if cmd.Flags().Changed("max-clients") {
		payload["maxClients"] = setMaxClients
	}
	if cmd.Flags().Changed("power-saving") {
		payload["powerSaving"] = setPowerSaving
	}
	if cmd.Flags().Changed("power-mode") {
		payload["powerMode"] = setPowerMode
	}
	if cmd.Flags().Changed("listen-interval") {
		payload["listenInterval"] = setListenInterval
	}

	if len(payload) == 0 {
		return fmt.Errorf("nothing to update: pass at least one configuration flag")
	}

	client, err := control.Dial(context.Background(), daemonAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SendConfig(payload); err != nil {
		return err
	}

	fmt.Println(okStyle.Render("✓") + " Update sent.")
	return nil
}

// promptPassphrase reads a secret from the terminal without echo.
// Secrets are never accepted as flags so they stay out of shell history.
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(secret), nil
}
