package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/control"
	"github.com/muurk/wifirelay/internal/discovery"
	"github.com/muurk/wifirelay/internal/engine"
	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/radio"
	"github.com/muurk/wifirelay/internal/settings"
	"github.com/muurk/wifirelay/internal/sysinfo"
)

// Run command and flags
var (
	listenAddr string
	bootConfig string
	logLevel   string
	announce   bool
	instance   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the repeater daemon",
	Long: `Start the repeater: bring up the local access point, connect to the
upstream network, and serve the management channel.

The boot configuration file provides the initial uplink credentials and
access point parameters; without one, factory defaults are used. Runtime
changes arrive over the control channel and are not persisted.`,
	Example: `  # Start with factory defaults
  wifirelay-daemon run

  # Start with a boot configuration and verbose logging
  wifirelay-daemon run --boot-config /etc/wifirelay/boot.yaml --log-level debug

  # Start on a custom control port without mDNS announcement
  wifirelay-daemon run --listen :9000 --announce=false`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&listenAddr, "listen", ":8421", "Control channel listen address")
	runCmd.Flags().StringVar(&bootConfig, "boot-config", "", "Path to boot configuration YAML (optional)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&announce, "announce", true, "Announce the control channel over mDNS")
	runCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: AP SSID)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if bootConfig != "" {
		if _, err := os.Stat(bootConfig); os.IsNotExist(err) {
			return fmt.Errorf("boot configuration file not found: %s", bootConfig)
		}
	}

	store, err := settings.LoadFileOrDefaults(bootConfig)
	if err != nil {
		return err
	}

	logging.Info("Starting wifirelay daemon",
		zap.String("listen", listenAddr),
		zap.String("uplink_ssid", store.Uplink.SSID),
		zap.String("ap_ssid", store.AP.SSID),
		zap.Int("ap_channel", store.AP.Channel),
	)

	// The radio driver is platform specific; the simulated driver stands
	// in until a hardware backend is wired up.
	driver := radio.NewSimDriver()

	srv := control.NewServer(listenAddr, nil, nil)
	eng := engine.New(store, driver, srv, sysinfo.Host(), nil)
	srv.Bind(eng, eng)

	if err := srv.Start(); err != nil {
		return err
	}

	var announcer *discovery.Announcer
	if announce {
		name := instance
		if name == "" {
			name = store.AP.SSID
		}
		announcer, err = discovery.Announce(name, srv.Port())
		if err != nil {
			// Discovery is a convenience; the daemon stays reachable
			// by address.
			logging.Warn("mDNS announcement failed", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = eng.Run(ctx)

	logging.Info("Shutting down")
	if announcer != nil {
		announcer.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logging.Error("Control server shutdown error", zap.Error(serr))
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
