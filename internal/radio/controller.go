package radio

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/settings"
)

// Controller applies the current settings to the radio driver. Each
// operation is a direct, idempotent application of store state; validation
// has already happened upstream in the reconciler, so none is repeated here.
type Controller struct {
	driver Driver
	store  *settings.Store
}

// NewController creates a controller bound to a driver and settings store.
func NewController(driver Driver, store *settings.Store) *Controller {
	return &Controller{driver: driver, store: store}
}

// ApplyAccessPoint (re)configures the local access point from the current
// settings. Safe to call with no change; the driver is assumed idempotent.
//
// A driver failure here is surfaced to the caller and logged, but there is
// no automatic retry or fallback channel selection.
func (c *Controller) ApplyAccessPoint() error {
	setup := AccessPointSetup{
		SSID:       c.store.AP.SSID,
		Passphrase: c.store.AP.Passphrase,
		Channel:    c.store.AP.Channel,
		MaxClients: c.store.AP.MaxClients,
		Gateway:    APGateway,
		PrefixBits: APPrefixBits,
	}

	if err := c.driver.ConfigureAP(setup); err != nil {
		logging.Error("Failed to configure access point",
			zap.String("ssid", setup.SSID),
			zap.Int("channel", setup.Channel),
			zap.Error(err),
		)
		return fmt.Errorf("failed to configure access point: %w", err)
	}

	logging.Info("Access point configured",
		zap.String("ssid", setup.SSID),
		zap.Int("channel", setup.Channel),
		zap.Int("max_clients", setup.MaxClients),
		zap.String("gateway", setup.Gateway.String()),
	)
	return nil
}

// ApplyUplink tears down any existing uplink session and begins a connect
// with the current credentials. Fire-and-forget: observing the outcome is
// the connection supervisor's job.
func (c *Controller) ApplyUplink() {
	if err := c.driver.Disconnect(); err != nil {
		logging.Debug("Uplink disconnect before reconnect failed", zap.Error(err))
	}

	logging.Info("Connecting to uplink network", zap.String("ssid", c.store.Uplink.SSID))
	if err := c.driver.Connect(c.store.Uplink.SSID, c.store.Uplink.Passphrase); err != nil {
		// The supervisor will observe the link staying down and gate a retry.
		logging.Warn("Uplink connect request failed", zap.Error(err))
	}
}

// ApplyPowerPolicy pushes the current power policy to the driver. When the
// policy is disabled, power save is forced fully off.
func (c *Controller) ApplyPowerPolicy() {
	ps := PowerSaveSetting{Mode: settings.PowerModeOff}
	if c.store.Power.Enabled {
		ps = PowerSaveSetting{
			Mode:           c.store.Power.Mode,
			ListenInterval: c.store.Power.ListenInterval,
		}
	}

	if err := c.driver.SetPowerSave(ps); err != nil {
		logging.Warn("Failed to apply power-save setting", zap.Error(err))
		return
	}

	if c.store.Power.Enabled {
		logging.Info("Power saving applied",
			zap.Stringer("mode", ps.Mode),
			zap.Int("listen_interval", ps.ListenInterval),
		)
	} else {
		logging.Info("Power saving disabled")
	}
}

// Metrics reads the current link metrics from the driver.
func (c *Controller) Metrics() Metrics {
	return c.driver.Metrics()
}
