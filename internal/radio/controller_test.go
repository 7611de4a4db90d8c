package radio

import (
	"errors"
	"testing"

	"github.com/muurk/wifirelay/internal/settings"
)

// recordingDriver captures driver calls for assertions.
type recordingDriver struct {
	apCalls     []AccessPointSetup
	connects    []string
	disconnects int
	powerCalls  []PowerSaveSetting
	apErr       error
	connectErr  error
	metrics     Metrics
}

func (d *recordingDriver) ConfigureAP(setup AccessPointSetup) error {
	d.apCalls = append(d.apCalls, setup)
	return d.apErr
}

func (d *recordingDriver) Connect(ssid, passphrase string) error {
	d.connects = append(d.connects, ssid)
	return d.connectErr
}

func (d *recordingDriver) Disconnect() error {
	d.disconnects++
	return nil
}

func (d *recordingDriver) SetPowerSave(ps PowerSaveSetting) error {
	d.powerCalls = append(d.powerCalls, ps)
	return nil
}

func (d *recordingDriver) Metrics() Metrics {
	return d.metrics
}

func TestApplyAccessPoint(t *testing.T) {
	store := settings.Defaults()
	store.AP.SSID = "Relay"
	store.AP.Channel = 11
	store.AP.MaxClients = 4

	drv := &recordingDriver{}
	c := NewController(drv, store)

	if err := c.ApplyAccessPoint(); err != nil {
		t.Fatalf("ApplyAccessPoint() error = %v", err)
	}

	if len(drv.apCalls) != 1 {
		t.Fatalf("ConfigureAP called %d times, want 1", len(drv.apCalls))
	}
	setup := drv.apCalls[0]
	if setup.SSID != "Relay" || setup.Channel != 11 || setup.MaxClients != 4 {
		t.Errorf("ConfigureAP setup = %+v", setup)
	}
	if setup.Gateway != APGateway {
		t.Errorf("gateway = %v, want %v", setup.Gateway, APGateway)
	}
	if setup.PrefixBits != APPrefixBits {
		t.Errorf("prefix bits = %d, want %d", setup.PrefixBits, APPrefixBits)
	}
}

func TestApplyAccessPointSurfacesDriverError(t *testing.T) {
	drv := &recordingDriver{apErr: errors.New("radio busy")}
	c := NewController(drv, settings.Defaults())

	if err := c.ApplyAccessPoint(); err == nil {
		t.Error("driver failure should be surfaced")
	}
}

func TestApplyUplinkDisconnectsFirst(t *testing.T) {
	store := settings.Defaults()
	store.Uplink.SSID = "Upstream"

	drv := &recordingDriver{}
	c := NewController(drv, store)

	c.ApplyUplink()

	if drv.disconnects != 1 {
		t.Errorf("Disconnect called %d times, want 1", drv.disconnects)
	}
	if len(drv.connects) != 1 || drv.connects[0] != "Upstream" {
		t.Errorf("connects = %v, want [Upstream]", drv.connects)
	}
}

func TestApplyUplinkSwallowsConnectError(t *testing.T) {
	drv := &recordingDriver{connectErr: errors.New("no radio")}
	c := NewController(drv, settings.Defaults())

	// Fire-and-forget: must not panic or surface the error.
	c.ApplyUplink()
}

func TestApplyPowerPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   settings.PowerPolicy
		wantMode settings.PowerMode
		wantLI   int
	}{
		{
			name:     "enabled high",
			policy:   settings.PowerPolicy{Enabled: true, Mode: settings.PowerModeHigh, ListenInterval: 5},
			wantMode: settings.PowerModeHigh,
			wantLI:   5,
		},
		{
			name:     "disabled forces off",
			policy:   settings.PowerPolicy{Enabled: false, Mode: settings.PowerModeHigh, ListenInterval: 5},
			wantMode: settings.PowerModeOff,
			wantLI:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := settings.Defaults()
			store.Power = tt.policy

			drv := &recordingDriver{}
			NewController(drv, store).ApplyPowerPolicy()

			if len(drv.powerCalls) != 1 {
				t.Fatalf("SetPowerSave called %d times, want 1", len(drv.powerCalls))
			}
			got := drv.powerCalls[0]
			if got.Mode != tt.wantMode || got.ListenInterval != tt.wantLI {
				t.Errorf("SetPowerSave = %+v, want mode %v li %d", got, tt.wantMode, tt.wantLI)
			}
		})
	}
}

func TestSimDriverConnectsAfterPolls(t *testing.T) {
	drv := NewSimDriver()
	drv.ConnectAfterPolls = 2

	if err := drv.Connect("Net", ""); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if drv.Metrics().Connected || drv.Metrics().Connected {
		t.Error("link should still be down during the first two polls")
	}
	if !drv.Metrics().Connected {
		t.Error("link should be up on the third poll")
	}

	drv.DropLink()
	if drv.Metrics().Connected {
		t.Error("link should be down after DropLink")
	}
}

func TestSimDriverUnreachable(t *testing.T) {
	drv := NewSimDriver()
	drv.ConnectAfterPolls = 0
	drv.Unreachable = map[string]bool{"Dead": true}

	if err := drv.Connect("Dead", ""); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		if drv.Metrics().Connected {
			t.Fatal("unreachable SSID should never connect")
		}
	}
}
