package radio

import (
	"sync"
)

// SimDriver is an in-memory radio driver for development and tests. It
// associates to any uplink after a configurable number of metric polls,
// unless the SSID is listed as unreachable.
type SimDriver struct {
	mu sync.Mutex

	// ConnectAfterPolls is how many Metrics() reads a pending connect
	// takes before the link reports connected. Zero connects immediately.
	ConnectAfterPolls int
	// Unreachable lists SSIDs that never come up.
	Unreachable map[string]bool
	// SignalStrength is the RSSI reported while connected.
	SignalStrength int

	ap         *AccessPointSetup
	power      *PowerSaveSetting
	ssid       string
	connecting bool
	connected  bool
	pollsLeft  int
	clients    int
}

// NewSimDriver creates a simulated driver that connects after two polls
// and reports a plausible signal strength.
func NewSimDriver() *SimDriver {
	return &SimDriver{
		ConnectAfterPolls: 2,
		SignalStrength:    -58,
	}
}

// ConfigureAP records the AP setup.
func (d *SimDriver) ConfigureAP(setup AccessPointSetup) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ap = &setup
	return nil
}

// Connect starts a simulated association attempt.
func (d *SimDriver) Connect(ssid, passphrase string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ssid = ssid
	d.connected = false
	d.connecting = !d.Unreachable[ssid]
	d.pollsLeft = d.ConnectAfterPolls
	return nil
}

// Disconnect drops the simulated link.
func (d *SimDriver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	d.connecting = false
	return nil
}

// SetPowerSave records the power-save setting.
func (d *SimDriver) SetPowerSave(ps PowerSaveSetting) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.power = &ps
	return nil
}

// Metrics advances a pending connect and reports the simulated link state.
func (d *SimDriver) Metrics() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connecting {
		if d.pollsLeft > 0 {
			d.pollsLeft--
		} else {
			d.connecting = false
			d.connected = true
		}
	}

	m := Metrics{
		Connected:   d.connected,
		ClientCount: d.clients,
	}
	if d.ap != nil {
		m.APIP = d.ap.Gateway.String()
	}
	if d.connected {
		m.RSSI = d.SignalStrength
		m.StationIP = "192.168.1.50"
	}
	return m
}

// DropLink simulates uplink loss (e.g. the upstream AP going away).
func (d *SimDriver) DropLink() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	d.connecting = false
}

// SetClientCount sets the number of simulated associated clients.
func (d *SimDriver) SetClientCount(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients = n
}

// PowerSave returns the last power-save setting pushed to the driver.
func (d *SimDriver) PowerSave() *PowerSaveSetting {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.power
}

// AccessPoint returns the last AP setup pushed to the driver.
func (d *SimDriver) AccessPoint() *AccessPointSetup {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ap
}
