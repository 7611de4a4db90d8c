package radio

import (
	"net/netip"

	"github.com/muurk/wifirelay/internal/settings"
)

// Fixed addressing for the local access point subnet. These are compiled-in
// constants, not remotely configurable.
var (
	// APGateway is the gateway address handed to relayed clients.
	APGateway = netip.MustParseAddr("192.168.4.1")
	// APPrefixBits is the subnet size of the AP network (/24).
	APPrefixBits = 24
)

// AccessPointSetup is everything the driver needs to (re)start the local AP.
type AccessPointSetup struct {
	SSID       string
	Passphrase string
	Channel    int
	MaxClients int
	Gateway    netip.Addr
	PrefixBits int
}

// PowerSaveSetting is the driver-level power-save request.
type PowerSaveSetting struct {
	Mode           settings.PowerMode
	ListenInterval int
}

// Metrics is a point-in-time read of the radio link state.
type Metrics struct {
	// Connected reports whether the station interface is associated
	// to the uplink network.
	Connected bool
	// RSSI is the last observed uplink signal strength in dBm.
	RSSI int
	// StationIP is the address obtained on the uplink network.
	StationIP string
	// APIP is the local address of the access point interface.
	APIP string
	// ClientCount is the number of stations associated to the local AP.
	ClientCount int
}

// Driver is the boundary to the radio subsystem. Implementations wrap the
// platform's wireless stack; the rest of the system treats them as a black
// box that accepts parameters and reports link metrics.
//
// Connect begins association and returns immediately; completion is
// observed through Metrics by the connection supervisor.
type Driver interface {
	ConfigureAP(setup AccessPointSetup) error
	Connect(ssid, passphrase string) error
	Disconnect() error
	SetPowerSave(ps PowerSaveSetting) error
	Metrics() Metrics
}
