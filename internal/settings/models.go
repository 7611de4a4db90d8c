package settings

// Range limits for remotely configurable fields. Values outside these
// ranges are rejected field-by-field during reconciliation.
const (
	MinChannel        = 1
	MaxChannel        = 13
	MinClients        = 1
	MaxClients        = 10
	MinListenInterval = 1
	MaxListenInterval = 10
)

// PowerMode selects how aggressively the radio trades latency for
// energy savings while associated to the uplink.
type PowerMode int

const (
	// PowerModeOff disables modem sleep entirely.
	PowerModeOff PowerMode = iota
	// PowerModeLow wakes for every beacon (minimum modem sleep).
	PowerModeLow
	// PowerModeHigh sleeps through beacons up to the listen interval.
	PowerModeHigh
)

// String returns a human-readable name for the power mode
func (m PowerMode) String() string {
	switch m {
	case PowerModeOff:
		return "off"
	case PowerModeLow:
		return "low"
	case PowerModeHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ValidPowerMode reports whether n maps to a defined power mode.
func ValidPowerMode(n int) bool {
	return n >= int(PowerModeOff) && n <= int(PowerModeHigh)
}

// ValidChannel reports whether n is a usable AP channel.
func ValidChannel(n int) bool {
	return n >= MinChannel && n <= MaxChannel
}

// ValidMaxClients reports whether n is a usable AP client cap.
func ValidMaxClients(n int) bool {
	return n >= MinClients && n <= MaxClients
}

// ValidListenInterval reports whether n is a usable beacon listen interval.
func ValidListenInterval(n int) bool {
	return n >= MinListenInterval && n <= MaxListenInterval
}

// UplinkCredentials identifies the upstream network the station
// interface joins. Passphrase may be empty for open networks.
type UplinkCredentials struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

// AccessPointConfig describes the local network offered to relayed clients.
type AccessPointConfig struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
	Channel    int    `yaml:"channel"`     // 1-13
	MaxClients int    `yaml:"max_clients"` // 1-10
}

// PowerPolicy describes the radio power-save configuration.
// ListenInterval is only meaningful while Enabled is true.
type PowerPolicy struct {
	Enabled        bool      `yaml:"enabled"`
	Mode           PowerMode `yaml:"mode"`
	ListenInterval int       `yaml:"listen_interval"` // 1-10
}

// Store holds the current validated configuration. It is created once at
// startup and mutated only by the reconciler, on the engine tick goroutine.
// Readers and the single writer share that goroutine, so no locking is
// required once the staging discipline in internal/engine is observed.
type Store struct {
	Uplink UplinkCredentials `yaml:"uplink"`
	AP     AccessPointConfig `yaml:"access_point"`
	Power  PowerPolicy       `yaml:"power"`
}

// Defaults returns a Store populated with the factory configuration.
func Defaults() *Store {
	return &Store{
		Uplink: UplinkCredentials{
			SSID: "upstream",
		},
		AP: AccessPointConfig{
			SSID:       "wifirelay",
			Channel:    7,
			MaxClients: 8,
		},
		Power: PowerPolicy{
			Enabled:        true,
			Mode:           PowerModeLow,
			ListenInterval: 3,
		},
	}
}
