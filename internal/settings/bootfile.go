package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// bootFile is the on-disk shape of the boot configuration. Every field is
// optional; absent fields keep their factory default. Runtime changes made
// over the control channel are deliberately never written back here.
type bootFile struct {
	Version int `yaml:"version"`
	Uplink  *struct {
		SSID       *string `yaml:"ssid"`
		Passphrase *string `yaml:"passphrase"`
	} `yaml:"uplink,omitempty"`
	AP *struct {
		SSID       *string `yaml:"ssid"`
		Passphrase *string `yaml:"passphrase"`
		Channel    *int    `yaml:"channel"`
		MaxClients *int    `yaml:"max_clients"`
	} `yaml:"access_point,omitempty"`
	Power *struct {
		Enabled        *bool `yaml:"enabled"`
		Mode           *int  `yaml:"mode"`
		ListenInterval *int  `yaml:"listen_interval"`
	} `yaml:"power,omitempty"`
}

// LoadFile reads a boot configuration file and applies it over the factory
// defaults. Fields failing their range check are rejected with an error:
// unlike control-channel updates, a bad boot file is an operator mistake
// that should be surfaced, not silently repaired.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boot config: %w", err)
	}

	var bf bootFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("failed to parse boot config: %w", err)
	}

	if bf.Version != 1 {
		return nil, fmt.Errorf("unsupported boot config version: %d (expected 1)", bf.Version)
	}

	store := Defaults()

	if bf.Uplink != nil {
		if bf.Uplink.SSID != nil {
			if *bf.Uplink.SSID == "" {
				return nil, fmt.Errorf("uplink ssid cannot be empty")
			}
			store.Uplink.SSID = *bf.Uplink.SSID
		}
		if bf.Uplink.Passphrase != nil {
			store.Uplink.Passphrase = *bf.Uplink.Passphrase
		}
	}

	if bf.AP != nil {
		if bf.AP.SSID != nil {
			if *bf.AP.SSID == "" {
				return nil, fmt.Errorf("access point ssid cannot be empty")
			}
			store.AP.SSID = *bf.AP.SSID
		}
		if bf.AP.Passphrase != nil {
			store.AP.Passphrase = *bf.AP.Passphrase
		}
		if bf.AP.Channel != nil {
			if !ValidChannel(*bf.AP.Channel) {
				return nil, fmt.Errorf("access point channel must be %d-%d, got %d", MinChannel, MaxChannel, *bf.AP.Channel)
			}
			store.AP.Channel = *bf.AP.Channel
		}
		if bf.AP.MaxClients != nil {
			if !ValidMaxClients(*bf.AP.MaxClients) {
				return nil, fmt.Errorf("access point max_clients must be %d-%d, got %d", MinClients, MaxClients, *bf.AP.MaxClients)
			}
			store.AP.MaxClients = *bf.AP.MaxClients
		}
	}

	if bf.Power != nil {
		if bf.Power.Enabled != nil {
			store.Power.Enabled = *bf.Power.Enabled
		}
		if bf.Power.Mode != nil {
			if !ValidPowerMode(*bf.Power.Mode) {
				return nil, fmt.Errorf("power mode must be 0-2, got %d", *bf.Power.Mode)
			}
			store.Power.Mode = PowerMode(*bf.Power.Mode)
		}
		if bf.Power.ListenInterval != nil {
			if !ValidListenInterval(*bf.Power.ListenInterval) {
				return nil, fmt.Errorf("power listen_interval must be %d-%d, got %d", MinListenInterval, MaxListenInterval, *bf.Power.ListenInterval)
			}
			store.Power.ListenInterval = *bf.Power.ListenInterval
		}
	}

	return store, nil
}

// LoadFileOrDefaults loads the boot configuration if path is non-empty,
// otherwise returns the factory defaults.
func LoadFileOrDefaults(path string) (*Store, error) {
	if path == "" {
		return Defaults(), nil
	}
	return LoadFile(path)
}
