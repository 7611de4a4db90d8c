package reconcile

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/settings"
)

// Result reports what a reconciliation pass changed. The category flags let
// the caller apply only the radio operations that are actually affected.
type Result struct {
	// Changed is true if any field was accepted with a new value.
	Changed bool
	// CredentialsChanged is true if the uplink credential pair was replaced.
	// The caller is expected to trigger a supervised reconnect.
	CredentialsChanged bool
	// APChanged is true if any access point parameter was accepted.
	APChanged bool
	// PowerChanged is true if any power policy parameter was accepted.
	PowerChanged bool
}

// payload is the recognized shape of a control-channel configuration write.
// Pointer fields distinguish "absent" from zero values; unrecognized keys
// are ignored by encoding/json.
type payload struct {
	PrimarySSID    *string `json:"primarySSID"`
	PrimaryPass    *string `json:"primaryPass"`
	APSSID         *string `json:"apSSID"`
	APPass         *string `json:"apPass"`
	Channel        *int    `json:"channel"`
	MaxClients     *int    `json:"maxClients"`
	PowerSaving    *bool   `json:"powerSaving"`
	PowerMode      *int    `json:"powerMode"`
	ListenInterval *int    `json:"listenInterval"`
}

// Reconciler validates raw configuration payloads field by field and merges
// accepted fields into the settings store. It never touches the radio;
// applying the merged configuration is the caller's responsibility.
type Reconciler struct {
	store *settings.Store
}

// New creates a reconciler bound to the given settings store.
func New(store *settings.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Apply parses a raw payload and merges it into the store.
//
// A payload that fails to parse rejects the whole message and leaves the
// store untouched. On a successful parse each recognized key is evaluated
// independently: in-range values replace the current setting, out-of-range
// values are dropped with their prior value retained, absent keys are left
// alone. Uplink and AP credentials are only replaced when both halves of
// the pair are present together.
func (r *Reconciler) Apply(raw []byte) (Result, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Result{}, fmt.Errorf("failed to parse configuration payload: %w", err)
	}

	var res Result

	// Uplink credentials are replaced wholesale, never half a pair.
	if p.PrimarySSID != nil && p.PrimaryPass != nil {
		if *p.PrimarySSID == "" {
			logging.Warn("Rejecting empty uplink SSID")
		} else if *p.PrimarySSID != r.store.Uplink.SSID || *p.PrimaryPass != r.store.Uplink.Passphrase {
			r.store.Uplink.SSID = *p.PrimarySSID
			r.store.Uplink.Passphrase = *p.PrimaryPass
			res.Changed = true
			res.CredentialsChanged = true
			logging.Info("Uplink credentials updated", zap.String("ssid", *p.PrimarySSID))
		}
	} else if p.PrimarySSID != nil || p.PrimaryPass != nil {
		logging.Warn("Ignoring partial uplink credential update")
	}

	if p.APSSID != nil && p.APPass != nil {
		if *p.APSSID == "" {
			logging.Warn("Rejecting empty AP SSID")
		} else if *p.APSSID != r.store.AP.SSID || *p.APPass != r.store.AP.Passphrase {
			r.store.AP.SSID = *p.APSSID
			r.store.AP.Passphrase = *p.APPass
			res.Changed = true
			res.APChanged = true
			logging.Info("AP credentials updated", zap.String("ssid", *p.APSSID))
		}
	} else if p.APSSID != nil || p.APPass != nil {
		logging.Warn("Ignoring partial AP credential update")
	}

	if p.Channel != nil {
		switch {
		case !settings.ValidChannel(*p.Channel):
			logging.Warn("Rejecting out-of-range AP channel", zap.Int("channel", *p.Channel))
		case *p.Channel != r.store.AP.Channel:
			r.store.AP.Channel = *p.Channel
			res.Changed = true
			res.APChanged = true
			logging.Info("AP channel updated", zap.Int("channel", *p.Channel))
		}
	}

	if p.MaxClients != nil {
		switch {
		case !settings.ValidMaxClients(*p.MaxClients):
			logging.Warn("Rejecting out-of-range max clients", zap.Int("max_clients", *p.MaxClients))
		case *p.MaxClients != r.store.AP.MaxClients:
			r.store.AP.MaxClients = *p.MaxClients
			res.Changed = true
			res.APChanged = true
			logging.Info("AP max clients updated", zap.Int("max_clients", *p.MaxClients))
		}
	}

	if p.PowerSaving != nil && *p.PowerSaving != r.store.Power.Enabled {
		r.store.Power.Enabled = *p.PowerSaving
		res.Changed = true
		res.PowerChanged = true
		logging.Info("Power saving toggled", zap.Bool("enabled", *p.PowerSaving))
	}

	if p.PowerMode != nil {
		switch {
		case !settings.ValidPowerMode(*p.PowerMode):
			logging.Warn("Rejecting unknown power mode", zap.Int("mode", *p.PowerMode))
		case settings.PowerMode(*p.PowerMode) != r.store.Power.Mode:
			r.store.Power.Mode = settings.PowerMode(*p.PowerMode)
			res.Changed = true
			res.PowerChanged = true
			logging.Info("Power mode updated", zap.Stringer("mode", r.store.Power.Mode))
		}
	}

	if p.ListenInterval != nil {
		switch {
		case !settings.ValidListenInterval(*p.ListenInterval):
			logging.Warn("Rejecting out-of-range listen interval", zap.Int("listen_interval", *p.ListenInterval))
		case *p.ListenInterval != r.store.Power.ListenInterval:
			r.store.Power.ListenInterval = *p.ListenInterval
			res.Changed = true
			res.PowerChanged = true
			logging.Info("Listen interval updated", zap.Int("listen_interval", *p.ListenInterval))
		}
	}

	return res, nil
}
