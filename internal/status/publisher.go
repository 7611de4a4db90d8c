package status

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/radio"
	"github.com/muurk/wifirelay/internal/settings"
	"github.com/muurk/wifirelay/internal/supervise"
	"github.com/muurk/wifirelay/internal/sysinfo"
)

// EmitInterval is the cadence for periodic status notifications while a
// control-channel peer is attached.
const EmitInterval = 5 * time.Second

// Snapshot is a point-in-time status report. Snapshots are built on demand
// per emission and never stored.
type Snapshot struct {
	PrimaryConnected bool   `json:"primaryConnected"`
	PrimarySSID      string `json:"primarySSID"`
	PrimaryIP        string `json:"primaryIP"`
	PrimaryRSSI      int    `json:"primaryRSSI"`
	APSSID           string `json:"apSSID"`
	APIP             string `json:"apIP"`
	ConnectedClients int    `json:"connectedClients"`
	PowerSaving      bool   `json:"powerSaving"`
	PowerMode        int    `json:"powerMode"`
	ListenInterval   int    `json:"listenInterval"`
	FreeMemory       uint64 `json:"freeMemory"`
	Uptime           int64  `json:"uptime"`
}

// Notifier is the control-channel side of status delivery. Delivery is
// best-effort; Notify errors are logged by the publisher, never escalated.
type Notifier interface {
	// HasPeer reports whether a peer is attached to the control channel.
	HasPeer() bool
	// Notify delivers a status payload to attached peers.
	Notify(payload []byte) error
}

// Publisher builds status snapshots and emits them over the control
// channel on a cadence and on notable transitions.
type Publisher struct {
	store    *settings.Store
	ctrl     *radio.Controller
	sup      *supervise.Supervisor
	sys      sysinfo.Provider
	notifier Notifier

	lastEmit time.Time
}

// NewPublisher creates a publisher over the given collaborators.
func NewPublisher(store *settings.Store, ctrl *radio.Controller, sup *supervise.Supervisor, sys sysinfo.Provider, notifier Notifier) *Publisher {
	return &Publisher{
		store:    store,
		ctrl:     ctrl,
		sup:      sup,
		sys:      sys,
		notifier: notifier,
	}
}

// Snapshot builds a status snapshot from the current settings, link state
// and live radio metrics.
func (p *Publisher) Snapshot() Snapshot {
	m := p.ctrl.Metrics()
	return Snapshot{
		PrimaryConnected: p.sup.State() == supervise.Connected,
		PrimarySSID:      p.store.Uplink.SSID,
		PrimaryIP:        m.StationIP,
		PrimaryRSSI:      p.sup.SignalStrength(),
		APSSID:           p.store.AP.SSID,
		APIP:             m.APIP,
		ConnectedClients: m.ClientCount,
		PowerSaving:      p.store.Power.Enabled,
		PowerMode:        int(p.store.Power.Mode),
		ListenInterval:   p.store.Power.ListenInterval,
		FreeMemory:       p.sys.FreeMemory(),
		Uptime:           p.sys.Uptime(),
	}
}

// MaybeEmit emits a status notification if a peer is attached and either
// the cadence has elapsed or the caller signals an explicit event
// (configuration change or link transition). With no peer attached the
// snapshot is not even computed.
func (p *Publisher) MaybeEmit(now time.Time, event bool) {
	if !p.notifier.HasPeer() {
		return
	}
	if !event && !p.lastEmit.IsZero() && now.Sub(p.lastEmit) <= EmitInterval {
		return
	}
	p.emit(now)
}

func (p *Publisher) emit(now time.Time) {
	snap := p.Snapshot()
	payload, err := json.Marshal(snap)
	if err != nil {
		logging.Error("Failed to encode status snapshot", zap.Error(err))
		return
	}

	if err := p.notifier.Notify(payload); err != nil {
		// Best-effort delivery; the transport owns its guarantees.
		logging.Debug("Status notification not delivered", zap.Error(err))
	}
	p.lastEmit = now
}

// LogSummary writes a human-readable status line to the log. The engine
// calls this on a slow cadence independent of peer attachment.
func (p *Publisher) LogSummary() {
	snap := p.Snapshot()
	logging.Info("Status summary",
		zap.Bool("uplink_connected", snap.PrimaryConnected),
		zap.String("uplink_ssid", snap.PrimarySSID),
		zap.Int("rssi", snap.PrimaryRSSI),
		zap.String("ap_ssid", snap.APSSID),
		zap.Int("clients", snap.ConnectedClients),
		zap.Bool("power_saving", snap.PowerSaving),
		zap.Int64("uptime_s", snap.Uptime),
	)
}
