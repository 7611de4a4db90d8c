package status

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/muurk/wifirelay/internal/radio"
	"github.com/muurk/wifirelay/internal/settings"
	"github.com/muurk/wifirelay/internal/supervise"
)

// fakeNotifier records notifications and simulates peer presence.
type fakeNotifier struct {
	peer     bool
	payloads [][]byte
	err      error
}

func (n *fakeNotifier) HasPeer() bool { return n.peer }

func (n *fakeNotifier) Notify(payload []byte) error {
	n.payloads = append(n.payloads, payload)
	return n.err
}

// fakeSysinfo returns fixed metrics.
type fakeSysinfo struct{}

func (fakeSysinfo) FreeMemory() uint64 { return 123456 }
func (fakeSysinfo) Uptime() int64      { return 42 }

func newTestPublisher(notifier Notifier) (*Publisher, *radio.SimDriver, *settings.Store) {
	store := settings.Defaults()
	drv := radio.NewSimDriver()
	ctrl := radio.NewController(drv, store)
	sup := supervise.New(ctrl, nil, nil)
	return NewPublisher(store, ctrl, sup, fakeSysinfo{}, notifier), drv, store
}

func TestMaybeEmitNoPeer(t *testing.T) {
	n := &fakeNotifier{peer: false}
	p, _, _ := newTestPublisher(n)

	p.MaybeEmit(time.Now(), true)

	if len(n.payloads) != 0 {
		t.Errorf("emitted %d payloads with no peer, want 0", len(n.payloads))
	}
}

func TestMaybeEmitCadence(t *testing.T) {
	n := &fakeNotifier{peer: true}
	p, _, _ := newTestPublisher(n)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p.MaybeEmit(now, false) // first emission always fires
	p.MaybeEmit(now.Add(2*time.Second), false)
	p.MaybeEmit(now.Add(4*time.Second), false)
	if len(n.payloads) != 1 {
		t.Fatalf("emitted %d payloads inside cadence window, want 1", len(n.payloads))
	}

	p.MaybeEmit(now.Add(6*time.Second), false)
	if len(n.payloads) != 2 {
		t.Errorf("emitted %d payloads after cadence elapsed, want 2", len(n.payloads))
	}
}

func TestMaybeEmitEventBypassesCadence(t *testing.T) {
	n := &fakeNotifier{peer: true}
	p, _, _ := newTestPublisher(n)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p.MaybeEmit(now, false)
	p.MaybeEmit(now.Add(time.Second), true)

	if len(n.payloads) != 2 {
		t.Errorf("emitted %d payloads, want 2 (event bypasses cadence)", len(n.payloads))
	}
}

func TestMaybeEmitSwallowsDeliveryError(t *testing.T) {
	n := &fakeNotifier{peer: true, err: errors.New("peer gone")}
	p, _, _ := newTestPublisher(n)

	// Must not panic or surface the error.
	p.MaybeEmit(time.Now(), true)
}

func TestSnapshotContents(t *testing.T) {
	n := &fakeNotifier{peer: true}
	p, drv, store := newTestPublisher(n)

	store.Uplink.SSID = "Upstream"
	store.AP.SSID = "Relay"
	store.Power.Enabled = true
	store.Power.Mode = settings.PowerModeHigh
	store.Power.ListenInterval = 5
	drv.SetClientCount(3)

	p.MaybeEmit(time.Now(), true)
	if len(n.payloads) != 1 {
		t.Fatalf("emitted %d payloads, want 1", len(n.payloads))
	}

	var snap Snapshot
	if err := json.Unmarshal(n.payloads[0], &snap); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}

	if snap.PrimaryConnected {
		t.Error("primaryConnected should be false before any connect")
	}
	if snap.PrimarySSID != "Upstream" || snap.APSSID != "Relay" {
		t.Errorf("snapshot ssids = %q/%q", snap.PrimarySSID, snap.APSSID)
	}
	if snap.ConnectedClients != 3 {
		t.Errorf("connectedClients = %d, want 3", snap.ConnectedClients)
	}
	if !snap.PowerSaving || snap.PowerMode != 2 || snap.ListenInterval != 5 {
		t.Errorf("power fields = %v/%d/%d", snap.PowerSaving, snap.PowerMode, snap.ListenInterval)
	}
	if snap.FreeMemory != 123456 || snap.Uptime != 42 {
		t.Errorf("system fields = %d/%d", snap.FreeMemory, snap.Uptime)
	}
}
