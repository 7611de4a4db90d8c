package engine

import (
	"testing"
	"time"

	"github.com/muurk/wifirelay/internal/radio"
	"github.com/muurk/wifirelay/internal/settings"
	"github.com/muurk/wifirelay/internal/supervise"
)

// recordingDriver is always-connected and counts apply calls.
type recordingDriver struct {
	apCalls    int
	powerCalls int
	connects   int
	connected  bool
}

func (d *recordingDriver) ConfigureAP(radio.AccessPointSetup) error { d.apCalls++; return nil }
func (d *recordingDriver) Connect(ssid, pass string) error {
	d.connects++
	d.connected = true
	return nil
}
func (d *recordingDriver) Disconnect() error                         { d.connected = false; return nil }
func (d *recordingDriver) SetPowerSave(radio.PowerSaveSetting) error { d.powerCalls++; return nil }
func (d *recordingDriver) Metrics() radio.Metrics {
	return radio.Metrics{Connected: d.connected, RSSI: -60}
}

type fakeNotifier struct {
	peer     bool
	payloads [][]byte
}

func (n *fakeNotifier) HasPeer() bool         { return n.peer }
func (n *fakeNotifier) Notify(p []byte) error { n.payloads = append(n.payloads, p); return nil }

type fakeSysinfo struct{}

func (fakeSysinfo) FreeMemory() uint64 { return 1 << 20 }
func (fakeSysinfo) Uptime() int64      { return 7 }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Sleep(d time.Duration)   { c.now = c.now.Add(d) }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(drv radio.Driver, notifier *fakeNotifier) (*Engine, *settings.Store, *fakeClock) {
	store := settings.Defaults()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(store, drv, notifier, fakeSysinfo{}, clock), store, clock
}

func TestEndToEndConfigUpdate(t *testing.T) {
	drv := &recordingDriver{connected: true}
	notifier := &fakeNotifier{peer: false}
	e, store, clock := newTestEngine(drv, notifier)

	e.Start()
	baseline := drv.apCalls

	// Valid channel update with no peer attached.
	e.StageConfig([]byte(`{"channel":5}`))
	e.Tick(clock.Now())

	if store.AP.Channel != 5 {
		t.Errorf("channel = %d, want 5", store.AP.Channel)
	}
	if drv.apCalls != baseline+1 {
		t.Errorf("ConfigureAP called %d times for the update, want 1", drv.apCalls-baseline)
	}
	if len(notifier.payloads) != 0 {
		t.Errorf("emitted %d payloads with no peer, want 0", len(notifier.payloads))
	}

	// Out-of-range channel leaves the accepted value intact.
	clock.advance(time.Second)
	e.StageConfig([]byte(`{"channel":99}`))
	e.Tick(clock.Now())

	if store.AP.Channel != 5 {
		t.Errorf("channel = %d, want 5 after rejected update", store.AP.Channel)
	}
	if drv.apCalls != baseline+1 {
		t.Errorf("rejected update must not reconfigure the AP")
	}
}

func TestIdenticalPayloadIsIdempotent(t *testing.T) {
	drv := &recordingDriver{connected: true}
	e, _, clock := newTestEngine(drv, &fakeNotifier{})

	e.Start()

	e.StageConfig([]byte(`{"channel":5,"powerMode":2}`))
	e.Tick(clock.Now())
	apCalls, powerCalls := drv.apCalls, drv.powerCalls

	clock.advance(time.Second)
	e.StageConfig([]byte(`{"channel":5,"powerMode":2}`))
	e.Tick(clock.Now())

	if drv.apCalls != apCalls || drv.powerCalls != powerCalls {
		t.Errorf("identical payload triggered radio reconfiguration (ap %d->%d, power %d->%d)",
			apCalls, drv.apCalls, powerCalls, drv.powerCalls)
	}
}

func TestStagingBufferLatestWins(t *testing.T) {
	drv := &recordingDriver{connected: true}
	e, store, clock := newTestEngine(drv, &fakeNotifier{})

	e.StageConfig([]byte(`{"channel":5}`))
	e.StageConfig([]byte(`{"channel":9}`))
	e.Tick(clock.Now())

	if store.AP.Channel != 9 {
		t.Errorf("channel = %d, want 9 (latest staged payload wins)", store.AP.Channel)
	}
}

func TestMalformedPayloadLeavesStoreUntouched(t *testing.T) {
	drv := &recordingDriver{connected: true}
	e, store, clock := newTestEngine(drv, &fakeNotifier{})

	e.Start()
	baseline := drv.apCalls

	e.StageConfig([]byte(`{"channel":`))
	e.Tick(clock.Now())

	if store.AP.Channel != 7 {
		t.Errorf("channel = %d, want default 7", store.AP.Channel)
	}
	if drv.apCalls != baseline {
		t.Errorf("malformed payload must not reconfigure the AP")
	}
}

func TestCredentialChangeTriggersReconnect(t *testing.T) {
	drv := &recordingDriver{connected: true}
	e, store, clock := newTestEngine(drv, &fakeNotifier{})

	// Establish the connected state first.
	e.Tick(clock.Now())
	if e.Supervisor().State() != supervise.Connected {
		t.Fatalf("state = %v, want connected", e.Supervisor().State())
	}
	baseline := drv.connects

	clock.advance(time.Second)
	e.StageConfig([]byte(`{"primarySSID":"Other","primaryPass":"pw"}`))
	e.Tick(clock.Now())

	if store.Uplink.SSID != "Other" {
		t.Errorf("uplink ssid = %q, want Other", store.Uplink.SSID)
	}
	if drv.connects != baseline+1 {
		t.Errorf("connects = %d, want %d (supervised reconnect)", drv.connects, baseline+1)
	}
	if e.Supervisor().State() != supervise.Connected {
		t.Errorf("state = %v, want connected after reconnect", e.Supervisor().State())
	}
}

func TestLinkTransitionEmitsOnce(t *testing.T) {
	drv := &recordingDriver{connected: true}
	notifier := &fakeNotifier{peer: true}
	e, _, clock := newTestEngine(drv, notifier)

	// First tick observes the connected edge and emits.
	e.Tick(clock.Now())
	if len(notifier.payloads) != 1 {
		t.Fatalf("emitted %d payloads on transition, want 1", len(notifier.payloads))
	}

	// Second tick observes the same state: no transition event, and the
	// cadence window has not elapsed.
	clock.advance(time.Second)
	e.Tick(clock.Now())
	if len(notifier.payloads) != 1 {
		t.Errorf("emitted %d payloads, want 1 (edge-triggered)", len(notifier.payloads))
	}
}

func TestPeerAttachEmitsSnapshot(t *testing.T) {
	drv := &recordingDriver{connected: true}
	notifier := &fakeNotifier{peer: true}
	e, _, clock := newTestEngine(drv, notifier)

	// Consume the initial connected transition.
	e.Tick(clock.Now())
	emitted := len(notifier.payloads)

	clock.advance(time.Second)
	e.NotifyPeerAttached()
	e.Tick(clock.Now())

	if len(notifier.payloads) != emitted+1 {
		t.Errorf("emitted %d payloads after peer attach, want %d", len(notifier.payloads), emitted+1)
	}
}
