package supervise

import (
	"testing"
	"time"

	"github.com/muurk/wifirelay/internal/radio"
	"github.com/muurk/wifirelay/internal/settings"
)

// fakeClock advances time only when asked and records sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// transitionRecorder collects observer notifications.
type transitionRecorder struct {
	transitions []State
}

func (r *transitionRecorder) UplinkStateChanged(state State) {
	r.transitions = append(r.transitions, state)
}

func (r *transitionRecorder) connectedCount() int {
	n := 0
	for _, s := range r.transitions {
		if s == Connected {
			n++
		}
	}
	return n
}

func newTestSupervisor(drv radio.Driver) (*Supervisor, *fakeClock, *transitionRecorder) {
	store := settings.Defaults()
	ctrl := radio.NewController(drv, store)
	clock := newFakeClock()
	rec := &transitionRecorder{}
	return New(ctrl, clock, rec), clock, rec
}

func TestConnectTimesOutAfterBudget(t *testing.T) {
	drv := radio.NewSimDriver()
	drv.Unreachable = map[string]bool{"upstream": true}

	sup, clock, rec := newTestSupervisor(drv)

	sup.Connect()

	if sup.State() != Disconnected {
		t.Errorf("state = %v, want disconnected after timeout", sup.State())
	}
	if len(clock.sleeps) != 20 {
		t.Errorf("polled %d times, want 20", len(clock.sleeps))
	}
	for _, d := range clock.sleeps {
		if d != time.Second {
			t.Fatalf("poll interval = %v, want 1s", d)
		}
	}

	// Connecting then Disconnected, never Connected
	want := []State{Connecting, Disconnected}
	if len(rec.transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", rec.transitions, want)
	}
	for i, s := range want {
		if rec.transitions[i] != s {
			t.Errorf("transition %d = %v, want %v", i, rec.transitions[i], s)
		}
	}
}

func TestConnectSucceedsWithinBudget(t *testing.T) {
	drv := radio.NewSimDriver()
	drv.ConnectAfterPolls = 3

	sup, _, rec := newTestSupervisor(drv)

	sup.Connect()

	if sup.State() != Connected {
		t.Fatalf("state = %v, want connected", sup.State())
	}
	if sup.SignalStrength() != drv.SignalStrength {
		t.Errorf("rssi = %d, want %d", sup.SignalStrength(), drv.SignalStrength)
	}
	if rec.connectedCount() != 1 {
		t.Errorf("connected notifications = %d, want 1", rec.connectedCount())
	}
}

func TestRetryGate(t *testing.T) {
	drv := radio.NewSimDriver()
	drv.Unreachable = map[string]bool{"upstream": true}

	sup, clock, _ := newTestSupervisor(drv)

	// First tick attempts immediately (no prior attempt).
	sup.Tick()
	attempts := len(clock.sleeps)
	if attempts != 20 {
		t.Fatalf("first tick should run a full attempt, polled %d", attempts)
	}

	// Ticks inside the retry window must not attempt again.
	for i := 0; i < 5; i++ {
		clock.advance(time.Second)
		sup.Tick()
	}
	if len(clock.sleeps) != attempts {
		t.Errorf("attempt issued inside retry window")
	}

	// Once the gate elapses a new attempt runs.
	clock.advance(RetryInterval)
	sup.Tick()
	if len(clock.sleeps) != attempts+20 {
		t.Errorf("expected a second attempt after the retry interval")
	}
}

func TestTickObservesLinkLoss(t *testing.T) {
	drv := radio.NewSimDriver()
	drv.ConnectAfterPolls = 0

	sup, clock, rec := newTestSupervisor(drv)

	sup.Connect()
	if sup.State() != Connected {
		t.Fatalf("state = %v, want connected", sup.State())
	}

	// Still connected: tick is a no-op, no duplicate notification.
	sup.Tick()
	if rec.connectedCount() != 1 {
		t.Errorf("connected notifications = %d, want 1 (edge-triggered)", rec.connectedCount())
	}

	// Link drops; next tick must transition and start an attempt
	// because the retry gate measures from the last attempt.
	drv.DropLink()
	drv.Unreachable = map[string]bool{"upstream": true}
	clock.advance(RetryInterval)
	sup.Tick()

	if sup.State() != Disconnected {
		t.Errorf("state = %v, want disconnected", sup.State())
	}
}

func TestTickPicksUpExternallyEstablishedLink(t *testing.T) {
	drv := radio.NewSimDriver()
	drv.ConnectAfterPolls = 0
	if err := drv.Connect("upstream", ""); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	drv.Metrics() // let the sim finish associating

	sup, _, rec := newTestSupervisor(drv)

	sup.Tick()
	if sup.State() != Connected {
		t.Fatalf("state = %v, want connected", sup.State())
	}
	if rec.connectedCount() != 1 {
		t.Errorf("connected notifications = %d, want 1", rec.connectedCount())
	}
}
