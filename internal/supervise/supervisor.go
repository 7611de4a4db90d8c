package supervise

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/radio"
)

// State is the uplink link state tracked by the supervisor.
type State int

const (
	// Disconnected means the station interface is not associated.
	Disconnected State = iota
	// Connecting means a bounded connect attempt is in progress.
	Connecting
	// Connected means the uplink is up.
	Connected
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

const (
	// connectPollInterval is how often link state is polled during a
	// bounded connect attempt.
	connectPollInterval = time.Second
	// connectPollBudget bounds a connect attempt to this many polls,
	// guaranteeing a worst-case settling time.
	connectPollBudget = 20
	// RetryInterval gates reconnect attempts after a failure so a
	// persistently unreachable upstream is not busy-retried.
	RetryInterval = 30 * time.Second
)

// Observer is notified on uplink state transitions. Notifications are
// edge-triggered: a tick that observes an unchanged state produces none.
type Observer interface {
	UplinkStateChanged(state State)
}

// Supervisor tracks the uplink link state over time, drives bounded
// connection attempts, and gates retries. It runs entirely on the engine
// tick goroutine; the only blocking operation is the bounded connect.
type Supervisor struct {
	ctrl     *radio.Controller
	clock    Clock
	observer Observer

	state       State
	lastAttempt time.Time
	rssi        int
}

// New creates a supervisor in the Disconnected state.
func New(ctrl *radio.Controller, clock Clock, observer Observer) *Supervisor {
	if clock == nil {
		clock = SystemClock()
	}
	return &Supervisor{
		ctrl:     ctrl,
		clock:    clock,
		observer: observer,
	}
}

// State returns the current link state.
func (s *Supervisor) State() State {
	return s.state
}

// SignalStrength returns the last observed uplink RSSI in dBm.
func (s *Supervisor) SignalStrength() int {
	return s.rssi
}

// Tick polls the link once and advances the state machine. It may block
// for up to the connect budget when it decides to attempt a connection.
func (s *Supervisor) Tick() {
	m := s.ctrl.Metrics()

	if m.Connected {
		s.rssi = m.RSSI
		if s.state != Connected {
			// Edge into connected observed outside an attempt
			// (e.g. driver finished associating between ticks).
			s.transition(Connected)
		}
		return
	}

	if s.state == Connected {
		logging.Warn("Uplink connection lost")
		s.transition(Disconnected)
	}

	if s.shouldAttempt() {
		s.Connect()
	}
}

// shouldAttempt reports whether a reconnect is due: the link is down and
// either no attempt has been made yet or the retry gate has elapsed.
func (s *Supervisor) shouldAttempt() bool {
	if s.state != Disconnected {
		return false
	}
	if s.lastAttempt.IsZero() {
		return true
	}
	return s.clock.Now().Sub(s.lastAttempt) >= RetryInterval
}

// Connect performs a bounded connection attempt: issue the uplink connect,
// then poll link state once per second for up to the poll budget. Success
// transitions to Connected; exhausting the budget transitions back to
// Disconnected and arms the retry gate.
func (s *Supervisor) Connect() {
	s.transition(Connecting)
	s.ctrl.ApplyUplink()

	for i := 0; i < connectPollBudget; i++ {
		s.clock.Sleep(connectPollInterval)
		m := s.ctrl.Metrics()
		if m.Connected {
			s.rssi = m.RSSI
			s.lastAttempt = s.clock.Now()
			s.transition(Connected)
			logging.Info("Uplink connected",
				zap.String("station_ip", m.StationIP),
				zap.Int("rssi", m.RSSI),
			)
			return
		}
	}

	s.lastAttempt = s.clock.Now()
	s.transition(Disconnected)
	logging.Warn("Uplink connect attempt timed out, will retry",
		zap.Duration("retry_in", RetryInterval),
	)
}

func (s *Supervisor) transition(to State) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	logging.Debug("Uplink state transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	if s.observer != nil {
		s.observer.UplinkStateChanged(to)
	}
}
