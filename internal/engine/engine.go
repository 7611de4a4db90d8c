package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/radio"
	"github.com/muurk/wifirelay/internal/reconcile"
	"github.com/muurk/wifirelay/internal/sched"
	"github.com/muurk/wifirelay/internal/settings"
	"github.com/muurk/wifirelay/internal/status"
	"github.com/muurk/wifirelay/internal/supervise"
	"github.com/muurk/wifirelay/internal/sysinfo"
)

const (
	// TickInterval is the cadence of the engine loop.
	TickInterval = time.Second
	// SummaryInterval is how often a status summary is written to the log.
	SummaryInterval = time.Minute
)

// Engine owns all mutable relay state and is its single writer. Raw
// configuration payloads arriving from the control-channel goroutine are
// staged into a single-slot buffer and drained on the next tick, so the
// settings store, radio controller and supervisor are only ever touched
// from the tick goroutine.
type Engine struct {
	store *settings.Store
	rec   *reconcile.Reconciler
	ctrl  *radio.Controller
	sup   *supervise.Supervisor
	pub   *status.Publisher
	clock supervise.Clock

	// Staging buffer. Written by the control-channel goroutine, drained
	// only by Tick. A second write before the next tick replaces the
	// first: the control channel carries full intent per message, so
	// latest wins.
	mu        sync.Mutex
	staged    []byte
	peerEvent bool

	// Tick-goroutine state.
	linkEvent   bool
	lastSummary time.Time
}

// New wires an engine over the given radio driver and status notifier.
// A nil clock selects the system clock.
func New(store *settings.Store, driver radio.Driver, notifier status.Notifier, sys sysinfo.Provider, clock supervise.Clock) *Engine {
	if clock == nil {
		clock = supervise.SystemClock()
	}

	e := &Engine{
		store: store,
		clock: clock,
	}
	e.rec = reconcile.New(store)
	e.ctrl = radio.NewController(driver, store)
	e.sup = supervise.New(e.ctrl, clock, e)
	e.pub = status.NewPublisher(store, e.ctrl, e.sup, sys, notifier)
	return e
}

// Supervisor exposes the connection supervisor (read-only use).
func (e *Engine) Supervisor() *supervise.Supervisor {
	return e.sup
}

// StageConfig accepts a raw configuration payload from the control
// channel. It only stores the payload; validation and application happen
// on the next tick. Safe to call from any goroutine.
func (e *Engine) StageConfig(payload []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.staged != nil {
		logging.Debug("Replacing staged configuration payload")
	}
	e.staged = append([]byte(nil), payload...)
}

// NotifyPeerAttached records that a control-channel peer attached. The
// next tick emits a status snapshot for it. Safe to call from any
// goroutine.
func (e *Engine) NotifyPeerAttached() {
	e.mu.Lock()
	e.peerEvent = true
	e.mu.Unlock()
}

// UplinkStateChanged implements supervise.Observer. It runs on the tick
// goroutine (the supervisor is only driven from Tick).
func (e *Engine) UplinkStateChanged(state supervise.State) {
	e.linkEvent = true
}

// Start applies the boot configuration to the radio. The initial uplink
// connect is left to the first tick so it runs under the supervisor.
func (e *Engine) Start() {
	if err := e.ctrl.ApplyAccessPoint(); err != nil {
		// Unrecoverable without operator action; the daemon stays up
		// so the control channel remains reachable.
		logging.Error("Initial access point setup failed", zap.Error(err))
	}
	e.ctrl.ApplyPowerPolicy()
}

// Tick runs one engine iteration: drain and apply any staged
// configuration, poll the uplink supervisor, and give the status
// publisher a chance to emit.
func (e *Engine) Tick(now time.Time) {
	event := e.applyStaged()

	e.sup.Tick()
	if e.linkEvent {
		e.linkEvent = false
		event = true
	}

	e.pub.MaybeEmit(now, event)

	if e.lastSummary.IsZero() || now.Sub(e.lastSummary) >= SummaryInterval {
		e.lastSummary = now
		e.pub.LogSummary()
	}
}

// applyStaged drains the staging buffer and reconciles it. Returns true
// if the publisher should treat this tick as an event.
func (e *Engine) applyStaged() bool {
	e.mu.Lock()
	payload := e.staged
	e.staged = nil
	peerEvent := e.peerEvent
	e.peerEvent = false
	e.mu.Unlock()

	event := peerEvent
	if payload == nil {
		return event
	}

	res, err := e.rec.Apply(payload)
	if err != nil {
		// Whole message rejected; nothing was mutated.
		logging.Warn("Rejected configuration payload", zap.Error(err))
		return event
	}
	if !res.Changed {
		return event
	}
	event = true

	if res.APChanged {
		if err := e.ctrl.ApplyAccessPoint(); err != nil {
			logging.Error("Access point reconfiguration failed", zap.Error(err))
		}
	}
	if res.PowerChanged {
		e.ctrl.ApplyPowerPolicy()
	}
	if res.CredentialsChanged {
		// New uplink credentials take effect through a supervised
		// reconnect, which bounds the wait and arms the retry gate.
		e.sup.Connect()
	}

	return event
}

// Run drives the engine from a periodic scheduler until the context is
// cancelled. Ticks are delivered through a single-slot channel: a tick
// that fires while the loop is still busy (for example inside a bounded
// connect attempt) is dropped rather than queued.
func (e *Engine) Run(ctx context.Context) error {
	e.Start()

	ticks := make(chan time.Time, 1)
	s := sched.New()
	cancel := s.Every(TickInterval, func() {
		select {
		case ticks <- time.Now():
		default:
		}
	})
	defer cancel()

	s.Start()
	defer s.Stop()

	logging.Info("Engine running", zap.Duration("tick", TickInterval))

	for {
		select {
		case <-ctx.Done():
			logging.Info("Engine stopping")
			return ctx.Err()
		case now := <-ticks:
			e.Tick(now)
		}
	}
}
