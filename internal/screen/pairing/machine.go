// Package pairing drives an unpaired screen from PIN issuance to an authenticated session.
package pairing

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/clock"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/loop"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/scheduler"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/stream"
)

const (
	// MaxAutoAttempts is how many expired PINs are replaced automatically.
	MaxAutoAttempts = 2
	PinLifetime     = 5 * time.Minute
)

type State int

const (
	Unpaired State = iota
	AwaitingPin
	PinDisplayed
	Completing
	Authenticated
	StaleSession
	Failed
)

func (s State) String() string {
	switch s {
	case Unpaired:
		return "unpaired"
	case AwaitingPin:
		return "awaiting_pin"
	case PinDisplayed:
		return "pin_displayed"
	case Completing:
		return "completing"
	case Authenticated:
		return "authenticated"
	case StaleSession:
		return "stale_session"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Service is the server side of pairing as the screen sees it.
type Service interface {
	GeneratePairingCode(ctx context.Context) (model.PairingCode, error)
	WatchPairing(sessionID string, h stream.Handler[model.PairingRequest]) stream.Subscription
	ExchangeToken(ctx context.Context, token string) (model.ScreenSession, error)
}

// Snapshot is the observable state of the machine.
type Snapshot struct {
	State     State
	PIN       string
	Attempts  int
	ExpiresAt time.Time
	Err       error
}

// Machine runs one pairing attempt at a time. Every request, expiry timer and subscription
// belongs to a session of its own scheduler, so superseded completions are dropped.
// Call it from the loop only.
type Machine struct {
	ctx     context.Context
	exec    loop.Executor
	sched   *scheduler.Scheduler
	service Service

	onAuthenticated func(model.ScreenSession)
	observe         func(Snapshot)

	state     State
	attempts  int
	pin       string
	expiresAt time.Time
	err       error
	sub       stream.Subscription
}

// New returns an idle machine. onAuthenticated receives the exchanged session.
func New(ctx context.Context, exec loop.Executor, c clock.Clock, service Service, onAuthenticated func(model.ScreenSession)) *Machine {
	return &Machine{
		ctx:             ctx,
		exec:            exec,
		sched:           scheduler.New(c),
		service:         service,
		onAuthenticated: onAuthenticated,
	}
}

// Observe registers fn to receive every state change.
func (m *Machine) Observe(fn func(Snapshot)) { m.observe = fn }

func (m *Machine) Snapshot() Snapshot {
	return Snapshot{State: m.state, PIN: m.pin, Attempts: m.attempts, ExpiresAt: m.expiresAt, Err: m.err}
}

// Start begins pairing with a fresh attempt counter.
func (m *Machine) Start() {
	m.attempts = 0
	m.request()
}

// Reset is the operator's "new code" action. It leaves StaleSession or Failed too.
func (m *Machine) Reset() { m.Start() }

// Retry re-requests a PIN after a failed request. It does nothing in other states.
func (m *Machine) Retry() {
	if m.state != Failed {
		return
	}
	m.request()
}

// Stop abandons pairing and returns to Unpaired.
func (m *Machine) Stop() {
	m.sched.NewSession()
	m.closeSub()
	m.pin = ""
	m.expiresAt = time.Time{}
	m.err = nil
	m.set(Unpaired)
}

func (m *Machine) request() {
	session := m.sched.NewSession()
	m.closeSub()
	m.pin = ""
	m.expiresAt = time.Time{}
	m.err = nil
	m.set(AwaitingPin)

	var (
		code model.PairingCode
		err  error
	)
	m.exec.Go(func() {
		code, err = m.service.GeneratePairingCode(m.ctx)
	}, func() {
		if !m.sched.Valid(session) {
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("could not start pairing process")
			m.err = err
			m.set(Failed)
			return
		}
		m.displayPin(session, code)
	})
}

func (m *Machine) displayPin(session scheduler.Session, code model.PairingCode) {
	m.pin = code.PIN
	m.expiresAt = m.sched.Clock().Now().Add(PinLifetime)
	m.sched.After(session, PinLifetime, m.expire)
	m.sub = m.service.WatchPairing(code.SessionID, stream.Handler[model.PairingRequest]{
		Next: func(req *model.PairingRequest) { m.onRequest(session, req) },
		Err: func(err error) {
			log.Warn().Err(err).Str("session_id", code.SessionID).Msg("pairing status unavailable")
		},
	})
	m.set(PinDisplayed)
	log.Info().Str("session_id", code.SessionID).Msg("waiting for admin to confirm pin")
}

func (m *Machine) expire() {
	m.attempts++
	if m.attempts > MaxAutoAttempts {
		m.sched.NewSession()
		m.closeSub()
		m.pin = ""
		m.expiresAt = time.Time{}
		m.set(StaleSession)
		return
	}
	log.Info().Int("attempt", m.attempts).Msg("pin expired, requesting a new one")
	m.request()
}

func (m *Machine) onRequest(session scheduler.Session, req *model.PairingRequest) {
	if !m.sched.Valid(session) || m.state != PinDisplayed {
		return
	}
	// a vanished request is an expired one; the expiry timer handles it
	if req == nil || req.Status != model.PairingCompleted || req.CustomToken == "" {
		return
	}

	exchange := m.sched.NewSession()
	m.closeSub()
	m.set(Completing)

	var (
		sess model.ScreenSession
		err  error
	)
	m.exec.Go(func() {
		sess, err = m.service.ExchangeToken(m.ctx, req.CustomToken)
	}, func() {
		if !m.sched.Valid(exchange) {
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("could not exchange pairing token")
			m.err = err
			m.set(Failed)
			return
		}
		m.attempts = 0
		m.pin = ""
		m.expiresAt = time.Time{}
		m.set(Authenticated)
		if m.onAuthenticated != nil {
			m.onAuthenticated(sess)
		}
	})
}

func (m *Machine) closeSub() {
	if m.sub != nil {
		m.sub.Cancel()
		m.sub = nil
	}
}

func (m *Machine) set(state State) {
	m.state = state
	if m.observe != nil {
		m.observe(m.Snapshot())
	}
}

// FormatPIN splits a six digit PIN for display: "123456" becomes "123 456".
func FormatPIN(pin string) string {
	if len(pin) != 6 {
		return pin
	}
	return pin[:3] + " " + pin[3:]
}
