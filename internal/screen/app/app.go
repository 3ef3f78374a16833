// Package app is the screen client: it owns the client context and wires pairing, presence and
// content resolution together.
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/clock"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/contentstore"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/loop"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/pairing"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/player"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/presence"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/resolver"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/scheduler"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/stream"
)

const (
	StateActive = "active"
	StateError  = "error"

	msgDeleted       = "This screen has been deleted."
	msgPairingFailed = "Could not start pairing process. Refresh."
)

// Store is everything the client reads from the backend.
type Store interface {
	pairing.Service
	player.Source
	SetToken(token string)
	WatchScreen(h stream.Handler[model.Screen]) stream.Subscription
	WatchSchedules(h stream.Handler[[]model.ScheduleEntry]) stream.Subscription
	WatchSettings(h stream.Handler[model.Settings]) stream.Subscription
}

type Display interface {
	Present(url string)
}

type Options struct {
	Exec        loop.Executor
	Clock       clock.Clock
	Store       Store
	Presence    presence.Channel
	Display     Display
	Credentials Credentials
	Status      StatusSink

	// OnBound is called once the owning admin of the screen is known, OnUnbound when the
	// screen context is torn down.
	OnBound   func(adminID, screenID string)
	OnUnbound func()
}

// App holds the whole client context. Every method must run on the loop.
type App struct {
	opts Options

	engine  *resolver.Engine
	tracker *presence.Tracker
	pairing *pairing.Machine

	screenID  string
	adminID   string
	subs      []stream.Subscription
	connected bool
	fatal     string
}

func New(ctx context.Context, opts Options) *App {
	a := &App{opts: opts}

	sched := scheduler.New(opts.Clock)
	p := player.New(sched, opts.Store, opts.Display, func(id string) { a.engine.PlaylistGone(id) })
	a.engine = resolver.NewEngine(sched, p, opts.Display)
	a.tracker = presence.NewTracker(ctx, opts.Exec, opts.Presence)
	a.pairing = pairing.New(ctx, opts.Exec, opts.Clock, opts.Store, a.onPaired)
	a.pairing.Observe(func(pairing.Snapshot) { a.publish() })
	return a
}

// Start resumes a stored session or begins pairing.
func (a *App) Start() {
	sess, err := a.opts.Credentials.Load()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable session")
	}
	if sess != nil {
		log.Info().Str("screen_id", sess.ScreenID).Msg("resuming stored session")
		a.initializeAuthenticated(*sess)
		return
	}
	a.startPairing()
}

// SetConnected reports transport connectivity for presence.
func (a *App) SetConnected(connected bool) {
	if a.connected == connected {
		return
	}
	a.connected = connected
	if connected {
		a.tracker.Connected()
	} else {
		a.tracker.Disconnected()
	}
	a.publish()
}

// Logout removes presence, forgets the session and starts pairing again.
func (a *App) Logout() {
	if a.screenID == "" {
		return
	}
	log.Info().Str("screen_id", a.screenID).Msg("logging out")
	a.tracker.Logout()
	a.signOut()
}

// RequestNewCode is the "generate new code" action of an unpaired screen.
func (a *App) RequestNewCode() {
	if a.screenID != "" {
		return
	}
	a.fatal = ""
	a.pairing.Reset()
}

// Stop tears everything down without touching the stored session.
func (a *App) Stop() {
	a.cleanup()
	a.pairing.Stop()
}

// Engine exposes the resolution engine, for status and tests.
func (a *App) Engine() *resolver.Engine { return a.engine }

func (a *App) ScreenID() string { return a.screenID }

func (a *App) startPairing() {
	a.cleanup()
	a.opts.Display.Present("")
	a.pairing.Start()
}

func (a *App) onPaired(sess model.ScreenSession) {
	if err := a.opts.Credentials.Save(sess); err != nil {
		log.Error().Err(err).Msg("failed to persist session")
	}
	a.fatal = ""
	a.initializeAuthenticated(sess)
}

func (a *App) initializeAuthenticated(sess model.ScreenSession) {
	a.cleanup()
	a.pairing.Stop()

	a.screenID = sess.ScreenID
	a.opts.Store.SetToken(sess.Token)
	a.engine.Bind(sess.ScreenID)

	a.subs = append(a.subs,
		a.opts.Store.WatchScreen(stream.Handler[model.Screen]{
			Next: a.onScreen,
			Err:  a.onSubscriptionError("screen"),
		}),
		a.opts.Store.WatchSchedules(stream.Handler[[]model.ScheduleEntry]{
			Next: func(entries *[]model.ScheduleEntry) {
				if entries == nil {
					a.engine.SetSchedules(nil)
					return
				}
				a.engine.SetSchedules(*entries)
			},
			Err: a.onSubscriptionError("schedules"),
		}),
	)
	a.publish()
}

func (a *App) onScreen(screen *model.Screen) {
	if screen == nil {
		log.Error().Str("screen_id", a.screenID).Msg("screen document deleted")
		a.fatal = msgDeleted
		a.tracker.Logout()
		a.signOut()
		return
	}

	if a.adminID == "" {
		a.adminID = screen.AdminOwnerID
		a.subs = append(a.subs, a.opts.Store.WatchSettings(stream.Handler[model.Settings]{
			Next: func(s *model.Settings) {
				if s == nil {
					a.engine.SetGlobalDefault(nil)
					return
				}
				a.engine.SetGlobalDefault(s.GlobalDefaultContent.Unwrap())
			},
			Err: a.onSubscriptionError("settings"),
		}))
		a.tracker.Bind(a.adminID, a.screenID)
		if a.connected {
			a.tracker.Connected()
		}
		if a.opts.OnBound != nil {
			a.opts.OnBound(a.adminID, a.screenID)
		}
	}
	a.engine.SetScreenDefault(screen.DefaultContent.Unwrap())
}

func (a *App) onSubscriptionError(what string) func(error) {
	return func(err error) {
		if errors.Is(err, contentstore.ErrUnauthorized) {
			log.Warn().Err(err).Str("screen_id", a.screenID).Msg("screen session rejected, pairing again")
			a.tracker.Logout()
			a.signOut()
			return
		}
		log.Error().Err(err).Str("subscription", what).Msg("subscription failed, keeping current content")
	}
}

// signOut drops the session and restarts pairing.
func (a *App) signOut() {
	if err := a.opts.Credentials.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear session")
	}
	a.opts.Store.SetToken("")
	a.startPairing()
}

// cleanup cancels every subscription and timer of the screen context.
func (a *App) cleanup() {
	for _, sub := range a.subs {
		sub.Cancel()
	}
	a.subs = nil
	a.engine.Stop()
	if _, ok := a.tracker.Key(); ok {
		a.tracker.Disconnected()
	}
	a.tracker.Bind("", "")
	if a.adminID != "" && a.opts.OnUnbound != nil {
		a.opts.OnUnbound()
	}
	a.screenID = ""
	a.adminID = ""
}

func (a *App) publish() {
	if a.opts.Status == nil {
		return
	}
	snap := a.pairing.Snapshot()
	status := Status{
		Attempts:  snap.Attempts,
		Error:     a.fatal,
		ScreenID:  a.screenID,
		Connected: a.connected,
		UpdatedAt: a.opts.Clock.Now(),
	}

	switch {
	case a.screenID != "":
		status.State = StateActive
	default:
		status.State = snap.State.String()
		status.Message = pairingMessage(snap.State)
		if snap.PIN != "" {
			status.PIN = pairing.FormatPIN(snap.PIN)
			expires := snap.ExpiresAt
			status.ExpiresAt = &expires
		}
		if snap.State == pairing.Failed {
			status.State = StateError
			status.Error = msgPairingFailed
		}
	}

	if err := a.opts.Status.Write(status); err != nil {
		log.Warn().Err(err).Msg("failed to write status")
	}
}

func pairingMessage(state pairing.State) string {
	switch state {
	case pairing.AwaitingPin:
		return "Requesting pairing code..."
	case pairing.PinDisplayed:
		return "Waiting for admin to confirm..."
	case pairing.Completing:
		return "Pairing complete. Authenticating..."
	case pairing.StaleSession:
		return "Pairing code expired. Generate a new code to continue."
	default:
		return ""
	}
}
