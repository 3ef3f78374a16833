package resolver

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/scheduler"
)

// Player cycles a playlist for one session.
type Player interface {
	Start(playlistID string, session scheduler.Session)
	Stop()
}

// Display presents a single image URL; an empty URL blanks the surface.
type Display interface {
	Present(url string)
}

// Engine owns the resolution inputs of one screen and re-runs Resolve whenever they change
// or the current resolution reaches its deadline. Call it from the loop only.
type Engine struct {
	sched   *scheduler.Scheduler
	player  Player
	display Display

	screenID      string
	schedules     []model.ScheduleEntry
	screenDefault model.ContentRef
	globalDefault model.ContentRef

	// gone is a playlist reported missing since the last data push. It is shown as blank
	// instead of being restarted.
	gone string

	current model.ContentRef
}

func NewEngine(sched *scheduler.Scheduler, player Player, display Display) *Engine {
	return &Engine{sched: sched, player: player, display: display}
}

// Bind scopes the engine to a screen and drops inputs of the previous one.
func (e *Engine) Bind(screenID string) {
	e.screenID = screenID
	e.schedules = nil
	e.screenDefault = nil
	e.globalDefault = nil
	e.gone = ""
}

// SetSchedules replaces the schedule set, keeping the entries that target the bound screen in order.
func (e *Engine) SetSchedules(entries []model.ScheduleEntry) {
	filtered := make([]model.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if e.screenID == "" || entry.Targets(e.screenID) {
			filtered = append(filtered, entry)
		}
	}
	e.schedules = filtered
	e.gone = ""
	e.Evaluate()
}

func (e *Engine) SetScreenDefault(ref model.ContentRef) {
	e.screenDefault = ref
	e.gone = ""
	e.Evaluate()
}

func (e *Engine) SetGlobalDefault(ref model.ContentRef) {
	e.globalDefault = ref
	e.gone = ""
	e.Evaluate()
}

// PlaylistGone is called by the player when the playlist it was showing no longer exists.
func (e *Engine) PlaylistGone(playlistID string) {
	log.Warn().Str("playlist_id", playlistID).Msg("playlist no longer exists")
	e.gone = playlistID
	e.Evaluate()
}

// Evaluate starts a new session, shows the resolved content and arms the next re-evaluation.
func (e *Engine) Evaluate() {
	session := e.sched.NewSession()
	e.player.Stop()

	now := e.sched.Clock().Now()
	res := Resolve(now, e.schedules, e.screenDefault, e.globalDefault)
	e.current = res.Content

	switch ref := res.Content.(type) {
	case model.PlaylistRef:
		if ref.ID == e.gone {
			e.display.Present("")
			break
		}
		e.player.Start(ref.ID, session)
	case model.ImageRef:
		e.display.Present(ref.URL)
	case nil:
		e.display.Present("")
	}

	if res.Deadline.IsZero() || !e.sched.Valid(session) {
		return
	}
	if delay := res.Deadline.Sub(now); delay > 0 {
		e.sched.After(session, delay+GuardOffset, e.Evaluate)
	}
}

// Stop cancels the timer and the player and forgets every input.
func (e *Engine) Stop() {
	e.sched.NewSession()
	e.player.Stop()
	e.Bind("")
	e.current = nil
}

// Current returns the content of the latest resolution.
func (e *Engine) Current() model.ContentRef { return e.current }
