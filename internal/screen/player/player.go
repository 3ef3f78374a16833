// Package player cycles the slides of a live playlist.
package player

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/scheduler"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/stream"
)

// Source opens a live subscription on a playlist document.
type Source interface {
	WatchPlaylist(id string, h stream.Handler[model.Playlist]) stream.Subscription
}

type Display interface {
	Present(url string)
}

// Player shows one playlist at a time. Every slide timer belongs to the session the playlist
// was started in, so a newer resolution silently drops it. Call it from the loop only.
type Player struct {
	sched   *scheduler.Scheduler
	source  Source
	display Display
	onGone  func(playlistID string)

	session  scheduler.Session
	id       string
	playlist *model.Playlist
	index    int
	sub      stream.Subscription
	slide    *scheduler.Task
}

// New returns a player. onGone is called when the playing playlist is deleted.
func New(sched *scheduler.Scheduler, source Source, display Display, onGone func(playlistID string)) *Player {
	return &Player{sched: sched, source: source, display: display, onGone: onGone}
}

// Start subscribes to the playlist and plays every snapshot of it.
func (p *Player) Start(playlistID string, session scheduler.Session) {
	p.Stop()
	p.session = session
	p.id = playlistID
	p.sub = p.source.WatchPlaylist(playlistID, stream.Handler[model.Playlist]{
		Next: func(pl *model.Playlist) { p.onSnapshot(session, pl) },
		Err:  func(err error) { p.onError(session, err) },
	})
}

// Stop cancels the slide timer and the subscription and rewinds. Safe to call repeatedly.
func (p *Player) Stop() {
	p.slide.Cancel()
	p.slide = nil
	if p.sub != nil {
		p.sub.Cancel()
		p.sub = nil
	}
	p.id = ""
	p.playlist = nil
	p.index = 0
}

// Index returns the position of the slide on screen.
func (p *Player) Index() int { return p.index }

func (p *Player) onSnapshot(session scheduler.Session, pl *model.Playlist) {
	if session != p.session {
		return
	}
	if !p.sched.Valid(session) {
		p.Stop()
		return
	}

	p.slide.Cancel()
	p.slide = nil

	if pl == nil {
		id := p.id
		p.Stop()
		if p.onGone != nil {
			p.onGone(id)
		}
		return
	}

	p.playlist = pl
	if p.index >= len(pl.Items) {
		p.index = 0
	}
	p.show(session)
}

func (p *Player) onError(session scheduler.Session, err error) {
	if session != p.session {
		return
	}
	log.Error().Err(err).Str("playlist_id", p.id).Msg("playlist subscription failed")
	p.Stop()
}

// show presents the slide at index and arms the advance to the next one.
func (p *Player) show(session scheduler.Session) {
	if !p.sched.Valid(session) || p.playlist == nil {
		return
	}
	if len(p.playlist.Items) == 0 {
		p.Stop()
		p.display.Present("")
		return
	}

	item := p.playlist.Items[p.index]
	p.display.Present(item.Media.URL)
	p.slide = p.sched.After(session, item.Duration(), func() {
		p.slide = nil
		if p.playlist == nil {
			return
		}
		p.index = (p.index + 1) % len(p.playlist.Items)
		p.show(session)
	})
}
