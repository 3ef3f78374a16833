// Package presence keeps one live presence record per transport connection of a screen.
package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/loop"
)

const opTimeout = 10 * time.Second

// Channel is the ephemeral record store. RemoveOnDisconnect must be registered before Set.
type Channel interface {
	Push(adminID, screenID string) model.PresenceKey
	RemoveOnDisconnect(ctx context.Context, key model.PresenceKey) error
	Set(ctx context.Context, key model.PresenceKey) error
	Remove(ctx context.Context, key model.PresenceKey) error
}

// Tracker reacts to connectivity changes. Call it from the loop only.
type Tracker struct {
	ctx     context.Context
	exec    loop.Executor
	channel Channel

	adminID  string
	screenID string

	// current is the record of the live connection, if any.
	current *model.PresenceKey
}

func NewTracker(ctx context.Context, exec loop.Executor, channel Channel) *Tracker {
	return &Tracker{ctx: ctx, exec: exec, channel: channel}
}

// Bind sets the screen whose presence is tracked.
func (t *Tracker) Bind(adminID, screenID string) {
	t.adminID = adminID
	t.screenID = screenID
}

// Connected creates a fresh record, registers its removal on disconnect, then marks it present.
func (t *Tracker) Connected() {
	if t.screenID == "" {
		return
	}
	if t.current != nil {
		// a reconnect without an observed loss; the old record belongs to a dead transport
		t.drop()
	}

	key := t.channel.Push(t.adminID, t.screenID)
	t.current = &key

	var err error
	t.exec.Go(func() {
		ctx, cancel := context.WithTimeout(t.ctx, opTimeout)
		defer cancel()
		if err = t.channel.RemoveOnDisconnect(ctx, key); err != nil {
			return
		}
		err = t.channel.Set(ctx, key)
	}, func() {
		live := t.current != nil && *t.current == key
		if !live {
			// dropped while registering; the earlier removal may have found no session yet
			t.removeAsync(key)
			return
		}
		if err == nil {
			log.Info().Str("connection_id", key.ConnectionID).Str("screen_id", key.ScreenID).Msg("presence established")
			return
		}
		log.Error().Err(err).Str("connection_id", key.ConnectionID).Msg("failed to register presence")
		t.current = nil
		t.removeAsync(key)
	})
}

// Disconnected forgets the local record so the next connect creates a new one.
func (t *Tracker) Disconnected() {
	if t.current == nil {
		return
	}
	t.drop()
}

// Logout removes the record off the loop and unbinds the screen.
func (t *Tracker) Logout() {
	if t.current != nil {
		t.drop()
	}
	t.adminID = ""
	t.screenID = ""
}

// Key returns the live record, if any.
func (t *Tracker) Key() (model.PresenceKey, bool) {
	if t.current == nil {
		return model.PresenceKey{}, false
	}
	return *t.current, true
}

// drop clears the local reference and removes the record in the background.
func (t *Tracker) drop() {
	key := *t.current
	t.current = nil
	t.removeAsync(key)
}

func (t *Tracker) removeAsync(key model.PresenceKey) {
	t.exec.Go(func() {
		ctx, cancel := context.WithTimeout(t.ctx, opTimeout)
		defer cancel()
		if err := t.channel.Remove(ctx, key); err != nil {
			log.Debug().Err(err).Str("connection_id", key.ConnectionID).Msg("stale presence record not removed")
		}
	}, nil)
}
