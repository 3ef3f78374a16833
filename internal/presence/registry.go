// Package presence tracks which screens are online from their MQTT presence records.
package presence

import (
	"context"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/metrics"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
)

// Sets stores the connection IDs of each screen.
type Sets interface {
	Add(ctx context.Context, adminID, screenID, connectionID string) error
	Remove(ctx context.Context, adminID, screenID, connectionID string) error
	Count(ctx context.Context, adminID, screenID string) (int64, error)
	Clear(ctx context.Context, adminID, screenID string) error
	Reset(ctx context.Context) error
}

type Registry struct {
	sets    Sets
	metrics metrics.Metrics
}

func NewRegistry(sets Sets, m metrics.Metrics) *Registry {
	return &Registry{sets: sets, metrics: m}
}

// Handle applies one presence message: a non-empty payload adds the record, an empty one removes it.
func (r *Registry) Handle(ctx context.Context, topic string, payload []byte) error {
	key, ok := mqtt.ParsePresenceTopic(topic)
	if !ok {
		return fmt.Errorf("not a presence topic: %q", topic)
	}

	if len(payload) == 0 {
		r.metrics.IncPresenceEvents("remove")
		return r.sets.Remove(ctx, key.AdminOwnerID, key.ScreenID, key.ConnectionID)
	}
	r.metrics.IncPresenceEvents("set")
	return r.sets.Add(ctx, key.AdminOwnerID, key.ScreenID, key.ConnectionID)
}

// Online reports whether the screen has at least one live record.
func (r *Registry) Online(ctx context.Context, adminID, screenID string) (bool, error) {
	n, err := r.sets.Count(ctx, adminID, screenID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Forget drops every record of a deleted screen.
func (r *Registry) Forget(ctx context.Context, adminID, screenID string) error {
	return r.sets.Clear(ctx, adminID, screenID)
}

// Subscribe feeds the registry from the broker's presence topic tree. Removals published while
// the server was away are never replayed, so it runs on every (re)connect and rebuilds the sets
// from the retained records.
func (r *Registry) Subscribe(ctx context.Context, client paho.Client) error {
	if err := r.sets.Reset(ctx); err != nil {
		return fmt.Errorf("reset presence: %w", err)
	}
	return mqtt.Subscribe(ctx, client, mqtt.PresenceFilter, 1, func(topic string, payload []byte) {
		if err := r.Handle(context.Background(), topic, payload); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("failed to apply presence update")
		}
	})
}
