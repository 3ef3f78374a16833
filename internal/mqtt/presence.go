package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/config"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

var errNoSession = errors.New("presence record has no registered session")

var presentPayload = []byte("true")

// PresenceChannel binds every presence record to its own broker session.
// The session's Last Will clears the record, so the broker removes it when the screen drops off.
type PresenceChannel struct {
	cfg  config.MQTTConfig
	dial Dialer

	mu       sync.Mutex
	sessions map[model.PresenceKey]paho.Client
}

func NewPresenceChannel(cfg config.MQTTConfig, dial Dialer) *PresenceChannel {
	if dial == nil {
		dial = paho.NewClient
	}
	return &PresenceChannel{cfg: cfg, dial: dial, sessions: map[model.PresenceKey]paho.Client{}}
}

// Push allocates a fresh record key. Nothing is sent yet.
func (c *PresenceChannel) Push(adminID, screenID string) model.PresenceKey {
	return model.PresenceKey{AdminOwnerID: adminID, ScreenID: screenID, ConnectionID: uuid.NewString()}
}

// RemoveOnDisconnect opens the record's session with an empty retained Last Will.
func (c *PresenceChannel) RemoveOnDisconnect(ctx context.Context, key model.PresenceKey) error {
	opts := Options(c.cfg, "presence-"+key.ConnectionID)
	opts.SetWill(PresenceTopic(key), "", 1, true)
	// a reconnect would resurrect a record the client already abandoned
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	client, err := Connect(ctx, c.dial, opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessions[key] = client
	c.mu.Unlock()
	return nil
}

// Set publishes the retained "true" marker on the record's session.
func (c *PresenceChannel) Set(ctx context.Context, key model.PresenceKey) error {
	client := c.session(key)
	if client == nil {
		return errNoSession
	}
	if err := Wait(ctx, client.Publish(PresenceTopic(key), 1, true, presentPayload)); err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

// Remove clears the retained marker and closes the record's session.
func (c *PresenceChannel) Remove(ctx context.Context, key model.PresenceKey) error {
	c.mu.Lock()
	client := c.sessions[key]
	delete(c.sessions, key)
	c.mu.Unlock()

	if client == nil {
		return errNoSession
	}
	defer client.Disconnect(disconnectQuiesce)

	if !client.IsConnectionOpen() {
		// the broker has already fired the Will
		return nil
	}
	if err := Wait(ctx, client.Publish(PresenceTopic(key), 1, true, []byte{})); err != nil {
		log.Warn().Err(err).Str("connection_id", key.ConnectionID).Msg("failed to clear presence record")
		return err
	}
	return nil
}

func (c *PresenceChannel) session(key model.PresenceKey) paho.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[key]
}
