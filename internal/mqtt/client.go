// Package mqtt carries presence records and change notifications over an MQTT broker.
package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/config"
)

const disconnectQuiesce = 250 // ms

// Dialer builds a client from options. Tests swap it for a fake.
type Dialer func(opts *paho.ClientOptions) paho.Client

var connectHandler paho.OnConnectHandler = func(client paho.Client) {
	r := client.OptionsReader()
	log.Info().Str("client_id", r.ClientID()).Msg("connected to MQTT broker")
}

var connectLostHandler paho.ConnectionLostHandler = func(client paho.Client, err error) {
	r := client.OptionsReader()
	log.Warn().Err(err).Str("client_id", r.ClientID()).Msg("MQTT connection lost")
}

// Options returns client options for the configured broker.
func Options(cfg config.MQTTConfig, clientID string) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler
	return opts
}

// Connect dials the broker and waits for the first connection attempt.
func Connect(ctx context.Context, dial Dialer, opts *paho.ClientOptions) (paho.Client, error) {
	if dial == nil {
		dial = paho.NewClient
	}
	client := dial(opts)
	if err := Wait(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return client, nil
}

// Wait blocks until token completes or ctx is done.
func Wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers handler for filter. Handlers run on paho's goroutines.
func Subscribe(ctx context.Context, client paho.Client, filter string, qos byte, handler func(topic string, payload []byte)) error {
	token := client.Subscribe(filter, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if err := Wait(ctx, token); err != nil {
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}
	return nil
}
