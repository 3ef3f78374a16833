package main

import (
	"context"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/config"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
)

const subscribeTimeout = 10 * time.Second

// Nudger re-polls the documents named by a change notification.
type Nudger interface {
	Nudge(kind, id string)
}

// changeFeed follows the change notifications of the bound admin and reports broker connectivity.
type changeFeed struct {
	client paho.Client
	nudger Nudger

	mu          sync.Mutex
	filter      string
	onConnected func(bool)
}

func newChangeFeed(cfg *config.ScreenConfig, nudger Nudger) *changeFeed {
	f := &changeFeed{nudger: nudger}

	opts := mqtt.Options(cfg.MQTT, "lumen-screen-"+uuid.NewString())
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Info().Msg("change feed connected")
		f.resubscribe()
		f.report(true)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("change feed connection lost")
		f.report(false)
	})
	f.client = paho.NewClient(opts)
	return f
}

// OnConnectionChange sets the connectivity callback. It runs on paho's goroutines.
func (f *changeFeed) OnConnectionChange(fn func(connected bool)) {
	f.mu.Lock()
	f.onConnected = fn
	f.mu.Unlock()
}

// Connect starts connecting in the background; the broker may be unreachable for a while.
func (f *changeFeed) Connect() {
	f.client.Connect()
}

func (f *changeFeed) Close() {
	f.client.Disconnect(250)
}

// Follow subscribes to the change notifications of adminID.
func (f *changeFeed) Follow(adminID, _ string) {
	filter := mqtt.ChangeFilter(adminID)

	f.mu.Lock()
	old := f.filter
	f.filter = filter
	f.mu.Unlock()

	if old != "" && old != filter {
		f.client.Unsubscribe(old)
	}
	f.resubscribe()
}

// Unfollow drops the current subscription.
func (f *changeFeed) Unfollow() {
	f.mu.Lock()
	old := f.filter
	f.filter = ""
	f.mu.Unlock()

	if old != "" {
		f.client.Unsubscribe(old)
	}
}

func (f *changeFeed) resubscribe() {
	f.mu.Lock()
	filter := f.filter
	f.mu.Unlock()
	if filter == "" || !f.client.IsConnected() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
		defer cancel()
		if err := mqtt.Subscribe(ctx, f.client, filter, 1, f.handle); err != nil {
			log.Error().Err(err).Str("filter", filter).Msg("could not follow changes")
		}
	}()
}

func (f *changeFeed) handle(topic string, _ []byte) {
	kind, id, ok := mqtt.ParseChangeTopic(topic)
	if !ok {
		log.Debug().Str("topic", topic).Msg("ignoring unknown change topic")
		return
	}
	f.nudger.Nudge(kind, id)
}

func (f *changeFeed) report(connected bool) {
	f.mu.Lock()
	fn := f.onConnected
	f.mu.Unlock()
	if fn != nil {
		fn(connected)
	}
}
