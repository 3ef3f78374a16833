package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/lumen/internal/config"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool { return true }
func (t doneToken) WaitTimeout(_ time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	paho.Client

	opts       *paho.ClientOptions
	connectErr error
	open       bool

	mu           sync.Mutex
	published    []published
	disconnected bool
}

func (c *fakeClient) Connect() paho.Token {
	c.open = c.connectErr == nil
	return doneToken{err: c.connectErr}
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) Disconnect(_ uint) {
	c.disconnected = true
	c.open = false
}

type fakeBroker struct {
	clients    []*fakeClient
	connectErr error
}

func (b *fakeBroker) dial(opts *paho.ClientOptions) paho.Client {
	c := &fakeClient{opts: opts, connectErr: b.connectErr}
	b.clients = append(b.clients, c)
	return c
}

func TestPresenceTopicRoundTrip(t *testing.T) {
	key := model.PresenceKey{AdminOwnerID: "a1", ScreenID: "s1", ConnectionID: "c1"}
	topic := PresenceTopic(key)
	assert.Equal(t, "lumen/presence/a1/s1/c1", topic)

	got, ok := ParsePresenceTopic(topic)
	require.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = ParsePresenceTopic("lumen/presence/a1/s1")
	assert.False(t, ok)
	_, ok = ParsePresenceTopic("other/presence/a1/s1/c1")
	assert.False(t, ok)
}

func TestChangeTopicRoundTrip(t *testing.T) {
	topic := ChangeTopic("a1", ChangePlaylist, "p1")
	assert.Equal(t, "lumen/a1/changed/playlist/p1", topic)

	kind, id, ok := ParseChangeTopic(topic)
	require.True(t, ok)
	assert.Equal(t, ChangePlaylist, kind)
	assert.Equal(t, "p1", id)

	_, _, ok = ParseChangeTopic("lumen/presence/a1/s1/c1")
	assert.False(t, ok)
}

func TestPresenceChannelLifecycle(t *testing.T) {
	broker := &fakeBroker{}
	ch := NewPresenceChannel(config.MQTTConfig{BrokerURL: "tcp://broker:1883"}, broker.dial)
	ctx := context.Background()

	key := ch.Push("a1", "s1")
	assert.NotEmpty(t, key.ConnectionID)
	assert.Empty(t, broker.clients, "push must not touch the broker")

	require.NoError(t, ch.RemoveOnDisconnect(ctx, key))
	require.Len(t, broker.clients, 1)
	client := broker.clients[0]
	assert.True(t, client.opts.WillEnabled)
	assert.Equal(t, PresenceTopic(key), client.opts.WillTopic)
	assert.Empty(t, client.opts.WillPayload)
	assert.True(t, client.opts.WillRetained)

	require.NoError(t, ch.Set(ctx, key))
	require.NoError(t, ch.Remove(ctx, key))

	require.Len(t, client.published, 2)
	assert.Equal(t, published{topic: PresenceTopic(key), retained: true, payload: []byte("true")}, client.published[0])
	assert.Equal(t, published{topic: PresenceTopic(key), retained: true, payload: []byte{}}, client.published[1])
	assert.True(t, client.disconnected)

	assert.Error(t, ch.Set(ctx, key), "record is gone after remove")
}

func TestPresenceChannelConnectFailure(t *testing.T) {
	broker := &fakeBroker{connectErr: errors.New("refused")}
	ch := NewPresenceChannel(config.MQTTConfig{}, broker.dial)

	key := ch.Push("a1", "s1")
	assert.Error(t, ch.RemoveOnDisconnect(context.Background(), key))
	assert.Error(t, ch.Set(context.Background(), key))
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() { n.Notify("a1", ChangeScreen, "s1") })
	assert.NotPanics(t, func() { NewNotifier(nil).Notify("a1", ChangeScreen, "s1") })
}
