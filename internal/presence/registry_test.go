package presence

import (
	"context"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/lumen/internal/metrics"
)

type memSets map[string]map[string]struct{}

func (m memSets) Add(_ context.Context, adminID, screenID, connectionID string) error {
	k := adminID + "/" + screenID
	if m[k] == nil {
		m[k] = map[string]struct{}{}
	}
	m[k][connectionID] = struct{}{}
	return nil
}

func (m memSets) Remove(_ context.Context, adminID, screenID, connectionID string) error {
	delete(m[adminID+"/"+screenID], connectionID)
	return nil
}

func (m memSets) Count(_ context.Context, adminID, screenID string) (int64, error) {
	return int64(len(m[adminID+"/"+screenID])), nil
}

func (m memSets) Clear(_ context.Context, adminID, screenID string) error {
	delete(m, adminID+"/"+screenID)
	return nil
}

func (m memSets) Reset(context.Context) error {
	for k := range m {
		delete(m, k)
	}
	return nil
}

func TestRegistryPresenceIsASet(t *testing.T) {
	r := NewRegistry(memSets{}, metrics.Noop{})
	ctx := context.Background()

	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c1", []byte("true")))
	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c2", []byte("true")))

	online, err := r.Online(ctx, "a1", "s1")
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c1", nil))
	online, _ = r.Online(ctx, "a1", "s1")
	assert.True(t, online, "one record left")

	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c2", []byte{}))
	online, _ = r.Online(ctx, "a1", "s1")
	assert.False(t, online)
}

func TestRegistryDuplicateSetIsIdempotent(t *testing.T) {
	r := NewRegistry(memSets{}, metrics.Noop{})
	ctx := context.Background()

	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c1", []byte("true")))
	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c1", []byte("true")))
	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c1", nil))

	online, _ := r.Online(ctx, "a1", "s1")
	assert.False(t, online)
}

func TestRegistryRejectsForeignTopic(t *testing.T) {
	r := NewRegistry(memSets{}, metrics.Noop{})
	assert.Error(t, r.Handle(context.Background(), "lumen/a1/changed/screen/s1", []byte("true")))
}

func TestRegistryForget(t *testing.T) {
	r := NewRegistry(memSets{}, metrics.Noop{})
	ctx := context.Background()

	require.NoError(t, r.Handle(ctx, "lumen/presence/a1/s1/c1", []byte("true")))
	require.NoError(t, r.Forget(ctx, "a1", "s1"))

	online, _ := r.Online(ctx, "a1", "s1")
	assert.False(t, online)
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }

func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type retainedMessage struct {
	topic   string
	payload []byte
}

func (m retainedMessage) Duplicate() bool   { return false }
func (m retainedMessage) Qos() byte         { return 1 }
func (m retainedMessage) Retained() bool    { return true }
func (m retainedMessage) Topic() string     { return m.topic }
func (m retainedMessage) MessageID() uint16 { return 0 }
func (m retainedMessage) Payload() []byte   { return m.payload }
func (m retainedMessage) Ack()              {}

// retainedBroker replays its retained presence records to every new subscription.
type retainedBroker struct {
	paho.Client
	retained map[string][]byte
}

func (b *retainedBroker) Subscribe(_ string, _ byte, cb paho.MessageHandler) paho.Token {
	for topic, payload := range b.retained {
		cb(b, retainedMessage{topic: topic, payload: payload})
	}
	return doneToken{}
}

func TestRegistryResubscribeDropsRecordsRemovedWhileAway(t *testing.T) {
	ctx := context.Background()
	broker := &retainedBroker{retained: map[string][]byte{
		"lumen/presence/a1/s1/c1": []byte("true"),
		"lumen/presence/a1/s2/c7": []byte("true"),
	}}
	r := NewRegistry(memSets{}, metrics.Noop{})

	require.NoError(t, r.Subscribe(ctx, broker))
	online, _ := r.Online(ctx, "a1", "s1")
	require.True(t, online)

	// the Last Will of c1 clears its retained record while the server is disconnected
	delete(broker.retained, "lumen/presence/a1/s1/c1")

	require.NoError(t, r.Subscribe(ctx, broker))
	online, _ = r.Online(ctx, "a1", "s1")
	assert.False(t, online)
	online, _ = r.Online(ctx, "a1", "s2")
	assert.True(t, online)
}
