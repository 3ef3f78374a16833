package presence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/loop"
)

// memChannel stands in for the broker: records are set per screen, and a registered
// connection can be dropped to fire its removal rule.
type memChannel struct {
	seq      int
	// strict rejects removals of records whose rule is not registered yet, like a broker session lookup.
	strict   bool
	ops      []string
	records  map[model.PresenceKey]bool
	rules    map[model.PresenceKey]bool
	failSets bool
}

func newMemChannel() *memChannel {
	return &memChannel{records: map[model.PresenceKey]bool{}, rules: map[model.PresenceKey]bool{}}
}

func (c *memChannel) Push(adminID, screenID string) model.PresenceKey {
	c.seq++
	return model.PresenceKey{AdminOwnerID: adminID, ScreenID: screenID, ConnectionID: fmt.Sprintf("c%d", c.seq)}
}

func (c *memChannel) RemoveOnDisconnect(_ context.Context, key model.PresenceKey) error {
	c.ops = append(c.ops, "rule "+key.ConnectionID)
	c.rules[key] = true
	return nil
}

func (c *memChannel) Set(_ context.Context, key model.PresenceKey) error {
	c.ops = append(c.ops, "set "+key.ConnectionID)
	if c.failSets {
		return errors.New("broker unavailable")
	}
	c.records[key] = true
	return nil
}

func (c *memChannel) Remove(_ context.Context, key model.PresenceKey) error {
	c.ops = append(c.ops, "remove "+key.ConnectionID)
	if c.strict && !c.rules[key] {
		return errors.New("no session for record")
	}
	delete(c.records, key)
	delete(c.rules, key)
	return nil
}

// sever simulates the transport dying: the broker applies the removal rule.
func (c *memChannel) sever(key model.PresenceKey) {
	if c.rules[key] {
		delete(c.records, key)
		delete(c.rules, key)
	}
}

func (c *memChannel) online(screenID string) bool {
	for key := range c.records {
		if key.ScreenID == screenID {
			return true
		}
	}
	return false
}

func newTracker(c *memChannel) *Tracker {
	tr := NewTracker(context.Background(), loop.Inline{}, c)
	tr.Bind("admin-1", "s1")
	return tr
}

func TestConnectedRegistersRuleBeforeSet(t *testing.T) {
	c := newMemChannel()
	tr := newTracker(c)

	tr.Connected()
	assert.Equal(t, []string{"rule c1", "set c1"}, c.ops)
	assert.True(t, c.online("s1"))

	key, ok := tr.Key()
	require.True(t, ok)
	assert.Equal(t, "c1", key.ConnectionID)
}

func TestConnectedWithoutScreenDoesNothing(t *testing.T) {
	c := newMemChannel()
	tr := NewTracker(context.Background(), loop.Inline{}, c)

	tr.Connected()
	assert.Empty(t, c.ops)
}

func TestReconnectCreatesFreshRecord(t *testing.T) {
	c := newMemChannel()
	tr := newTracker(c)

	tr.Connected()
	first, _ := tr.Key()
	c.sever(first)
	tr.Disconnected()
	_, ok := tr.Key()
	assert.False(t, ok)

	tr.Connected()
	second, _ := tr.Key()
	assert.NotEqual(t, first, second)
	assert.True(t, c.online("s1"))
}

func TestOverlappingConnectionsKeepScreenOnline(t *testing.T) {
	c := newMemChannel()
	a := newTracker(c)
	b := newTracker(c)

	a.Connected()
	b.Connected()
	keyA, _ := a.Key()
	keyB, _ := b.Key()

	c.sever(keyA)
	a.Disconnected()
	assert.True(t, c.online("s1"))

	c.sever(keyB)
	b.Disconnected()
	assert.False(t, c.online("s1"))
}

func TestLogoutRemovesRecord(t *testing.T) {
	c := newMemChannel()
	tr := newTracker(c)

	tr.Connected()
	tr.Logout()

	assert.False(t, c.online("s1"))
	_, ok := tr.Key()
	assert.False(t, ok)

	tr.Connected()
	assert.Equal(t, []string{"rule c1", "set c1", "remove c1"}, c.ops)
}

func TestFailedSetClearsReference(t *testing.T) {
	c := newMemChannel()
	c.failSets = true
	tr := newTracker(c)

	tr.Connected()
	_, ok := tr.Key()
	assert.False(t, ok)
}

// deferred holds off-loop work until flush, so tests can interleave loop calls with it.
type deferred struct {
	pending []func()
}

func (d *deferred) Post(fn func()) { d.pending = append(d.pending, fn) }

func (d *deferred) Go(work func(), then func()) {
	d.pending = append(d.pending, func() {
		work()
		if then != nil {
			d.Post(then)
		}
	})
}

// take removes the oldest pending job without running it.
func (d *deferred) take() func() {
	fn := d.pending[0]
	d.pending = d.pending[1:]
	return fn
}

func (d *deferred) flush() {
	for len(d.pending) > 0 {
		fn := d.pending[0]
		d.pending = d.pending[1:]
		fn()
	}
}

func TestLogoutDuringRegistrationLeavesScreenOffline(t *testing.T) {
	c := newMemChannel()
	c.strict = true
	exec := &deferred{}
	tr := NewTracker(context.Background(), exec, c)
	tr.Bind("admin-1", "s1")

	tr.Connected()
	register := exec.take()
	tr.Logout()

	// the removal reaches the broker before the registration does
	exec.flush()
	register()
	exec.flush()

	assert.False(t, c.online("s1"))
	assert.Equal(t, []string{"remove c1", "rule c1", "set c1", "remove c1"}, c.ops)
}

func TestDisconnectDuringRegistrationLeavesScreenOffline(t *testing.T) {
	c := newMemChannel()
	c.strict = true
	exec := &deferred{}
	tr := NewTracker(context.Background(), exec, c)
	tr.Bind("admin-1", "s1")

	tr.Connected()
	register := exec.take()
	tr.Disconnected()

	exec.flush()
	register()
	exec.flush()

	assert.False(t, c.online("s1"))
	_, ok := tr.Key()
	assert.False(t, ok)
}

func TestLogoutDoesNotBlockTheLoop(t *testing.T) {
	c := newMemChannel()
	exec := &deferred{}
	tr := NewTracker(context.Background(), exec, c)
	tr.Bind("admin-1", "s1")
	tr.Connected()
	exec.flush()
	require.True(t, c.online("s1"))

	tr.Logout()
	assert.Equal(t, []string{"rule c1", "set c1"}, c.ops)
	_, ok := tr.Key()
	assert.False(t, ok)

	exec.flush()
	assert.False(t, c.online("s1"))
}
