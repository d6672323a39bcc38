package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/domain/user"
)

type fakeChannel struct {
	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	sendErr error
}

func (c *fakeChannel) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, append([]byte(nil), payload...))
	return nil
}

func (c *fakeChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeChannel) lastFrame(t *testing.T) []byte {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.frames)
	return c.frames[len(c.frames)-1]
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func decodeOnline(t *testing.T, payload []byte) OnlineEvent {
	t.Helper()
	var event OnlineEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestRegisterBroadcastsOnlineSet(t *testing.T) {
	registry := NewRegistry(slogt.New(t))
	alice := &fakeChannel{}
	bob := &fakeChannel{}

	registry.Register(user.ID("alice"), alice)
	registry.Register(user.ID("bob"), bob)

	event := decodeOnline(t, alice.lastFrame(t))
	assert.Equal(t, EventOnline, event.Event)
	assert.Equal(t, []string{"alice", "bob"}, event.Users)

	event = decodeOnline(t, bob.lastFrame(t))
	assert.Equal(t, []string{"alice", "bob"}, event.Users)
}

func TestRegisterReplacesEarlierChannel(t *testing.T) {
	registry := NewRegistry(slogt.New(t))
	first := &fakeChannel{}
	second := &fakeChannel{}

	registry.Register(user.ID("alice"), first)
	registry.Register(user.ID("alice"), second)

	assert.True(t, first.isClosed())
	current, ok := registry.Lookup(user.ID("alice"))
	require.True(t, ok)
	assert.Same(t, second, current)
	assert.Equal(t, []string{"alice"}, registry.Online())
}

func TestUnregisterIgnoresStaleChannel(t *testing.T) {
	registry := NewRegistry(slogt.New(t))
	stale := &fakeChannel{}
	live := &fakeChannel{}

	registry.Register(user.ID("alice"), stale)
	registry.Register(user.ID("alice"), live)

	// The replaced connection disconnects late; the live one must survive.
	registry.Unregister(user.ID("alice"), stale)
	current, ok := registry.Lookup(user.ID("alice"))
	require.True(t, ok)
	assert.Same(t, live, current)

	registry.Unregister(user.ID("alice"), live)
	_, ok = registry.Lookup(user.ID("alice"))
	assert.False(t, ok)
	assert.Empty(t, registry.Online())
}

func TestUnregisterBroadcastsToRemaining(t *testing.T) {
	registry := NewRegistry(slogt.New(t))
	alice := &fakeChannel{}
	bob := &fakeChannel{}

	registry.Register(user.ID("alice"), alice)
	registry.Register(user.ID("bob"), bob)
	registry.Unregister(user.ID("alice"), alice)

	event := decodeOnline(t, bob.lastFrame(t))
	assert.Equal(t, []string{"bob"}, event.Users)
}

func TestBroadcastSurvivesFailingChannel(t *testing.T) {
	registry := NewRegistry(slogt.New(t))
	broken := &fakeChannel{sendErr: errors.New("socket gone")}
	healthy := &fakeChannel{}

	registry.Register(user.ID("alice"), broken)
	registry.Register(user.ID("bob"), healthy)

	event := decodeOnline(t, healthy.lastFrame(t))
	assert.Equal(t, []string{"alice", "bob"}, event.Users)
}

func TestRegistryConcurrentChurn(t *testing.T) {
	registry := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := user.ID(fmt.Sprintf("user-%d", n))
			for j := 0; j < 50; j++ {
				ch := &fakeChannel{}
				registry.Register(id, ch)
				registry.Lookup(id)
				registry.Unregister(id, ch)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, registry.Online())
}
