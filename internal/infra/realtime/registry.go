package realtime

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"tradepost/internal/domain/user"
)

// Channel is one live client session. Send must never block the caller;
// implementations drop the frame when the session cannot keep up.
type Channel interface {
	Send(payload []byte) error
	Close()
}

// Registry maps online users to their live channel. It is the only piece
// of shared mutable state in the process; every mutation happens under
// the lock and broadcasts the fresh online set to all channels.
type Registry struct {
	mu       sync.RWMutex
	channels map[user.ID]Channel
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		channels: make(map[user.ID]Channel),
		logger:   logger,
	}
}

// Register binds id to ch, replacing and closing any earlier channel for
// the same identity so a stale socket cannot linger.
func (r *Registry) Register(id user.ID, ch Channel) {
	r.mu.Lock()
	prev := r.channels[id]
	r.channels[id] = ch
	payload, targets := r.onlinePayloadLocked()
	r.mu.Unlock()

	if prev != nil && prev != ch {
		prev.Close()
	}
	if r.logger != nil {
		r.logger.Debug("user connected", "user_id", id)
	}
	broadcast(payload, targets)
}

// Unregister removes id only when ch is still the channel on record,
// guarding against a late disconnect of a replaced connection.
func (r *Registry) Unregister(id user.ID, ch Channel) {
	r.mu.Lock()
	current, ok := r.channels[id]
	if !ok || current != ch {
		r.mu.Unlock()
		return
	}
	delete(r.channels, id)
	payload, targets := r.onlinePayloadLocked()
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug("user disconnected", "user_id", id)
	}
	broadcast(payload, targets)
}

// Lookup reports the channel currently bound to id. Absence means the
// user is offline; it is never an error.
func (r *Registry) Lookup(id user.ID) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}

// Online returns the sorted set of connected identities.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

func (r *Registry) onlineLocked() []string {
	ids := make([]string, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) onlinePayloadLocked() ([]byte, []Channel) {
	targets := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		targets = append(targets, ch)
	}
	payload, err := json.Marshal(OnlineEvent{Event: EventOnline, Users: r.onlineLocked()})
	if err != nil {
		return nil, nil
	}
	return payload, targets
}

func broadcast(payload []byte, targets []Channel) {
	if payload == nil {
		return
	}
	for _, ch := range targets {
		// Best effort: a slow or closed channel drops the frame.
		_ = ch.Send(payload)
	}
}
