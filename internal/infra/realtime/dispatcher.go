package realtime

import (
	"encoding/json"
	"log/slog"

	"tradepost/internal/domain/chat"
	"tradepost/internal/domain/listing"
	"tradepost/internal/domain/user"
)

// Dispatcher pushes events to the receiver's live channel when one is
// registered. The push is best effort and runs only after the durable
// write has committed; a missed delivery is recovered on the next pull.
type Dispatcher struct {
	Registry *Registry
	Logger   *slog.Logger
}

// DeliverMessage pushes a new-message event to the receiver if online.
// It never returns an error: push failures are swallowed because the
// message log is the source of truth.
func (d *Dispatcher) DeliverMessage(receiver user.ID, listingID listing.ID, msg *chat.Message) {
	if d.Registry == nil || msg == nil {
		return
	}
	ch, ok := d.Registry.Lookup(receiver)
	if !ok {
		return
	}
	event := MessageEvent{
		Event:     EventMessage,
		ListingID: string(listingID),
		Message: MessagePayload{
			ID:         string(msg.ID),
			SenderID:   string(msg.Sender),
			ReceiverID: string(msg.Receiver),
			Text:       msg.Text,
			CreatedAt:  msg.CreatedAt,
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if d.Logger != nil {
			d.Logger.Error("message event marshal failed", "error", err)
		}
		return
	}
	if err := ch.Send(payload); err != nil && d.Logger != nil {
		d.Logger.Debug("live push dropped", "receiver_id", receiver, "error", err)
	}
}
