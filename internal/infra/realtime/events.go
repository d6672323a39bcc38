package realtime

import "time"

// Wire event names pushed to connected clients.
const (
	EventOnline  = "online"
	EventMessage = "message"
)

// OnlineEvent carries the full set of online identities. It is broadcast
// to every channel on any connect or disconnect; readers must treat it as
// eventually consistent.
type OnlineEvent struct {
	Event string   `json:"event"`
	Users []string `json:"users"`
}

// MessageEvent is the targeted push for one new chat message, tagged with
// the listing the conversation concerns.
type MessageEvent struct {
	Event     string         `json:"event"`
	ListingID string         `json:"listing_id"`
	Message   MessagePayload `json:"message"`
}

type MessagePayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
