package dto

import (
	"time"

	chatsvc "tradepost/internal/app/services/chat"
	domainchat "tradepost/internal/domain/chat"
)

// Conversation is one row of the conversation list, enriched with the
// counterpart and a listing snapshot.
type Conversation struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	OtherUserID  string    `json:"other_user_id"`
	OtherName    string    `json:"other_name"`
	OtherAvatar  string    `json:"other_avatar,omitempty"`
	ListingTitle string    `json:"listing_title"`
	PriceCents   int64     `json:"price_cents"`
	Images       []string  `json:"images"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

func MapConversation(view chatsvc.ConversationView) Conversation {
	conv := view.Conversation
	return Conversation{
		ID:           string(conv.ID),
		ListingID:    string(conv.ListingID),
		OtherUserID:  string(view.OtherUserID),
		OtherName:    view.OtherName,
		OtherAvatar:  view.OtherAvatar,
		ListingTitle: view.ListingTitle,
		PriceCents:   view.PriceCents,
		Images:       append([]string{}, view.Images...),
		MessageCount: len(conv.MessageIDs),
		UpdatedAt:    conv.UpdatedAt,
	}
}

func MapConversations(views []chatsvc.ConversationView) []Conversation {
	out := make([]Conversation, 0, len(views))
	for _, view := range views {
		out = append(out, MapConversation(view))
	}
	return out
}

func MapChatMessage(m *domainchat.Message) ChatMessage {
	if m == nil {
		return ChatMessage{}
	}
	return ChatMessage{
		ID:         string(m.ID),
		SenderID:   string(m.Sender),
		ReceiverID: string(m.Receiver),
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func MapChatMessages(messages []*domainchat.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, MapChatMessage(m))
	}
	return out
}
