package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradepost/internal/domain/user"
)

var (
	ErrEmptyText       = errors.New("chat: message text is required")
	ErrSenderRequired  = errors.New("chat: sender and receiver are required")
	ErrMessageNotFound = errors.New("chat: message not found")
)

type MessageID string

// Message is immutable once created. It is owned by the message log and
// referenced by id from exactly one conversation.
type Message struct {
	ID        MessageID
	Sender    user.ID
	Receiver  user.ID
	Text      string
	CreatedAt time.Time
}

type CreateMessageParams struct {
	ID       MessageID
	Sender   user.ID
	Receiver user.ID
	Text     string
	Now      time.Time
}

func NewMessage(params CreateMessageParams) (*Message, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Sender)) == "" || strings.TrimSpace(string(params.Receiver)) == "" {
		return nil, ErrSenderRequired
	}
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		ID:        params.ID,
		Sender:    params.Sender,
		Receiver:  params.Receiver,
		Text:      text,
		CreatedAt: now.UTC(),
	}, nil
}

// MessageRepository is the append-only message log. ListByIDs returns
// messages ordered by creation time ascending.
type MessageRepository interface {
	Append(ctx context.Context, msg *Message) error
	ListByIDs(ctx context.Context, ids []MessageID) ([]*Message, error)
	DeleteByIDs(ctx context.Context, ids []MessageID) error
}
