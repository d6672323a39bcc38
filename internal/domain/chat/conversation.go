package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradepost/internal/domain/listing"
	"tradepost/internal/domain/user"
)

var (
	ErrIDRequired           = errors.New("chat: conversation id is required")
	ErrListingRequired      = errors.New("chat: listing id is required")
	ErrParticipantsRequired = errors.New("chat: two distinct participants are required")
	ErrConversationNotFound = errors.New("chat: conversation not found")
)

type ConversationID string

// ParticipantPair is the unordered pair of identities in a conversation.
// Key() yields the canonical sorted form used for uniqueness.
type ParticipantPair struct {
	A user.ID
	B user.ID
}

func NewParticipantPair(a, b user.ID) (ParticipantPair, error) {
	if strings.TrimSpace(string(a)) == "" || strings.TrimSpace(string(b)) == "" || a == b {
		return ParticipantPair{}, ErrParticipantsRequired
	}
	if b < a {
		a, b = b, a
	}
	return ParticipantPair{A: a, B: b}, nil
}

// Key is the canonical identity of the pair, stable regardless of which
// side initiated the conversation.
func (p ParticipantPair) Key() string {
	return string(p.A) + "|" + string(p.B)
}

func (p ParticipantPair) Contains(id user.ID) bool {
	return p.A == id || p.B == id
}

// Other returns the counterpart of id within the pair.
func (p ParticipantPair) Other(id user.ID) user.ID {
	if p.A == id {
		return p.B
	}
	return p.A
}

// Conversation is the single thread between two users about one listing.
// MessageIDs is append-only; insertion order is chronological order.
type Conversation struct {
	ID           ConversationID
	ListingID    listing.ID
	Participants ParticipantPair
	MessageIDs   []MessageID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateConversationParams struct {
	ID           ConversationID
	ListingID    listing.ID
	Participants ParticipantPair
	Now          time.Time
}

func NewConversation(params CreateConversationParams) (*Conversation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, ErrListingRequired
	}
	if params.Participants.Key() == "|" || params.Participants.A == params.Participants.B {
		return nil, ErrParticipantsRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Conversation{
		ID:           params.ID,
		ListingID:    params.ListingID,
		Participants: params.Participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ConversationRepository persists conversations keyed by the
// (listing, unordered pair) tuple. FindOrCreate must be safe under
// concurrent first messages from the same pair: implementations back it
// with a uniqueness constraint and re-read when an insert loses the race.
type ConversationRepository interface {
	FindOrCreate(ctx context.Context, conv *Conversation) (*Conversation, error)
	ByPair(ctx context.Context, listingID listing.ID, pair ParticipantPair) (*Conversation, error)
	AppendMessage(ctx context.Context, id ConversationID, messageID MessageID, at time.Time) error
	ListForUser(ctx context.Context, userID user.ID) ([]*Conversation, error)
	DeleteByListing(ctx context.Context, listingID listing.ID) ([]MessageID, error)
}
