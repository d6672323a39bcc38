package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradepost/internal/domain/listing"
	"tradepost/internal/domain/user"
)

var (
	ErrIDRequired       = errors.New("notification: id is required")
	ErrListingRequired  = errors.New("notification: listing id is required")
	ErrPartiesRequired  = errors.New("notification: sender and receiver are required")
	ErrInvalidEventType = errors.New("notification: invalid event type")
	ErrNotFound         = errors.New("notification: not found")
)

// EventType classifies the action behind a notification.
type EventType string

const (
	EventMessage EventType = "message"
	EventOffer   EventType = "offer"
)

func (t EventType) Valid() bool {
	return t == EventMessage || t == EventOffer
}

// Notification is the single unread marker for a (listing, sender,
// receiver, event type) tuple. Repeat events of the same type merge into
// this record instead of producing new rows.
type Notification struct {
	ID           string
	ListingID    listing.ID
	ListingTitle string
	SenderID     user.ID
	SenderName   string
	ReceiverID   user.ID
	ReceiverName string
	Type         EventType
	Unread       bool
	CreatedAt    time.Time
}

type CreateParams struct {
	ID           string
	ListingID    listing.ID
	ListingTitle string
	SenderID     user.ID
	SenderName   string
	ReceiverID   user.ID
	ReceiverName string
	Type         EventType
	Now          time.Time
}

func New(params CreateParams) (*Notification, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, ErrListingRequired
	}
	if strings.TrimSpace(string(params.SenderID)) == "" || strings.TrimSpace(string(params.ReceiverID)) == "" {
		return nil, ErrPartiesRequired
	}
	if !params.Type.Valid() {
		return nil, ErrInvalidEventType
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Notification{
		ID:           params.ID,
		ListingID:    params.ListingID,
		ListingTitle: strings.TrimSpace(params.ListingTitle),
		SenderID:     params.SenderID,
		SenderName:   strings.TrimSpace(params.SenderName),
		ReceiverID:   params.ReceiverID,
		ReceiverName: strings.TrimSpace(params.ReceiverName),
		Type:         params.Type,
		Unread:       true,
		CreatedAt:    now.UTC(),
	}, nil
}

// Refresh applies a repeat event of the same type: latest title and
// timestamp, forced back to unread.
func (n *Notification) Refresh(title string, now time.Time) {
	if title = strings.TrimSpace(title); title != "" {
		n.ListingTitle = title
	}
	if now.IsZero() {
		now = time.Now()
	}
	n.CreatedAt = now.UTC()
	n.Unread = true
}

// Repository persists notifications with a uniqueness constraint on
// (listing, sender, receiver, type). Upsert must be atomic per call so
// rapid-fire events collapse into one row.
type Repository interface {
	Upsert(ctx context.Context, n *Notification) (*Notification, error)
	ListForReceiver(ctx context.Context, receiver user.ID) ([]*Notification, error)
	MarkAllRead(ctx context.Context, receiver user.ID) ([]*Notification, error)
	DeleteByListing(ctx context.Context, listingID listing.ID) error
}
