package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/app/identity"
	domainlisting "tradepost/internal/domain/listing"
	domainnotif "tradepost/internal/domain/notification"
	domainuser "tradepost/internal/domain/user"
)

var ErrForbidden = errors.New("notifications: not allowed")

// Service is the merge engine facade. Record collapses repeat events of
// one type from one sender about one listing into a single unread row.
type Service struct {
	Repo   domainnotif.Repository
	Logger *slog.Logger
}

type RecordParams struct {
	ListingID    domainlisting.ID
	ListingTitle string
	SenderID     domainuser.ID
	SenderName   string
	ReceiverID   domainuser.ID
	ReceiverName string
	Type         domainnotif.EventType
	Now          time.Time
}

// Record upserts the notification for the (listing, sender, receiver,
// type) tuple: latest title and timestamp, forced unread. The behavior is
// identical whether this is the first qualifying event or the hundredth.
func (s *Service) Record(ctx context.Context, params RecordParams) (*domainnotif.Notification, error) {
	n, err := domainnotif.New(domainnotif.CreateParams{
		ID:           uuid.NewString(),
		ListingID:    params.ListingID,
		ListingTitle: params.ListingTitle,
		SenderID:     params.SenderID,
		SenderName:   params.SenderName,
		ReceiverID:   params.ReceiverID,
		ReceiverName: params.ReceiverName,
		Type:         params.Type,
		Now:          params.Now,
	})
	if err != nil {
		return nil, err
	}
	merged, err := s.Repo.Upsert(ctx, n)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Debug("notification recorded",
			"listing_id", merged.ListingID,
			"receiver_id", merged.ReceiverID,
			"type", merged.Type,
		)
	}
	return merged, nil
}

// ListForUser returns the receiver's notifications newest-first. Only the
// receiver may read their own list.
func (s *Service) ListForUser(ctx context.Context, requester identity.Principal, receiver domainuser.ID) ([]*domainnotif.Notification, error) {
	if requester.ID != receiver {
		return nil, ErrForbidden
	}
	return s.Repo.ListForReceiver(ctx, receiver)
}

// MarkAllRead clears every unread flag for the receiver and returns the
// updated set. Idempotent.
func (s *Service) MarkAllRead(ctx context.Context, requester identity.Principal, receiver domainuser.ID) ([]*domainnotif.Notification, error) {
	if requester.ID != receiver {
		return nil, ErrForbidden
	}
	return s.Repo.MarkAllRead(ctx, receiver)
}

// PurgeListing removes all notification rows tied to a listing. Called
// from the listing-deletion cascade.
func (s *Service) PurgeListing(ctx context.Context, listingID domainlisting.ID) error {
	return s.Repo.DeleteByListing(ctx, listingID)
}
