package listing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/app/identity"
	notifsvc "tradepost/internal/app/services/notification"
	domainlisting "tradepost/internal/domain/listing"
	domainnotif "tradepost/internal/domain/notification"
)

// ChatPurger removes a listing's conversations and messages. Implemented
// by the chat service; invoked before the listing row is deleted.
type ChatPurger interface {
	PurgeListing(ctx context.Context, listingID domainlisting.ID) error
}

// Uploader stores listing images and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

// EventEmitter publishes best-effort domain events to the broker.
type EventEmitter interface {
	Emit(ctx context.Context, topic, aggregateID string, data map[string]any)
}

type Service struct {
	Listings      domainlisting.Repository
	Chat          ChatPurger
	Notifications *notifsvc.Service
	Uploader      Uploader
	Events        EventEmitter
	Logger        *slog.Logger
}

const topicListingDeleted = "tradepost.listing.deleted"

type CreateParams struct {
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Images      []string
}

func (s *Service) Create(ctx context.Context, owner identity.Principal, params CreateParams) (*domainlisting.Listing, error) {
	lst, err := domainlisting.NewListing(domainlisting.CreateParams{
		ID:          domainlisting.ID(uuid.NewString()),
		Owner:       owner.ID,
		OwnerName:   owner.Name,
		OwnerAvatar: owner.AvatarURL,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		PriceCents:  params.PriceCents,
		Images:      params.Images,
		Now:         time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, lst); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("listing created", "listing_id", lst.ID, "owner_id", owner.ID)
	}
	return lst, nil
}

func (s *Service) Get(ctx context.Context, id domainlisting.ID) (*domainlisting.Listing, error) {
	return s.Listings.ByID(ctx, id)
}

func (s *Service) ListOwned(ctx context.Context, owner identity.Principal) ([]*domainlisting.Listing, error) {
	return s.Listings.ByOwner(ctx, owner.ID)
}

type UpdateParams struct {
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Images      []string
	Sold        bool
}

func (s *Service) Update(ctx context.Context, requester identity.Principal, id domainlisting.ID, params UpdateParams) (*domainlisting.Listing, error) {
	lst, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lst.Owner != requester.ID {
		return nil, domainlisting.ErrNotOwner
	}
	if err := lst.Update(domainlisting.UpdateParams{
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		PriceCents:  params.PriceCents,
		Images:      params.Images,
		Sold:        params.Sold,
		Now:         time.Now(),
	}); err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, lst); err != nil {
		return nil, err
	}
	return lst, nil
}

// Delete removes the listing after purging its chat threads and
// notification rows, so no reader can observe them outliving the listing.
func (s *Service) Delete(ctx context.Context, requester identity.Principal, id domainlisting.ID) (*domainlisting.Listing, error) {
	lst, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lst.Owner != requester.ID {
		return nil, domainlisting.ErrNotOwner
	}
	if s.Chat != nil {
		if err := s.Chat.PurgeListing(ctx, id); err != nil {
			return nil, err
		}
	}
	if s.Notifications != nil {
		if err := s.Notifications.PurgeListing(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := s.Listings.Delete(ctx, id); err != nil {
		return nil, err
	}
	if s.Events != nil {
		s.Events.Emit(ctx, topicListingDeleted, string(id), map[string]any{
			"listing_id": string(id),
			"owner_id":   string(lst.Owner),
		})
	}
	if s.Logger != nil {
		s.Logger.Info("listing deleted", "listing_id", id, "owner_id", requester.ID)
	}
	return lst, nil
}

// PlaceOffer records or raises the bidder's offer and merges the
// `offer`-type notification to the owner: N offers from one bidder
// surface as one unread row with the latest state.
func (s *Service) PlaceOffer(ctx context.Context, bidder identity.Principal, id domainlisting.ID, amount int64) (*domainlisting.Listing, error) {
	lst, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := lst.PlaceOffer(bidder.ID, bidder.Name, amount, now); err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, lst); err != nil {
		return nil, err
	}
	if s.Notifications != nil {
		if _, err := s.Notifications.Record(ctx, notifsvc.RecordParams{
			ListingID:    lst.ID,
			ListingTitle: lst.Title,
			SenderID:     bidder.ID,
			SenderName:   bidder.Name,
			ReceiverID:   lst.Owner,
			ReceiverName: lst.OwnerName,
			Type:         domainnotif.EventOffer,
			Now:          now,
		}); err != nil {
			return nil, err
		}
	}
	return lst, nil
}

// UploadImage stores one listing image in blob storage and returns its
// public URL. The caller attaches the URL to the listing via Update.
func (s *Service) UploadImage(ctx context.Context, owner identity.Principal, reader io.Reader, contentType string) (string, error) {
	if s.Uploader == nil {
		return "", fmt.Errorf("listing: uploader not configured")
	}
	key := fmt.Sprintf("listings/%s/%s", owner.ID, uuid.NewString())
	return s.Uploader.Upload(ctx, key, reader, contentType)
}
