package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradepost/internal/domain/user"
)

var (
	ErrIDRequired    = errors.New("listing: id is required")
	ErrOwnerRequired = errors.New("listing: owner is required")
	ErrTitleRequired = errors.New("listing: title is required")
	ErrInvalidPrice  = errors.New("listing: price must be non-negative")
	ErrNotFound      = errors.New("listing: not found")
	ErrNotOwner      = errors.New("listing: not the owner")
	ErrOwnOffer      = errors.New("listing: cannot offer on own listing")
	ErrInvalidOffer  = errors.New("listing: offer must be positive")
)

type ID string

// Offer is a bid from one interested buyer. A buyer holds at most one
// offer slot per listing; a repeat offer replaces the earlier amount.
type Offer struct {
	BidderID   user.ID
	BidderName string
	Amount     int64
	PlacedAt   time.Time
}

type Listing struct {
	ID          ID
	Owner       user.ID
	OwnerName   string
	OwnerAvatar string
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Images      []string
	Offers      []Offer
	Sold        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Listing, error)
	ByOwner(ctx context.Context, owner user.ID) ([]*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ID) error
}

type CreateParams struct {
	ID          ID
	Owner       user.ID
	OwnerName   string
	OwnerAvatar string
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Images      []string
	Now         time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if params.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Listing{
		ID:          params.ID,
		Owner:       params.Owner,
		OwnerName:   strings.TrimSpace(params.OwnerName),
		OwnerAvatar: strings.TrimSpace(params.OwnerAvatar),
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Category:    strings.TrimSpace(params.Category),
		PriceCents:  params.PriceCents,
		Images:      append([]string(nil), params.Images...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type UpdateParams struct {
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Images      []string
	Sold        bool
	Now         time.Time
}

func (l *Listing) Update(params UpdateParams) error {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return ErrTitleRequired
	}
	if params.PriceCents < 0 {
		return ErrInvalidPrice
	}
	l.Title = title
	l.Description = strings.TrimSpace(params.Description)
	l.Category = strings.TrimSpace(params.Category)
	l.PriceCents = params.PriceCents
	l.Images = append([]string(nil), params.Images...)
	l.Sold = params.Sold
	l.UpdatedAt = timeOrNow(params.Now)
	return nil
}

// PlaceOffer records or replaces the bidder's offer. The owner cannot bid
// on their own listing.
func (l *Listing) PlaceOffer(bidder user.ID, bidderName string, amount int64, now time.Time) error {
	if bidder == l.Owner {
		return ErrOwnOffer
	}
	if amount <= 0 {
		return ErrInvalidOffer
	}
	offer := Offer{
		BidderID:   bidder,
		BidderName: strings.TrimSpace(bidderName),
		Amount:     amount,
		PlacedAt:   timeOrNow(now),
	}
	for i := range l.Offers {
		if l.Offers[i].BidderID == bidder {
			l.Offers[i] = offer
			l.UpdatedAt = offer.PlacedAt
			return nil
		}
	}
	l.Offers = append(l.Offers, offer)
	l.UpdatedAt = offer.PlacedAt
	return nil
}

// OfferBy returns the bidder's current offer, if any.
func (l *Listing) OfferBy(bidder user.ID) (Offer, bool) {
	for _, offer := range l.Offers {
		if offer.BidderID == bidder {
			return offer, true
		}
	}
	return Offer{}, false
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC()
}
