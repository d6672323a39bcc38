package dto

import (
	"time"

	domainlisting "tradepost/internal/domain/listing"
)

type Listing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	OwnerAvatar string    `json:"owner_avatar,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Images      []string  `json:"images"`
	Offers      []Offer   `json:"offers"`
	Sold        bool      `json:"sold"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Offer struct {
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name"`
	Amount     int64     `json:"amount"`
	PlacedAt   time.Time `json:"placed_at"`
}

func MapListing(l *domainlisting.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	offers := make([]Offer, 0, len(l.Offers))
	for _, offer := range l.Offers {
		offers = append(offers, Offer{
			BidderID:   string(offer.BidderID),
			BidderName: offer.BidderName,
			Amount:     offer.Amount,
			PlacedAt:   offer.PlacedAt,
		})
	}
	return Listing{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		OwnerName:   l.OwnerName,
		OwnerAvatar: l.OwnerAvatar,
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		PriceCents:  l.PriceCents,
		Images:      append([]string{}, l.Images...),
		Offers:      offers,
		Sold:        l.Sold,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func MapListings(listings []*domainlisting.Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		out = append(out, MapListing(l))
	}
	return out
}
