package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/domain/user"
)

func newTestListing(t *testing.T) *Listing {
	t.Helper()
	lst, err := NewListing(CreateParams{
		ID:         ID("l1"),
		Owner:      user.ID("owner"),
		OwnerName:  "Olga",
		Title:      "Road bike",
		PriceCents: 25000,
	})
	require.NoError(t, err)
	return lst
}

func TestNewListingValidation(t *testing.T) {
	_, err := NewListing(CreateParams{ID: "l1", Owner: "owner", Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = NewListing(CreateParams{ID: "l1", Owner: "owner", Title: "Bike", PriceCents: -1})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestPlaceOfferReplacesSameBidder(t *testing.T) {
	lst := newTestListing(t)

	require.NoError(t, lst.PlaceOffer(user.ID("bidder"), "Ben", 20000, time.Now()))
	require.NoError(t, lst.PlaceOffer(user.ID("bidder"), "Ben", 22000, time.Now()))

	require.Len(t, lst.Offers, 1)
	assert.Equal(t, int64(22000), lst.Offers[0].Amount)

	offer, ok := lst.OfferBy(user.ID("bidder"))
	require.True(t, ok)
	assert.Equal(t, int64(22000), offer.Amount)
}

func TestPlaceOfferKeepsDistinctBidders(t *testing.T) {
	lst := newTestListing(t)

	require.NoError(t, lst.PlaceOffer(user.ID("ben"), "Ben", 20000, time.Now()))
	require.NoError(t, lst.PlaceOffer(user.ID("carol"), "Carol", 21000, time.Now()))

	assert.Len(t, lst.Offers, 2)
}

func TestPlaceOfferRejectsOwner(t *testing.T) {
	lst := newTestListing(t)
	err := lst.PlaceOffer(user.ID("owner"), "Olga", 10000, time.Now())
	assert.ErrorIs(t, err, ErrOwnOffer)
}

func TestPlaceOfferRejectsNonPositiveAmount(t *testing.T) {
	lst := newTestListing(t)
	assert.ErrorIs(t, lst.PlaceOffer(user.ID("ben"), "Ben", 0, time.Now()), ErrInvalidOffer)
	assert.ErrorIs(t, lst.PlaceOffer(user.ID("ben"), "Ben", -5, time.Now()), ErrInvalidOffer)
}

func TestUpdateValidatesFields(t *testing.T) {
	lst := newTestListing(t)

	err := lst.Update(UpdateParams{Title: "", PriceCents: 100})
	assert.ErrorIs(t, err, ErrTitleRequired)

	require.NoError(t, lst.Update(UpdateParams{Title: "Road bike (serviced)", PriceCents: 24000, Sold: true}))
	assert.True(t, lst.Sold)
	assert.Equal(t, int64(24000), lst.PriceCents)
}
