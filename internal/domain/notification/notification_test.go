package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewForcesUnread(t *testing.T) {
	n, err := New(CreateParams{
		ID:           "n1",
		ListingID:    "l1",
		ListingTitle: "Road bike",
		SenderID:     "alice",
		ReceiverID:   "bob",
		Type:         EventMessage,
	})
	require.NoError(t, err)
	assert.True(t, n.Unread)
}

func TestNewRejectsUnknownEventType(t *testing.T) {
	_, err := New(CreateParams{
		ID:         "n1",
		ListingID:  "l1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Type:       EventType("like"),
	})
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestRefreshResurfacesReadNotification(t *testing.T) {
	n, err := New(CreateParams{
		ID:         "n1",
		ListingID:  "l1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Type:       EventOffer,
		Now:        time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	n.Unread = false
	later := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	n.Refresh("Road bike (reduced)", later)

	assert.True(t, n.Unread)
	assert.Equal(t, later, n.CreatedAt)
	assert.Equal(t, "Road bike (reduced)", n.ListingTitle)
}

func TestRefreshKeepsTitleWhenBlank(t *testing.T) {
	n, err := New(CreateParams{
		ID:           "n1",
		ListingID:    "l1",
		ListingTitle: "Road bike",
		SenderID:     "alice",
		ReceiverID:   "bob",
		Type:         EventMessage,
	})
	require.NoError(t, err)

	n.Refresh("  ", time.Now())
	assert.Equal(t, "Road bike", n.ListingTitle)
}
