package listing

import (
	"context"
	"sync"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/app/identity"
	chatsvc "tradepost/internal/app/services/chat"
	notifsvc "tradepost/internal/app/services/notification"
	domainchat "tradepost/internal/domain/chat"
	domainlisting "tradepost/internal/domain/listing"
	domainnotif "tradepost/internal/domain/notification"
	domainuser "tradepost/internal/domain/user"
	"tradepost/internal/infra/storage/memory"
)

type captureEmitter struct {
	mu     sync.Mutex
	topics []string
}

func (e *captureEmitter) Emit(_ context.Context, topic, _ string, _ map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, topic)
}

type listingFixture struct {
	service       *Service
	chat          *chatsvc.Service
	notifications *memory.NotificationRepository
	emitter       *captureEmitter

	owner identity.Principal
	buyer identity.Principal
}

func newListingFixture(t *testing.T) *listingFixture {
	t.Helper()
	ctx := context.Background()

	users := memory.NewUserRepository()
	listings := memory.NewListingRepository()
	notifications := memory.NewNotificationRepository()
	emitter := &captureEmitter{}

	owner, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "olga", Email: "olga@example.com", Name: "Olga", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, owner))

	buyer, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "ben", Email: "ben@example.com", Name: "Ben", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, buyer))

	notificationService := &notifsvc.Service{Repo: notifications, Logger: slogt.New(t)}
	chatService := &chatsvc.Service{
		Listings:      listings,
		Users:         users,
		Conversations: memory.NewConversationRepository(),
		Messages:      memory.NewMessageRepository(),
		Notifications: notificationService,
		Logger:        slogt.New(t),
	}
	service := &Service{
		Listings:      listings,
		Chat:          chatService,
		Notifications: notificationService,
		Events:        emitter,
		Logger:        slogt.New(t),
	}
	return &listingFixture{
		service:       service,
		chat:          chatService,
		notifications: notifications,
		emitter:       emitter,
		owner:         identity.Principal{ID: owner.ID, Name: owner.Name, Email: owner.Email},
		buyer:         identity.Principal{ID: buyer.ID, Name: buyer.Name, Email: buyer.Email},
	}
}

func (fx *listingFixture) createListing(t *testing.T) *domainlisting.Listing {
	t.Helper()
	lst, err := fx.service.Create(context.Background(), fx.owner, CreateParams{
		Title:      "Road bike",
		PriceCents: 25000,
	})
	require.NoError(t, err)
	return lst
}

func TestCreateAndGet(t *testing.T) {
	fx := newListingFixture(t)
	lst := fx.createListing(t)

	got, err := fx.service.Get(context.Background(), lst.ID)
	require.NoError(t, err)
	assert.Equal(t, "Road bike", got.Title)
	assert.Equal(t, fx.owner.ID, got.Owner)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	fx := newListingFixture(t)
	lst := fx.createListing(t)

	_, err := fx.service.Update(context.Background(), fx.buyer, lst.ID, UpdateParams{
		Title: "Stolen bike", PriceCents: 1,
	})
	assert.ErrorIs(t, err, domainlisting.ErrNotOwner)
}

func TestPlaceOfferNotifiesOwnerOnce(t *testing.T) {
	fx := newListingFixture(t)
	lst := fx.createListing(t)
	ctx := context.Background()

	_, err := fx.service.PlaceOffer(ctx, fx.buyer, lst.ID, 20000)
	require.NoError(t, err)
	updated, err := fx.service.PlaceOffer(ctx, fx.buyer, lst.ID, 22000)
	require.NoError(t, err)

	require.Len(t, updated.Offers, 1)
	assert.Equal(t, int64(22000), updated.Offers[0].Amount)

	rows, err := fx.notifications.ListForReceiver(ctx, fx.owner.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domainnotif.EventOffer, rows[0].Type)
	assert.True(t, rows[0].Unread)
	assert.Equal(t, fx.buyer.ID, rows[0].SenderID)
}

func TestPlaceOfferRejectsOwner(t *testing.T) {
	fx := newListingFixture(t)
	lst := fx.createListing(t)

	_, err := fx.service.PlaceOffer(context.Background(), fx.owner, lst.ID, 20000)
	assert.ErrorIs(t, err, domainlisting.ErrOwnOffer)
}

func TestDeleteCascadesChatAndNotifications(t *testing.T) {
	fx := newListingFixture(t)
	lst := fx.createListing(t)
	ctx := context.Background()

	msg, err := fx.chat.SendMessage(ctx, fx.buyer, chatsvc.SendMessageParams{
		ListingID: lst.ID, ReceiverID: fx.owner.ID, Text: "still available?",
	})
	require.NoError(t, err)
	_, err = fx.service.PlaceOffer(ctx, fx.buyer, lst.ID, 20000)
	require.NoError(t, err)

	_, err = fx.service.Delete(ctx, fx.owner, lst.ID)
	require.NoError(t, err)

	_, err = fx.service.Get(ctx, lst.ID)
	assert.ErrorIs(t, err, domainlisting.ErrNotFound)

	pair, err := domainchat.NewParticipantPair(fx.buyer.ID, fx.owner.ID)
	require.NoError(t, err)
	_, err = fx.chat.Conversations.ByPair(ctx, lst.ID, pair)
	assert.ErrorIs(t, err, domainchat.ErrConversationNotFound)

	remaining, err := fx.chat.Messages.ListByIDs(ctx, []domainchat.MessageID{msg.ID})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	rows, err := fx.notifications.ListForReceiver(ctx, fx.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Contains(t, fx.emitter.topics, "tradepost.listing.deleted")
}

func TestDeleteRequiresOwnership(t *testing.T) {
	fx := newListingFixture(t)
	lst := fx.createListing(t)

	_, err := fx.service.Delete(context.Background(), fx.buyer, lst.ID)
	assert.ErrorIs(t, err, domainlisting.ErrNotOwner)
}

func TestListOwned(t *testing.T) {
	fx := newListingFixture(t)
	fx.createListing(t)
	fx.createListing(t)

	mine, err := fx.service.ListOwned(context.Background(), fx.owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := fx.service.ListOwned(context.Background(), fx.buyer)
	require.NoError(t, err)
	assert.Empty(t, none)
}
