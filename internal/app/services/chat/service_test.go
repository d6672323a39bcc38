package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/app/identity"
	notifsvc "tradepost/internal/app/services/notification"
	domainchat "tradepost/internal/domain/chat"
	domainlisting "tradepost/internal/domain/listing"
	domainnotif "tradepost/internal/domain/notification"
	domainuser "tradepost/internal/domain/user"
	"tradepost/internal/infra/storage/memory"
)

type delivery struct {
	receiver  domainuser.ID
	listingID domainlisting.ID
	msg       *domainchat.Message
}

type captureDispatcher struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (d *captureDispatcher) DeliverMessage(receiver domainuser.ID, listingID domainlisting.ID, msg *domainchat.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliveries = append(d.deliveries, delivery{receiver: receiver, listingID: listingID, msg: msg})
}

type captureEmitter struct {
	mu     sync.Mutex
	topics []string
}

func (e *captureEmitter) Emit(_ context.Context, topic, _ string, _ map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, topic)
}

type chatFixture struct {
	service       *Service
	users         *memory.UserRepository
	listings      *memory.ListingRepository
	notifications *memory.NotificationRepository
	dispatcher    *captureDispatcher
	emitter       *captureEmitter

	alice   identity.Principal
	bob     identity.Principal
	listing *domainlisting.Listing
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	ctx := context.Background()

	users := memory.NewUserRepository()
	listings := memory.NewListingRepository()
	notifications := memory.NewNotificationRepository()
	dispatcher := &captureDispatcher{}
	emitter := &captureEmitter{}

	alice, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "alice", Email: "alice@example.com", Name: "Alice", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, alice))

	bob, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "bob", Email: "bob@example.com", Name: "Bob", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, bob))

	lst, err := domainlisting.NewListing(domainlisting.CreateParams{
		ID: "l1", Owner: bob.ID, OwnerName: bob.Name, Title: "Road bike", PriceCents: 25000,
	})
	require.NoError(t, err)
	require.NoError(t, listings.Save(ctx, lst))

	service := &Service{
		Listings:      listings,
		Users:         users,
		Conversations: memory.NewConversationRepository(),
		Messages:      memory.NewMessageRepository(),
		Notifications: &notifsvc.Service{Repo: notifications, Logger: slogt.New(t)},
		Dispatcher:    dispatcher,
		Events:        emitter,
		Logger:        slogt.New(t),
	}
	return &chatFixture{
		service:       service,
		users:         users,
		listings:      listings,
		notifications: notifications,
		dispatcher:    dispatcher,
		emitter:       emitter,
		alice:         identity.Principal{ID: alice.ID, Name: alice.Name, Email: alice.Email},
		bob:           identity.Principal{ID: bob.ID, Name: bob.Name, Email: bob.Email},
		listing:       lst,
	}
}

func TestSendMessageCreatesConversationAndNotification(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	msg, err := fx.service.SendMessage(ctx, fx.alice, SendMessageParams{
		ListingID:  fx.listing.ID,
		ReceiverID: fx.bob.ID,
		Text:       "still available?",
	})
	require.NoError(t, err)
	assert.Equal(t, "still available?", msg.Text)

	views, err := fx.service.ListConversations(ctx, fx.alice)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Conversation.MessageIDs, 1)
	assert.Equal(t, fx.bob.ID, views[0].OtherUserID)

	rows, err := fx.notifications.ListForReceiver(ctx, fx.bob.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domainnotif.EventMessage, rows[0].Type)
	assert.True(t, rows[0].Unread)
	assert.Equal(t, fx.listing.Title, rows[0].ListingTitle)

	require.Len(t, fx.dispatcher.deliveries, 1)
	assert.Equal(t, fx.bob.ID, fx.dispatcher.deliveries[0].receiver)
	assert.Equal(t, fx.listing.ID, fx.dispatcher.deliveries[0].listingID)

	assert.Equal(t, []string{"tradepost.chat.message-sent"}, fx.emitter.topics)
}

func TestSendMessageReusesConversationBothDirections(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	_, err := fx.service.SendMessage(ctx, fx.alice, SendMessageParams{
		ListingID: fx.listing.ID, ReceiverID: fx.bob.ID, Text: "still available?",
	})
	require.NoError(t, err)
	_, err = fx.service.SendMessage(ctx, fx.bob, SendMessageParams{
		ListingID: fx.listing.ID, ReceiverID: fx.alice.ID, Text: "yes, come by",
	})
	require.NoError(t, err)

	views, err := fx.service.ListConversations(ctx, fx.alice)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Conversation.MessageIDs, 2)
}

func TestSendMessageMergesRepeatNotifications(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	for _, text := range []string{"hi", "hello?", "anyone there?"} {
		_, err := fx.service.SendMessage(ctx, fx.alice, SendMessageParams{
			ListingID: fx.listing.ID, ReceiverID: fx.bob.ID, Text: text,
		})
		require.NoError(t, err)
	}

	rows, err := fx.notifications.ListForReceiver(ctx, fx.bob.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Unread)
}

func TestSendMessageRejectsBlankText(t *testing.T) {
	fx := newChatFixture(t)

	_, err := fx.service.SendMessage(context.Background(), fx.alice, SendMessageParams{
		ListingID: fx.listing.ID, ReceiverID: fx.bob.ID, Text: "   ",
	})
	assert.ErrorIs(t, err, domainchat.ErrEmptyText)
	assert.Empty(t, fx.dispatcher.deliveries)
}

func TestSendMessageRejectsSelfConversation(t *testing.T) {
	fx := newChatFixture(t)

	_, err := fx.service.SendMessage(context.Background(), fx.alice, SendMessageParams{
		ListingID: fx.listing.ID, ReceiverID: fx.alice.ID, Text: "hi me",
	})
	assert.ErrorIs(t, err, domainchat.ErrParticipantsRequired)
}

func TestSendMessageUnknownListing(t *testing.T) {
	fx := newChatFixture(t)

	_, err := fx.service.SendMessage(context.Background(), fx.alice, SendMessageParams{
		ListingID: "missing", ReceiverID: fx.bob.ID, Text: "hi",
	})
	assert.ErrorIs(t, err, domainlisting.ErrNotFound)
}

func TestSendMessageUnknownReceiver(t *testing.T) {
	fx := newChatFixture(t)

	_, err := fx.service.SendMessage(context.Background(), fx.alice, SendMessageParams{
		ListingID: fx.listing.ID, ReceiverID: "ghost", Text: "hi",
	})
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
}

func TestListMessagesEmptyWithoutConversation(t *testing.T) {
	fx := newChatFixture(t)

	msgs, err := fx.service.ListMessages(context.Background(), fx.alice, fx.listing.ID, fx.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestListMessagesChronological(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		_, err := fx.service.SendMessage(ctx, fx.alice, SendMessageParams{
			ListingID: fx.listing.ID, ReceiverID: fx.bob.ID, Text: text,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	msgs, err := fx.service.ListMessages(ctx, fx.bob, fx.listing.ID, fx.alice.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, text := range texts {
		assert.Equal(t, text, msgs[i].Text)
	}
}

func TestListConversationsSkipsVanishedListing(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	_, err := fx.service.SendMessage(ctx, fx.alice, SendMessageParams{
		ListingID: fx.listing.ID, ReceiverID: fx.bob.ID, Text: "hi",
	})
	require.NoError(t, err)
	require.NoError(t, fx.listings.Delete(ctx, fx.listing.ID))

	views, err := fx.service.ListConversations(ctx, fx.alice)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestPurgeListingRemovesConversationsAndMessages(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	msg, err := fx.service.SendMessage(ctx, fx.alice, SendMessageParams{
		ListingID: fx.listing.ID, ReceiverID: fx.bob.ID, Text: "hi",
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.PurgeListing(ctx, fx.listing.ID))

	pair, err := domainchat.NewParticipantPair(fx.alice.ID, fx.bob.ID)
	require.NoError(t, err)
	_, err = fx.service.Conversations.ByPair(ctx, fx.listing.ID, pair)
	assert.ErrorIs(t, err, domainchat.ErrConversationNotFound)

	remaining, err := fx.service.Messages.ListByIDs(ctx, []domainchat.MessageID{msg.ID})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
