package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainchat "tradepost/internal/domain/chat"
	domainuser "tradepost/internal/domain/user"
)

func TestFindOrCreateReturnsExistingWinner(t *testing.T) {
	repo := NewConversationRepository()
	ctx := context.Background()
	pair, err := domainchat.NewParticipantPair(domainuser.ID("alice"), domainuser.ID("bob"))
	require.NoError(t, err)

	first, err := domainchat.NewConversation(domainchat.CreateConversationParams{
		ID: "c1", ListingID: "l1", Participants: pair,
	})
	require.NoError(t, err)
	second, err := domainchat.NewConversation(domainchat.CreateConversationParams{
		ID: "c2", ListingID: "l1", Participants: pair,
	})
	require.NoError(t, err)

	created, err := repo.FindOrCreate(ctx, first)
	require.NoError(t, err)
	winner, err := repo.FindOrCreate(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, created.ID, winner.ID)
}

func TestFindOrCreateSeparatesListings(t *testing.T) {
	repo := NewConversationRepository()
	ctx := context.Background()
	pair, err := domainchat.NewParticipantPair(domainuser.ID("alice"), domainuser.ID("bob"))
	require.NoError(t, err)

	one, err := domainchat.NewConversation(domainchat.CreateConversationParams{
		ID: "c1", ListingID: "l1", Participants: pair,
	})
	require.NoError(t, err)
	two, err := domainchat.NewConversation(domainchat.CreateConversationParams{
		ID: "c2", ListingID: "l2", Participants: pair,
	})
	require.NoError(t, err)

	_, err = repo.FindOrCreate(ctx, one)
	require.NoError(t, err)
	other, err := repo.FindOrCreate(ctx, two)
	require.NoError(t, err)

	assert.Equal(t, domainchat.ConversationID("c2"), other.ID)
}

func TestAppendMessageBumpsUpdatedAt(t *testing.T) {
	repo := NewConversationRepository()
	ctx := context.Background()
	pair, err := domainchat.NewParticipantPair(domainuser.ID("alice"), domainuser.ID("bob"))
	require.NoError(t, err)

	conv, err := domainchat.NewConversation(domainchat.CreateConversationParams{
		ID: "c1", ListingID: "l1", Participants: pair,
	})
	require.NoError(t, err)
	_, err = repo.FindOrCreate(ctx, conv)
	require.NoError(t, err)

	at := time.Now().Add(time.Hour).UTC()
	require.NoError(t, repo.AppendMessage(ctx, conv.ID, "m1", at))

	stored, err := repo.ByPair(ctx, "l1", pair)
	require.NoError(t, err)
	assert.Equal(t, []domainchat.MessageID{"m1"}, stored.MessageIDs)
	assert.Equal(t, at, stored.UpdatedAt)
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	repo := NewConversationRepository()
	err := repo.AppendMessage(context.Background(), "ghost", "m1", time.Now())
	assert.ErrorIs(t, err, domainchat.ErrConversationNotFound)
}
