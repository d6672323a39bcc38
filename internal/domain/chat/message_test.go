package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/domain/user"
)

func TestNewMessageTrimsText(t *testing.T) {
	msg, err := NewMessage(CreateMessageParams{
		ID:       MessageID("m1"),
		Sender:   user.ID("alice"),
		Receiver: user.ID("bob"),
		Text:     "  hello there  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Text)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestNewMessageRejectsBlankText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := NewMessage(CreateMessageParams{
			ID:       MessageID("m1"),
			Sender:   user.ID("alice"),
			Receiver: user.ID("bob"),
			Text:     text,
		})
		assert.ErrorIs(t, err, ErrEmptyText)
	}
}

func TestNewMessageRequiresBothParties(t *testing.T) {
	_, err := NewMessage(CreateMessageParams{
		ID:     MessageID("m1"),
		Sender: user.ID("alice"),
		Text:   "hi",
	})
	assert.ErrorIs(t, err, ErrSenderRequired)
}
