package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/app/identity"
	notifsvc "tradepost/internal/app/services/notification"
	domainchat "tradepost/internal/domain/chat"
	domainlisting "tradepost/internal/domain/listing"
	domainnotif "tradepost/internal/domain/notification"
	domainuser "tradepost/internal/domain/user"
)

// Dispatcher pushes a new message to the receiver's live channel if one
// is registered. Implementations must not block and must swallow
// transport failures; the message log is the source of truth.
type Dispatcher interface {
	DeliverMessage(receiver domainuser.ID, listingID domainlisting.ID, msg *domainchat.Message)
}

// EventEmitter publishes best-effort domain events to the broker.
type EventEmitter interface {
	Emit(ctx context.Context, topic, aggregateID string, data map[string]any)
}

// Service runs the send-message pipeline and the read-side conversation
// queries. Durable writes commit before any live push is attempted.
type Service struct {
	Listings      domainlisting.Repository
	Users         domainuser.Repository
	Conversations domainchat.ConversationRepository
	Messages      domainchat.MessageRepository
	Notifications *notifsvc.Service
	Dispatcher    Dispatcher
	Events        EventEmitter
	Logger        *slog.Logger
}

const topicMessageSent = "tradepost.chat.message-sent"

type SendMessageParams struct {
	ListingID  domainlisting.ID
	ReceiverID domainuser.ID
	Text       string
}

// SendMessage resolves or creates the conversation for (listing, sender,
// receiver), appends the message, merges the notification, and finally
// attempts the live push.
func (s *Service) SendMessage(ctx context.Context, sender identity.Principal, params SendMessageParams) (*domainchat.Message, error) {
	lst, err := s.Listings.ByID(ctx, params.ListingID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.Users.ByID(ctx, params.ReceiverID)
	if err != nil {
		return nil, err
	}
	pair, err := domainchat.NewParticipantPair(sender.ID, receiver.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg, err := domainchat.NewMessage(domainchat.CreateMessageParams{
		ID:       domainchat.MessageID(uuid.NewString()),
		Sender:   sender.ID,
		Receiver: receiver.ID,
		Text:     params.Text,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	conv, err := domainchat.NewConversation(domainchat.CreateConversationParams{
		ID:           domainchat.ConversationID(uuid.NewString()),
		ListingID:    lst.ID,
		Participants: pair,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}
	conv, err = s.Conversations.FindOrCreate(ctx, conv)
	if err != nil {
		return nil, err
	}

	if err := s.Messages.Append(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.Conversations.AppendMessage(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		return nil, err
	}

	if _, err := s.Notifications.Record(ctx, notifsvc.RecordParams{
		ListingID:    lst.ID,
		ListingTitle: lst.Title,
		SenderID:     sender.ID,
		SenderName:   sender.Name,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.Name,
		Type:         domainnotif.EventMessage,
		Now:          msg.CreatedAt,
	}); err != nil {
		return nil, err
	}

	if s.Events != nil {
		s.Events.Emit(ctx, topicMessageSent, string(conv.ID), map[string]any{
			"conversation_id": string(conv.ID),
			"listing_id":      string(lst.ID),
			"message_id":      string(msg.ID),
			"sender_id":       string(sender.ID),
			"receiver_id":     string(receiver.ID),
		})
	}

	// Durable state is committed; the push is best effort.
	if s.Dispatcher != nil {
		s.Dispatcher.DeliverMessage(receiver.ID, lst.ID, msg)
	}
	if s.Logger != nil {
		s.Logger.Info("message sent",
			"conversation_id", conv.ID,
			"listing_id", lst.ID,
			"sender_id", sender.ID,
			"receiver_id", receiver.ID,
		)
	}
	return msg, nil
}

// ListMessages materializes the transcript between the requester and the
// other user about one listing, oldest first. No conversation yet means
// an empty transcript, not an error.
func (s *Service) ListMessages(ctx context.Context, requester identity.Principal, listingID domainlisting.ID, otherID domainuser.ID) ([]*domainchat.Message, error) {
	pair, err := domainchat.NewParticipantPair(requester.ID, otherID)
	if err != nil {
		return nil, err
	}
	conv, err := s.Conversations.ByPair(ctx, listingID, pair)
	if err != nil {
		if errors.Is(err, domainchat.ErrConversationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.Messages.ListByIDs(ctx, conv.MessageIDs)
}

// ConversationView is one row of the conversation list, enriched at read
// time with the counterpart and a listing snapshot.
type ConversationView struct {
	Conversation *domainchat.Conversation
	OtherUserID  domainuser.ID
	OtherName    string
	OtherAvatar  string
	ListingTitle string
	PriceCents   int64
	Images       []string
}

// ListConversations returns the requester's conversations newest-updated
// first. Conversations whose listing or counterpart has vanished are
// skipped rather than served stale.
func (s *Service) ListConversations(ctx context.Context, requester identity.Principal) ([]ConversationView, error) {
	conversations, err := s.Conversations.ListForUser(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	views := make([]ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		otherID := conv.Participants.Other(requester.ID)
		other, err := s.Users.ByID(ctx, otherID)
		if err != nil {
			if errors.Is(err, domainuser.ErrNotFound) {
				continue
			}
			return nil, err
		}
		lst, err := s.Listings.ByID(ctx, conv.ListingID)
		if err != nil {
			if errors.Is(err, domainlisting.ErrNotFound) {
				continue
			}
			return nil, err
		}
		views = append(views, ConversationView{
			Conversation: conv,
			OtherUserID:  other.ID,
			OtherName:    other.Name,
			OtherAvatar:  other.AvatarURL,
			ListingTitle: lst.Title,
			PriceCents:   lst.PriceCents,
			Images:       lst.Images,
		})
	}
	return views, nil
}

// PurgeListing removes the listing's conversations and their messages.
// It runs inside the listing-deletion cascade, before the listing row
// disappears.
func (s *Service) PurgeListing(ctx context.Context, listingID domainlisting.ID) error {
	messageIDs, err := s.Conversations.DeleteByListing(ctx, listingID)
	if err != nil {
		return err
	}
	return s.Messages.DeleteByIDs(ctx, messageIDs)
}
