package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainchat "tradepost/internal/domain/chat"
	domainlisting "tradepost/internal/domain/listing"
	domainuser "tradepost/internal/domain/user"
)

type pairKey struct {
	listing domainlisting.ID
	pair    string
}

// ConversationRepository stores conversations in memory, enforcing the
// same (listing, pair) uniqueness the mongo index provides.
type ConversationRepository struct {
	mu     sync.RWMutex
	byID   map[domainchat.ConversationID]*domainchat.Conversation
	byPair map[pairKey]domainchat.ConversationID
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:   make(map[domainchat.ConversationID]*domainchat.Conversation),
		byPair: make(map[pairKey]domainchat.ConversationID),
	}
}

func (r *ConversationRepository) FindOrCreate(ctx context.Context, conv *domainchat.Conversation) (*domainchat.Conversation, error) {
	if conv == nil {
		return nil, domainchat.ErrIDRequired
	}
	key := pairKey{listing: conv.ListingID, pair: conv.Participants.Key()}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPair[key]; ok {
		return cloneConversation(r.byID[id]), nil
	}
	r.byPair[key] = conv.ID
	r.byID[conv.ID] = cloneConversation(conv)
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) ByPair(ctx context.Context, listingID domainlisting.ID, pair domainchat.ParticipantPair) (*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pairKey{listing: listingID, pair: pair.Key()}]
	if !ok {
		return nil, domainchat.ErrConversationNotFound
	}
	return cloneConversation(r.byID[id]), nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, id domainchat.ConversationID, messageID domainchat.MessageID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[id]
	if !ok {
		return domainchat.ErrConversationNotFound
	}
	conv.MessageIDs = append(conv.MessageIDs, messageID)
	conv.UpdatedAt = at.UTC()
	return nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID domainuser.ID) ([]*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainchat.Conversation
	for _, conv := range r.byID {
		if conv.Participants.Contains(userID) {
			out = append(out, cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *ConversationRepository) DeleteByListing(ctx context.Context, listingID domainlisting.ID) ([]domainchat.MessageID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []domainchat.MessageID
	for id, conv := range r.byID {
		if conv.ListingID != listingID {
			continue
		}
		removed = append(removed, conv.MessageIDs...)
		delete(r.byPair, pairKey{listing: conv.ListingID, pair: conv.Participants.Key()})
		delete(r.byID, id)
	}
	return removed, nil
}

func cloneConversation(c *domainchat.Conversation) *domainchat.Conversation {
	if c == nil {
		return nil
	}
	copyConv := *c
	copyConv.MessageIDs = append([]domainchat.MessageID(nil), c.MessageIDs...)
	return &copyConv
}

// MessageRepository is the in-memory message log.
type MessageRepository struct {
	mu   sync.RWMutex
	byID map[domainchat.MessageID]*domainchat.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{byID: make(map[domainchat.MessageID]*domainchat.Message)}
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainchat.Message) error {
	if msg == nil {
		return domainchat.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copyMsg := *msg
	r.byID[msg.ID] = &copyMsg
	return nil
}

func (r *MessageRepository) ListByIDs(ctx context.Context, ids []domainchat.MessageID) ([]*domainchat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainchat.Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := r.byID[id]; ok {
			copyMsg := *msg
			out = append(out, &copyMsg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MessageRepository) DeleteByIDs(ctx context.Context, ids []domainchat.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.byID, id)
	}
	return nil
}

var _ domainchat.ConversationRepository = (*ConversationRepository)(nil)
var _ domainchat.MessageRepository = (*MessageRepository)(nil)
