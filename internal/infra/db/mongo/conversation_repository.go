package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "tradepost/internal/domain/chat"
	domainlisting "tradepost/internal/domain/listing"
	domainuser "tradepost/internal/domain/user"
)

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{col: db.Collection(conversationsCollection)}
}

// FindOrCreate resolves the conversation for conv's (listing, pair) tuple.
// The unique index on (listing_id, participant_key) turns the
// check-then-act race under concurrent first messages into a safe retry:
// the losing insert re-reads the winner.
func (r *ConversationRepository) FindOrCreate(ctx context.Context, conv *domainchat.Conversation) (*domainchat.Conversation, error) {
	existing, err := r.ByPair(ctx, conv.ListingID, conv.Participants)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainchat.ErrConversationNotFound) {
		return nil, err
	}

	doc := newConversationDocument(conv)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.ByPair(ctx, conv.ListingID, conv.Participants)
		}
		return nil, err
	}
	return conv, nil
}

func (r *ConversationRepository) ByPair(ctx context.Context, listingID domainlisting.ID, pair domainchat.ParticipantPair) (*domainchat.Conversation, error) {
	filter := bson.M{"listing_id": string(listingID), "participant_key": pair.Key()}
	var doc conversationDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// AppendMessage pushes the message id and bumps the updated timestamp in
// one atomic update, so concurrent appends interleave without loss.
func (r *ConversationRepository) AppendMessage(ctx context.Context, id domainchat.ConversationID, messageID domainchat.MessageID, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	update := bson.M{
		"$push": bson.M{"message_ids": string(messageID)},
		"$set":  bson.M{"updated_at": at.UTC().UnixMilli()},
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(id)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainchat.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID domainuser.ID) ([]*domainchat.Conversation, error) {
	filter := bson.M{"participants": string(userID)}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []*domainchat.Conversation
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		conversations = append(conversations, doc.toDomain())
	}
	return conversations, cursor.Err()
}

// DeleteByListing purges every conversation for the listing and returns
// the ids of the messages they referenced so the message log can be
// purged as well.
func (r *ConversationRepository) DeleteByListing(ctx context.Context, listingID domainlisting.ID) ([]domainchat.MessageID, error) {
	filter := bson.M{"listing_id": string(listingID)}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messageIDs []domainchat.MessageID
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		for _, id := range doc.MessageIDs {
			messageIDs = append(messageIDs, domainchat.MessageID(id))
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if _, err := r.col.DeleteMany(ctx, filter); err != nil {
		return nil, err
	}
	return messageIDs, nil
}

type conversationDocument struct {
	ID             string   `bson:"_id"`
	ListingID      string   `bson:"listing_id"`
	ParticipantKey string   `bson:"participant_key"`
	Participants   []string `bson:"participants"`
	MessageIDs     []string `bson:"message_ids,omitempty"`
	CreatedAt      int64    `bson:"created_at"`
	UpdatedAt      int64    `bson:"updated_at"`
}

func newConversationDocument(c *domainchat.Conversation) conversationDocument {
	ids := make([]string, 0, len(c.MessageIDs))
	for _, id := range c.MessageIDs {
		ids = append(ids, string(id))
	}
	return conversationDocument{
		ID:             string(c.ID),
		ListingID:      string(c.ListingID),
		ParticipantKey: c.Participants.Key(),
		Participants:   []string{string(c.Participants.A), string(c.Participants.B)},
		MessageIDs:     ids,
		CreatedAt:      c.CreatedAt.UnixMilli(),
		UpdatedAt:      c.UpdatedAt.UnixMilli(),
	}
}

func (d conversationDocument) toDomain() *domainchat.Conversation {
	pair := domainchat.ParticipantPair{}
	if len(d.Participants) == 2 {
		pair, _ = domainchat.NewParticipantPair(domainuser.ID(d.Participants[0]), domainuser.ID(d.Participants[1]))
	}
	ids := make([]domainchat.MessageID, 0, len(d.MessageIDs))
	for _, id := range d.MessageIDs {
		ids = append(ids, domainchat.MessageID(id))
	}
	return &domainchat.Conversation{
		ID:           domainchat.ConversationID(d.ID),
		ListingID:    domainlisting.ID(d.ListingID),
		Participants: pair,
		MessageIDs:   ids,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}
}
