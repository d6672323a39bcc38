package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "tradepost/internal/domain/chat"
	domainuser "tradepost/internal/domain/user"
)

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(messagesCollection)}
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainchat.Message) error {
	_, err := r.col.InsertOne(ctx, newMessageDocument(msg))
	return err
}

func (r *MessageRepository) ListByIDs(ctx context.Context, ids []domainchat.MessageID) ([]*domainchat.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	filter := bson.M{"_id": bson.M{"$in": raw}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*domainchat.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		messages = append(messages, doc.toDomain())
	}
	return messages, cursor.Err()
}

func (r *MessageRepository) DeleteByIDs(ctx context.Context, ids []domainchat.MessageID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	_, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": raw}})
	return err
}

type messageDocument struct {
	ID         string `bson:"_id"`
	SenderID   string `bson:"sender_id"`
	ReceiverID string `bson:"receiver_id"`
	Text       string `bson:"text"`
	CreatedAt  int64  `bson:"created_at"`
}

func newMessageDocument(m *domainchat.Message) messageDocument {
	return messageDocument{
		ID:         string(m.ID),
		SenderID:   string(m.Sender),
		ReceiverID: string(m.Receiver),
		Text:       m.Text,
		CreatedAt:  m.CreatedAt.UnixMilli(),
	}
}

func (d messageDocument) toDomain() *domainchat.Message {
	return &domainchat.Message{
		ID:        domainchat.MessageID(d.ID),
		Sender:    domainuser.ID(d.SenderID),
		Receiver:  domainuser.ID(d.ReceiverID),
		Text:      d.Text,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
