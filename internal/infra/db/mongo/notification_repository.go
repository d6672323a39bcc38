package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "tradepost/internal/domain/listing"
	domainnotif "tradepost/internal/domain/notification"
	domainuser "tradepost/internal/domain/user"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(notificationsCollection)}
}

// Upsert merges n into the row identified by (listing, sender, receiver,
// type): a repeat event refreshes title/timestamp and forces unread, a
// first event inserts. One FindOneAndUpdate keeps the whole merge atomic,
// and the unique index guarantees at most one row per tuple even under
// concurrent upserts.
func (r *NotificationRepository) Upsert(ctx context.Context, n *domainnotif.Notification) (*domainnotif.Notification, error) {
	filter := bson.M{
		"listing_id":  string(n.ListingID),
		"sender_id":   string(n.SenderID),
		"receiver_id": string(n.ReceiverID),
		"type":        string(n.Type),
	}
	update := bson.M{
		"$set": bson.M{
			"listing_title": n.ListingTitle,
			"sender_name":   n.SenderName,
			"receiver_name": n.ReceiverName,
			"unread":        true,
			"created_at":    n.CreatedAt.UnixMilli(),
		},
		"$setOnInsert": bson.M{"_id": n.ID},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc notificationDocument
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *NotificationRepository) ListForReceiver(ctx context.Context, receiver domainuser.ID) ([]*domainnotif.Notification, error) {
	filter := bson.M{"receiver_id": string(receiver)}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.list(ctx, filter, opts)
}

// MarkAllRead clears the unread flag for every notification addressed to
// the receiver and returns the updated set. Calling it again is a no-op.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiver domainuser.ID) ([]*domainnotif.Notification, error) {
	filter := bson.M{"receiver_id": string(receiver)}
	if _, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"unread": false}}); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.list(ctx, filter, opts)
}

func (r *NotificationRepository) DeleteByListing(ctx context.Context, listingID domainlisting.ID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"listing_id": string(listingID)})
	return err
}

func (r *NotificationRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainnotif.Notification, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []*domainnotif.Notification
	for cursor.Next(ctx) {
		var doc notificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		notifications = append(notifications, doc.toDomain())
	}
	return notifications, cursor.Err()
}

type notificationDocument struct {
	ID           string `bson:"_id"`
	ListingID    string `bson:"listing_id"`
	ListingTitle string `bson:"listing_title"`
	SenderID     string `bson:"sender_id"`
	SenderName   string `bson:"sender_name"`
	ReceiverID   string `bson:"receiver_id"`
	ReceiverName string `bson:"receiver_name"`
	Type         string `bson:"type"`
	Unread       bool   `bson:"unread"`
	CreatedAt    int64  `bson:"created_at"`
}

func (d notificationDocument) toDomain() *domainnotif.Notification {
	return &domainnotif.Notification{
		ID:           d.ID,
		ListingID:    domainlisting.ID(d.ListingID),
		ListingTitle: d.ListingTitle,
		SenderID:     domainuser.ID(d.SenderID),
		SenderName:   d.SenderName,
		ReceiverID:   domainuser.ID(d.ReceiverID),
		ReceiverName: d.ReceiverName,
		Type:         domainnotif.EventType(d.Type),
		Unread:       d.Unread,
		CreatedAt:    timestampToTime(d.CreatedAt),
	}
}
