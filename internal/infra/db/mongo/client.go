package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

// EnsureIndexes creates the uniqueness constraints the chat and
// notification merge semantics rely on. Must run before serving traffic.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	userIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.DB.Collection(usersCollection).Indexes().CreateOne(ctx, userIdx); err != nil {
		return err
	}

	// Closes the check-then-act race on concurrent first messages: the
	// second insert for the same (listing, pair) fails with a duplicate
	// key error and the caller re-reads the winner.
	convIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "listing_id", Value: 1}, {Key: "participant_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.DB.Collection(conversationsCollection).Indexes().CreateOne(ctx, convIdx); err != nil {
		return err
	}

	notifIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "listing_id", Value: 1},
			{Key: "sender_id", Value: 1},
			{Key: "receiver_id", Value: 1},
			{Key: "type", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.DB.Collection(notificationsCollection).Indexes().CreateOne(ctx, notifIdx); err != nil {
		return err
	}

	sessionIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	_, err := c.DB.Collection(sessionsCollection).Indexes().CreateOne(ctx, sessionIdx)
	return err
}

const (
	usersCollection         = "users"
	sessionsCollection      = "sessions"
	listingsCollection      = "listings"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	notificationsCollection = "notifications"
)
