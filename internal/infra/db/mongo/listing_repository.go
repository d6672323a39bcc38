package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "tradepost/internal/domain/listing"
	domainuser "tradepost/internal/domain/user"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ID) (*domainlisting.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlisting.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner domainuser.ID) ([]*domainlisting.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"owner_id": string(owner)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var listings []*domainlisting.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		listings = append(listings, doc.toDomain())
	}
	return listings, cursor.Err()
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlisting.Listing) error {
	doc := newListingDocument(listing)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlisting.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlisting.ErrNotFound
	}
	return nil
}

type listingDocument struct {
	ID          string          `bson:"_id"`
	OwnerID     string          `bson:"owner_id"`
	OwnerName   string          `bson:"owner_name"`
	OwnerAvatar string          `bson:"owner_avatar,omitempty"`
	Title       string          `bson:"title"`
	Description string          `bson:"description,omitempty"`
	Category    string          `bson:"category,omitempty"`
	PriceCents  int64           `bson:"price_cents"`
	Images      []string        `bson:"images,omitempty"`
	Offers      []offerDocument `bson:"offers,omitempty"`
	Sold        bool            `bson:"sold"`
	CreatedAt   int64           `bson:"created_at"`
	UpdatedAt   int64           `bson:"updated_at"`
}

type offerDocument struct {
	BidderID   string `bson:"bidder_id"`
	BidderName string `bson:"bidder_name"`
	Amount     int64  `bson:"amount"`
	PlacedAt   int64  `bson:"placed_at"`
}

func newListingDocument(l *domainlisting.Listing) listingDocument {
	offers := make([]offerDocument, 0, len(l.Offers))
	for _, offer := range l.Offers {
		offers = append(offers, offerDocument{
			BidderID:   string(offer.BidderID),
			BidderName: offer.BidderName,
			Amount:     offer.Amount,
			PlacedAt:   offer.PlacedAt.UnixMilli(),
		})
	}
	return listingDocument{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		OwnerName:   l.OwnerName,
		OwnerAvatar: l.OwnerAvatar,
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		PriceCents:  l.PriceCents,
		Images:      append([]string(nil), l.Images...),
		Offers:      offers,
		Sold:        l.Sold,
		CreatedAt:   l.CreatedAt.UnixMilli(),
		UpdatedAt:   l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toDomain() *domainlisting.Listing {
	offers := make([]domainlisting.Offer, 0, len(d.Offers))
	for _, offer := range d.Offers {
		offers = append(offers, domainlisting.Offer{
			BidderID:   domainuser.ID(offer.BidderID),
			BidderName: offer.BidderName,
			Amount:     offer.Amount,
			PlacedAt:   timestampToTime(offer.PlacedAt),
		})
	}
	return &domainlisting.Listing{
		ID:          domainlisting.ID(d.ID),
		Owner:       domainuser.ID(d.OwnerID),
		OwnerName:   d.OwnerName,
		OwnerAvatar: d.OwnerAvatar,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		PriceCents:  d.PriceCents,
		Images:      append([]string(nil), d.Images...),
		Offers:      offers,
		Sold:        d.Sold,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}
