package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	listingdomain "github.com/philling1/house-marketplace/internal/listing/domain"
	userdomain "github.com/philling1/house-marketplace/internal/user/domain"
)

// listingDocument is the stored shape of a listing. The raw address and the
// file selection of the submission form have no fields here on purpose:
// they are never persisted.
type listingDocument struct {
	ID              primitive.ObjectID        `bson:"_id,omitempty"`
	OwnerID         string                    `bson:"userRef"`
	Type            listingdomain.ListingType `bson:"type"`
	Name            string                    `bson:"name"`
	Bedrooms        int                       `bson:"bedrooms"`
	Bathrooms       int                       `bson:"bathrooms"`
	Parking         bool                      `bson:"parking"`
	Furnished       bool                      `bson:"furnished"`
	Location        string                    `bson:"location"`
	Geolocation     geolocationDocument       `bson:"geolocation"`
	Offer           bool                      `bson:"offer"`
	RegularPrice    int64                     `bson:"regularPrice"`
	DiscountedPrice int64                     `bson:"discountedPrice,omitempty"`
	ImageURLs       []string                  `bson:"imageUrls"`
	CreatedAt       time.Time                 `bson:"created_at"`
	UpdatedAt       time.Time                 `bson:"updated_at"`
}

type geolocationDocument struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type favoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ListingID string             `bson:"listing_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func objectIDFromDomain(id string) (primitive.ObjectID, error) {
	if id == "" {
		// Leave unset so MongoDB assigns one on insert.
		return primitive.NilObjectID, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid document id %q: %w", id, err)
	}
	return oid, nil
}

func toListingDocument(l *listingdomain.Listing) (*listingDocument, error) {
	docID, err := objectIDFromDomain(l.ID)
	if err != nil {
		return nil, err
	}
	return &listingDocument{
		ID:              docID,
		OwnerID:         l.OwnerID,
		Type:            l.Type,
		Name:            l.Name,
		Bedrooms:        l.Bedrooms,
		Bathrooms:       l.Bathrooms,
		Parking:         l.Parking,
		Furnished:       l.Furnished,
		Location:        l.Location,
		Geolocation:     geolocationDocument{Lat: l.Geolocation.Lat, Lng: l.Geolocation.Lng},
		Offer:           l.Offer,
		RegularPrice:    l.RegularPrice,
		DiscountedPrice: l.DiscountedPrice,
		ImageURLs:       l.ImageURLs,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}, nil
}

func toDomainListing(d *listingDocument) *listingdomain.Listing {
	if d == nil {
		return nil
	}
	return &listingdomain.Listing{
		ID:              d.ID.Hex(),
		OwnerID:         d.OwnerID,
		Type:            d.Type,
		Name:            d.Name,
		Bedrooms:        d.Bedrooms,
		Bathrooms:       d.Bathrooms,
		Parking:         d.Parking,
		Furnished:       d.Furnished,
		Location:        d.Location,
		Geolocation:     listingdomain.Geolocation{Lat: d.Geolocation.Lat, Lng: d.Geolocation.Lng},
		Offer:           d.Offer,
		RegularPrice:    d.RegularPrice,
		DiscountedPrice: d.DiscountedPrice,
		ImageURLs:       d.ImageURLs,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toFavoriteDocument(f *listingdomain.Favorite) (*favoriteDocument, error) {
	docID, err := objectIDFromDomain(f.ID)
	if err != nil {
		return nil, err
	}
	return &favoriteDocument{
		ID:        docID,
		UserID:    f.UserID,
		ListingID: f.ListingID,
		CreatedAt: f.CreatedAt,
	}, nil
}

func toDomainFavorite(d *favoriteDocument) *listingdomain.Favorite {
	if d == nil {
		return nil
	}
	return &listingdomain.Favorite{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ListingID: d.ListingID,
		CreatedAt: d.CreatedAt,
	}
}

func toUserDocument(u *userdomain.User) (*userDocument, error) {
	docID, err := objectIDFromDomain(u.ID)
	if err != nil {
		return nil, err
	}
	return &userDocument{
		ID:           docID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func toDomainUser(d *userDocument) *userdomain.User {
	if d == nil {
		return nil
	}
	return &userdomain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
