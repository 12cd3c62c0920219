package usecase

import (
	"context"

	"github.com/philling1/house-marketplace/internal/listing/domain"
)

// ImageStorage is the object-store port. Upload stores the bytes under the
// given file name and returns the public download URL.
type ImageStorage interface {
	Upload(ctx context.Context, fileName string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, fileURL string) error
}

// Geocoder resolves a free-text address into coordinates and a formatted
// address. It returns domain.ErrAddressNotResolved when the service reports
// no usable result.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (domain.Geolocation, string, error)
}

type ListingCache interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	SetListing(ctx context.Context, listing *domain.Listing) error
	DeleteListing(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishListingCreated(ctx context.Context, listing *domain.Listing) error
	PublishListingUpdated(ctx context.Context, listing *domain.Listing) error
	PublishListingDeleted(ctx context.Context, listingID string) error
}

type Mailer interface {
	SendListingPublishedEmail(toEmail, listingName string) error
}

// OwnerDirectory looks up contact details for listing owners.
type OwnerDirectory interface {
	GetEmail(ctx context.Context, userID string) (string, error)
}
