package domain

import "time"

type ListingType string

const (
	TypeSale ListingType = "sale"
	TypeRent ListingType = "rent"
)

// MaxImages is the most images a listing may carry; the first one is the
// cover image.
const MaxImages = 6

// Geolocation is a WGS84 coordinate pair.
type Geolocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Listing describes one property for sale or rent, owned by exactly one
// user. OwnerID never changes after creation.
type Listing struct {
	ID              string
	OwnerID         string
	Type            ListingType
	Name            string
	Bedrooms        int
	Bathrooms       int
	Parking         bool
	Furnished       bool
	Location        string
	Geolocation     Geolocation
	Offer           bool
	RegularPrice    int64
	DiscountedPrice int64 // zero, and absent from the stored document, unless Offer is set
	ImageURLs       []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Favorite struct {
	ID        string
	UserID    string
	ListingID string
	CreatedAt time.Time
}

// Filter narrows listing searches. Zero values mean "no constraint".
type Filter struct {
	Type       ListingType
	OffersOnly bool
	MinPrice   int64
	MaxPrice   int64
	OwnerID    string
	Page       int64
	Limit      int64
	SortBy     string
	SortOrder  string
}
