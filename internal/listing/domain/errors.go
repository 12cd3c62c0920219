package domain

import "errors"

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrForbidden          = errors.New("user not authorized to perform this action")
	ErrInvalidListingData = errors.New("invalid listing data")
	// ErrDiscountNotBelowRegular rejects offers whose discounted price is
	// not strictly below the regular price.
	ErrDiscountNotBelowRegular = errors.New("discounted price needs to be less than the regular price")
	ErrTooManyImages           = errors.New("max 6 images")
	ErrAddressNotResolved      = errors.New("address could not be resolved")
	ErrImageUpload             = errors.New("image upload failed")
	ErrFavoriteNotFound        = errors.New("favorite not found")
	ErrDuplicateFavorite       = errors.New("favorite already exists")
)
