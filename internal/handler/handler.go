package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/philling1/house-marketplace/internal/listing/domain"
	"github.com/philling1/house-marketplace/internal/platform/logger"
	userdomain "github.com/philling1/house-marketplace/internal/user/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func jsonDecode(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps domain errors onto HTTP status codes and logs anything
// that surfaces as a server error.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrInvalidListingData),
		errors.Is(err, domain.ErrDiscountNotBelowRegular):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAddressNotResolved):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrFavoriteNotFound),
		errors.Is(err, userdomain.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, userdomain.ErrInvalidCredentials),
		errors.Is(err, userdomain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, userdomain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrDuplicateFavorite):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// listingResponse is the wire shape of a listing. Field names match the
// stored document so clients see one vocabulary everywhere.
type listingResponse struct {
	ID              string             `json:"id"`
	UserRef         string             `json:"userRef"`
	Type            string             `json:"type"`
	Name            string             `json:"name"`
	Bedrooms        int                `json:"bedrooms"`
	Bathrooms       int                `json:"bathrooms"`
	Parking         bool               `json:"parking"`
	Furnished       bool               `json:"furnished"`
	Location        string             `json:"location"`
	Geolocation     domain.Geolocation `json:"geolocation"`
	Offer           bool               `json:"offer"`
	RegularPrice    int64              `json:"regularPrice"`
	DiscountedPrice int64              `json:"discountedPrice,omitempty"`
	ImageURLs       []string           `json:"imageUrls"`
	Path            string             `json:"path"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	return listingResponse{
		ID:              l.ID,
		UserRef:         l.OwnerID,
		Type:            string(l.Type),
		Name:            l.Name,
		Bedrooms:        l.Bedrooms,
		Bathrooms:       l.Bathrooms,
		Parking:         l.Parking,
		Furnished:       l.Furnished,
		Location:        l.Location,
		Geolocation:     l.Geolocation,
		Offer:           l.Offer,
		RegularPrice:    l.RegularPrice,
		DiscountedPrice: l.DiscountedPrice,
		ImageURLs:       l.ImageURLs,
		Path:            "/category/" + string(l.Type) + "/" + l.ID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}
