package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/philling1/house-marketplace/internal/handler"
	"github.com/philling1/house-marketplace/internal/middleware"
)

// SetupListingRoutes configures listing and favorite routes. Reads are
// public; anything that mutates requires an authenticated actor.
func SetupListingRoutes(mux *chi.Mux, h *handler.ListingHandler, jwtSecret string) {
	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret))

		r.Post("/api/listings", h.HandleCreateListing)
		r.Put("/api/listings/{id}", h.HandleUpdateListing)
		r.Delete("/api/listings/{id}", h.HandleDeleteListing)

		r.Post("/api/favorites", h.HandleAddFavorite)
		r.Delete("/api/favorites", h.HandleRemoveFavorite)
		r.Get("/api/favorites", h.HandleGetFavorites)
	})

	mux.Get("/api/listings/search", h.HandleSearchListings)
	mux.Get("/api/listings/{id}", h.HandleGetListingByID)
	mux.Get("/category/{type}/{id}", h.HandleGetListingByID)
}
