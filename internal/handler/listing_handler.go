package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/philling1/house-marketplace/internal/listing/domain"
	"github.com/philling1/house-marketplace/internal/listing/usecase"
	"github.com/philling1/house-marketplace/internal/middleware"
	"github.com/philling1/house-marketplace/internal/platform/logger"
)

// maxUploadBytes bounds the multipart form kept in memory per request.
const maxUploadBytes = 32 << 20

type ListingHandler struct {
	listings  *usecase.ListingUsecase
	favorites *usecase.FavoriteUsecase
	logger    *logger.Logger
}

func NewListingHandler(listings *usecase.ListingUsecase, favorites *usecase.FavoriteUsecase, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		listings:  listings,
		favorites: favorites,
		logger:    log.Named("listing_handler"),
	}
}

// fieldKinds fixes the update kind per form field, so string-to-value
// coercion happens exactly once, here at the boundary.
var fieldKinds = map[string]usecase.UpdateKind{
	"type":               usecase.UpdateText,
	"name":               usecase.UpdateText,
	"address":            usecase.UpdateText,
	"bedrooms":           usecase.UpdateNumber,
	"bathrooms":          usecase.UpdateNumber,
	"regularPrice":       usecase.UpdateNumber,
	"discountedPrice":    usecase.UpdateNumber,
	"latitude":           usecase.UpdateNumber,
	"longitude":          usecase.UpdateNumber,
	"parking":            usecase.UpdateBool,
	"furnished":          usecase.UpdateBool,
	"offer":              usecase.UpdateBool,
	"geolocationEnabled": usecase.UpdateBool,
}

// parseListingForm turns a multipart request into a ListingForm by replaying
// each submitted field through the form's update path.
func (h *ListingHandler) parseListingForm(r *http.Request) (*usecase.ListingForm, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, err
	}

	form := &usecase.ListingForm{}
	for field, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		raw := values[0]

		kind, ok := fieldKinds[field]
		if !ok {
			return nil, usecase.ErrUnknownField
		}

		var update usecase.FieldUpdate
		switch kind {
		case usecase.UpdateText:
			update = usecase.TextUpdate(field, raw)
		case usecase.UpdateNumber:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.New("field " + field + " must be a number")
			}
			update = usecase.NumberUpdate(field, n)
		case usecase.UpdateBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, errors.New("field " + field + " must be true or false")
			}
			update = usecase.BoolUpdate(field, b)
		}

		if err := form.Apply(update); err != nil {
			return nil, err
		}
	}

	files := r.MultipartForm.File["images"]
	if len(files) > 0 {
		selections := make([]usecase.FileSelection, 0, len(files))
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, err
			}
			selections = append(selections, usecase.FileSelection{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
		if err := form.Apply(usecase.FilesUpdate(selections)); err != nil {
			return nil, err
		}
	}

	return form, nil
}

type listingCreatedResponse struct {
	Listing listingResponse `json:"listing"`
	Warning string          `json:"warning,omitempty"`
}

func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	form, err := h.parseListingForm(r)
	if err != nil {
		h.logger.Error("Failed to parse listing form", zap.Error(err))
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	listing, err := h.listings.CreateListing(r.Context(), ownerID, form)
	if err != nil && listing == nil {
		writeError(w, h.logger, err)
		return
	}

	resp := listingCreatedResponse{Listing: toListingResponse(listing)}
	if err != nil {
		// The listing was still persisted; surface the problem as a notice.
		resp.Warning = err.Error()
	}
	w.Header().Set("Location", resp.Listing.Path)
	respondJSON(w, http.StatusCreated, resp)
}

func (h *ListingHandler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	listingID := chi.URLParam(r, "id")

	form, err := h.parseListingForm(r)
	if err != nil {
		h.logger.Error("Failed to parse listing form", zap.Error(err))
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	listing, err := h.listings.EditListing(r.Context(), listingID, actorID, form)
	if err != nil && listing == nil {
		writeError(w, h.logger, err)
		return
	}

	resp := listingCreatedResponse{Listing: toListingResponse(listing)}
	if err != nil {
		resp.Warning = err.Error()
	}
	w.Header().Set("Location", resp.Listing.Path)
	respondJSON(w, http.StatusOK, resp)
}

func (h *ListingHandler) HandleGetListingByID(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toListingResponse(listing))
}

type searchResponse struct {
	Listings []listingResponse `json:"listings"`
	Total    int64             `json:"total"`
}

func (h *ListingHandler) HandleSearchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.Filter{
		Type:      domain.ListingType(q.Get("type")),
		OwnerID:   q.Get("userRef"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if q.Get("offer") != "" {
		offersOnly, err := strconv.ParseBool(q.Get("offer"))
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "offer must be true or false"})
			return
		}
		filter.OffersOnly = offersOnly
	}
	for param, dst := range map[string]*int64{
		"minPrice": &filter.MinPrice,
		"maxPrice": &filter.MaxPrice,
		"page":     &filter.Page,
		"limit":    &filter.Limit,
	} {
		if raw := q.Get(param); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				respondJSON(w, http.StatusBadRequest, errorResponse{Error: param + " must be a number"})
				return
			}
			*dst = n
		}
	}

	listings, total, err := h.listings.SearchListings(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := searchResponse{Listings: make([]listingResponse, 0, len(listings)), Total: total}
	for _, l := range listings {
		resp.Listings = append(resp.Listings, toListingResponse(l))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ListingHandler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	if err := h.listings.DeleteListing(r.Context(), chi.URLParam(r, "id"), actorID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type favoriteRequest struct {
	ListingID string `json:"listingId"`
}

func (h *ListingHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	req, err := decodeFavoriteRequest(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.favorites.AddFavorite(r.Context(), userID, req.ListingID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "favorited"})
}

func (h *ListingHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	req, err := decodeFavoriteRequest(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.favorites.RemoveFavorite(r.Context(), userID, req.ListingID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type favoriteResponse struct {
	ListingID string `json:"listingId"`
	CreatedAt string `json:"createdAt"`
}

func (h *ListingHandler) HandleGetFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	favorites, err := h.favorites.GetFavorites(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]favoriteResponse, 0, len(favorites))
	for _, f := range favorites {
		resp = append(resp, favoriteResponse{
			ListingID: f.ListingID,
			CreatedAt: f.CreatedAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func decodeFavoriteRequest(r *http.Request) (*favoriteRequest, error) {
	var req favoriteRequest
	if err := jsonDecode(r, &req); err != nil {
		return nil, errors.New("invalid request body")
	}
	if req.ListingID == "" {
		return nil, errors.New("listingId is required")
	}
	return &req, nil
}
