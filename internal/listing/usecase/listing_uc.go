package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/philling1/house-marketplace/internal/listing/domain"
	"github.com/philling1/house-marketplace/internal/platform/logger"
	"github.com/philling1/house-marketplace/internal/platform/metrics"
)

// ListingUsecase orchestrates listing submissions: validation, address
// resolution, image uploads and the final document write.
type ListingUsecase struct {
	repo     domain.ListingRepository
	cache    ListingCache
	storage  ImageStorage
	geocoder Geocoder
	events   EventPublisher
	mailer   Mailer
	owners   OwnerDirectory
	metrics  *metrics.MetricsManager
	logger   *logger.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewListingUsecase(
	repo domain.ListingRepository,
	cache ListingCache,
	storage ImageStorage,
	geocoder Geocoder,
	events EventPublisher,
	mailer Mailer,
	owners OwnerDirectory,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *ListingUsecase {
	return &ListingUsecase{
		repo:     repo,
		cache:    cache,
		storage:  storage,
		geocoder: geocoder,
		events:   events,
		mailer:   mailer,
		owners:   owners,
		metrics:  mm,
		logger:   log.Named("ListingUsecase"),
		validate: validator.New(),
		tracer:   otel.Tracer("listing-usecase"),
	}
}

// CreateListing persists a new listing for ownerID from the submitted form.
func (uc *ListingUsecase) CreateListing(ctx context.Context, ownerID string, form *ListingForm) (*domain.Listing, error) {
	uc.logger.Info("creating listing", zap.String("owner_id", ownerID), zap.String("name", form.Name))

	listing, err := uc.submit(ctx, ownerID, form, nil)
	if listing == nil || err != nil && !errors.Is(err, domain.ErrTooManyImages) {
		return listing, err
	}

	if uc.metrics != nil {
		uc.metrics.ListingsCreatedTotal.Inc()
	}
	if pubErr := uc.events.PublishListingCreated(ctx, listing); pubErr != nil {
		uc.logger.Warn("failed to publish listing.created", zap.String("listing_id", listing.ID), zap.Error(pubErr))
	}
	uc.notifyOwner(ctx, listing)
	return listing, err
}

// EditListing overwrites an existing listing from the submitted form. Only
// the owner may edit; the check happens before any other work.
func (uc *ListingUsecase) EditListing(ctx context.Context, listingID, actorID string, form *ListingForm) (*domain.Listing, error) {
	uc.logger.Info("editing listing", zap.String("listing_id", listingID), zap.String("actor_id", actorID))

	existing, err := uc.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("loading listing %s: %w", listingID, err)
	}
	if existing.OwnerID != actorID {
		uc.logger.Warn("edit refused, actor is not the owner",
			zap.String("listing_id", listingID),
			zap.String("owner_id", existing.OwnerID),
			zap.String("actor_id", actorID))
		return nil, domain.ErrForbidden
	}

	listing, err := uc.submit(ctx, existing.OwnerID, form, existing)
	if listing == nil || err != nil && !errors.Is(err, domain.ErrTooManyImages) {
		return listing, err
	}

	if uc.metrics != nil {
		uc.metrics.ListingUpdatesTotal.Inc()
	}
	if cacheErr := uc.cache.DeleteListing(ctx, listing.ID); cacheErr != nil {
		uc.logger.Warn("failed to invalidate listing cache", zap.String("listing_id", listing.ID), zap.Error(cacheErr))
	}
	if pubErr := uc.events.PublishListingUpdated(ctx, listing); pubErr != nil {
		uc.logger.Warn("failed to publish listing.updated", zap.String("listing_id", listing.ID), zap.Error(pubErr))
	}
	return listing, err
}

// submit runs the shared submission pipeline. When existing is nil a new
// document is created, otherwise the document at existing.ID is fully
// replaced. The returned error may be domain.ErrTooManyImages alongside a
// non-nil listing; see the image-count step below.
func (uc *ListingUsecase) submit(ctx context.Context, ownerID string, form *ListingForm, existing *domain.Listing) (*domain.Listing, error) {
	form.Loading = true
	defer func() { form.Loading = false }()

	ctx, span := uc.tracer.Start(ctx, "listing.submit")
	defer span.End()

	if err := uc.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidListingData, err)
	}
	// The price gate holds regardless of the offer flag, so a stale
	// discounted price cannot slip through when an offer is toggled off.
	if form.DiscountedPrice >= form.RegularPrice {
		return nil, domain.ErrDiscountNotBelowRegular
	}

	// The submission flow reports this error to the user but deliberately
	// does not short-circuit; the remaining steps still run. Kept as is.
	var imageCountErr error
	if len(form.Images) > domain.MaxImages {
		uc.logger.Warn("image count exceeds maximum, continuing anyway",
			zap.String("owner_id", ownerID), zap.Int("count", len(form.Images)))
		imageCountErr = domain.ErrTooManyImages
	}

	geo, location, err := uc.resolveLocation(ctx, form)
	if err != nil {
		return nil, err
	}

	imageURLs, err := uc.storeImages(ctx, ownerID, form.Images)
	if err != nil {
		return nil, err
	}

	// Assemble the final record from an explicit allow-list. The raw
	// address, the coordinates typed into the form and the file selection
	// never reach the document store.
	now := time.Now()
	listing := &domain.Listing{
		OwnerID:      ownerID,
		Type:         domain.ListingType(form.Type),
		Name:         form.Name,
		Bedrooms:     form.Bedrooms,
		Bathrooms:    form.Bathrooms,
		Parking:      form.Parking,
		Furnished:    form.Furnished,
		Location:     location,
		Geolocation:  geo,
		Offer:        form.Offer,
		RegularPrice: form.RegularPrice,
		ImageURLs:    imageURLs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if form.Offer {
		listing.DiscountedPrice = form.DiscountedPrice
	}

	if existing != nil {
		listing.ID = existing.ID
		listing.CreatedAt = existing.CreatedAt
		if err := uc.repo.Replace(ctx, listing); err != nil {
			uc.removeImages(imageURLs)
			return nil, fmt.Errorf("replacing listing %s: %w", listing.ID, err)
		}
	} else {
		if err := uc.repo.Create(ctx, listing); err != nil {
			uc.removeImages(imageURLs)
			return nil, fmt.Errorf("creating listing: %w", err)
		}
	}

	return listing, imageCountErr
}

// resolveLocation picks between the geocoding service and the manually
// entered coordinates, per the geolocation-enabled flag.
func (uc *ListingUsecase) resolveLocation(ctx context.Context, form *ListingForm) (domain.Geolocation, string, error) {
	if !form.GeolocationEnabled {
		return domain.Geolocation{Lat: form.Latitude, Lng: form.Longitude}, form.Address, nil
	}

	ctx, span := uc.tracer.Start(ctx, "listing.geocode")
	defer span.End()

	geo, formatted, err := uc.geocoder.Resolve(ctx, form.Address)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotResolved) {
			return domain.Geolocation{}, "", err
		}
		return domain.Geolocation{}, "", fmt.Errorf("resolving address: %w", err)
	}
	return geo, formatted, nil
}

// storeImages uploads every selected image concurrently. The barrier is
// all-or-nothing: the first failure cancels the rest, already-stored
// objects are removed, and no partial result escapes. Order of the input
// selection is preserved in the returned URLs.
func (uc *ListingUsecase) storeImages(ctx context.Context, ownerID string, images []FileSelection) ([]string, error) {
	ctx, span := uc.tracer.Start(ctx, "listing.store_images")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	urls := make([]string, len(images))

	var mu sync.Mutex
	stored := make([]string, 0, len(images))

	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			fileName := fmt.Sprintf("%s-%s-%s", ownerID, img.Name, uuid.New().String())
			url, err := uc.storage.Upload(gctx, fileName, img.Data, img.ContentType)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrImageUpload, img.Name, err)
			}
			mu.Lock()
			urls[i] = url
			stored = append(stored, url)
			mu.Unlock()
			if uc.metrics != nil {
				uc.metrics.ImageUploadsTotal.Inc()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		uc.removeImages(stored)
		return nil, err
	}
	return urls, nil
}

// removeImages is the compensating cleanup for aborted submissions. Best
// effort: failures are logged, not returned.
func (uc *ListingUsecase) removeImages(urls []string) {
	for _, u := range urls {
		if err := uc.storage.Remove(context.Background(), u); err != nil {
			uc.logger.Warn("failed to remove uploaded image during cleanup", zap.String("url", u), zap.Error(err))
		}
	}
}

func (uc *ListingUsecase) notifyOwner(ctx context.Context, listing *domain.Listing) {
	if uc.mailer == nil || uc.owners == nil {
		return
	}
	email, err := uc.owners.GetEmail(ctx, listing.OwnerID)
	if err != nil || email == "" {
		uc.logger.Warn("could not look up owner email, skipping notification",
			zap.String("owner_id", listing.OwnerID), zap.Error(err))
		return
	}
	if err := uc.mailer.SendListingPublishedEmail(email, listing.Name); err != nil {
		uc.logger.Warn("failed to send listing published email", zap.String("owner_id", listing.OwnerID), zap.Error(err))
	}
}

// GetListing fetches one listing, preferring the cache.
func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if cached, err := uc.cache.GetListing(ctx, id); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		uc.logger.Warn("listing cache read failed", zap.String("listing_id", id), zap.Error(err))
	}

	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}

	if err := uc.cache.SetListing(ctx, listing); err != nil {
		uc.logger.Warn("listing cache write failed", zap.String("listing_id", id), zap.Error(err))
	}
	return listing, nil
}

// SearchListings returns the matching page of listings and the total count.
func (uc *ListingUsecase) SearchListings(ctx context.Context, filter domain.Filter) ([]*domain.Listing, int64, error) {
	listings, total, err := uc.repo.FindByFilter(ctx, filter)
	if err != nil {
		uc.logger.Error("search failed", zap.Error(err))
		return nil, 0, err
	}
	return listings, total, nil
}

// DeleteListing removes a listing and its stored images. Owner only.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, id, actorID string) error {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return domain.ErrListingNotFound
		}
		return err
	}
	if listing.OwnerID != actorID {
		uc.logger.Warn("delete refused, actor is not the owner",
			zap.String("listing_id", id), zap.String("actor_id", actorID))
		return domain.ErrForbidden
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.removeImages(listing.ImageURLs)

	if uc.metrics != nil {
		uc.metrics.ListingDeletesTotal.Inc()
	}
	if cacheErr := uc.cache.DeleteListing(ctx, id); cacheErr != nil {
		uc.logger.Warn("failed to invalidate listing cache", zap.String("listing_id", id), zap.Error(cacheErr))
	}
	if pubErr := uc.events.PublishListingDeleted(ctx, id); pubErr != nil {
		uc.logger.Warn("failed to publish listing.deleted", zap.String("listing_id", id), zap.Error(pubErr))
	}
	return nil
}
