package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/philling1/house-marketplace/internal/listing/domain"
	"github.com/philling1/house-marketplace/internal/platform/logger"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	if args.Error(0) == nil {
		listing.ID = "listing-1"
	}
	return args.Error(0)
}
func (m *MockListingRepository) Replace(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Listing), args.Get(1).(int64), args.Error(2)
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingCache) DeleteListing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockImageStorage struct{ mock.Mock }

func (m *MockImageStorage) Upload(ctx context.Context, fileName string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, fileName, data, contentType)
	return args.String(0), args.Error(1)
}
func (m *MockImageStorage) Remove(ctx context.Context, fileURL string) error {
	args := m.Called(ctx, fileURL)
	return args.Error(0)
}

type MockGeocoder struct{ mock.Mock }

func (m *MockGeocoder) Resolve(ctx context.Context, address string) (domain.Geolocation, string, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(domain.Geolocation), args.String(1), args.Error(2)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishListingCreated(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishListingUpdated(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishListingDeleted(ctx context.Context, listingID string) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendListingPublishedEmail(toEmail, listingName string) error {
	args := m.Called(toEmail, listingName)
	return args.Error(0)
}

type MockOwnerDirectory struct{ mock.Mock }

func (m *MockOwnerDirectory) GetEmail(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func uploadForFile(name string) interface{} {
	return mock.MatchedBy(func(fileName string) bool {
		return strings.HasPrefix(fileName, "owner-1-"+name+"-")
	})
}

func validForm() *ListingForm {
	return &ListingForm{
		Type:         "rent",
		Name:         "Cozy Lakeside Cottage",
		Bedrooms:     2,
		Bathrooms:    1,
		Address:      "12 Shore Road, Lakeville",
		RegularPrice: 1200,
		Latitude:     40.1,
		Longitude:    -73.5,
		Images: []FileSelection{
			{Name: "front.jpg", ContentType: "image/jpeg", Data: []byte("front")},
		},
	}
}

func newTestUsecase(repo *MockListingRepository, cache *MockListingCache, storage *MockImageStorage, geocoder *MockGeocoder, events *MockEventPublisher) *ListingUsecase {
	return NewListingUsecase(repo, cache, storage, geocoder, events, nil, nil, nil, logger.NewNop())
}

func TestCreateListing_ManualGeolocation(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.GeolocationEnabled = false

	storage.On("Upload", mock.Anything, uploadForFile("front.jpg"), []byte("front"), "image/jpeg").
		Return("http://minio/listing-images/images/front", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishListingCreated", mock.Anything, mock.Anything).Return(nil)

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.NoError(t, err)
	assert.Equal(t, 40.1, listing.Geolocation.Lat)
	assert.Equal(t, -73.5, listing.Geolocation.Lng)
	assert.Equal(t, "12 Shore Road, Lakeville", listing.Location)
	assert.False(t, form.Loading)
	geocoder.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCreateListing_GeocodedLocation(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.GeolocationEnabled = true

	geocoder.On("Resolve", mock.Anything, form.Address).
		Return(domain.Geolocation{Lat: 41.9, Lng: -72.1}, "12 Shore Rd, Lakeville, NY, USA", nil)
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("http://minio/listing-images/images/front", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishListingCreated", mock.Anything, mock.Anything).Return(nil)

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.NoError(t, err)
	assert.Equal(t, 41.9, listing.Geolocation.Lat)
	// The formatted address from the geocoder wins over the raw form input.
	assert.Equal(t, "12 Shore Rd, Lakeville, NY, USA", listing.Location)
	assert.NotEqual(t, form.Address, listing.Location)
}

func TestCreateListing_GeocodeFailureAbortsBeforeUploads(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.GeolocationEnabled = true

	geocoder.On("Resolve", mock.Anything, form.Address).
		Return(domain.Geolocation{}, "", domain.ErrAddressNotResolved)

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.Nil(t, listing)
	assert.ErrorIs(t, err, domain.ErrAddressNotResolved)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateListing_DiscountMustBeBelowRegular(t *testing.T) {
	cases := []struct {
		name            string
		offer           bool
		regularPrice    int64
		discountedPrice int64
	}{
		{name: "equal prices with active offer", offer: true, regularPrice: 1000, discountedPrice: 1000},
		{name: "discount above regular with active offer", offer: true, regularPrice: 1000, discountedPrice: 1500},
		// A stale discounted price is rejected even after the offer is
		// switched off.
		{name: "stale discount with offer off", offer: false, regularPrice: 1000, discountedPrice: 2000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockListingRepository)
			cache := new(MockListingCache)
			storage := new(MockImageStorage)
			geocoder := new(MockGeocoder)
			events := new(MockEventPublisher)
			uc := newTestUsecase(repo, cache, storage, geocoder, events)

			form := validForm()
			form.Offer = tc.offer
			form.RegularPrice = tc.regularPrice
			form.DiscountedPrice = tc.discountedPrice
			form.GeolocationEnabled = true

			listing, err := uc.CreateListing(context.Background(), "owner-1", form)

			assert.Nil(t, listing)
			assert.ErrorIs(t, err, domain.ErrDiscountNotBelowRegular)
			// The price check runs before any network step.
			geocoder.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
			storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateListing_InvalidFormRejected(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.Name = "shortname" // below the 10 character minimum

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.Nil(t, listing)
	assert.ErrorIs(t, err, domain.ErrInvalidListingData)
	assert.False(t, form.Loading)
}

func TestCreateListing_UploadOrderPreserved(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.Images = []FileSelection{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("b")},
		{Name: "c.jpg", ContentType: "image/jpeg", Data: []byte("c")},
	}

	storage.On("Upload", mock.Anything, uploadForFile("a.jpg"), []byte("a"), "image/jpeg").Return("url-a", nil)
	storage.On("Upload", mock.Anything, uploadForFile("b.jpg"), []byte("b"), "image/jpeg").Return("url-b", nil)
	storage.On("Upload", mock.Anything, uploadForFile("c.jpg"), []byte("c"), "image/jpeg").Return("url-c", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishListingCreated", mock.Anything, mock.Anything).Return(nil)

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.NoError(t, err)
	// Uploads run concurrently but the stored order matches the selection.
	assert.Equal(t, []string{"url-a", "url-b", "url-c"}, listing.ImageURLs)
}

func TestCreateListing_FailedUploadCleansUpAndAborts(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.Images = []FileSelection{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("b")},
	}

	storage.On("Upload", mock.Anything, uploadForFile("a.jpg"), []byte("a"), "image/jpeg").Return("url-a", nil)
	storage.On("Upload", mock.Anything, uploadForFile("b.jpg"), []byte("b"), "image/jpeg").
		Return("", errors.New("bucket unavailable"))
	storage.On("Remove", mock.Anything, "url-a").Return(nil)

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.Nil(t, listing)
	assert.ErrorIs(t, err, domain.ErrImageUpload)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "PublishListingCreated", mock.Anything, mock.Anything)
}

func TestCreateListing_TooManyImagesStillPersists(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.Images = nil
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		form.Images = append(form.Images, FileSelection{Name: n + ".jpg", ContentType: "image/jpeg", Data: []byte(n)})
	}

	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishListingCreated", mock.Anything, mock.Anything).Return(nil)

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	// The count violation is reported, but the submission still goes through.
	assert.ErrorIs(t, err, domain.ErrTooManyImages)
	assert.NotNil(t, listing)
	assert.Len(t, listing.ImageURLs, 7)
	repo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateListing_DiscountDroppedWithoutOffer(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	form := validForm()
	form.Offer = false
	form.DiscountedPrice = 900

	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishListingCreated", mock.Anything, mock.Anything).Return(nil)

	listing, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.NoError(t, err)
	assert.Zero(t, listing.DiscountedPrice)
}

func TestCreateListing_SendsOwnerEmail(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	mailer := new(MockMailer)
	owners := new(MockOwnerDirectory)
	uc := NewListingUsecase(repo, cache, storage, geocoder, events, mailer, owners, nil, logger.NewNop())

	form := validForm()

	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishListingCreated", mock.Anything, mock.Anything).Return(nil)
	owners.On("GetEmail", mock.Anything, "owner-1").Return("owner@example.com", nil)
	mailer.On("SendListingPublishedEmail", "owner@example.com", form.Name).Return(nil)

	_, err := uc.CreateListing(context.Background(), "owner-1", form)

	assert.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestEditListing_OwnerOnly(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	repo.On("FindByID", mock.Anything, "listing-1").
		Return(&domain.Listing{ID: "listing-1", OwnerID: "owner-1"}, nil)

	listing, err := uc.EditListing(context.Background(), "listing-1", "intruder", validForm())

	assert.Nil(t, listing)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestEditListing_ReplacesDocumentAndInvalidatesCache(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	geocoder := new(MockGeocoder)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, geocoder, events)

	existing := &domain.Listing{ID: "listing-1", OwnerID: "owner-1"}
	repo.On("FindByID", mock.Anything, "listing-1").Return(existing, nil)
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	repo.On("Replace", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return l.ID == "listing-1"
	})).Return(nil)
	cache.On("DeleteListing", mock.Anything, "listing-1").Return(nil)
	events.On("PublishListingUpdated", mock.Anything, mock.Anything).Return(nil)

	listing, err := uc.EditListing(context.Background(), "listing-1", "owner-1", validForm())

	assert.NoError(t, err)
	assert.Equal(t, "listing-1", listing.ID)
	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestGetListing_CacheHitSkipsRepository(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	uc := newTestUsecase(repo, cache, new(MockImageStorage), new(MockGeocoder), new(MockEventPublisher))

	cached := &domain.Listing{ID: "listing-1", Name: "Cozy Lakeside Cottage"}
	cache.On("GetListing", mock.Anything, "listing-1").Return(cached, nil)

	listing, err := uc.GetListing(context.Background(), "listing-1")

	assert.NoError(t, err)
	assert.Equal(t, cached, listing)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestGetListing_CacheMissFillsCache(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	uc := newTestUsecase(repo, cache, new(MockImageStorage), new(MockGeocoder), new(MockEventPublisher))

	stored := &domain.Listing{ID: "listing-1"}
	cache.On("GetListing", mock.Anything, "listing-1").Return(nil, nil)
	repo.On("FindByID", mock.Anything, "listing-1").Return(stored, nil)
	cache.On("SetListing", mock.Anything, stored).Return(nil)

	listing, err := uc.GetListing(context.Background(), "listing-1")

	assert.NoError(t, err)
	assert.Equal(t, stored, listing)
	cache.AssertExpectations(t)
}

func TestDeleteListing_RemovesImagesAndPublishes(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	storage := new(MockImageStorage)
	events := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, storage, new(MockGeocoder), events)

	repo.On("FindByID", mock.Anything, "listing-1").
		Return(&domain.Listing{ID: "listing-1", OwnerID: "owner-1", ImageURLs: []string{"url-a", "url-b"}}, nil)
	repo.On("Delete", mock.Anything, "listing-1").Return(nil)
	storage.On("Remove", mock.Anything, "url-a").Return(nil)
	storage.On("Remove", mock.Anything, "url-b").Return(nil)
	cache.On("DeleteListing", mock.Anything, "listing-1").Return(nil)
	events.On("PublishListingDeleted", mock.Anything, "listing-1").Return(nil)

	err := uc.DeleteListing(context.Background(), "listing-1", "owner-1")

	assert.NoError(t, err)
	storage.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestDeleteListing_ForbiddenForNonOwner(t *testing.T) {
	repo := new(MockListingRepository)
	uc := newTestUsecase(repo, new(MockListingCache), new(MockImageStorage), new(MockGeocoder), new(MockEventPublisher))

	repo.On("FindByID", mock.Anything, "listing-1").
		Return(&domain.Listing{ID: "listing-1", OwnerID: "owner-1"}, nil)

	err := uc.DeleteListing(context.Background(), "listing-1", "intruder")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
