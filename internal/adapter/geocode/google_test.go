package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/philling1/house-marketplace/internal/listing/domain"
	"github.com/philling1/house-marketplace/internal/platform/logger"
)

func geocodeServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestResolve_OK(t *testing.T) {
	srv := geocodeServer(t, `{
		"status": "OK",
		"results": [{
			"formatted_address": "12 Shore Rd, Lakeville, NY, USA",
			"geometry": {"location": {"lat": 41.9, "lng": -72.1}}
		}]
	}`)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", logger.NewNop())
	geo, formatted, err := client.Resolve(context.Background(), "12 Shore Road")

	assert.NoError(t, err)
	assert.Equal(t, 41.9, geo.Lat)
	assert.Equal(t, -72.1, geo.Lng)
	assert.Equal(t, "12 Shore Rd, Lakeville, NY, USA", formatted)
}

func TestResolve_ZeroResults(t *testing.T) {
	srv := geocodeServer(t, `{"status": "ZERO_RESULTS", "results": []}`)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", logger.NewNop())
	_, _, err := client.Resolve(context.Background(), "gibberish address")

	assert.ErrorIs(t, err, domain.ErrAddressNotResolved)
}

func TestResolve_UndefinedFormattedAddress(t *testing.T) {
	srv := geocodeServer(t, `{
		"status": "OK",
		"results": [{
			"formatted_address": "undefined",
			"geometry": {"location": {"lat": 0, "lng": 0}}
		}]
	}`)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", logger.NewNop())
	_, _, err := client.Resolve(context.Background(), "somewhere")

	assert.ErrorIs(t, err, domain.ErrAddressNotResolved)
}

func TestResolve_NonOKStatus(t *testing.T) {
	srv := geocodeServer(t, `{"status": "REQUEST_DENIED", "results": [{}]}`)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", logger.NewNop())
	_, _, err := client.Resolve(context.Background(), "somewhere")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAddressNotResolved)
}

func TestResolve_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", logger.NewNop())
	_, _, err := client.Resolve(context.Background(), "somewhere")

	assert.Error(t, err)
}
