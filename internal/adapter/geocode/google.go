package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/philling1/house-marketplace/internal/listing/domain"
	"github.com/philling1/house-marketplace/internal/platform/logger"
)

const statusZeroResults = "ZERO_RESULTS"

// Client resolves free-text addresses through the Google Geocoding API:
// one GET with an address query parameter and an API key.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *logger.Logger
}

func NewClient(endpoint, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		apiKey:     apiKey,
		logger:     log.Named("Geocoder"),
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve returns the coordinates and formatted address of the first
// result. A ZERO_RESULTS status, or a result without a usable formatted
// address, yields domain.ErrAddressNotResolved.
func (c *Client) Resolve(ctx context.Context, address string) (domain.Geolocation, string, error) {
	query := url.Values{}
	query.Set("address", address)
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return domain.Geolocation{}, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Geolocation{}, "", fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Geolocation{}, "", fmt.Errorf("geocoding service returned HTTP %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Geolocation{}, "", fmt.Errorf("decoding geocoding response: %w", err)
	}

	if body.Status == statusZeroResults || len(body.Results) == 0 {
		c.logger.Info("address not resolved", zap.String("address", address), zap.String("status", body.Status))
		return domain.Geolocation{}, "", domain.ErrAddressNotResolved
	}
	if body.Status != "OK" {
		return domain.Geolocation{}, "", fmt.Errorf("geocoding service status %s", body.Status)
	}

	first := body.Results[0]
	formatted := first.FormattedAddress
	if formatted == "" || strings.Contains(formatted, "undefined") {
		return domain.Geolocation{}, "", domain.ErrAddressNotResolved
	}

	geo := domain.Geolocation{
		Lat: first.Geometry.Location.Lat,
		Lng: first.Geometry.Location.Lng,
	}
	return geo, formatted, nil
}
