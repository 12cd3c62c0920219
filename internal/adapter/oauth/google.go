package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/philling1/house-marketplace/internal/platform/logger"
	"github.com/philling1/house-marketplace/internal/user/usecase"
)

const userinfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider exchanges authorization codes against Google's OAuth
// endpoints and fetches the signed-in user's profile.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	userinfoURL  string
	logger       *logger.Logger
}

func NewGoogleProvider(clientID, clientSecret string, log *logger.Logger) *GoogleProvider {
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		userinfoURL:  userinfoEndpoint,
		logger:       log.Named("GoogleOAuth"),
	}
}

func (p *GoogleProvider) Authenticate(ctx context.Context, code, redirectURI string) (*usecase.ExternalIdentity, error) {
	conf := &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	resp, err := conf.Client(ctx, token).Get(p.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned HTTP %d", resp.StatusCode)
	}

	var info struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo response carries no email")
	}

	return &usecase.ExternalIdentity{
		Subject: info.Sub,
		Name:    info.Name,
		Email:   info.Email,
	}, nil
}
