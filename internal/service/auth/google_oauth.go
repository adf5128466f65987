package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campus-api/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUser is the userinfo payload from a completed sign-in
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// OAuthFlow drives the server-side Google sign-in code exchange for
// browsers that do not use the client-side token flow
type OAuthFlow struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewOAuthFlow builds the sign-in flow from the service configuration
func NewOAuthFlow(cfg *config.Config, clientSecret, redirectURL string) *OAuthFlow {
	return &OAuthFlow{
		config: &oauth2.Config{
			RedirectURL:  redirectURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: clientSecret,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// AuthCodeURL returns the Google consent URL for the given state
func (f *OAuthFlow) AuthCodeURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange swaps the authorization code for the signed-in user
func (f *OAuthFlow) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/oauth2/v2/userinfo?access_token="+token.AccessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return &user, nil
}
