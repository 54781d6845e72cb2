// Package oauth implements the Google sign-in code flow.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var (
	ErrNotConfigured  = errors.New("google oauth is not configured")
	ErrMissingProfile = errors.New("email or google id not provided")
)

// Profile is the subset of the OpenID userinfo document we use.
type Profile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Google exchanges authorization codes for a verified profile.
type Google struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	if clientID == "" || clientSecret == "" {
		return &Google{}
	}
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *Google) Configured() bool {
	return g != nil && g.config != nil
}

// AuthCodeURL is the consent page the browser is redirected to.
func (g *Google) AuthCodeURL(state string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades the callback code for the user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (Profile, error) {
	if !g.Configured() {
		return Profile{}, ErrNotConfigured
	}
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Email == "" || profile.Subject == "" {
		return Profile{}, ErrMissingProfile
	}
	return profile, nil
}
