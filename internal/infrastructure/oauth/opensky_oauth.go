package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"flightwindow-service/pkg/logger"
)

// ErrMissingCredentials is returned when no client id or secret is configured
var ErrMissingCredentials = errors.New("opensky client credentials are not configured")

// OpenSkyOAuth handles the client-credentials flow for the OpenSky API
type OpenSkyOAuth struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewOpenSkyOAuth creates a new OpenSky OAuth handler
func NewOpenSkyOAuth(clientID, clientSecret, tokenURL string, logger logger.Logger) *OpenSkyOAuth {
	return &OpenSkyOAuth{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		logger: logger,
	}
}

// Configured reports whether credentials were supplied
func (o *OpenSkyOAuth) Configured() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// GetTokenSource returns a caching token source that refreshes on expiry
func (o *OpenSkyOAuth) GetTokenSource(ctx context.Context) oauth2.TokenSource {
	return o.config.TokenSource(ctx)
}

// HTTPClient returns a client that sends a bearer token with every request.
// base, when non-nil, is used for the token endpoint and the API calls.
func (o *OpenSkyOAuth) HTTPClient(ctx context.Context, base *http.Client) (*http.Client, error) {
	if !o.Configured() {
		return nil, ErrMissingCredentials
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return o.config.Client(ctx), nil
}

// FetchToken requests a fresh token
func (o *OpenSkyOAuth) FetchToken(ctx context.Context) (*oauth2.Token, error) {
	if !o.Configured() {
		return nil, ErrMissingCredentials
	}
	token, err := o.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}
	o.logger.Info("OpenSky token obtained", "expiry", token.Expiry)
	return token, nil
}

// TokenToJSON converts a token to JSON
func (o *OpenSkyOAuth) TokenToJSON(token *oauth2.Token) (string, error) {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
