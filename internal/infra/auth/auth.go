// Package auth provides bearer tokens for the managed station API.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// expiryLeeway is how long before expiry a token stops being handed out.
const expiryLeeway = 30 * time.Second

// TokenExpiry returns the exp claim of a JWT access token.
// The signature is not verified; the token is only inspected.
func TokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Static serves a fixed access token. It cannot refresh.
type Static struct {
	token string
	now   func() time.Time
}

// NewStatic creates a static token provider.
func NewStatic(token string) *Static {
	return &Static{token: token, now: time.Now}
}

// CurrentToken returns the token unless it is empty or a JWT past its expiry.
func (s *Static) CurrentToken() (string, bool) {
	if s.token == "" {
		return "", false
	}
	if exp, ok := TokenExpiry(s.token); ok && !s.now().Before(exp) {
		zlog.Warn().Msgf("auth: static token expired: exp=%s", exp.Format(time.RFC3339))
		return "", false
	}
	return s.token, true
}

// RefreshToken always fails; a static token has nowhere to refresh from.
func (s *Static) RefreshToken(context.Context) (string, bool) {
	return "", false
}

// ClientCredentialsConfig configures the client credentials provider.
type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// ClientCredentials fetches tokens with the OAuth2 client credentials grant
// and caches the latest one.
type ClientCredentials struct {
	mu     sync.Mutex
	config *clientcredentials.Config
	token  *oauth2.Token
	now    func() time.Time
}

// NewClientCredentials creates a client credentials provider.
func NewClientCredentials(cfg ClientCredentialsConfig) (*ClientCredentials, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client id and secret are required")
	}
	if cfg.TokenURL == "" {
		return nil, errors.New("token url is required")
	}
	return &ClientCredentials{
		config: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		},
		now: time.Now,
	}, nil
}

// CurrentToken returns the cached token if it is still valid.
func (c *ClientCredentials) CurrentToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil || c.token.AccessToken == "" {
		return "", false
	}
	if !c.token.Expiry.IsZero() && !c.now().Add(expiryLeeway).Before(c.token.Expiry) {
		return "", false
	}
	return c.token.AccessToken, true
}

// RefreshToken fetches a new token from the token endpoint.
func (c *ClientCredentials) RefreshToken(ctx context.Context) (string, bool) {
	token, err := c.config.Token(ctx)
	if err != nil {
		zlog.Error().Msgf("auth: token refresh failed: error=%v", err)
		return "", false
	}

	// Some issuers omit expires_in; the JWT itself still knows.
	if token.Expiry.IsZero() {
		if exp, ok := TokenExpiry(token.AccessToken); ok {
			token.Expiry = exp
		}
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	zlog.Debug().Msgf("auth: token refreshed: expiry=%s", token.Expiry.Format(time.RFC3339))
	return token.AccessToken, true
}
