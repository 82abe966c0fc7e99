// ABOUTME: Access token acquisition and caching for the answer API
// ABOUTME: Expiry comes from the JWT exp claim, falling back to the auth response

package chatbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshMargin is how long before expiry a token is replaced.
const refreshMargin = 10 * time.Second

// ErrAuth is returned when the API rejects the key and secret.
var ErrAuth = errors.New("answer API authentication failed")

type authResponse struct {
	AccessToken string `json:"accessToken"`
	Expiration  int64  `json:"expiration"`
	APIs        struct {
		Chatbot   string `json:"chatbot"`
		Ticketing string `json:"ticketing"`
	} `json:"apis"`
}

// Credentials is an access token with the API base URLs it unlocks.
type Credentials struct {
	AccessToken string
	ExpiresAt   time.Time
	ChatbotURL  string
	TicketURL   string
}

// TokenSource fetches and caches access tokens for one API key.
type TokenSource struct {
	authURL string
	key     string
	secret  string
	http    *http.Client
	now     func() time.Time

	mu    sync.RWMutex
	creds *Credentials
}

// NewTokenSource creates a TokenSource.
func NewTokenSource(authURL, key, secret string, httpClient *http.Client) *TokenSource {
	return &TokenSource{
		authURL: authURL,
		key:     key,
		secret:  secret,
		http:    httpClient,
		now:     time.Now,
	}
}

// Key returns the API key sent with every request.
func (s *TokenSource) Key() string {
	return s.key
}

// Credentials returns a valid access token, authenticating when the cached
// one is missing or about to expire.
func (s *TokenSource) Credentials(ctx context.Context) (*Credentials, error) {
	s.mu.RLock()
	if s.valid() {
		creds := s.creds
		s.mu.RUnlock()
		return creds, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid() {
		return s.creds, nil
	}

	var resp authResponse
	err := DoJSON(ctx, s.http, http.MethodPost, s.authURL, map[string]string{"x-inbenta-key": s.key},
		map[string]string{"secret": s.secret}, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return nil, fmt.Errorf("authenticating: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAuth)
	}

	s.creds = &Credentials{
		AccessToken: resp.AccessToken,
		ExpiresAt:   expiry(resp.AccessToken, resp.Expiration),
		ChatbotURL:  resp.APIs.Chatbot,
		TicketURL:   resp.APIs.Ticketing,
	}
	return s.creds, nil
}

// Invalidate drops the cached token.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
}

// valid must be called with mu held.
func (s *TokenSource) valid() bool {
	return s.creds != nil && s.now().Add(refreshMargin).Before(s.creds.ExpiresAt)
}

// expiry reads the exp claim without verifying the signature; the token is
// opaque to this service and only its lifetime matters.
func expiry(token string, fallback int64) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Unix(fallback, 0)
}
