// Package apptoken holds the app access token that our app uses to call the Twitch API
// on its own behalf, obtaining new tokens with an OAuth client credentials grant as
// described in
// https://dev.twitch.tv/docs/authentication/getting-tokens-oauth/#client-credentials-grant-flow
package apptoken

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/golden-vcr/shoutout/internal/metrics"
)

const TwitchTokenURL = "https://id.twitch.tv/oauth2/token"

// ErrRefreshFailed is returned (wrapping the underlying cause) when the identity
// endpoint does not issue a new token
var ErrRefreshFailed = errors.New("failed to refresh app access token")

// Token is an app access token as issued by the Twitch identity endpoint
type Token struct {
	AccessToken string
	ExpiresIn   int
	TokenType   string
}

// Valid reports whether the token carries an access token at all; expiry is not
// tracked
func (t Token) Valid() bool {
	return t.AccessToken != ""
}

// Store holds the most recently issued app access token. It's safe for concurrent use:
// overlapping refreshes may each hit the identity endpoint, but readers only ever see a
// complete token.
type Store struct {
	config     clientcredentials.Config
	httpClient *http.Client
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	token Token
}

func NewStore(clientId, clientSecret string, m *metrics.Metrics) *Store {
	return newStore(TwitchTokenURL, clientId, clientSecret, m)
}

func newStore(tokenURL, clientId, clientSecret string, m *metrics.Metrics) *Store {
	return &Store{
		config: clientcredentials.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    m,
	}
}

// Current returns the stored token, which has no access token until the first
// successful Refresh
func (s *Store) Current() Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Refresh exchanges our client credentials for a new app access token. On success the
// stored token is replaced and returned; on failure the stored token is left as-is and
// returned alongside an error wrapping ErrRefreshFailed, so the caller can decide
// whether to carry on with it.
func (s *Store) Refresh(ctx context.Context) (Token, error) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	issued, err := s.config.Token(ctx)
	if err != nil {
		s.metrics.TokenRefreshed(false)
		return s.Current(), fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	token := Token{
		AccessToken: issued.AccessToken,
		ExpiresIn:   secondsUntil(issued.Expiry),
		TokenType:   issued.TokenType,
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.metrics.TokenRefreshed(true)
	return token, nil
}

func secondsUntil(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return int(math.Round(time.Until(t).Seconds()))
}
