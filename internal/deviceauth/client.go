package deviceauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"
)

const (
	TwitchAuthURL       = "https://id.twitch.tv/oauth2"
	GrantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"
	DefaultPollInterval = time.Second
)

// StatusError is returned when Twitch responds with a status that we can't recover
// from by waiting and trying again
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("got response %d from %s request: %s", e.StatusCode, e.Op, e.Body)
}

// Session tracks a single run of the device code flow
type Session struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	ExpiresIn       int

	AccessToken  string
	RefreshToken string
	User         *User
}

// Authorized reports whether the session has obtained its tokens
func (s *Session) Authorized() bool {
	return s.AccessToken != ""
}

type Client struct {
	authURL    string
	clientId   string
	scopes     []string
	interval   time.Duration
	httpClient *http.Client
	users      UserLookup
	logger     *slog.Logger
}

func NewClient(clientId string, scopes []string, users UserLookup, logger *slog.Logger) *Client {
	return &Client{
		authURL:    TwitchAuthURL,
		clientId:   clientId,
		scopes:     scopes,
		interval:   DefaultPollInterval,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		users:      users,
		logger:     logger,
	}
}

// Start requests a new device code, returning a session whose UserCode and
// VerificationURI should be shown to the user
func (c *Client) Start(ctx context.Context) (*Session, error) {
	res, body, err := c.post(ctx, "/device", url.Values{
		"client_id": {c.clientId},
		"scopes":    {strings.Join(c.scopes, " ")},
	})
	if err != nil {
		return nil, fmt.Errorf("device code request failed: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Op: "device code", StatusCode: res.StatusCode, Body: string(body)}
	}

	var data struct {
		DeviceCode      string `json:"device_code"`
		UserCode        string `json:"user_code"`
		VerificationURI string `json:"verification_uri"`
		ExpiresIn       int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode device code response: %w", err)
	}
	if data.DeviceCode == "" {
		return nil, fmt.Errorf("device code response did not include a device_code")
	}
	return &Session{
		DeviceCode:      data.DeviceCode,
		UserCode:        data.UserCode,
		VerificationURI: data.VerificationURI,
		ExpiresIn:       data.ExpiresIn,
	}, nil
}

// Wait polls for tokens until the user completes authorization, the token endpoint
// returns a status we can't retry, or ctx is done. Once tokens are obtained, the
// authorized user is resolved and recorded in the session.
func (c *Client) Wait(ctx context.Context, session *Session) error {
	if !session.Authorized() {
		if err := c.pollUntilAuthorized(ctx, session); err != nil {
			return err
		}
	}
	if session.User != nil {
		return nil
	}
	user, err := c.users.LookupUser(ctx, session.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to look up authorized user: %w", err)
	}
	session.User = user
	return nil
}

func (c *Client) pollUntilAuthorized(ctx context.Context, session *Session) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		done, err := c.poll(ctx, session)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// poll makes a single token request. It returns true once the session has been
// authorized; a false result with a nil error means we should keep polling.
func (c *Client) poll(ctx context.Context, session *Session) (bool, error) {
	if session.Authorized() {
		return true, nil
	}
	res, body, err := c.post(ctx, "/token", url.Values{
		"client_id":   {c.clientId},
		"scopes":      {strings.Join(c.scopes, " ")},
		"device_code": {session.DeviceCode},
		"grant_type":  {GrantTypeDeviceCode},
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.logger.Warn("Device token request failed; will retry", "error", err)
		return false, nil
	}

	switch {
	case res.StatusCode == http.StatusBadRequest:
		// Most likely authorization_pending: the user hasn't entered the code yet
		c.logger.Debug("Authorization pending", "body", string(body))
		return false, nil
	case res.StatusCode >= 200 && res.StatusCode <= 299:
		var data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return false, fmt.Errorf("failed to decode device token response: %w", err)
		}
		if data.AccessToken == "" {
			return false, fmt.Errorf("device token response did not include an access_token")
		}
		session.AccessToken = data.AccessToken
		session.RefreshToken = data.RefreshToken
		return true, nil
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		c.logger.Warn("Device token request was not served; will retry", "status", res.StatusCode, "body", string(body))
		return false, nil
	default:
		return false, &StatusError{Op: "device token", StatusCode: res.StatusCode, Body: string(body)}
	}
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}
	return res, body, nil
}
