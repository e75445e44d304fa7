package deviceauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"
)

// User identifies the Twitch account that authorized our app
type User struct {
	Id          string
	Login       string
	DisplayName string
}

type UserLookup interface {
	LookupUser(ctx context.Context, accessToken string) (*User, error)
}

// HelixUserLookup resolves the user that owns an access token via the Twitch Get Users
// API
type HelixUserLookup struct {
	clientId   string
	httpClient helix.HTTPClient
}

func NewHelixUserLookup(clientId string) *HelixUserLookup {
	return &HelixUserLookup{clientId: clientId, httpClient: http.DefaultClient}
}

func (l *HelixUserLookup) LookupUser(ctx context.Context, accessToken string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := helix.NewClient(&helix.Options{
		ClientID:        l.clientId,
		UserAccessToken: accessToken,
		HTTPClient:      l.httpClient,
	})
	if err != nil {
		return nil, err
	}

	// With no IDs or logins specified, Get Users returns the user identified by the
	// access token
	r, err := c.GetUsers(&helix.UsersParams{})
	if err != nil {
		return nil, err
	}
	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got response %d from get users request: %s", r.StatusCode, r.ErrorMessage)
	}
	if len(r.Data.Users) == 0 {
		return nil, fmt.Errorf("get users request returned no users")
	}
	u := r.Data.Users[0]
	return &User{
		Id:          u.ID,
		Login:       u.Login,
		DisplayName: u.DisplayName,
	}, nil
}
