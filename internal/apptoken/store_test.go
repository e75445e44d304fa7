package apptoken

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenEndpoint struct {
	numRequests atomic.Int32
	status      atomic.Int32
}

func (e *tokenEndpoint) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	n := e.numRequests.Add(1)
	if err := req.ParseForm(); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PostForm.Get("grant_type") != "client_credentials" ||
		req.PostForm.Get("client_id") != "my-client-id" ||
		req.PostForm.Get("client_secret") != "my-client-secret" {
		res.Header().Set("content-type", "application/json")
		res.WriteHeader(http.StatusForbidden)
		res.Write([]byte(`{"status":403,"message":"invalid client secret"}`))
		return
	}
	if status := int(e.status.Load()); status != 0 && status != http.StatusOK {
		res.Header().Set("content-type", "application/json")
		res.WriteHeader(status)
		res.Write([]byte(fmt.Sprintf(`{"status":%d,"message":"nope"}`, status)))
		return
	}
	res.Header().Set("content-type", "application/json")
	res.Write([]byte(fmt.Sprintf(`{"access_token":"token-%d","expires_in":5011271,"token_type":"bearer"}`, n)))
}

func Test_Store_Refresh(t *testing.T) {
	endpoint := &tokenEndpoint{}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	s := newStore(srv.URL, "my-client-id", "my-client-secret", nil)
	assert.False(t, s.Current().Valid())

	token, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.InDelta(t, 5011271, token.ExpiresIn, 2)
	assert.Equal(t, token, s.Current())

	token, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token.AccessToken)
	assert.Equal(t, token, s.Current())
}

func Test_Store_Refresh_failureKeepsPreviousToken(t *testing.T) {
	endpoint := &tokenEndpoint{}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	s := newStore(srv.URL, "my-client-id", "my-client-secret", nil)
	before, err := s.Refresh(context.Background())
	require.NoError(t, err)

	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		endpoint.status.Store(int32(status))
		got, err := s.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrRefreshFailed)
		assert.Equal(t, before, got)
		assert.Equal(t, before, s.Current())
	}
}

func Test_Store_Refresh_badCredentials(t *testing.T) {
	srv := httptest.NewServer(&tokenEndpoint{})
	defer srv.Close()

	s := newStore(srv.URL, "my-client-id", "wrong-secret", nil)
	got, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.False(t, got.Valid())
	assert.Equal(t, Token{}, s.Current())
}

func Test_Store_Refresh_unreachable(t *testing.T) {
	srv := httptest.NewServer(&tokenEndpoint{})
	srv.Close()

	s := newStore(srv.URL, "my-client-id", "my-client-secret", nil)
	_, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, Token{}, s.Current())
}

func Test_Store_concurrentRefreshesNeverTear(t *testing.T) {
	srv := httptest.NewServer(&tokenEndpoint{})
	defer srv.Close()

	s := newStore(srv.URL, "my-client-id", "my-client-secret", nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Refresh(context.Background())
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			token := s.Current()
			if token.Valid() {
				assert.Equal(t, "bearer", token.TokenType)
				assert.NotZero(t, token.ExpiresIn)
			}
		}()
	}
	wg.Wait()
	assert.True(t, s.Current().Valid())
}
