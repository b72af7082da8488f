package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient("TestBot/1.0", 0, 5*time.Second, nil)
}

func TestClient_FetchJSON_SetsHeadersAndDecodes(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, newTestClient().FetchJSON(context.Background(), srv.URL, &out))
	assert.True(t, out.OK)
	assert.Equal(t, "TestBot/1.0", gotUA)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_RateLimitedWithRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient().FetchBytes(context.Background(), srv.URL)
	require.Error(t, err)

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 30*time.Second, rl.RetryAfter)
	assert.Equal(t, "30", rl.Header)
	assert.Equal(t, srv.URL, rl.URL)
	assert.True(t, IsRateLimited(err))
}

func TestClient_TooManyRequestsWithoutHeaderIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient().FetchBytes(context.Background(), srv.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.False(t, IsRateLimited(err))
}

func TestClient_NonSuccessStatus(t *testing.T) {
	for _, code := range []int{http.StatusNoContent, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		_, err := newTestClient().FetchBytes(context.Background(), srv.URL+"/x")
		var se *StatusError
		require.ErrorAs(t, err, &se, "code %d", code)
		assert.Equal(t, code, se.StatusCode)
		assert.Equal(t, http.StatusText(code), se.Reason)
		assert.Equal(t, srv.URL+"/x", se.URL)
		assert.Contains(t, se.Error(), srv.URL+"/x")
		srv.Close()
	}
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	var v map[string]any
	err := newTestClient().FetchJSON(context.Background(), srv.URL, &v)
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient().FetchBytes(context.Background(), url)
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "failure to connect")
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 58*time.Minute)
}
