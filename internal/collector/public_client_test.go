package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

func TestPublicClient_FetchPageAndAbout(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		switch r.URL.Path {
		case "/r/pics/hot/.json":
			w.Write([]byte(`{"kind":"Listing","data":{"after":"t3_next","children":[{"kind":"t3","data":{"name":"t3_a"}}]}}`))
		case "/r/pics/about.json":
			w.Write([]byte(`{"kind":"t5","data":{"display_name":"pics"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	pc := NewPublicClient(newTestClient(), srv.URL, Query{Sort: "hot", Limit: 10})
	target := domain.Target{Kind: domain.TargetSpace, Name: "pics"}

	listings, err := pc.FetchPage(context.Background(), target, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "t3_next", listings[0].After)
	assert.Contains(t, paths[0], "limit=25")

	about, err := pc.FetchAbout(context.Background(), target)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"t5","data":{"display_name":"pics"}}`, string(about))
}

func TestPublicClient_FetchPageMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`nope`))
	}))
	defer srv.Close()

	pc := NewPublicClient(newTestClient(), srv.URL, Query{})
	_, err := pc.FetchPage(context.Background(), domain.Target{Name: "pics"}, "")
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestNewCollector_Modes(t *testing.T) {
	c, err := NewCollector(ModePublic, newTestClient(), "", Query{}, Credentials{})
	require.NoError(t, err)
	assert.IsType(t, &PublicClient{}, c)

	c, err = NewCollector(ModeMock, newTestClient(), "", Query{}, Credentials{})
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	_, err = NewCollector("carrier-pigeon", newTestClient(), "", Query{}, Credentials{})
	assert.Error(t, err)
}
