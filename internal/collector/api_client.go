package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iamhaymc/NewSpace/internal/domain"
	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"
)

// APIClient resolves target metadata through the authenticated API. Listings
// still come from the public JSON: the typed API posts drop the gallery and
// media fields the resolver needs.
type APIClient struct {
	*PublicClient
	client  *reddit.Client
	limiter *rate.Limiter
}

func NewAPIClient(public *PublicClient, id, secret, user, pass, userAgent string) (*APIClient, error) {
	creds := reddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(userAgent))
	if err != nil {
		return nil, err
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &APIClient{PublicClient: public, client: client, limiter: limiter}, nil
}

func (ac *APIClient) FetchAbout(ctx context.Context, t domain.Target) (json.RawMessage, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var (
		about any
		err   error
	)
	switch t.Kind {
	case domain.TargetUser:
		about, _, err = ac.client.User.Get(ctx, t.Name)
	default:
		about, _, err = ac.client.Subreddit.Get(ctx, t.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("authenticated api error: %w", err)
	}
	return json.Marshal(about)
}
