package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// PublicClient reads the anonymous JSON listings.
type PublicClient struct {
	client  *Client
	baseURL string
	query   Query
}

func NewPublicClient(client *Client, baseURL string, q Query) *PublicClient {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &PublicClient{client: client, baseURL: baseURL, query: q}
}

func (pc *PublicClient) FetchPage(ctx context.Context, t domain.Target, after string) ([]domain.Listing, error) {
	body, err := pc.client.Get(ctx, ListingURL(pc.baseURL, t, pc.query, after), mediaTypeJSON)
	if err != nil {
		return nil, err
	}
	listings, err := ParseListings(body)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.Name, err)
	}
	return listings, nil
}

func (pc *PublicClient) FetchAbout(ctx context.Context, t domain.Target) (json.RawMessage, error) {
	var about json.RawMessage
	if err := pc.client.FetchJSON(ctx, AboutURL(pc.baseURL, t), &about); err != nil {
		return nil, err
	}
	return about, nil
}
