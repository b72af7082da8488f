package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// MockClient implements domain.Collector but returns fake data
type MockClient struct {
	Pages   int
	PerPage int
}

func NewMockClient() *MockClient {
	return &MockClient{Pages: 3, PerPage: 5}
}

func (mc *MockClient) FetchPage(ctx context.Context, t domain.Target, after string) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := 0
	if after != "" {
		if _, err := fmt.Sscanf(after, "mock_%d", &page); err != nil {
			return nil, fmt.Errorf("mock cursor %q: %w", after, err)
		}
	}

	listing := domain.Listing{}
	for i := 0; i < mc.PerPage; i++ {
		n := page*mc.PerPage + i
		data, err := json.Marshal(map[string]any{
			"name":            fmt.Sprintf("t3_mock%s%d", t.Name, n),
			"permalink":       fmt.Sprintf("/r/%s/comments/mock%d/", t.Name, n),
			"title":           fmt.Sprintf("[%s] Simulated post #%d", t.Name, n),
			"created_utc":     float64(time.Date(2023, 11, 14, 0, 0, n, 0, time.UTC).Unix()),
			"subreddit_id":    "t5_mock",
			"subreddit":       t.Name,
			"author":          "simulated_user",
			"author_fullname": "t2_mock",
			"ups":             n,
			"downs":           0,
			"selftext":        "",
			"domain":          "i.redd.it",
			"url":             fmt.Sprintf("http://localhost/mock/%d.png", n),
		})
		if err != nil {
			return nil, err
		}
		listing.Children = append(listing.Children, domain.Thing{Kind: domain.KindSubmission, Data: data})
	}
	if page+1 < mc.Pages {
		listing.After = fmt.Sprintf("mock_%d", page+1)
	}
	return []domain.Listing{listing}, nil
}

func (mc *MockClient) FetchAbout(ctx context.Context, t domain.Target) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"kind": domain.KindSpace,
		"data": map[string]any{"display_name": t.Name},
	})
}
