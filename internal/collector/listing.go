package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// BaseURL is the listing host. The old frontend serves the same JSON with
// laxer throttling.
const BaseURL = "https://old.reddit.com"

// Page size bounds accepted by the listing endpoints.
const (
	MinLimit = 25
	MaxLimit = 100
)

// Query holds the listing parameters fixed for one paginator run.
type Query struct {
	Sort  string // top, hot, new
	Time  string // all, year, month
	Limit int
	// UserSection is the user listing to walk: submitted, comments or overview.
	UserSection string
}

// ClampLimit forces a requested page size into [MinLimit, MaxLimit].
func ClampLimit(limit int) int {
	return max(MinLimit, min(MaxLimit, limit))
}

// SpaceURL is the canonical page of a space.
func SpaceURL(base, name string) string {
	return fmt.Sprintf("%s/r/%s", base, url.PathEscape(name))
}

// UserURL is the canonical page of a user.
func UserURL(base, name string) string {
	return fmt.Sprintf("%s/user/%s", base, url.PathEscape(name))
}

// SpaceListingURL builds the JSON listing URL for one page of a space.
func SpaceListingURL(base, name string, q Query, after string) string {
	u := SpaceURL(base, name)
	if q.Sort != "" {
		u += "/" + q.Sort
	}
	v := url.Values{}
	v.Set("raw_json", "1")
	if after != "" {
		v.Set("after", after)
	}
	if q.Limit != 0 {
		v.Set("limit", strconv.Itoa(ClampLimit(q.Limit)))
	}
	if q.Time != "" {
		v.Set("t", q.Time)
	}
	return u + "/.json?" + v.Encode()
}

// UserListingURL builds the JSON listing URL for one page of a user.
func UserListingURL(base, name string, q Query, after string) string {
	section := q.UserSection
	if section == "" {
		section = "submitted"
	}
	u := UserURL(base, name) + "/" + section
	v := url.Values{}
	v.Set("raw_json", "1")
	if after != "" {
		v.Set("after", after)
	}
	if q.Limit != 0 {
		v.Set("limit", strconv.Itoa(ClampLimit(q.Limit)))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return u + "/.json?" + v.Encode()
}

// ListingURL dispatches on the target kind.
func ListingURL(base string, t domain.Target, q Query, after string) string {
	if t.Kind == domain.TargetUser {
		return UserListingURL(base, t.Name, q, after)
	}
	return SpaceListingURL(base, t.Name, q, after)
}

// AboutURL is the metadata endpoint of a target.
func AboutURL(base string, t domain.Target) string {
	if t.Kind == domain.TargetUser {
		return UserURL(base, t.Name) + "/about.json?raw_json=1"
	}
	return SpaceURL(base, t.Name) + "/about.json?raw_json=1"
}

type listingJSON struct {
	Kind string `json:"kind"`
	Data struct {
		After    *string        `json:"after"`
		Children []domain.Thing `json:"children"`
	} `json:"data"`
}

// ParseListings decodes a listing response, which is either a single
// listing object or an array of them.
func ParseListings(body []byte) ([]domain.Listing, error) {
	trimmed := bytes.TrimSpace(body)
	var raw []listingJSON
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
	} else {
		var one listingJSON
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		raw = []listingJSON{one}
	}

	out := make([]domain.Listing, 0, len(raw))
	for _, l := range raw {
		listing := domain.Listing{Children: l.Data.Children}
		if l.Data.After != nil {
			listing.After = *l.Data.After
		}
		out = append(out, listing)
	}
	return out, nil
}
