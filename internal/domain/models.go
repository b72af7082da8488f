package domain

import (
	"context"
	"encoding/json"
)

// Thing kinds used by the listing API.
const (
	KindComment    = "t1"
	KindSubmission = "t3"
	KindSpace      = "t5"
)

// PostType distinguishes submissions from comments once normalized.
type PostType string

const (
	PostSubmission PostType = "submission"
	PostComment    PostType = "comment"
)

// TargetKind selects which listing family a Target is crawled from.
type TargetKind string

const (
	TargetSpace TargetKind = "space"
	TargetUser  TargetKind = "user"
)

// Target represents a crawling task
type Target struct {
	Kind TargetKind
	Name string
}

// Space is a named forum. Inserted once per crawl run.
type Space struct {
	Name    string
	URL     string
	SrcData json.RawMessage
}

// User is an author referenced by posts.
type User struct {
	Name    string
	URL     string
	SrcData json.RawMessage
}

// MediaDescriptor identifies one downloadable media item. MIME is advisory,
// derived from the URL extension, and empty when the extension is unknown.
type MediaDescriptor struct {
	URL  string `json:"url"`
	MIME string `json:"mime,omitempty"`
}

// Post is the normalized shape shared by submissions and comments.
// Author fields are empty for deleted or anonymized authors.
type Post struct {
	ID         string            `json:"id"`
	Type       PostType          `json:"type"`
	Title      string            `json:"title,omitempty"`
	AuthorID   string            `json:"author_id,omitempty"`
	AuthorName string            `json:"author_name,omitempty"`
	SpaceID    string            `json:"space_id"`
	SpaceName  string            `json:"space_name"`
	CreatedUTC string            `json:"created_utc"`
	Text       string            `json:"text"`
	ScoreUps   int               `json:"score_ups"`
	ScoreDowns int               `json:"score_downs"`
	Parent     string            `json:"parent,omitempty"`
	Media      []MediaDescriptor `json:"media,omitempty"`
	URL        string            `json:"url"`
	SrcData    json.RawMessage   `json:"-"`
}

// Score is the net vote count persisted with the post.
func (p Post) Score() int {
	return p.ScoreUps - p.ScoreDowns
}

// HasAuthor reports whether the author survived anonymization.
func (p Post) HasAuthor() bool {
	return p.AuthorName != ""
}

// Asset is a downloaded media file.
type Asset struct {
	MediaType string
	URL       string
	Data      []byte
}

// Thing is one child of a listing, still undecoded.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Listing is one page of children plus the cursor to the next page.
type Listing struct {
	Children []Thing
	After    string
}

// Collector defines the interface for data fetching
type Collector interface {
	FetchPage(ctx context.Context, target Target, after string) ([]Listing, error)
	FetchAbout(ctx context.Context, target Target) (json.RawMessage, error)
}

// Sink persists normalized records. Every insert is a no-op when a row with
// the same natural key already exists.
type Sink interface {
	InsertSpace(ctx context.Context, s Space) error
	InsertUser(ctx context.Context, u User) error
	InsertPost(ctx context.Context, p Post) error
	InsertAsset(ctx context.Context, a Asset) error
}
