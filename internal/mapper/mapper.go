// Package mapper projects raw listing children onto domain.Post.
package mapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// ISO8601 renders UTC instants with an explicit +00:00 offset.
const (
	ISO8601      = "2006-01-02T15:04:05-07:00"
	ISO8601Micro = "2006-01-02T15:04:05.000000-07:00"
)

// deletedAuthor is the placeholder name of deleted and anonymized accounts.
const deletedAuthor = "[deleted]"

var errNoName = errors.New("item has no name")

// Resolver produces the media list of a submission.
type Resolver interface {
	Resolve(ctx context.Context, raw json.RawMessage) []domain.MediaDescriptor
}

type Mapper struct {
	resolver Resolver
	baseURL  string
}

// New returns a Mapper that prefixes permalinks with baseURL. A nil resolver
// maps submissions without media.
func New(r Resolver, baseURL string) *Mapper {
	return &Mapper{resolver: r, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// item holds the fields shared by submissions and comments. Author fields
// are pointers so an absent key can be told apart.
type item struct {
	Name           string  `json:"name"`
	Permalink      string  `json:"permalink"`
	CreatedUTC     float64 `json:"created_utc"`
	SubredditID    string  `json:"subreddit_id"`
	Subreddit      string  `json:"subreddit"`
	AuthorFullname *string `json:"author_fullname"`
	Author         *string `json:"author"`
	Ups            int     `json:"ups"`
	Downs          int     `json:"downs"`

	Title    string `json:"title"`
	Selftext string `json:"selftext"`

	Body     string `json:"body"`
	ParentID string `json:"parent_id"`
}

func decode(raw json.RawMessage) (item, error) {
	var it item
	if err := json.Unmarshal(raw, &it); err != nil {
		return it, fmt.Errorf("decode item: %w", err)
	}
	if it.Name == "" {
		return it, errNoName
	}
	return it, nil
}

func (m *Mapper) base(it item, raw json.RawMessage) domain.Post {
	authorID, authorName := deref(it.AuthorFullname), deref(it.Author)
	if authorName == deletedAuthor {
		authorID, authorName = "", ""
	}
	return domain.Post{
		ID:         it.Name,
		AuthorID:   authorID,
		AuthorName: authorName,
		SpaceID:    it.SubredditID,
		SpaceName:  it.Subreddit,
		CreatedUTC: FormatUTC(it.CreatedUTC),
		ScoreUps:   it.Ups,
		ScoreDowns: it.Downs,
		URL:        m.permalink(it.Permalink),
		SrcData:    raw,
	}
}

// MapSubmission normalizes a t3 payload and attaches its resolved media.
func (m *Mapper) MapSubmission(ctx context.Context, raw json.RawMessage) (domain.Post, error) {
	it, err := decode(raw)
	if err != nil {
		return domain.Post{}, fmt.Errorf("submission: %w", err)
	}
	p := m.base(it, raw)
	p.Type = domain.PostSubmission
	p.Title = it.Title
	p.Text = it.Selftext
	if m.resolver != nil {
		p.Media = m.resolver.Resolve(ctx, raw)
	}
	return p, nil
}

// MapComment normalizes a t1 payload. Comments carry no media.
func (m *Mapper) MapComment(raw json.RawMessage) (domain.Post, error) {
	it, err := decode(raw)
	if err != nil {
		return domain.Post{}, fmt.Errorf("comment: %w", err)
	}
	p := m.base(it, raw)
	p.Type = domain.PostComment
	p.Text = it.Body
	p.Parent = it.ParentID
	return p, nil
}

func (m *Mapper) permalink(p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return m.baseURL + p
}

// FormatUTC converts epoch seconds to ISO-8601 in UTC. Sub-second values keep
// microsecond precision.
func FormatUTC(epoch float64) string {
	sec, frac := math.Modf(epoch)
	t := time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
	if t.Nanosecond() == 0 {
		return t.Format(ISO8601)
	}
	return t.Format(ISO8601Micro)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
