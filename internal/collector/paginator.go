package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// PageFunc fetches one page of listings. after is empty for the first page.
type PageFunc func(ctx context.Context, after string) ([]domain.Listing, error)

// ItemMapper turns raw listing children into normalized posts.
type ItemMapper interface {
	MapSubmission(ctx context.Context, raw json.RawMessage) (domain.Post, error)
	MapComment(raw json.RawMessage) (domain.Post, error)
}

// TargetPages binds a collector to one target.
func TargetPages(c domain.Collector, t domain.Target) PageFunc {
	return func(ctx context.Context, after string) ([]domain.Listing, error) {
		return c.FetchPage(ctx, t, after)
	}
}

// Paginate walks the listing cursor until a page reports no next cursor and
// yields each submission and comment in server order. Children of other kinds
// are skipped. The cursor is read from the first listing of a page only.
//
// A fetch or mapping error is yielded once and ends the sequence; posts
// yielded before it stay valid.
func Paginate(ctx context.Context, fetch PageFunc, m ItemMapper, logger *slog.Logger) iter.Seq2[domain.Post, error] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(yield func(domain.Post, error) bool) {
		after := ""
		for page := 0; ; page++ {
			logger.Info("Fetching page", "page", page, "after", after)

			listings, err := fetch(ctx, after)
			if err != nil {
				yield(domain.Post{}, fmt.Errorf("page %d: %w", page, err))
				return
			}

			for _, listing := range listings {
				for _, child := range listing.Children {
					var (
						post domain.Post
						err  error
					)
					switch child.Kind {
					case domain.KindSubmission:
						post, err = m.MapSubmission(ctx, child.Data)
					case domain.KindComment:
						post, err = m.MapComment(child.Data)
					default:
						continue
					}
					if err != nil {
						yield(domain.Post{}, fmt.Errorf("page %d: %w", page, err))
						return
					}
					if !yield(post, nil) {
						return
					}
				}
			}

			if len(listings) == 0 || listings[0].After == "" {
				return
			}
			after = listings[0].After
		}
	}
}
