// Package crawler drives one crawl run: for each target it records the
// space or user, walks the listing, stores every post and downloads the
// media that passes the extension allowlist.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iamhaymc/NewSpace/internal/collector"
	"github.com/iamhaymc/NewSpace/internal/domain"
	"github.com/iamhaymc/NewSpace/internal/media"
)

// Downloader fetches media bytes.
type Downloader interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Options fixed for the lifetime of a Crawler.
type Options struct {
	CacheDir          string
	BaseURL           string
	Media             media.Toggles
	FetchUserProfiles bool
	// Concurrency bounds how many targets are crawled at once. Pages of one
	// target are always fetched in sequence.
	Concurrency int
}

type Crawler struct {
	collector domain.Collector
	mapper    collector.ItemMapper
	sink      domain.Sink
	files     Downloader
	opts      Options
	export    chan<- domain.Post
	logger    *slog.Logger

	users sync.Map
}

func New(c domain.Collector, m collector.ItemMapper, sink domain.Sink, files Downloader, opts Options, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.BaseURL == "" {
		opts.BaseURL = collector.BaseURL
	}
	return &Crawler{collector: c, mapper: m, sink: sink, files: files, opts: opts, logger: logger}
}

// SetExport sends every stored post to ch as well. The caller owns ch and
// closes it after Run returns.
func (c *Crawler) SetExport(ch chan<- domain.Post) {
	c.export = ch
}

// Result is the outcome of crawling one target.
type Result struct {
	Target      domain.Target
	Submissions int
	Comments    int
	Media       int
	Downloaded  int
	Skipped     int
	Failed      int
	Err         error
}

// Summary collects the results of a run in target order.
type Summary struct {
	RunID   string
	Results []Result
}

// Failed counts targets that ended with an error.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Run crawls every target. A failing target is logged and recorded in the
// summary; the remaining targets are still crawled.
func (c *Crawler) Run(ctx context.Context, targets []domain.Target) Summary {
	sum := Summary{RunID: uuid.NewString(), Results: make([]Result, len(targets))}
	logger := c.logger.With("run", sum.RunID)
	logger.Info("Starting crawl", "targets", len(targets), "concurrency", c.opts.Concurrency)

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, t := range targets {
		g.Go(func() error {
			sum.Results[i] = c.crawlTarget(ctx, t, logger.With("target", t.Name, "kind", t.Kind))
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Crawl complete", "targets", len(targets), "failed", sum.Failed())
	return sum
}

// CrawlTarget crawls a single target.
func (c *Crawler) CrawlTarget(ctx context.Context, t domain.Target) Result {
	return c.crawlTarget(ctx, t, c.logger.With("target", t.Name, "kind", t.Kind))
}

func (c *Crawler) crawlTarget(ctx context.Context, t domain.Target, logger *slog.Logger) Result {
	logger.Info("Crawling target")
	res := Result{Target: t}
	if err := c.crawl(ctx, t, logger, &res); err != nil {
		res.Err = err
		logger.Error("Crawling error", "err", err)
		return res
	}
	logger.Info("Target complete",
		"submissions", res.Submissions,
		"comments", res.Comments,
		"media", res.Media,
		"downloaded", res.Downloaded,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res
}

func (c *Crawler) crawl(ctx context.Context, t domain.Target, logger *slog.Logger, res *Result) error {
	if err := c.recordTarget(ctx, t, logger); err != nil {
		return err
	}

	pages := collector.TargetPages(c.collector, t)
	for post, err := range collector.Paginate(ctx, pages, c.mapper, logger) {
		if err != nil {
			return err
		}
		if err := c.sink.InsertPost(ctx, post); err != nil {
			return err
		}
		if post.HasAuthor() {
			if err := c.recordUser(ctx, post.AuthorName, nil, logger); err != nil {
				return err
			}
		}
		if c.export != nil {
			c.export <- post
		}

		switch post.Type {
		case domain.PostComment:
			res.Comments++
		case domain.PostSubmission:
			res.Submissions++
			res.Media += len(post.Media)
			if err := c.downloadMedia(ctx, post, logger, res); err != nil {
				return err
			}
		}
	}
	return nil
}

// recordTarget stores the space or user being crawled. Metadata is best
// effort; the row is inserted without it when the lookup fails.
func (c *Crawler) recordTarget(ctx context.Context, t domain.Target, logger *slog.Logger) error {
	about := c.about(ctx, t, logger)
	if t.Kind == domain.TargetUser {
		return c.recordUser(ctx, t.Name, about, logger)
	}
	return c.sink.InsertSpace(ctx, domain.Space{
		Name:    t.Name,
		URL:     collector.SpaceURL(c.opts.BaseURL, t.Name),
		SrcData: about,
	})
}

// recordUser inserts an author once per crawler. Profiles are only fetched
// when enabled, or when about was already supplied by the caller.
func (c *Crawler) recordUser(ctx context.Context, name string, about json.RawMessage, logger *slog.Logger) error {
	if _, seen := c.users.LoadOrStore(name, struct{}{}); seen {
		return nil
	}
	if about == nil && c.opts.FetchUserProfiles {
		about = c.about(ctx, domain.Target{Kind: domain.TargetUser, Name: name}, logger)
	}
	if err := c.sink.InsertUser(ctx, domain.User{
		Name:    name,
		URL:     collector.UserURL(c.opts.BaseURL, name),
		SrcData: about,
	}); err != nil {
		c.users.Delete(name)
		return fmt.Errorf("record user: %w", err)
	}
	return nil
}

func (c *Crawler) about(ctx context.Context, t domain.Target, logger *slog.Logger) json.RawMessage {
	about, err := c.collector.FetchAbout(ctx, t)
	if err != nil {
		logger.Warn("Metadata unavailable", "name", t.Name, "err", err)
		return nil
	}
	return about
}
