// Package media resolves the media payload of a submission into a list of
// downloadable descriptors.
package media

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// Descriptor is the resolver's output unit.
type Descriptor = domain.MediaDescriptor

// Toggles select which media families are crawled.
type Toggles struct {
	ImageGalleries   bool `mapstructure:"image_galleries"`
	UnanimatedImages bool `mapstructure:"unanimated_images"`
	AnimatedImages   bool `mapstructure:"animated_images"`
	Videos           bool `mapstructure:"videos"`
}

// DefaultToggles crawls still images and galleries only.
func DefaultToggles() Toggles {
	return Toggles{ImageGalleries: true, UnanimatedImages: true}
}

// Submission is the subset of a submission payload the strategies read.
type Submission struct {
	Name                string                   `json:"name"`
	Domain              string                   `json:"domain"`
	URL                 string                   `json:"url"`
	URLOverriddenByDest string                   `json:"url_overridden_by_dest"`
	GalleryData         *GalleryData             `json:"gallery_data"`
	MediaMetadata       map[string]MediaMetadata `json:"media_metadata"`
}

type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

type GalleryItem struct {
	MediaID string `json:"media_id"`
}

// MediaMetadata is one gallery entry. M, the media type, is only present
// once the host has processed the upload.
type MediaMetadata struct {
	Status string      `json:"status"`
	M      string      `json:"m"`
	S      MediaSource `json:"s"`
}

// MediaSource holds the source renditions of a gallery entry.
type MediaSource struct {
	U   string `json:"u"`
	GIF string `json:"gif"`
	MP4 string `json:"mp4"`
}

// Strategy is one row of the resolution table.
type Strategy interface {
	Name() string
	Match(sub *Submission) bool
	Resolve(ctx context.Context, sub *Submission) []Descriptor
}

// InfoFetcher fetches the JSON media-info documents of third-party hosts.
type InfoFetcher interface {
	FetchJSON(ctx context.Context, url string, v any) error
}

// Resolver evaluates its strategies in order; the first one that matches
// produces the result, even when that result is empty.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewResolver builds the default strategy table for the enabled toggles.
func NewResolver(t Toggles, fetch InfoFetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return NewResolverWithStrategies(Strategies(t, fetch, DefaultEndpoints(), logger), logger)
}

func NewResolverWithStrategies(strategies []Strategy, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{strategies: strategies, logger: logger}
}

// Names lists the active strategies in priority order.
func (r *Resolver) Names() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve decodes a raw submission payload and resolves it. A payload that
// does not decode yields no media.
func (r *Resolver) Resolve(ctx context.Context, raw json.RawMessage) []Descriptor {
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		r.logger.Warn("Unreadable media payload", "err", err)
		return nil
	}
	return r.ResolveSubmission(ctx, &sub)
}

func (r *Resolver) ResolveSubmission(ctx context.Context, sub *Submission) []Descriptor {
	var out []Descriptor
	for _, s := range r.strategies {
		if s.Match(sub) {
			out = s.Resolve(ctx, sub)
			break
		}
	}

	if len(out) == 0 {
		if strings.HasPrefix(sub.Domain, "self.") {
			r.logger.Info("No media expected for self post", "post", sub.Name, "domain", sub.Domain)
		} else {
			r.logger.Warn("No media identified", "post", sub.Name, "domain", sub.Domain)
		}
	}
	return out
}
