package media

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Hosts recognized by the default strategy table.
const (
	HostDirectImage  = "i.redd.it"
	HostGfycat       = "gfycat.com"
	HostRedgifs      = "redgifs.com"
	HostRedgifsWatch = "v3.redgifs.com"
	HostImgur        = "i.imgur.com"
)

// Endpoints are the media-info API prefixes; the media id is appended.
type Endpoints struct {
	Gfycat  string
	Redgifs string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Gfycat:  "https://gfycat.com/cajax/get/",
		Redgifs: "https://api.redgifs.com/v1/gfycats/",
	}
}

// Strategies returns the resolution table in priority order, leaving out
// rows whose toggle is off.
func Strategies(t Toggles, fetch InfoFetcher, ep Endpoints, logger *slog.Logger) []Strategy {
	var out []Strategy
	if t.UnanimatedImages {
		out = append(out, DirectImage{Host: HostDirectImage})
	}
	if t.AnimatedImages {
		out = append(out,
			&InfoAPI{Label: "gfycat", Host: HostGfycat, Endpoint: ep.Gfycat, Fetch: fetch, Logger: logger},
			&InfoAPI{Label: "redgifs", Host: HostRedgifs, Endpoint: ep.Redgifs, Fetch: fetch, Logger: logger},
		)
	}
	if t.Videos {
		out = append(out,
			&WatchPage{Host: HostRedgifsWatch, Endpoint: ep.Redgifs, Fetch: fetch, Logger: logger},
			ExtensionSwap{Host: HostImgur, From: ".gifv", To: ".mp4"},
		)
	}
	if t.ImageGalleries {
		out = append(out, Gallery{Logger: logger})
	}
	return out
}

// DirectImage uses the submission URL as-is.
type DirectImage struct {
	Host string
}

func (s DirectImage) Name() string { return "direct-image" }

func (s DirectImage) Match(sub *Submission) bool { return sub.Domain == s.Host }

func (s DirectImage) Resolve(_ context.Context, sub *Submission) []Descriptor {
	return []Descriptor{descriptor(sub.URL)}
}

type infoResponse struct {
	GfyItem struct {
		MP4URL string `json:"mp4Url"`
	} `json:"gfyItem"`
}

// fetchMP4 asks a media-info endpoint for the MP4 rendition of id. Failures
// are logged and produce nothing.
func fetchMP4(ctx context.Context, fetch InfoFetcher, logger *slog.Logger, endpoint, id string) []Descriptor {
	infoURL := endpoint + id
	var info infoResponse
	if err := fetch.FetchJSON(ctx, infoURL, &info); err != nil {
		logger.Warn("Media info unavailable", "url", infoURL, "err", err)
		return nil
	}
	if info.GfyItem.MP4URL == "" {
		logger.Warn("Media info has no mp4 url", "url", infoURL)
		return nil
	}
	return []Descriptor{descriptor(info.GfyItem.MP4URL)}
}

// InfoAPI looks the media up by the last path segment of the submission URL.
type InfoAPI struct {
	Label    string
	Host     string
	Endpoint string
	Fetch    InfoFetcher
	Logger   *slog.Logger
}

func (s *InfoAPI) Name() string { return s.Label }

func (s *InfoAPI) Match(sub *Submission) bool { return sub.Domain == s.Host }

func (s *InfoAPI) Resolve(ctx context.Context, sub *Submission) []Descriptor {
	id := sub.URL[strings.LastIndex(sub.URL, "/")+1:]
	return fetchMP4(ctx, s.Fetch, orDefault(s.Logger), s.Endpoint, id)
}

var watchIDPattern = regexp.MustCompile(`/watch/([^/?#]+)`)

// WatchPage extracts the media id from a watch URL in the overridden
// destination before asking the info endpoint.
type WatchPage struct {
	Host     string
	Endpoint string
	Fetch    InfoFetcher
	Logger   *slog.Logger
}

func (s *WatchPage) Name() string { return "redgifs-watch" }

func (s *WatchPage) Match(sub *Submission) bool { return sub.Domain == s.Host }

func (s *WatchPage) Resolve(ctx context.Context, sub *Submission) []Descriptor {
	m := watchIDPattern.FindStringSubmatch(sub.URLOverriddenByDest)
	if m == nil {
		orDefault(s.Logger).Warn("Failure to determine media id from url", "url", sub.URLOverriddenByDest)
		return nil
	}
	return fetchMP4(ctx, s.Fetch, orDefault(s.Logger), s.Endpoint, m[1])
}

// ExtensionSwap rewrites the URL extension in place.
type ExtensionSwap struct {
	Host string
	From string
	To   string
}

func (s ExtensionSwap) Name() string { return "extension-swap" }

func (s ExtensionSwap) Match(sub *Submission) bool { return sub.Domain == s.Host }

func (s ExtensionSwap) Resolve(_ context.Context, sub *Submission) []Descriptor {
	return []Descriptor{descriptor(strings.ReplaceAll(sub.URL, s.From, s.To))}
}

// Gallery emits one descriptor per processed gallery item, in gallery order.
type Gallery struct {
	Logger *slog.Logger
}

func (s Gallery) Name() string { return "gallery" }

func (s Gallery) Match(sub *Submission) bool { return sub.GalleryData != nil }

func (s Gallery) Resolve(_ context.Context, sub *Submission) []Descriptor {
	var out []Descriptor
	for _, item := range sub.GalleryData.Items {
		entry, ok := sub.MediaMetadata[item.MediaID]
		if !ok {
			orDefault(s.Logger).Warn("Gallery item has no metadata", "post", sub.Name, "media_id", item.MediaID)
			continue
		}
		if entry.M == "" {
			orDefault(s.Logger).Warn("Image in gallery might be unprocessed", "post", sub.Name, "media_id", item.MediaID, "status", entry.Status)
			continue
		}
		u := entry.S.U
		if entry.M == "image/gif" {
			u = entry.S.GIF
		}
		if u == "" {
			orDefault(s.Logger).Warn("Gallery item has no source url", "post", sub.Name, "media_id", item.MediaID)
			continue
		}
		out = append(out, descriptor(u))
	}
	return out
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
