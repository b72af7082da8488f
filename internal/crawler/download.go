package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/gabriel-vasile/mimetype"

	"github.com/iamhaymc/NewSpace/internal/collector"
	"github.com/iamhaymc/NewSpace/internal/domain"
	"github.com/iamhaymc/NewSpace/internal/media"
)

// SupportedImageExtensions are always downloaded.
var SupportedImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// MotionExtensions are downloaded only when animated images or videos are
// enabled.
var MotionExtensions = []string{".gif", ".mp4", ".webm", ".mpeg"}

const unknownAuthor = "unknown"

// ImageDir is where media of a crawl lands.
func ImageDir(cacheDir string) string {
	return filepath.Join(cacheDir, "images")
}

// MediaFileName is {author_name}-{author_id}-{post_id}_{index}{ext}.
func MediaFileName(p domain.Post, index int, ext string) string {
	name, id := p.AuthorName, p.AuthorID
	if name == "" {
		name = unknownAuthor
	}
	if id == "" {
		id = unknownAuthor
	}
	return fmt.Sprintf("%s-%s-%s_%d%s", name, id, p.ID, index, ext)
}

func (c *Crawler) allowed(ext string) bool {
	if slices.Contains(SupportedImageExtensions, ext) {
		return true
	}
	if c.opts.Media.Videos || c.opts.Media.AnimatedImages {
		return slices.Contains(MotionExtensions, ext)
	}
	return false
}

// downloadMedia writes each allowed descriptor of p to the image directory
// and registers it as an asset. Files already in the cache are registered
// without fetching them again. Individual failures are logged; only rate
// limiting aborts the target.
func (c *Crawler) downloadMedia(ctx context.Context, p domain.Post, logger *slog.Logger, res *Result) error {
	dir := ImageDir(c.opts.CacheDir)
	for i, md := range p.Media {
		ext := media.ExtFromMIME(md.MIME)
		if !c.allowed(ext) {
			logger.Debug("Skipping media", "post", p.ID, "url", md.URL, "mime", md.MIME)
			res.Skipped++
			continue
		}

		file := filepath.Join(dir, MediaFileName(p, i, ext))
		if data, err := os.ReadFile(file); err == nil {
			logger.Debug("Media already downloaded", "file", file)
			res.Skipped++
			c.registerAsset(ctx, md, data, logger)
			continue
		}

		logger.Info("Downloading image", "file", filepath.Base(file), "url", md.URL)
		data, err := c.files.FetchBytes(ctx, md.URL)
		if err != nil {
			if collector.IsRateLimited(err) {
				return err
			}
			logger.Warn("Download failed", "url", md.URL, "err", err)
			res.Failed++
			continue
		}
		if err := writeFile(file, data); err != nil {
			logger.Warn("Write failed", "file", file, "err", err)
			res.Failed++
			continue
		}
		res.Downloaded++
		c.registerAsset(ctx, md, data, logger)
	}
	return nil
}

func (c *Crawler) registerAsset(ctx context.Context, md domain.MediaDescriptor, data []byte, logger *slog.Logger) {
	if err := c.sink.InsertAsset(ctx, domain.Asset{
		MediaType: detectType(data, md.MIME),
		URL:       md.URL,
		Data:      data,
	}); err != nil {
		logger.Warn("Asset not recorded", "url", md.URL, "err", err)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// detectType sniffs the downloaded bytes and falls back to the advisory type
// when the content is not recognized.
func detectType(data []byte, advisory string) string {
	m := mimetype.Detect(data)
	if m.Is("application/octet-stream") && advisory != "" {
		return advisory
	}
	return m.String()
}
