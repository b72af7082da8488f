package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamhaymc/NewSpace/internal/collector"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(Options{ConfigDir: dir})
	require.NoError(t, err)
	assert.Equal(t, collector.ModePublic, cfg.Collector.Mode)
	assert.Equal(t, collector.BaseURL, cfg.Collector.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Collector.RequestInterval)
	assert.Equal(t, "top", cfg.Listing.Sort)
	assert.Equal(t, "all", cfg.Listing.Time)
	assert.Equal(t, 100, cfg.Listing.Limit)
	assert.Equal(t, 1, cfg.Crawl.Concurrency)
	assert.True(t, cfg.Media.ImageGalleries)
	assert.True(t, cfg.Media.UnanimatedImages)
	assert.False(t, cfg.Media.Videos)
	assert.Equal(t, filepath.Join(".", "data", "reddit_spider.db"), cfg.DBFile)
	assert.Equal(t, filepath.Join(".", "cache"), cfg.CacheDir)
	assert.Empty(t, cfg.Spaces)
}

func TestLoad_OverlayPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultFile, `
dir: /srv/spider
spaces:
  - name: pics
listing:
  sort: new
  limit: 50
collector:
  request_interval: 5s
media:
  videos: true
`)
	writeFile(t, dir, SettingsFile, `
listing:
  sort: hot
`)
	writeFile(t, dir, SecretsFile, `
collector:
  mode: api
  client_id: id
  client_secret: secret
`)

	cfg, err := Load(Options{ConfigDir: dir, Spaces: []string{"golang"}, Users: []string{"spez"}})
	require.NoError(t, err)
	assert.Equal(t, "hot", cfg.Listing.Sort)
	assert.Equal(t, 50, cfg.Listing.Limit)
	assert.Equal(t, 5*time.Second, cfg.Collector.RequestInterval)
	assert.Equal(t, collector.ModeAPI, cfg.Collector.Mode)
	assert.Equal(t, collector.Credentials{ClientID: "id", ClientSecret: "secret"}, cfg.Credentials())
	assert.True(t, cfg.Media.Videos)
	assert.True(t, cfg.Media.ImageGalleries)
	assert.Equal(t, []NamedTarget{{Name: "pics"}, {Name: "golang"}}, cfg.Spaces)
	assert.Equal(t, []NamedTarget{{Name: "spez"}}, cfg.Users)
	assert.Equal(t, filepath.Join("/srv/spider", "data", "reddit_spider.db"), cfg.DBFile)
	assert.Equal(t, collector.Query{Sort: "hot", Time: "all", Limit: 50, UserSection: "submitted"}, cfg.Query())
}

func TestLoad_EnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultFile, "listing:\n  sort: new\n  limit: 50\n")
	t.Setenv("SPIDER_LISTING_SORT", "hot")
	t.Setenv("SPIDER_LISTING_LIMIT", "30")
	t.Setenv("SPIDER_MEDIA_VIDEOS", "true")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("limit", 0, "")
	fs.String("sort", "", "")
	require.NoError(t, fs.Parse([]string{"--limit", "75"}))

	cfg, err := Load(Options{ConfigDir: dir, Flags: map[string]*pflag.Flag{
		"listing.limit": fs.Lookup("limit"),
		"listing.sort":  fs.Lookup("sort"),
		"crawl.rebuild": nil,
	}})
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Listing.Limit)
	assert.Equal(t, "hot", cfg.Listing.Sort)
	assert.True(t, cfg.Media.Videos)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yml", "crawl:\n  concurrency: 4\n")

	cfg, err := Load(Options{ConfigDir: dir, ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Crawl.Concurrency)

	_, err = Load(Options{ConfigDir: dir, ConfigFile: filepath.Join(dir, "missing.yml")})
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultFile, "listing: [unclosed\n")

	_, err := Load(Options{ConfigDir: dir})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{ConfigDir: dir})
	require.NoError(t, err)

	bad := *cfg
	bad.Listing.Sort = "controversial"
	assert.ErrorContains(t, bad.Validate(), "listing.sort")

	bad = *cfg
	bad.Listing.Time = "week"
	assert.ErrorContains(t, bad.Validate(), "listing.time")

	bad = *cfg
	bad.Collector.Mode = "scrape"
	assert.ErrorContains(t, bad.Validate(), "collector.mode")

	bad = *cfg
	bad.Crawl.Concurrency = 0
	assert.ErrorContains(t, bad.Validate(), "concurrency")

	bad = *cfg
	bad.Collector.Mode = collector.ModeAPI
	assert.ErrorContains(t, bad.Validate(), "client_id")
}
