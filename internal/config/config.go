// Package config merges the spider configuration from defaults, the default
// file, optional settings and secrets overlays, the environment and CLI
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iamhaymc/NewSpace/internal/collector"
	"github.com/iamhaymc/NewSpace/internal/media"
)

// File names looked up in the config directory.
const (
	DefaultFile  = "spider.yml"
	SettingsFile = "cfg.settings.yml"
	SecretsFile  = "cfg.secrets.yml"
	EnvPrefix    = "SPIDER"
)

type NamedTarget struct {
	Name string `mapstructure:"name"`
}

type CollectorConfig struct {
	Mode            string        `mapstructure:"mode"`
	UserAgent       string        `mapstructure:"user_agent"`
	BaseURL         string        `mapstructure:"base_url"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ClientID        string        `mapstructure:"client_id"`
	ClientSecret    string        `mapstructure:"client_secret"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
}

type ListingConfig struct {
	Sort        string `mapstructure:"sort"`
	Time        string `mapstructure:"time"`
	Limit       int    `mapstructure:"limit"`
	UserSection string `mapstructure:"user_section"`
}

type CrawlConfig struct {
	Concurrency       int    `mapstructure:"concurrency"`
	FetchUserProfiles bool   `mapstructure:"fetch_user_profiles"`
	Schedule          string `mapstructure:"schedule"`
	Rebuild           bool   `mapstructure:"rebuild"`
}

type ReportConfig struct {
	Out  string `mapstructure:"out"`
	Addr string `mapstructure:"addr"`
}

type Config struct {
	Spaces      []NamedTarget   `mapstructure:"spaces"`
	Users       []NamedTarget   `mapstructure:"users"`
	TargetsFile string          `mapstructure:"targets_file"`
	Dir         string          `mapstructure:"dir"`
	DataDir     string          `mapstructure:"data_dir"`
	CacheDir    string          `mapstructure:"cache_dir"`
	DBFile      string          `mapstructure:"db_file"`
	ExportFile  string          `mapstructure:"export_file"`
	Debug       bool            `mapstructure:"debug"`
	Collector   CollectorConfig `mapstructure:"collector"`
	Listing     ListingConfig   `mapstructure:"listing"`
	Media       media.Toggles   `mapstructure:"media"`
	Crawl       CrawlConfig     `mapstructure:"crawl"`
	Report      ReportConfig    `mapstructure:"report"`
}

// Query is the listing query for the paginator.
func (c *Config) Query() collector.Query {
	return collector.Query{
		Sort:        c.Listing.Sort,
		Time:        c.Listing.Time,
		Limit:       c.Listing.Limit,
		UserSection: c.Listing.UserSection,
	}
}

// Credentials for api mode.
func (c *Config) Credentials() collector.Credentials {
	return collector.Credentials{
		ClientID:     c.Collector.ClientID,
		ClientSecret: c.Collector.ClientSecret,
		Username:     c.Collector.Username,
		Password:     c.Collector.Password,
	}
}

func setDefaults(v *viper.Viper) {
	// Empty defaults register the keys so the environment can reach them.
	for _, k := range []string{
		"targets_file", "data_dir", "cache_dir", "db_file", "export_file",
		"collector.client_id", "collector.client_secret", "collector.username", "collector.password",
		"crawl.schedule", "report.out", "report.addr",
	} {
		v.SetDefault(k, "")
	}
	v.SetDefault("debug", false)
	v.SetDefault("crawl.rebuild", false)
	v.SetDefault("crawl.fetch_user_profiles", false)
	v.SetDefault("dir", ".")
	v.SetDefault("collector.mode", collector.ModePublic)
	v.SetDefault("collector.user_agent", collector.DefaultUserAgent)
	v.SetDefault("collector.base_url", collector.BaseURL)
	v.SetDefault("collector.request_interval", 2*time.Second)
	v.SetDefault("collector.timeout", 30*time.Second)
	v.SetDefault("listing.sort", "top")
	v.SetDefault("listing.time", "all")
	v.SetDefault("listing.limit", collector.MaxLimit)
	v.SetDefault("listing.user_section", "submitted")
	d := media.DefaultToggles()
	v.SetDefault("media.image_galleries", d.ImageGalleries)
	v.SetDefault("media.unanimated_images", d.UnanimatedImages)
	v.SetDefault("media.animated_images", d.AnimatedImages)
	v.SetDefault("media.videos", d.Videos)
	v.SetDefault("crawl.concurrency", 1)
}

// Options tell Load where to look.
type Options struct {
	// ConfigDir holds spider.yml and the overlays. Defaults to the working
	// directory.
	ConfigDir string
	// ConfigFile replaces ConfigDir/spider.yml when set.
	ConfigFile string
	// Flags maps config keys (e.g. "listing.limit") to the CLI flags that
	// override them. Unchanged flags do not override anything.
	Flags map[string]*pflag.Flag
	// Spaces and Users from the command line are appended to the configured
	// lists.
	Spaces []string
	Users  []string
}

// Load builds the configuration. Missing files are skipped; files that exist
// but do not parse are errors.
func Load(opts Options) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not found, skipping")
	}

	dir := opts.ConfigDir
	if dir == "" {
		dir = "."
	}

	v := viper.New()
	setDefaults(v)

	base := opts.ConfigFile
	if base == "" {
		base = filepath.Join(dir, DefaultFile)
	}
	for i, file := range []string{base, filepath.Join(dir, SettingsFile), filepath.Join(dir, SecretsFile)} {
		if err := mergeFile(v, file, i == 0 && opts.ConfigFile != ""); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, f := range opts.Flags {
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for _, s := range opts.Spaces {
		cfg.Spaces = append(cfg.Spaces, NamedTarget{Name: s})
	}
	for _, u := range opts.Users {
		cfg.Users = append(cfg.Users, NamedTarget{Name: u})
	}

	cfg.resolvePaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeFile(v *viper.Viper, file string, required bool) error {
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			slog.Debug("Config file not found, skipping", "file", file)
			return nil
		}
		return fmt.Errorf("config file %s: %w", file, err)
	}
	v.SetConfigFile(file)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", file, err)
	}
	return nil
}

// resolvePaths fills path defaults relative to Dir.
func (c *Config) resolvePaths() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(c.Dir, "data")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.Dir, "cache")
	}
	if c.DBFile == "" {
		c.DBFile = filepath.Join(c.DataDir, "reddit_spider.db")
	}
	if c.Report.Out == "" {
		c.Report.Out = filepath.Join(c.DataDir, "report.html")
	}
}

var (
	validSorts = []string{"top", "hot", "new"}
	validTimes = []string{"all", "year", "month"}
	validModes = []string{collector.ModePublic, collector.ModeAPI, collector.ModeMock}
)

func (c *Config) Validate() error {
	if !slices.Contains(validSorts, c.Listing.Sort) {
		return fmt.Errorf("listing.sort %q not in %v", c.Listing.Sort, validSorts)
	}
	if !slices.Contains(validTimes, c.Listing.Time) {
		return fmt.Errorf("listing.time %q not in %v", c.Listing.Time, validTimes)
	}
	if !slices.Contains(validModes, c.Collector.Mode) {
		return fmt.Errorf("collector.mode %q not in %v", c.Collector.Mode, validModes)
	}
	if c.Crawl.Concurrency < 1 {
		return fmt.Errorf("crawl.concurrency must be at least 1, got %d", c.Crawl.Concurrency)
	}
	if c.Collector.Mode == collector.ModeAPI {
		if c.Collector.ClientID == "" || c.Collector.ClientSecret == "" {
			return errors.New("collector.client_id and collector.client_secret are required in api mode")
		}
	}
	return nil
}
