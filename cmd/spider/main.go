package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iamhaymc/NewSpace/internal/collector"
	"github.com/iamhaymc/NewSpace/internal/config"
	"github.com/iamhaymc/NewSpace/internal/crawler"
	"github.com/iamhaymc/NewSpace/internal/dashboard"
	"github.com/iamhaymc/NewSpace/internal/domain"
	"github.com/iamhaymc/NewSpace/internal/ingest"
	"github.com/iamhaymc/NewSpace/internal/mapper"
	"github.com/iamhaymc/NewSpace/internal/media"
	"github.com/iamhaymc/NewSpace/internal/storage"
)

const version = "0.1.0"

var (
	configDir  string
	configFile string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "spider",
		Short:        "Crawl forum spaces into a local database and media cache",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding spider.yml, cfg.settings.yml and cfg.secrets.yml")
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is <config-dir>/spider.yml)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().String("db-file", "", "sqlite database file")
	root.PersistentFlags().String("data-dir", "", "data directory")
	root.PersistentFlags().String("cache-dir", "", "cache directory for downloaded media")

	root.AddCommand(newCrawlCmd(), newReportCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spider version %s\n", version)
		},
	})
	return root
}

// loadConfig merges configuration for cmd and installs the default logger.
func loadConfig(cmd *cobra.Command, bindings map[string]string, spaces, users []string) (*config.Config, *slog.Logger, error) {
	flags := map[string]string{
		"debug":     "debug",
		"db_file":   "db-file",
		"data_dir":  "data-dir",
		"cache_dir": "cache-dir",
	}
	for k, v := range bindings {
		flags[k] = v
	}
	opts := config.Options{ConfigDir: configDir, ConfigFile: configFile, Spaces: spaces, Users: users}
	opts.Flags = make(map[string]*pflag.Flag, len(flags))
	for key, name := range flags {
		opts.Flags[key] = cmd.Flags().Lookup(name)
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newCrawlCmd() *cobra.Command {
	var spaces, users []string
	cmd := &cobra.Command{
		Use:   "crawl [space...]",
		Short: "Crawl the configured spaces and users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, map[string]string{
				"targets_file":      "targets-file",
				"export_file":       "export-file",
				"collector.mode":    "mode",
				"listing.sort":      "sort",
				"listing.time":      "time",
				"listing.limit":     "limit",
				"crawl.concurrency": "concurrency",
				"crawl.schedule":    "schedule",
				"crawl.rebuild":     "rebuild",
			}, append(spaces, args...), users)
			if err != nil {
				return err
			}
			return runCrawl(cmd.Context(), cfg, logger)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&spaces, "space", nil, "space to crawl (repeatable)")
	f.StringSliceVar(&users, "user", nil, "user to crawl (repeatable)")
	f.String("targets-file", "", "CSV file of targets (name[,kind])")
	f.String("export-file", "", "append normalized posts as NDJSON to this file")
	f.String("mode", "", "collector mode: public, api or mock")
	f.String("sort", "", "listing sort: top, hot or new")
	f.String("time", "", "listing time window: all, year or month")
	f.Int("limit", 0, "page size, clamped to [25, 100]")
	f.Int("concurrency", 0, "targets crawled in parallel")
	f.String("schedule", "", "cron spec to repeat the crawl (e.g. @hourly)")
	f.Bool("rebuild", false, "delete the database before crawling")
	return cmd
}

// targets gathers configured spaces and users plus the targets file.
func targets(cfg *config.Config, logger *slog.Logger) []domain.Target {
	var configured []domain.Target
	for _, s := range cfg.Spaces {
		configured = append(configured, domain.Target{Kind: domain.TargetSpace, Name: s.Name})
	}
	for _, u := range cfg.Users {
		configured = append(configured, domain.Target{Kind: domain.TargetUser, Name: u.Name})
	}

	var valid []domain.Target
	for _, t := range configured {
		if !ingest.Valid(t) {
			logger.Warn("Ignoring invalid target", "target", t.Name, "kind", t.Kind)
			continue
		}
		valid = append(valid, t)
	}

	var fromFile []domain.Target
	if cfg.TargetsFile != "" {
		var err error
		if fromFile, err = ingest.LoadTargets(cfg.TargetsFile); err != nil {
			logger.Warn("Targets file unreadable", "file", cfg.TargetsFile, "err", err)
		}
	}
	return ingest.Merge(valid, fromFile)
}

func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	list := targets(cfg, logger)
	if len(list) == 0 {
		return errors.New("no targets configured: set spaces/users, targets_file, or pass --space/--user")
	}

	store, err := storage.Open(cfg.DBFile, cfg.Crawl.Rebuild)
	if err != nil {
		return err
	}
	defer store.Close()

	client := collector.NewClient(cfg.Collector.UserAgent, cfg.Collector.RequestInterval, cfg.Collector.Timeout, logger)
	col, err := collector.NewCollector(cfg.Collector.Mode, client, cfg.Collector.BaseURL, cfg.Query(), cfg.Credentials())
	if err != nil {
		return err
	}
	logger.Info("Collector initialized", "mode", cfg.Collector.Mode)

	resolver := media.NewResolver(cfg.Media, client, logger)
	logger.Debug("Media strategies", "order", resolver.Names())

	cr := crawler.New(col, mapper.New(resolver, cfg.Collector.BaseURL), store, client, crawler.Options{
		CacheDir:          cfg.CacheDir,
		BaseURL:           cfg.Collector.BaseURL,
		Media:             cfg.Media,
		FetchUserProfiles: cfg.Crawl.FetchUserProfiles,
		Concurrency:       cfg.Crawl.Concurrency,
	}, logger)

	if cfg.ExportFile != "" {
		exportQueue := make(chan domain.Post, 100)
		var writerWg sync.WaitGroup
		writer := &storage.WriterService{FilePath: cfg.ExportFile, Logger: logger}
		writerWg.Add(1)
		go writer.Start(&writerWg, exportQueue)
		cr.SetExport(exportQueue)
		defer func() {
			close(exportQueue)
			writerWg.Wait()
		}()
	}

	runOnce := func() {
		sum := cr.Run(ctx, list)
		if err := dashboard.WriteFile(ctx, store, cfg.Report.Out); err != nil {
			logger.Warn("Report not written", "file", cfg.Report.Out, "err", err)
		}
		logger.Info("Run finished", "run", sum.RunID, "failed", sum.Failed())
	}

	if cfg.Crawl.Schedule == "" {
		runOnce()
		return nil
	}

	c := cron.New()
	var mu sync.Mutex
	if _, err := c.AddFunc(cfg.Crawl.Schedule, func() {
		if !mu.TryLock() {
			logger.Warn("Previous crawl still running, skipping tick")
			return
		}
		defer mu.Unlock()
		runOnce()
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Crawl.Schedule, err)
	}

	mu.Lock()
	runOnce()
	mu.Unlock()

	c.Start()
	logger.Info("Crawl scheduled", "schedule", cfg.Crawl.Schedule)
	<-ctx.Done()
	logger.Info("Shutdown signal received")
	<-c.Stop().Done()
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render crawl statistics from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, map[string]string{
				"report.out":  "out",
				"report.addr": "addr",
			}, nil, nil)
			if err != nil {
				return err
			}

			store, err := storage.Open(cfg.DBFile, false)
			if err != nil {
				return err
			}
			defer store.Close()

			if cfg.Report.Addr != "" {
				logger.Info("Starting Dashboard", "addr", cfg.Report.Addr)
				return dashboard.StartServer(store, cfg.Report.Addr, logger)
			}
			if err := dashboard.WriteFile(cmd.Context(), store, cfg.Report.Out); err != nil {
				return err
			}
			logger.Info("Report written", "file", cfg.Report.Out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "HTML file to write (default <data-dir>/report.html)")
	cmd.Flags().String("addr", "", "serve the report on this address instead, e.g. :8080")
	return cmd
}
