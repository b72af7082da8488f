package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamhaymc/NewSpace/internal/config"
	"github.com/iamhaymc/NewSpace/internal/domain"
)

func TestTargets_MergesConfigAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "targets.csv")
	require.NoError(t, os.WriteFile(file, []byte("name,kind\npics\nspez,user\nEarthPorn\n"), 0644))

	cfg := &config.Config{
		Spaces:      []config.NamedTarget{{Name: "pics"}, {Name: "not valid!"}},
		Users:       []config.NamedTarget{{Name: "spez"}},
		TargetsFile: file,
	}
	got := targets(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, []domain.Target{
		{Kind: domain.TargetSpace, Name: "pics"},
		{Kind: domain.TargetUser, Name: "spez"},
		{Kind: domain.TargetSpace, Name: "EarthPorn"},
	}, got)
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "spider version "+version+"\n", out.String())
}

func TestCrawlCommand_MockMode(t *testing.T) {
	dir := t.TempDir()
	export := filepath.Join(dir, "data", "posts.ndjson")
	t.Setenv("SPIDER_COLLECTOR_REQUEST_INTERVAL", "0s")
	t.Setenv("SPIDER_COLLECTOR_TIMEOUT", "2s")
	root := newRootCmd()
	root.SetArgs([]string{
		"--config-dir", dir,
		"--data-dir", filepath.Join(dir, "data"),
		"--cache-dir", filepath.Join(dir, "cache"),
		"crawl", "golang",
		"--mode", "mock",
		"--export-file", export,
	})
	t.Cleanup(func() { configDir, configFile = "", "" })

	require.NoError(t, root.Execute())
	assert.FileExists(t, filepath.Join(dir, "data", "reddit_spider.db"))
	assert.FileExists(t, filepath.Join(dir, "data", "report.html"))

	b, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Equal(t, 15, bytes.Count(b, []byte("\n")))
}
