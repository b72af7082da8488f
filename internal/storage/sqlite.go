package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver

	"github.com/iamhaymc/NewSpace/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Each table carries a surrogate id plus a UNIQUE natural key, so
// INSERT OR IGNORE makes re-crawls idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS asset (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		utc_created TEXT,
		utc_updated TEXT,
		media_type  TEXT,
		media_url   TEXT NOT NULL UNIQUE,
		media_data  BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS user (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		utc_created TEXT,
		utc_updated TEXT,
		src_slug    TEXT NOT NULL UNIQUE,
		src_url     TEXT,
		src_data    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS space (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		utc_created TEXT,
		utc_updated TEXT,
		src_slug    TEXT NOT NULL UNIQUE,
		src_url     TEXT,
		src_data    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS post (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		utc_created TEXT,
		utc_updated TEXT,
		src_slug    TEXT NOT NULL UNIQUE,
		src_url     TEXT,
		src_data    TEXT,
		space       TEXT,
		title       TEXT,
		author      TEXT,
		type        TEXT,
		text        TEXT,
		score       INTEGER,
		parent      TEXT
	)`,
}

// Store is the sqlite implementation of domain.Sink.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema. With
// rebuild set, an existing file is removed first.
func Open(path string, rebuild bool) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if rebuild {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove database: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers from parallel targets.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

type srcRow struct {
	Created string         `db:"utc_created"`
	Updated string         `db:"utc_updated"`
	Slug    string         `db:"src_slug"`
	URL     string         `db:"src_url"`
	Data    sql.NullString `db:"src_data"`
}

func (s *Store) InsertSpace(ctx context.Context, sp domain.Space) error {
	ts := s.timestamp()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO space (utc_created, utc_updated, src_slug, src_url, src_data)
		VALUES (:utc_created, :utc_updated, :src_slug, :src_url, :src_data)`,
		srcRow{Created: ts, Updated: ts, Slug: sp.Name, URL: sp.URL, Data: nullString(string(sp.SrcData))})
	if err != nil {
		return fmt.Errorf("insert space %s: %w", sp.Name, err)
	}
	return nil
}

func (s *Store) InsertUser(ctx context.Context, u domain.User) error {
	ts := s.timestamp()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO user (utc_created, utc_updated, src_slug, src_url, src_data)
		VALUES (:utc_created, :utc_updated, :src_slug, :src_url, :src_data)`,
		srcRow{Created: ts, Updated: ts, Slug: u.Name, URL: u.URL, Data: nullString(string(u.SrcData))})
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.Name, err)
	}
	return nil
}

type postRow struct {
	srcRow
	Space  string         `db:"space"`
	Title  sql.NullString `db:"title"`
	Author sql.NullString `db:"author"`
	Type   string         `db:"type"`
	Text   string         `db:"text"`
	Score  int            `db:"score"`
	Parent sql.NullString `db:"parent"`
}

func (s *Store) InsertPost(ctx context.Context, p domain.Post) error {
	ts := s.timestamp()
	row := postRow{
		srcRow: srcRow{Created: ts, Updated: ts, Slug: p.ID, URL: p.URL, Data: nullString(string(p.SrcData))},
		Space:  p.SpaceName,
		Title:  nullString(p.Title),
		Author: nullString(p.AuthorName),
		Type:   string(p.Type),
		Text:   p.Text,
		Score:  p.Score(),
		Parent: nullString(p.Parent),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO post (
			utc_created, utc_updated,
			src_slug, src_url, src_data, space, title, author, type, text, score, parent
		)
		VALUES (
			:utc_created, :utc_updated,
			:src_slug, :src_url, :src_data, :space, :title, :author, :type, :text, :score, :parent
		)`, row)
	if err != nil {
		return fmt.Errorf("insert post %s: %w", p.ID, err)
	}
	return nil
}

type assetRow struct {
	Created string `db:"utc_created"`
	Updated string `db:"utc_updated"`
	Type    string `db:"media_type"`
	URL     string `db:"media_url"`
	Data    []byte `db:"media_data"`
}

func (s *Store) InsertAsset(ctx context.Context, a domain.Asset) error {
	ts := s.timestamp()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO asset (utc_created, utc_updated, media_type, media_url, media_data)
		VALUES (:utc_created, :utc_updated, :media_type, :media_url, :media_data)`,
		assetRow{Created: ts, Updated: ts, Type: a.MediaType, URL: a.URL, Data: a.Data})
	if err != nil {
		return fmt.Errorf("insert asset %s: %w", a.URL, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
