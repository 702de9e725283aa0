package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &DB{db}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		original_title TEXT NOT NULL DEFAULT '',
		poster_url TEXT NOT NULL DEFAULT '',
		backdrop_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		release_date TEXT NOT NULL DEFAULT '',
		year INTEGER,
		runtime INTEGER,
		genres TEXT NOT NULL DEFAULT '',
		rating DOUBLE PRECISION,
		vote_count INTEGER,
		popularity DOUBLE PRECISION,
		tagline TEXT NOT NULL DEFAULT '',
		imdb_id TEXT NOT NULL DEFAULT '',
		tmdb_id BIGINT,
		download_links TEXT NOT NULL DEFAULT '[]',
		trailer_url TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'movie',
		status TEXT NOT NULL DEFAULT 'published',
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS web_series (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		original_title TEXT NOT NULL DEFAULT '',
		poster_url TEXT NOT NULL DEFAULT '',
		backdrop_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		first_air_date TEXT NOT NULL DEFAULT '',
		year INTEGER,
		last_air_date TEXT NOT NULL DEFAULT '',
		number_of_seasons INTEGER,
		number_of_episodes INTEGER,
		genres TEXT NOT NULL DEFAULT '',
		rating DOUBLE PRECISION,
		vote_count INTEGER,
		popularity DOUBLE PRECISION,
		tagline TEXT NOT NULL DEFAULT '',
		imdb_id TEXT NOT NULL DEFAULT '',
		tmdb_id BIGINT,
		download_links TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'published',
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// Episodes follow their series out of the catalog on delete.
	`CREATE TABLE IF NOT EXISTS episodes (
		id BIGSERIAL PRIMARY KEY,
		series_id BIGINT NOT NULL REFERENCES web_series(id) ON DELETE CASCADE,
		season_number INTEGER NOT NULL DEFAULT 0,
		episode_number INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		air_date TEXT NOT NULL DEFAULT '',
		runtime INTEGER,
		poster_url TEXT NOT NULL DEFAULT '',
		download_links TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`,
}

// defaultSettings are the pre-seeded keys. Seeding never overwrites an
// existing value.
var defaultSettings = [][3]string{
	{"site_name", "ShadowPlex", "Website name"},
	{"site_tagline", "Your personal streaming catalog", "Website tagline"},
	{"tmdb_api_key", "", "TMDB API key"},
	{"email_notifications", "true", "Enable email notifications"},
	{"theme_primary", "#e50914", "Primary theme color"},
	{"theme_secondary", "#221f1f", "Secondary theme color"},
}

// Migrate applies the schema and seeds default settings. Safe to run on
// every startup.
func Migrate(db *DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	for _, s := range defaultSettings {
		_, err := db.Exec(
			`INSERT INTO settings (key, value, description) VALUES ($1, $2, $3) ON CONFLICT (key) DO NOTHING`,
			s[0], s[1], s[2])
		if err != nil {
			return fmt.Errorf("settings seed failed: %w", err)
		}
	}
	return nil
}
