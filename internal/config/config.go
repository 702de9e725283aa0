package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cast"
)

type Config struct {
	Port          int
	DatabaseURL   string
	RedisAddr     string
	SessionSecret string

	AdminEmail    string
	AdminPassword string

	TMDBAPIKey       string
	TMDBBaseURL      string
	TMDBImageBaseURL string

	EmailNotifications bool
	SMTPHost           string
	SMTPPort           string
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string

	WebDir string
}

func Load() *Config {
	return &Config{
		Port:          envInt("PORT", 3000),
		DatabaseURL:   env("DATABASE_URL", "postgres://shadowplex:shadowplex@db:5432/shadowplex?sslmode=disable"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		SessionSecret: env("SESSION_SECRET", "change-me-in-production"),

		AdminEmail:    env("ADMIN_EMAIL", "admin@shadowplex.local"),
		AdminPassword: env("ADMIN_PASSWORD", "admin123"),

		TMDBAPIKey:       env("TMDB_API_KEY", ""),
		TMDBBaseURL:      env("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL: env("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),

		EmailNotifications: envBool("EMAIL_NOTIFICATIONS", true),
		SMTPHost:           env("SMTP_HOST", ""),
		SMTPPort:           env("SMTP_PORT", "587"),
		SMTPUser:           env("SMTP_USER", ""),
		SMTPPassword:       env("SMTP_PASSWORD", ""),
		SMTPFrom:           env("SMTP_FROM", ""),

		WebDir: env("WEB_DIR", "web"),
	}
}

// MergeFromDB overlays values from the settings table so the admin
// dashboard can change them without a redeploy. Environment values act
// as fallbacks only.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "tmdb_api_key":
			if value != "" {
				c.TMDBAPIKey = value
			}
		case "email_notifications":
			c.EmailNotifications = cast.ToBool(value)
		}
	}
}

// TMDBEnabled reports whether the metadata provider is configured.
// Placeholder keys count as unconfigured.
func (c *Config) TMDBEnabled() bool {
	return c.TMDBAPIKey != "" && c.TMDBAPIKey != "YOUR_TMDB_API_KEY"
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return cast.ToBool(v)
	}
	return fallback
}
