package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// ──────────────────── Enums ────────────────────

// Kind discriminates between the two catalog entity kinds. Each kind is
// backed by its own table; the legacy `type` column only exists on movies.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ParseKind maps an upload "type" value onto a Kind. Anything that is not
// "movie" lands in the series table, matching the upload contract.
func ParseKind(s string) Kind {
	if s == "" || s == string(KindMovie) {
		return KindMovie
	}
	return KindSeries
}

const (
	StatusPublished = "published"
	GenreSeparator  = ", "
)

// ──────────────────── Download links ────────────────────

// DownloadLink is one entry of the ordered link list attached to a record.
// The list is persisted as a JSON text column; only the repository layer
// sees the serialized form.
type DownloadLink struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// EncodeDownloadLinks serializes links for storage. A nil list encodes as
// an empty JSON array so the column never stores SQL-null ambiguity.
func EncodeDownloadLinks(links []DownloadLink) (string, error) {
	if links == nil {
		links = []DownloadLink{}
	}
	data, err := json.Marshal(links)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeDownloadLinks parses the stored column value. Malformed or empty
// values degrade to an empty list, never an error.
func DecodeDownloadLinks(raw string) []DownloadLink {
	if raw == "" {
		return []DownloadLink{}
	}
	var links []DownloadLink
	if err := json.Unmarshal([]byte(raw), &links); err != nil || links == nil {
		return []DownloadLink{}
	}
	return links
}

// ──────────────────── Genres ────────────────────

// JoinGenres renders the in-memory genre list into the stored ", "-joined
// text form.
func JoinGenres(genres []string) string {
	return strings.Join(genres, GenreSeparator)
}

// SplitGenres parses a stored genres value back into a list. Empty input
// yields an empty list.
func SplitGenres(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, GenreSeparator)
}

// GenreSet folds stored genre strings from many records into a
// deduplicated, alphabetically sorted list.
func GenreSet(stored []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range stored {
		for _, g := range SplitGenres(raw) {
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}

// ──────────────────── Catalog records ────────────────────

// Movie is a row of the movies table.
type Movie struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	OriginalTitle string         `json:"original_title"`
	PosterURL     string         `json:"poster_url"`
	BackdropURL   string         `json:"backdrop_url"`
	Description   string         `json:"description"`
	Overview      string         `json:"overview"`
	ReleaseDate   string         `json:"release_date"`
	Year          *int           `json:"year"`
	Runtime       *int           `json:"runtime"`
	Genres        []string       `json:"genres"`
	Rating        *float64       `json:"rating"`
	VoteCount     *int           `json:"vote_count"`
	Popularity    *float64       `json:"popularity"`
	Tagline       string         `json:"tagline"`
	IMDBID        string         `json:"imdb_id"`
	TMDBID        *int64         `json:"tmdb_id"`
	DownloadLinks []DownloadLink `json:"download_links"`
	TrailerURL    string         `json:"trailer_url"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	UploadDate    time.Time      `json:"upload_date"`
	UpdatedDate   time.Time      `json:"updated_date"`
}

// Series is a row of the web_series table. Episodes are embedded on the
// single-record read path, ordered by (season, episode).
type Series struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	OriginalTitle    string         `json:"original_title"`
	PosterURL        string         `json:"poster_url"`
	BackdropURL      string         `json:"backdrop_url"`
	Description      string         `json:"description"`
	Overview         string         `json:"overview"`
	FirstAirDate     string         `json:"first_air_date"`
	Year             *int           `json:"year"`
	LastAirDate      string         `json:"last_air_date"`
	NumberOfSeasons  *int           `json:"number_of_seasons"`
	NumberOfEpisodes *int           `json:"number_of_episodes"`
	Genres           []string       `json:"genres"`
	Rating           *float64       `json:"rating"`
	VoteCount        *int           `json:"vote_count"`
	Popularity       *float64       `json:"popularity"`
	Tagline          string         `json:"tagline"`
	IMDBID           string         `json:"imdb_id"`
	TMDBID           *int64         `json:"tmdb_id"`
	DownloadLinks    []DownloadLink `json:"download_links"`
	Status           string         `json:"status"`
	UploadDate       time.Time      `json:"upload_date"`
	UpdatedDate      time.Time      `json:"updated_date"`
	Episodes         []*Episode     `json:"episodes,omitempty"`
}

// Episode belongs to exactly one series. (season_number, episode_number)
// is the ordering key within a series; uniqueness is not enforced by the
// store.
type Episode struct {
	ID            int64          `json:"id"`
	SeriesID      int64          `json:"series_id"`
	SeasonNumber  int            `json:"season_number"`
	EpisodeNumber int            `json:"episode_number"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	AirDate       string         `json:"air_date"`
	Runtime       *int           `json:"runtime"`
	PosterURL     string         `json:"poster_url"`
	DownloadLinks []DownloadLink `json:"download_links"`
}

// Setting is one key-value pair of the settings table. Keys are seeded at
// migration time and are upsert-only.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// ──────────────────── Listings ────────────────────

// Pagination describes the page window of a listing response. Pages is
// ceil(Total/Limit), computed from the same filter predicate as the rows.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ──────────────────── Enrichment ────────────────────

// Enrichment is the partial record resolved from the metadata provider.
// A nil *Enrichment means the provider was unconfigured or had no match;
// both are normal, not failures.
type Enrichment struct {
	OriginalTitle    string
	Overview         string
	ReleaseDate      string
	Year             *int
	Runtime          *int
	Genres           []string
	Rating           *float64
	VoteCount        *int
	Popularity       *float64
	Tagline          string
	IMDBID           string
	TMDBID           int64
	PosterURL        string
	BackdropURL      string
	LastAirDate      string
	NumberOfSeasons  *int
	NumberOfEpisodes *int
}
