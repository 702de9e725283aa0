package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shadowplex/shadowplex/internal/models"
)

// ErrTitleRequired rejects uploads whose title is empty after trimming.
var ErrTitleRequired = errors.New("title is required")

// MovieStore and SeriesStore are the write halves of the two catalog
// repositories the pipeline persists into.
type MovieStore interface {
	Insert(m *models.Movie) error
}

type SeriesStore interface {
	Insert(s *models.Series) error
}

// Enricher resolves provider metadata for a title. A nil result with a
// nil error means unconfigured provider or no match.
type Enricher interface {
	Enrich(ctx context.Context, title string, kind models.Kind) (*models.Enrichment, error)
}

// Notifier dispatches the post-upload notification. Implementations are
// expected to be quick (enqueue, not send).
type Notifier interface {
	NotifyUpload(kind models.Kind, id int64, title string) error
}

// UploadRequest carries the caller-submitted fields of a new record.
type UploadRequest struct {
	Title         string                `json:"title"`
	Type          string                `json:"type"`
	Description   string                `json:"description"`
	PosterURL     string                `json:"poster_url"`
	BackdropURL   string                `json:"backdrop_url"`
	TrailerURL    string                `json:"trailer_url"`
	DownloadLinks []models.DownloadLink `json:"download_links"`
}

// UploadResult reports what was persisted. Exactly one of Movie/Series
// is set, matching Kind.
type UploadResult struct {
	Kind   models.Kind
	ID     int64
	Movie  *models.Movie
	Series *models.Series
}

// Record returns the stored record regardless of kind, for responses.
func (r *UploadResult) Record() interface{} {
	if r.Kind == models.KindMovie {
		return r.Movie
	}
	return r.Series
}

// Pipeline turns a minimal submitted record into a stored, optionally
// enriched catalog entry and dispatches the post-upload notification.
type Pipeline struct {
	movies   MovieStore
	series   SeriesStore
	enricher Enricher
	notifier Notifier
}

func NewPipeline(movies MovieStore, series SeriesStore, enricher Enricher, notifier Notifier) *Pipeline {
	return &Pipeline{movies: movies, series: series, enricher: enricher, notifier: notifier}
}

// Upload validates, enriches, persists and notifies. Enrichment and
// notification are advisory: their failures are logged and the upload
// still succeeds. Only validation and the insert itself can fail it.
func (p *Pipeline) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	kind := models.ParseKind(req.Type)

	var enrichment *models.Enrichment
	if p.enricher != nil {
		e, err := p.enricher.Enrich(ctx, title, kind)
		if err != nil {
			log.Printf("catalog: enrichment for %q failed, using submitted fields: %v", title, err)
		} else {
			enrichment = e
		}
	}

	result := &UploadResult{Kind: kind}
	var err error
	if kind == models.KindMovie {
		result.Movie = buildMovie(title, req, enrichment)
		err = p.movies.Insert(result.Movie)
		result.ID = result.Movie.ID
	} else {
		result.Series = buildSeries(title, req, enrichment)
		err = p.series.Insert(result.Series)
		result.ID = result.Series.ID
	}
	if err != nil {
		return nil, fmt.Errorf("persist %s: %w", kind, err)
	}

	if p.notifier != nil {
		if err := p.notifier.NotifyUpload(kind, result.ID, title); err != nil {
			log.Printf("catalog: upload notification for %q failed: %v", title, err)
		}
	}

	return result, nil
}

// buildMovie merges submitted fields with the provider match. Enriched
// fields win, except poster/backdrop which only fill in when the
// provider had none.
func buildMovie(title string, req *UploadRequest, e *models.Enrichment) *models.Movie {
	m := &models.Movie{
		Title:         title,
		OriginalTitle: title,
		PosterURL:     req.PosterURL,
		BackdropURL:   req.BackdropURL,
		Description:   req.Description,
		Overview:      req.Description,
		Genres:        []string{},
		DownloadLinks: req.DownloadLinks,
		TrailerURL:    req.TrailerURL,
		Type:          string(models.KindMovie),
		Status:        models.StatusPublished,
	}
	if m.DownloadLinks == nil {
		m.DownloadLinks = []models.DownloadLink{}
	}
	if e == nil {
		return m
	}

	m.OriginalTitle = e.OriginalTitle
	m.Overview = e.Overview
	m.Description = e.Overview
	m.ReleaseDate = e.ReleaseDate
	m.Year = e.Year
	m.Runtime = e.Runtime
	m.Genres = append([]string{}, e.Genres...)
	m.Rating = e.Rating
	m.VoteCount = e.VoteCount
	m.Popularity = e.Popularity
	m.Tagline = e.Tagline
	m.IMDBID = e.IMDBID
	tmdbID := e.TMDBID
	m.TMDBID = &tmdbID
	if e.PosterURL != "" {
		m.PosterURL = e.PosterURL
	}
	if e.BackdropURL != "" {
		m.BackdropURL = e.BackdropURL
	}
	return m
}

func buildSeries(title string, req *UploadRequest, e *models.Enrichment) *models.Series {
	s := &models.Series{
		Title:         title,
		OriginalTitle: title,
		PosterURL:     req.PosterURL,
		BackdropURL:   req.BackdropURL,
		Description:   req.Description,
		Overview:      req.Description,
		Genres:        []string{},
		DownloadLinks: req.DownloadLinks,
		Status:        models.StatusPublished,
	}
	if s.DownloadLinks == nil {
		s.DownloadLinks = []models.DownloadLink{}
	}
	if e == nil {
		return s
	}

	s.OriginalTitle = e.OriginalTitle
	s.Overview = e.Overview
	s.Description = e.Overview
	s.FirstAirDate = e.ReleaseDate
	s.Year = e.Year
	s.LastAirDate = e.LastAirDate
	s.NumberOfSeasons = e.NumberOfSeasons
	s.NumberOfEpisodes = e.NumberOfEpisodes
	s.Genres = append([]string{}, e.Genres...)
	s.Rating = e.Rating
	s.VoteCount = e.VoteCount
	s.Popularity = e.Popularity
	s.Tagline = e.Tagline
	s.IMDBID = e.IMDBID
	tmdbID := e.TMDBID
	s.TMDBID = &tmdbID
	if e.PosterURL != "" {
		s.PosterURL = e.PosterURL
	}
	if e.BackdropURL != "" {
		s.BackdropURL = e.BackdropURL
	}
	return s
}
