package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shadowplex/shadowplex/internal/models"
	"github.com/shadowplex/shadowplex/internal/repository"
)

// parseFilter reads the listing query parameters. Unparsable numbers
// fall back to defaults rather than erroring; the filter normalizes
// itself at query time.
func parseFilter(r *http.Request) *repository.CatalogFilter {
	q := r.URL.Query()
	f := &repository.CatalogFilter{
		Search: q.Get("search"),
		Genre:  q.Get("genre"),
		Sort:   q.Get("sort"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = limit
	}
	if year, err := strconv.Atoi(q.Get("year")); err == nil {
		f.Year = year
	}
	return f
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, pagination, err := s.movies.List(parseFilter(r))
	if err != nil {
		s.respondStorageError(w, "list movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"movies":     movies,
		"pagination": pagination,
	})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	movie, err := s.movies.GetByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Movie not found")
		return
	}
	if err != nil {
		s.respondStorageError(w, "get movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, movie)
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	series, pagination, err := s.series.List(parseFilter(r))
	if err != nil {
		s.respondStorageError(w, "list series", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"series":     series,
		"pagination": pagination,
	})
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	series, err := s.series.GetByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Series not found")
		return
	}
	if err != nil {
		s.respondStorageError(w, "get series", err)
		return
	}

	episodes, err := s.episodes.ListBySeries(id, nil)
	if err != nil {
		s.respondStorageError(w, "list episodes", err)
		return
	}
	series.Episodes = episodes
	s.respondJSON(w, http.StatusOK, series)
}

func (s *Server) handleListEpisodes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	var season *int
	if v, err := strconv.Atoi(r.URL.Query().Get("season")); err == nil {
		season = &v
	}
	episodes, err := s.episodes.ListBySeries(id, season)
	if err != nil {
		s.respondStorageError(w, "list episodes", err)
		return
	}
	// Bare array on the wire, like the single-series episode embed.
	s.respondJSON(w, http.StatusOK, episodes)
}

// handleAddEpisode attaches an episode to an existing series.
func (s *Server) handleAddEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	if _, err := s.series.GetByID(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Series not found")
			return
		}
		s.respondStorageError(w, "get series", err)
		return
	}

	var episode models.Episode
	if err := json.NewDecoder(r.Body).Decode(&episode); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(episode.Title) == "" {
		s.respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	episode.SeriesID = id
	if err := s.episodes.Insert(&episode); err != nil {
		s.respondStorageError(w, "insert episode", err)
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Episode added", Data: &episode})
}

// browseStore picks the per-kind store for the genre/year enumerations.
func (s *Server) browseStore(r *http.Request) interface {
	Genres() ([]string, error)
	Years() ([]int, error)
} {
	if models.ParseKind(r.URL.Query().Get("type")) == models.KindSeries {
		return s.series
	}
	return s.movies
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.browseStore(r).Genres()
	if err != nil {
		s.respondStorageError(w, "list genres", err)
		return
	}
	if genres == nil {
		genres = []string{}
	}
	// Bare sorted array on the wire.
	s.respondJSON(w, http.StatusOK, genres)
}

func (s *Server) handleListYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.browseStore(r).Years()
	if err != nil {
		s.respondStorageError(w, "list years", err)
		return
	}
	if years == nil {
		years = []int{}
	}
	// Bare descending array on the wire.
	s.respondJSON(w, http.StatusOK, years)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	var err error
	kind := r.PathValue("type")
	switch kind {
	case "movies":
		err = s.movies.Delete(id)
	case "web-series":
		err = s.series.Delete(id)
	default:
		s.respondError(w, http.StatusBadRequest, "Invalid type")
		return
	}

	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		s.respondStorageError(w, "delete "+kind, err)
		return
	}

	s.wsHub.Broadcast("delete", map[string]interface{}{"type": kind, "id": id})
	s.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Deleted successfully"})
}
