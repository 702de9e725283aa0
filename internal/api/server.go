package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/shadowplex/shadowplex/internal/catalog"
	"github.com/shadowplex/shadowplex/internal/config"
	"github.com/shadowplex/shadowplex/internal/models"
	"github.com/shadowplex/shadowplex/internal/repository"
)

// MovieStore and SeriesStore are the read/delete surfaces the handlers
// need per kind. The concrete repositories satisfy them.
type MovieStore interface {
	List(f *repository.CatalogFilter) ([]*models.Movie, models.Pagination, error)
	GetByID(id int64) (*models.Movie, error)
	Delete(id int64) error
	Genres() ([]string, error)
	Years() ([]int, error)
}

type SeriesStore interface {
	List(f *repository.CatalogFilter) ([]*models.Series, models.Pagination, error)
	GetByID(id int64) (*models.Series, error)
	Delete(id int64) error
	Genres() ([]string, error)
	Years() ([]int, error)
}

type EpisodeStore interface {
	ListBySeries(seriesID int64, season *int) ([]*models.Episode, error)
	Insert(e *models.Episode) error
}

type SettingsStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	GetAll() ([]models.Setting, error)
}

// Uploader runs the ingestion pipeline.
type Uploader interface {
	Upload(ctx context.Context, req *catalog.UploadRequest) (*catalog.UploadResult, error)
}

// SessionGate is the admin session surface.
type SessionGate interface {
	Login(w http.ResponseWriter, r *http.Request, email, password string) bool
	Logout(w http.ResponseWriter, r *http.Request)
	LoggedIn(r *http.Request) bool
}

type Server struct {
	config   *config.Config
	movies   MovieStore
	series   SeriesStore
	episodes EpisodeStore
	settings SettingsStore
	uploader Uploader
	gate     SessionGate
	wsHub    *WSHub
	router   *http.ServeMux
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(cfg *config.Config, movies MovieStore, series SeriesStore,
	episodes EpisodeStore, settings SettingsStore, uploader Uploader, gate SessionGate) *Server {
	s := &Server{
		config:   cfg,
		movies:   movies,
		series:   series,
		episodes: episodes,
		settings: settings,
		uploader: uploader,
		gate:     gate,
		wsHub:    NewWSHub(),
		router:   http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) setupRoutes() {
	// Static front-end
	s.router.Handle("/", http.FileServer(http.Dir(s.config.WebDir)))

	s.router.HandleFunc("GET /health", s.handleHealth)

	// Public catalog reads
	s.router.HandleFunc("GET /api/movies", s.handleListMovies)
	s.router.HandleFunc("GET /api/movies/{id}", s.handleGetMovie)
	s.router.HandleFunc("GET /api/web-series", s.handleListSeries)
	s.router.HandleFunc("GET /api/web-series/{id}", s.handleGetSeries)
	s.router.HandleFunc("GET /api/web-series/{id}/episodes", s.handleListEpisodes)
	s.router.HandleFunc("GET /api/genres", s.handleListGenres)
	s.router.HandleFunc("GET /api/years", s.handleListYears)
	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)

	// Session
	s.router.HandleFunc("POST /api/login", s.handleLogin)
	s.router.HandleFunc("GET /api/logout", s.handleLogout)
	s.router.HandleFunc("GET /api/auth-status", s.handleAuthStatus)

	// Admin-gated mutations
	admin := s.requireAdmin
	s.router.HandleFunc("POST /api/settings", admin(s.handleUpdateSetting))
	s.router.HandleFunc("POST /api/upload", admin(s.handleUpload))
	s.router.HandleFunc("POST /api/web-series/{id}/episodes", admin(s.handleAddEpisode))
	s.router.HandleFunc("DELETE /api/{type}/{id}", admin(s.handleDelete))
	s.router.HandleFunc("GET /api/admin/events", admin(s.handleWebSocket))
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.LoggedIn(r) {
			s.respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the router wrapped in the global middleware chain:
// security headers → CORS → routes.
func (s *Server) Handler() http.Handler {
	return s.securityHeadersMiddleware(s.corsMiddleware(s.router))
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ──────────────────── Helpers ────────────────────

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Error: message})
}

// respondStorageError keeps storage detail out of responses; the full
// error only reaches the server log.
func (s *Server) respondStorageError(w http.ResponseWriter, op string, err error) {
	log.Printf("api: %s: %v", op, err)
	s.respondError(w, http.StatusInternalServerError, "Failed to fetch data")
}
