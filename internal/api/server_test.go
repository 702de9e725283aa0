package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowplex/shadowplex/internal/catalog"
	"github.com/shadowplex/shadowplex/internal/config"
	"github.com/shadowplex/shadowplex/internal/models"
	"github.com/shadowplex/shadowplex/internal/repository"
)

// ──────────────────── Fakes ────────────────────

type fakeMovies struct {
	movies  []*models.Movie
	deleted []int64
	genres  []string
	years   []int
}

func (f *fakeMovies) List(filter *repository.CatalogFilter) ([]*models.Movie, models.Pagination, error) {
	filter.Normalize()
	return f.movies, repository.NewPagination(filter, len(f.movies)), nil
}

func (f *fakeMovies) GetByID(id int64) (*models.Movie, error) {
	for _, m := range f.movies {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMovies) Delete(id int64) error {
	if _, err := f.GetByID(id); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeMovies) Genres() ([]string, error) { return f.genres, nil }
func (f *fakeMovies) Years() ([]int, error)     { return f.years, nil }

type fakeSeries struct {
	series []*models.Series
	genres []string
}

func (f *fakeSeries) List(filter *repository.CatalogFilter) ([]*models.Series, models.Pagination, error) {
	filter.Normalize()
	return f.series, repository.NewPagination(filter, len(f.series)), nil
}

func (f *fakeSeries) GetByID(id int64) (*models.Series, error) {
	for _, s := range f.series {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSeries) Delete(int64) error        { return repository.ErrNotFound }
func (f *fakeSeries) Genres() ([]string, error) { return f.genres, nil }
func (f *fakeSeries) Years() ([]int, error)     { return nil, nil }

type fakeEpisodes struct {
	episodes []*models.Episode
	seasons  []*int
}

func (f *fakeEpisodes) ListBySeries(_ int64, season *int) ([]*models.Episode, error) {
	f.seasons = append(f.seasons, season)
	return f.episodes, nil
}

func (f *fakeEpisodes) Insert(e *models.Episode) error {
	e.ID = int64(len(f.episodes) + 1)
	f.episodes = append(f.episodes, e)
	return nil
}

type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) Get(key string) (string, error) { return f.values[key], nil }

func (f *fakeSettings) Set(key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeSettings) GetAll() ([]models.Setting, error) {
	var out []models.Setting
	for k, v := range f.values {
		out = append(out, models.Setting{Key: k, Value: v})
	}
	return out, nil
}

type fakeUploader struct {
	requests []*catalog.UploadRequest
}

func (f *fakeUploader) Upload(_ context.Context, req *catalog.UploadRequest) (*catalog.UploadResult, error) {
	if req.Title == "" {
		return nil, catalog.ErrTitleRequired
	}
	f.requests = append(f.requests, req)
	m := &models.Movie{ID: 42, Title: req.Title}
	return &catalog.UploadResult{Kind: models.KindMovie, ID: 42, Movie: m}, nil
}

type fakeGate struct {
	loggedIn bool
}

func (f *fakeGate) Login(_ http.ResponseWriter, _ *http.Request, email, password string) bool {
	if email == "admin@example.com" && password == "hunter2" {
		f.loggedIn = true
		return true
	}
	return false
}

func (f *fakeGate) Logout(http.ResponseWriter, *http.Request) { f.loggedIn = false }
func (f *fakeGate) LoggedIn(*http.Request) bool               { return f.loggedIn }

type testEnv struct {
	server   *Server
	movies   *fakeMovies
	series   *fakeSeries
	episodes *fakeEpisodes
	settings *fakeSettings
	uploader *fakeUploader
	gate     *fakeGate
}

func newTestEnv() *testEnv {
	env := &testEnv{
		movies: &fakeMovies{
			movies: []*models.Movie{{ID: 1, Title: "Inception", DownloadLinks: []models.DownloadLink{{Quality: "1080p", URL: "http://x"}}}},
			genres: []string{"Action", "Comedy"},
			years:  []int{2025, 2010},
		},
		series:   &fakeSeries{series: []*models.Series{{ID: 5, Title: "Breaking Bad"}}},
		episodes: &fakeEpisodes{episodes: []*models.Episode{{ID: 9, SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 1}}},
		settings: &fakeSettings{values: map[string]string{"site_name": "ShadowPlex"}},
		uploader: &fakeUploader{},
		gate:     &fakeGate{},
	}
	env.server = NewServer(&config.Config{WebDir: "web"},
		env.movies, env.series, env.episodes, env.settings, env.uploader, env.gate)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// decodeList parses endpoints whose body is a bare JSON array.
func decodeList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var out []interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ──────────────────── Tests ────────────────────

func TestListMoviesWireShape(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodGet, "/api/movies?page=1&limit=20", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	movies := body["movies"].([]interface{})
	require.Len(t, movies, 1)
	first := movies[0].(map[string]interface{})
	assert.Equal(t, "Inception", first["title"])
	// download_links is a deserialized array on the wire, not a string.
	links := first["download_links"].([]interface{})
	require.Len(t, links, 1)
	assert.Equal(t, "1080p", links[0].(map[string]interface{})["quality"])

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(1), pagination["total"])
	assert.Equal(t, float64(1), pagination["pages"])
}

func TestGetMovieNotFound(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodGet, "/api/movies/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSeriesEmbedsEpisodes(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodGet, "/api/web-series/5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	episodes := body["episodes"].([]interface{})
	require.Len(t, episodes, 1)
}

func TestListEpisodesSeasonFilter(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodGet, "/api/web-series/5/episodes?season=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// The body is a bare episode array, not an object.
	episodes := decodeList(t, w)
	require.Len(t, episodes, 1)
	assert.Equal(t, float64(9), episodes[0].(map[string]interface{})["id"])

	env.do(t, http.MethodGet, "/api/web-series/5/episodes", nil)

	require.Len(t, env.episodes.seasons, 2)
	require.NotNil(t, env.episodes.seasons[0])
	assert.Equal(t, 2, *env.episodes.seasons[0])
	assert.Nil(t, env.episodes.seasons[1], "no season param means all seasons")
}

func TestListGenresByType(t *testing.T) {
	env := newTestEnv()
	env.series.genres = []string{"Drama"}

	// Both enumerations answer with bare sorted arrays.
	w := env.do(t, http.MethodGet, "/api/genres?type=movie", nil)
	assert.Equal(t, []interface{}{"Action", "Comedy"}, decodeList(t, w))

	w = env.do(t, http.MethodGet, "/api/genres?type=web-series", nil)
	assert.Equal(t, []interface{}{"Drama"}, decodeList(t, w))
}

func TestListYearsBareArray(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodGet, "/api/years?type=movie", nil)
	assert.Equal(t, []interface{}{float64(2025), float64(2010)}, decodeList(t, w))

	// Series years fake returns nil; the wire still carries an array.
	w = env.do(t, http.MethodGet, "/api/years?type=web-series", nil)
	assert.Equal(t, []interface{}{}, decodeList(t, w))
}

func TestMutationsRequireAuth(t *testing.T) {
	env := newTestEnv()
	tests := []struct {
		method, target string
		body           interface{}
	}{
		{http.MethodPost, "/api/upload", map[string]string{"title": "X"}},
		{http.MethodDelete, "/api/movies/1", nil},
		{http.MethodPost, "/api/settings", map[string]string{"key": "site_name", "value": "Y"}},
	}
	for _, tt := range tests {
		w := env.do(t, tt.method, tt.target, tt.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tt.method, tt.target)
	}
	assert.Empty(t, env.uploader.requests, "no mutation without a session")
	assert.Empty(t, env.movies.deleted)
	assert.Equal(t, "ShadowPlex", env.settings.values["site_name"])
}

func TestLoginLogoutFlow(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/login", map[string]string{"email": "admin@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", map[string]string{"email": "admin@example.com", "password": "hunter2"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth-status", nil)
	assert.Equal(t, true, decode(t, w)["loggedIn"])

	w = env.do(t, http.MethodGet, "/api/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth-status", nil)
	assert.Equal(t, false, decode(t, w)["loggedIn"])
}

func TestUploadResponseShape(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true

	w := env.do(t, http.MethodPost, "/api/upload", map[string]interface{}{
		"title": "Dune",
		"type":  "movie",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(42), body["id"])
	assert.Equal(t, "Dune", body["data"].(map[string]interface{})["title"])
}

func TestUploadDoesNotBroadcastDirectly(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true

	client := &WSClient{send: make(chan []byte, 4)}
	env.server.wsHub.addClient(client)

	w := env.do(t, http.MethodPost, "/api/upload", map[string]string{"title": "Dune"})
	require.Equal(t, http.StatusOK, w.Code)

	// The upload event is owned by the notify task; the handler itself
	// must not emit a second copy.
	select {
	case msg := <-client.send:
		t.Fatalf("unexpected broadcast from upload handler: %s", msg)
	default:
	}
}

func TestDeleteBroadcasts(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true

	client := &WSClient{send: make(chan []byte, 4)}
	env.server.wsHub.addClient(client)

	w := env.do(t, http.MethodDelete, "/api/movies/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case raw := <-client.send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "delete", msg.Event)
	default:
		t.Fatal("expected a delete broadcast")
	}
}

func TestUploadEmptyTitle(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true

	w := env.do(t, http.MethodPost, "/api/upload", map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.uploader.requests)
}

func TestDeleteMovie(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true

	w := env.do(t, http.MethodDelete, "/api/movies/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{1}, env.movies.deleted)

	w = env.do(t, http.MethodDelete, "/api/movies/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/books/1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true

	w := env.do(t, http.MethodPost, "/api/settings", map[string]string{"key": "site_name", "value": "CineShadow"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/settings", nil)
	body := decode(t, w)
	site := body["site_name"].(map[string]interface{})
	assert.Equal(t, "CineShadow", site["value"])
}

func TestAddEpisode(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true

	w := env.do(t, http.MethodPost, "/api/web-series/5/episodes", map[string]interface{}{
		"title": "Pilot", "season_number": 1, "episode_number": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.episodes.episodes, 2)

	w = env.do(t, http.MethodPost, "/api/web-series/999/episodes", map[string]string{"title": "Pilot"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/web-series/5/episodes", map[string]string{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsKeyRequired(t *testing.T) {
	env := newTestEnv()
	env.gate.loggedIn = true
	w := env.do(t, http.MethodPost, "/api/settings", map[string]string{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv()
	r := httptest.NewRequest(http.MethodOptions, "/api/movies", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
