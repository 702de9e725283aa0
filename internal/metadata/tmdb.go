package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/shadowplex/shadowplex/internal/models"
)

// Client talks to the TMDB API using the search-then-detail pattern.
// Every call is bounded by the HTTP client timeout and throttled so a
// refresh batch stays inside TMDB's request budget.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	client       *http.Client
	limiter      *rate.Limiter
}

func NewClient(apiKey, baseURL, imageBaseURL string) *Client {
	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(4), 8),
	}
}

// Enabled reports whether a usable API key is configured. Placeholder
// keys count as unconfigured.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.apiKey != "YOUR_TMDB_API_KEY"
}

type tmdbSearchResult struct {
	Results []struct {
		ID int64 `json:"id"`
	} `json:"results"`
}

// tmdbDetail covers both the movie and tv detail payloads; absent fields
// decode to zero values and the mapping fallbacks sort them out.
type tmdbDetail struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	LastAirDate      string  `json:"last_air_date"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Tagline          string  `json:"tagline"`
	IMDBId           string  `json:"imdb_id"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Genres           []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// Enrich looks up a title and returns the provider's partial record.
// A nil result with nil error means the provider is unconfigured or had
// no match — both are normal, not failures. The first search result is
// taken unconditionally; there is no disambiguation by year.
func (c *Client) Enrich(ctx context.Context, title string, kind models.Kind) (*models.Enrichment, error) {
	if !c.Enabled() {
		return nil, nil
	}

	endpoint := "movie"
	if kind == models.KindSeries {
		endpoint = "tv"
	}

	var search tmdbSearchResult
	searchURL := fmt.Sprintf("%s/search/%s?api_key=%s&query=%s",
		c.baseURL, endpoint, c.apiKey, url.QueryEscape(title))
	if err := c.getJSON(ctx, searchURL, &search); err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}
	if len(search.Results) == 0 {
		return nil, nil
	}

	var detail tmdbDetail
	detailURL := fmt.Sprintf("%s/%s/%d?api_key=%s",
		c.baseURL, endpoint, search.Results[0].ID, c.apiKey)
	if err := c.getJSON(ctx, detailURL, &detail); err != nil {
		return nil, fmt.Errorf("tmdb detail: %w", err)
	}

	return c.mapDetail(&detail, title), nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB request returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// mapDetail applies the field fallback chains onto the internal shape.
func (c *Client) mapDetail(d *tmdbDetail, title string) *models.Enrichment {
	e := &models.Enrichment{
		Overview: d.Overview,
		Tagline:  d.Tagline,
		IMDBID:   d.IMDBId,
		TMDBID:   d.ID,
	}

	// localized title → original name → caller-supplied title
	e.OriginalTitle = d.Title
	if e.OriginalTitle == "" {
		e.OriginalTitle = d.Name
	}
	if e.OriginalTitle == "" {
		e.OriginalTitle = title
	}

	// release date → first-air date; year derived from whichever resolved
	e.ReleaseDate = d.ReleaseDate
	if e.ReleaseDate == "" {
		e.ReleaseDate = d.FirstAirDate
	}
	if len(e.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(e.ReleaseDate[:4]); err == nil {
			e.Year = &y
		}
	}
	e.LastAirDate = d.LastAirDate

	// direct runtime → first element of the episode-runtime list
	if d.Runtime > 0 {
		r := d.Runtime
		e.Runtime = &r
	} else if len(d.EpisodeRunTime) > 0 {
		r := d.EpisodeRunTime[0]
		e.Runtime = &r
	}

	for _, g := range d.Genres {
		e.Genres = append(e.Genres, g.Name)
	}

	if d.VoteAverage > 0 {
		v := d.VoteAverage
		e.Rating = &v
	}
	if d.VoteCount > 0 {
		v := d.VoteCount
		e.VoteCount = &v
	}
	if d.Popularity > 0 {
		p := d.Popularity
		e.Popularity = &p
	}
	if d.NumberOfSeasons > 0 {
		n := d.NumberOfSeasons
		e.NumberOfSeasons = &n
	}
	if d.NumberOfEpisodes > 0 {
		n := d.NumberOfEpisodes
		e.NumberOfEpisodes = &n
	}

	if d.PosterPath != "" {
		e.PosterURL = c.imageBaseURL + d.PosterPath
	}
	if d.BackdropPath != "" {
		e.BackdropURL = c.imageBaseURL + d.BackdropPath
	}

	return e
}
