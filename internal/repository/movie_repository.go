package repository

import (
	"database/sql"
	"fmt"

	"github.com/shadowplex/shadowplex/internal/models"
)

const movieColumns = `id, title, original_title, poster_url, backdrop_url,
	description, overview, release_date, year, runtime, genres, rating,
	vote_count, popularity, tagline, imdb_id, tmdb_id, download_links,
	trailer_url, type, status, upload_date, updated_date`

type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

type movieScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row movieScanner) (*models.Movie, error) {
	var m models.Movie
	var genres, links string
	var year, runtime, voteCount sql.NullInt64
	var rating, popularity sql.NullFloat64
	var tmdbID sql.NullInt64

	err := row.Scan(&m.ID, &m.Title, &m.OriginalTitle, &m.PosterURL, &m.BackdropURL,
		&m.Description, &m.Overview, &m.ReleaseDate, &year, &runtime, &genres, &rating,
		&voteCount, &popularity, &m.Tagline, &m.IMDBID, &tmdbID, &links,
		&m.TrailerURL, &m.Type, &m.Status, &m.UploadDate, &m.UpdatedDate)
	if err != nil {
		return nil, err
	}

	if year.Valid {
		y := int(year.Int64)
		m.Year = &y
	}
	if runtime.Valid {
		r := int(runtime.Int64)
		m.Runtime = &r
	}
	if voteCount.Valid {
		v := int(voteCount.Int64)
		m.VoteCount = &v
	}
	if rating.Valid {
		m.Rating = &rating.Float64
	}
	if popularity.Valid {
		m.Popularity = &popularity.Float64
	}
	if tmdbID.Valid {
		m.TMDBID = &tmdbID.Int64
	}
	m.Genres = models.SplitGenres(genres)
	m.DownloadLinks = models.DecodeDownloadLinks(links)
	return &m, nil
}

// List returns one page of movies plus pagination info. Rows and total
// are computed from the same filter predicate; the count runs as a
// second, logically independent query with no snapshot isolation.
func (r *MovieRepository) List(f *CatalogFilter) ([]*models.Movie, models.Pagination, error) {
	f.Normalize()
	whereSQL, args := buildFilterClauses(f, true, 1)

	query := `SELECT ` + movieColumns + ` FROM movies WHERE type = 'movie'` + whereSQL +
		f.OrderClause() +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	rows, err := r.db.Query(query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	defer rows.Close()

	movies := []*models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM movies WHERE type = 'movie'` + whereSQL
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, err
	}

	return movies, NewPagination(f, total), nil
}

func (r *MovieRepository) GetByID(id int64) (*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1 AND type = 'movie'`
	m, err := scanMovie(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// Insert persists a new movie and fills in its generated id and
// timestamps. A single statement; no partial write is possible.
func (r *MovieRepository) Insert(m *models.Movie) error {
	links, err := models.EncodeDownloadLinks(m.DownloadLinks)
	if err != nil {
		return fmt.Errorf("encode download links: %w", err)
	}

	query := `INSERT INTO movies (title, original_title, poster_url, backdrop_url,
		description, overview, release_date, year, runtime, genres, rating,
		vote_count, popularity, tagline, imdb_id, tmdb_id, download_links,
		trailer_url, type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, upload_date, updated_date`

	return r.db.QueryRow(query,
		m.Title, m.OriginalTitle, m.PosterURL, m.BackdropURL,
		m.Description, m.Overview, m.ReleaseDate, m.Year, m.Runtime,
		models.JoinGenres(m.Genres), m.Rating, m.VoteCount, m.Popularity,
		m.Tagline, m.IMDBID, m.TMDBID, links, m.TrailerURL, m.Type, m.Status,
	).Scan(&m.ID, &m.UploadDate, &m.UpdatedDate)
}

// ApplyEnrichment updates the metadata columns of an existing movie from
// a provider match. Used by the scheduled refresh.
func (r *MovieRepository) ApplyEnrichment(id int64, e *models.Enrichment) error {
	query := `UPDATE movies SET original_title = $2, poster_url = CASE WHEN $3 <> '' THEN $3 ELSE poster_url END,
		backdrop_url = CASE WHEN $4 <> '' THEN $4 ELSE backdrop_url END,
		description = $5, overview = $5, release_date = $6, year = $7, runtime = $8,
		genres = $9, rating = $10, vote_count = $11, popularity = $12, tagline = $13,
		imdb_id = $14, tmdb_id = $15, updated_date = NOW()
		WHERE id = $1`
	res, err := r.db.Exec(query, id, e.OriginalTitle, e.PosterURL, e.BackdropURL,
		e.Overview, e.ReleaseDate, e.Year, e.Runtime, models.JoinGenres(e.Genres),
		e.Rating, e.VoteCount, e.Popularity, e.Tagline, e.IMDBID, e.TMDBID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MovieRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Genres returns the deduplicated, sorted genre set across all movies.
func (r *MovieRepository) Genres() ([]string, error) {
	return distinctGenres(r.db, "movies")
}

// Years returns distinct release years, newest first.
func (r *MovieRepository) Years() ([]int, error) {
	return distinctYears(r.db, "movies")
}

// MissingMetadata lists ids of movies with no provider id, oldest first.
// These are candidates for the scheduled metadata refresh.
func (r *MovieRepository) MissingMetadata(limit int) ([]*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies
		WHERE tmdb_id IS NULL ORDER BY upload_date ASC LIMIT $1`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []*models.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// distinctGenres folds every non-empty stored genres value of a table
// into a sorted set. The table name comes from a fixed caller-side pair,
// never from user input.
func distinctGenres(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT genres FROM ` + table + ` WHERE genres <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stored []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		stored = append(stored, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models.GenreSet(stored), nil
}

func distinctYears(db *sql.DB, table string) ([]int, error) {
	rows, err := db.Query(`SELECT DISTINCT year FROM ` + table + ` WHERE year IS NOT NULL ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}
