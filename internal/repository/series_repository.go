package repository

import (
	"database/sql"
	"fmt"

	"github.com/shadowplex/shadowplex/internal/models"
)

const seriesColumns = `id, title, original_title, poster_url, backdrop_url,
	description, overview, first_air_date, year, last_air_date,
	number_of_seasons, number_of_episodes, genres, rating, vote_count,
	popularity, tagline, imdb_id, tmdb_id, download_links, status, upload_date,
	updated_date`

type SeriesRepository struct {
	db *sql.DB
}

func NewSeriesRepository(db *sql.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

func scanSeries(row movieScanner) (*models.Series, error) {
	var s models.Series
	var genres, links string
	var year, seasons, episodes, voteCount sql.NullInt64
	var rating, popularity sql.NullFloat64
	var tmdbID sql.NullInt64

	err := row.Scan(&s.ID, &s.Title, &s.OriginalTitle, &s.PosterURL, &s.BackdropURL,
		&s.Description, &s.Overview, &s.FirstAirDate, &year, &s.LastAirDate,
		&seasons, &episodes, &genres, &rating, &voteCount, &popularity,
		&s.Tagline, &s.IMDBID, &tmdbID, &links, &s.Status, &s.UploadDate, &s.UpdatedDate)
	if err != nil {
		return nil, err
	}

	if year.Valid {
		y := int(year.Int64)
		s.Year = &y
	}
	if seasons.Valid {
		n := int(seasons.Int64)
		s.NumberOfSeasons = &n
	}
	if episodes.Valid {
		n := int(episodes.Int64)
		s.NumberOfEpisodes = &n
	}
	if voteCount.Valid {
		v := int(voteCount.Int64)
		s.VoteCount = &v
	}
	if rating.Valid {
		s.Rating = &rating.Float64
	}
	if popularity.Valid {
		s.Popularity = &popularity.Float64
	}
	s.Genres = models.SplitGenres(genres)
	s.DownloadLinks = models.DecodeDownloadLinks(links)
	return &s, nil
}

// List returns one page of series plus pagination info. The year filter
// does not apply to series; see CatalogFilter.
func (r *SeriesRepository) List(f *CatalogFilter) ([]*models.Series, models.Pagination, error) {
	f.Normalize()
	whereSQL, args := buildFilterClauses(f, false, 1)

	query := `SELECT ` + seriesColumns + ` FROM web_series WHERE 1=1` + whereSQL +
		f.OrderClause() +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	rows, err := r.db.Query(query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	defer rows.Close()

	series := []*models.Series{}
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		series = append(series, s)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM web_series WHERE 1=1` + whereSQL
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, err
	}

	return series, NewPagination(f, total), nil
}

func (r *SeriesRepository) GetByID(id int64) (*models.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM web_series WHERE id = $1`
	s, err := scanSeries(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *SeriesRepository) Insert(s *models.Series) error {
	links, err := models.EncodeDownloadLinks(s.DownloadLinks)
	if err != nil {
		return fmt.Errorf("encode download links: %w", err)
	}

	query := `INSERT INTO web_series (title, original_title, poster_url, backdrop_url,
		description, overview, first_air_date, year, last_air_date,
		number_of_seasons, number_of_episodes, genres, rating, vote_count,
		popularity, tagline, imdb_id, tmdb_id, download_links, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, upload_date, updated_date`

	return r.db.QueryRow(query,
		s.Title, s.OriginalTitle, s.PosterURL, s.BackdropURL,
		s.Description, s.Overview, s.FirstAirDate, s.Year, s.LastAirDate,
		s.NumberOfSeasons, s.NumberOfEpisodes, models.JoinGenres(s.Genres),
		s.Rating, s.VoteCount, s.Popularity, s.Tagline, s.IMDBID, s.TMDBID, links, s.Status,
	).Scan(&s.ID, &s.UploadDate, &s.UpdatedDate)
}

// ApplyEnrichment updates the metadata columns of an existing series from
// a provider match. Used by the scheduled refresh.
func (r *SeriesRepository) ApplyEnrichment(id int64, e *models.Enrichment) error {
	query := `UPDATE web_series SET original_title = $2, poster_url = CASE WHEN $3 <> '' THEN $3 ELSE poster_url END,
		backdrop_url = CASE WHEN $4 <> '' THEN $4 ELSE backdrop_url END,
		description = $5, overview = $5, first_air_date = $6, year = $7,
		genres = $8, rating = $9, vote_count = $10, popularity = $11, tagline = $12,
		imdb_id = $13, tmdb_id = $14, updated_date = NOW()
		WHERE id = $1`
	res, err := r.db.Exec(query, id, e.OriginalTitle, e.PosterURL, e.BackdropURL,
		e.Overview, e.ReleaseDate, e.Year, models.JoinGenres(e.Genres),
		e.Rating, e.VoteCount, e.Popularity, e.Tagline, e.IMDBID, e.TMDBID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a series. Its episodes go with it via the foreign key
// cascade.
func (r *SeriesRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM web_series WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SeriesRepository) Genres() ([]string, error) {
	return distinctGenres(r.db, "web_series")
}

func (r *SeriesRepository) Years() ([]int, error) {
	return distinctYears(r.db, "web_series")
}

func (r *SeriesRepository) MissingMetadata(limit int) ([]*models.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM web_series
		WHERE tmdb_id IS NULL ORDER BY upload_date ASC LIMIT $1`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []*models.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	return series, rows.Err()
}
