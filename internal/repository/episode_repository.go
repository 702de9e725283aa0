package repository

import (
	"database/sql"

	"github.com/shadowplex/shadowplex/internal/models"
)

const episodeColumns = `id, series_id, season_number, episode_number, title,
	description, air_date, runtime, poster_url, download_links`

type EpisodeRepository struct {
	db *sql.DB
}

func NewEpisodeRepository(db *sql.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

func scanEpisode(row movieScanner) (*models.Episode, error) {
	var e models.Episode
	var runtime sql.NullInt64
	var links string

	err := row.Scan(&e.ID, &e.SeriesID, &e.SeasonNumber, &e.EpisodeNumber,
		&e.Title, &e.Description, &e.AirDate, &runtime, &e.PosterURL, &links)
	if err != nil {
		return nil, err
	}
	if runtime.Valid {
		r := int(runtime.Int64)
		e.Runtime = &r
	}
	e.DownloadLinks = models.DecodeDownloadLinks(links)
	return &e, nil
}

// ListBySeries returns a series' episodes ordered by (season, episode).
// A non-nil season restricts the list to that season.
func (r *EpisodeRepository) ListBySeries(seriesID int64, season *int) ([]*models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE series_id = $1`
	args := []interface{}{seriesID}
	if season != nil {
		query += ` AND season_number = $2`
		args = append(args, *season)
	}
	query += ` ORDER BY season_number, episode_number`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	episodes := []*models.Episode{}
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

func (r *EpisodeRepository) Insert(e *models.Episode) error {
	links, err := models.EncodeDownloadLinks(e.DownloadLinks)
	if err != nil {
		return err
	}
	query := `INSERT INTO episodes (series_id, season_number, episode_number,
		title, description, air_date, runtime, poster_url, download_links)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	return r.db.QueryRow(query, e.SeriesID, e.SeasonNumber, e.EpisodeNumber,
		e.Title, e.Description, e.AirDate, e.Runtime, e.PosterURL, links).Scan(&e.ID)
}
