package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/shadowplex/shadowplex/internal/jobs"
	"github.com/shadowplex/shadowplex/internal/models"
)

const refreshBatchSize = 50

// MovieSource and SeriesSource list records still waiting for a
// provider match.
type MovieSource interface {
	MissingMetadata(limit int) ([]*models.Movie, error)
}

type SeriesSource interface {
	MissingMetadata(limit int) ([]*models.Series, error)
}

// RefreshEnqueuer is the queue surface the scheduler needs.
type RefreshEnqueuer interface {
	EnqueueUnique(taskType string, payload interface{}, uniqueID string) (string, error)
}

// Scheduler sweeps the catalog nightly and queues a metadata refresh
// for every record that has no provider id yet — typically records
// uploaded while the provider was unconfigured or unreachable.
type Scheduler struct {
	cron   *cron.Cron
	movies MovieSource
	series SeriesSource
	queue  RefreshEnqueuer
}

func New(movies MovieSource, series SeriesSource, queue RefreshEnqueuer) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		movies: movies,
		series: series,
		queue:  queue,
	}
}

// Start registers the nightly sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 3 * * *", s.Sweep); err != nil {
		return fmt.Errorf("schedule refresh sweep: %w", err)
	}
	s.cron.Start()
	log.Println("scheduler: nightly metadata refresh registered")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Sweep enqueues one refresh task per unmatched record. Task IDs are
// deterministic so overlapping sweeps cannot stack duplicates.
func (s *Scheduler) Sweep() {
	movies, err := s.movies.MissingMetadata(refreshBatchSize)
	if err != nil {
		log.Printf("scheduler: list unmatched movies: %v", err)
	}
	for _, m := range movies {
		s.enqueue(models.KindMovie, m.ID)
	}

	series, err := s.series.MissingMetadata(refreshBatchSize)
	if err != nil {
		log.Printf("scheduler: list unmatched series: %v", err)
	}
	for _, sr := range series {
		s.enqueue(models.KindSeries, sr.ID)
	}

	if n := len(movies) + len(series); n > 0 {
		log.Printf("scheduler: queued metadata refresh for %d records", n)
	}
}

func (s *Scheduler) enqueue(kind models.Kind, id int64) {
	uniqueID := fmt.Sprintf("refresh:%s:%d", kind, id)
	payload := &jobs.MetadataRefreshPayload{Kind: string(kind), ID: id}
	if _, err := s.queue.EnqueueUnique(jobs.TaskMetadataRefresh, payload, uniqueID); err != nil {
		log.Printf("scheduler: enqueue refresh for %s %d: %v", kind, id, err)
	}
}
