package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	TaskNotifyUpload    = "notify:upload"
	TaskMetadataRefresh = "metadata:refresh"
)

// Queue wraps the asynq client and worker pair behind one handle. The
// catalog's background work is light, so a small worker pool suffices.
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewQueue(redisAddr string) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	return &Queue{
		client: asynq.NewClient(redisOpt),
		server: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 2,
		}),
		mux: asynq.NewServeMux(),
	}
}

func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

func (q *Queue) Enqueue(taskType string, payload interface{}, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	info, err := q.client.Enqueue(asynq.NewTask(taskType, data, opts...))
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return info.ID, nil
}

// EnqueueUnique enqueues with a deterministic task ID so repeated
// refresh sweeps do not stack duplicate jobs for the same record. A
// pending or active duplicate makes the enqueue a silent skip.
func (q *Queue) EnqueueUnique(taskType string, payload interface{}, uniqueID string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	info, err := q.client.Enqueue(asynq.NewTask(taskType, data, asynq.TaskID(uniqueID)))
	if err == nil {
		return info.ID, nil
	}
	if isTaskConflict(err) {
		log.Printf("jobs: task %s (%s) already queued, skipping", taskType, uniqueID)
		return uniqueID, nil
	}
	return "", fmt.Errorf("enqueue: %w", err)
}

// isTaskConflict matches duplicate-task errors, with a string fallback
// for wrapped errors that lose the sentinel.
func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

func (q *Queue) Start() error {
	log.Println("jobs: worker starting")
	return q.server.Start(q.mux)
}

func (q *Queue) Stop() {
	q.server.Shutdown()
	q.client.Close()
}
