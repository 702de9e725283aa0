package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/spf13/cast"

	"github.com/shadowplex/shadowplex/internal/models"
)

// ──────── Payloads ────────

type NotifyUploadPayload struct {
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type MetadataRefreshPayload struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// EventNotifier broadcasts admin dashboard events.
type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// ──────── Upload notifier ────────

// UploadNotifier dispatches the post-upload announcement through the
// queue. The enqueue happens on the request path, so it must be quick
// and its failure must stay advisory.
type UploadNotifier struct {
	queue *Queue
}

func NewUploadNotifier(q *Queue) *UploadNotifier {
	return &UploadNotifier{queue: q}
}

func (n *UploadNotifier) NotifyUpload(kind models.Kind, id int64, title string) error {
	_, err := n.queue.Enqueue(TaskNotifyUpload, &NotifyUploadPayload{
		Kind:  string(kind),
		ID:    id,
		Title: title,
	})
	return err
}

// ──────── Notify handler ────────

// Mailer is the outbound mail surface the notify handler needs.
type Mailer interface {
	Send(subject, message string) error
}

// SettingsReader exposes the settings toggles the handlers consult.
type SettingsReader interface {
	Get(key string) (string, error)
}

type NotifyUploadHandler struct {
	settings SettingsReader
	mailer   Mailer
	subject  func(siteName string) string
	message  func(kind, title string, id int64) string
	notifier EventNotifier
}

func NewNotifyUploadHandler(settings SettingsReader, mailer Mailer,
	subject func(string) string, message func(string, string, int64) string,
	notifier EventNotifier) *NotifyUploadHandler {
	return &NotifyUploadHandler{
		settings: settings, mailer: mailer,
		subject: subject, message: message,
		notifier: notifier,
	}
}

func (h *NotifyUploadHandler) ProcessTask(_ context.Context, t *asynq.Task) error {
	var payload NotifyUploadPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if h.notifier != nil {
		h.notifier.Broadcast("upload", map[string]interface{}{
			"kind": payload.Kind, "id": payload.ID, "title": payload.Title,
		})
	}

	enabled, err := h.settings.Get("email_notifications")
	if err != nil {
		return fmt.Errorf("read notification toggle: %w", err)
	}
	if !cast.ToBool(enabled) {
		log.Printf("jobs: email notifications disabled, skipping mail for %q", payload.Title)
		return nil
	}

	siteName, err := h.settings.Get("site_name")
	if err != nil {
		return fmt.Errorf("read site name: %w", err)
	}

	if err := h.mailer.Send(h.subject(siteName), h.message(payload.Kind, payload.Title, payload.ID)); err != nil {
		return fmt.Errorf("send mail for %q: %w", payload.Title, err)
	}
	log.Printf("jobs: upload notification sent for %s %d (%s)", payload.Kind, payload.ID, payload.Title)
	return nil
}

// ──────── Metadata refresh handler ────────

// Enricher resolves provider metadata for a title.
type Enricher interface {
	Enrich(ctx context.Context, title string, kind models.Kind) (*models.Enrichment, error)
}

// MovieRefreshStore and SeriesRefreshStore are the read/update surfaces
// the refresh handler uses per kind.
type MovieRefreshStore interface {
	GetByID(id int64) (*models.Movie, error)
	ApplyEnrichment(id int64, e *models.Enrichment) error
}

type SeriesRefreshStore interface {
	GetByID(id int64) (*models.Series, error)
	ApplyEnrichment(id int64, e *models.Enrichment) error
}

// MetadataRefreshHandler re-runs provider enrichment for a record that
// was uploaded without a provider match. Match selection is the same as
// at upload time: the first search result.
type MetadataRefreshHandler struct {
	movies   MovieRefreshStore
	series   SeriesRefreshStore
	enricher Enricher
}

func NewMetadataRefreshHandler(movies MovieRefreshStore, series SeriesRefreshStore, enricher Enricher) *MetadataRefreshHandler {
	return &MetadataRefreshHandler{movies: movies, series: series, enricher: enricher}
}

func (h *MetadataRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload MetadataRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	kind := models.ParseKind(payload.Kind)
	var title string
	if kind == models.KindMovie {
		m, err := h.movies.GetByID(payload.ID)
		if err != nil {
			return fmt.Errorf("get movie %d: %w", payload.ID, err)
		}
		title = m.Title
	} else {
		s, err := h.series.GetByID(payload.ID)
		if err != nil {
			return fmt.Errorf("get series %d: %w", payload.ID, err)
		}
		title = s.Title
	}

	e, err := h.enricher.Enrich(ctx, title, kind)
	if err != nil {
		return fmt.Errorf("enrich %q: %w", title, err)
	}
	if e == nil {
		log.Printf("jobs: no provider match for %s %d (%s)", kind, payload.ID, title)
		return nil
	}

	if kind == models.KindMovie {
		err = h.movies.ApplyEnrichment(payload.ID, e)
	} else {
		err = h.series.ApplyEnrichment(payload.ID, e)
	}
	if err != nil {
		return fmt.Errorf("apply enrichment to %s %d: %w", kind, payload.ID, err)
	}
	log.Printf("jobs: refreshed metadata for %s %d (%s)", kind, payload.ID, title)
	return nil
}
