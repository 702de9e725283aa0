package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowplex/shadowplex/internal/models"
	"github.com/shadowplex/shadowplex/internal/notifications"
)

type fakeSettings map[string]string

func (f fakeSettings) Get(key string) (string, error) { return f[key], nil }

type fakeMailer struct {
	subjects []string
	messages []string
	err      error
}

func (f *fakeMailer) Send(subject, message string) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, message)
	return nil
}

type fakeBroadcaster struct {
	events []string
}

func (f *fakeBroadcaster) Broadcast(event string, _ interface{}) {
	f.events = append(f.events, event)
}

func notifyTask(t *testing.T, p *NotifyUploadPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(TaskNotifyUpload, data)
}

func TestNotifyUploadSendsMail(t *testing.T) {
	mailer := &fakeMailer{}
	hub := &fakeBroadcaster{}
	h := NewNotifyUploadHandler(
		fakeSettings{"email_notifications": "true", "site_name": "MySite"},
		mailer, notifications.UploadSubject, notifications.UploadMessage, hub)

	err := h.ProcessTask(context.Background(),
		notifyTask(t, &NotifyUploadPayload{Kind: "movie", ID: 7, Title: "Inception"}))
	require.NoError(t, err)

	require.Len(t, mailer.subjects, 1)
	assert.Equal(t, "New content added to MySite", mailer.subjects[0])
	assert.Contains(t, mailer.messages[0], "Inception (id 7)")
	assert.Equal(t, []string{"upload"}, hub.events)
}

func TestNotifyUploadRespectsToggle(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewNotifyUploadHandler(
		fakeSettings{"email_notifications": "false", "site_name": "MySite"},
		mailer, notifications.UploadSubject, notifications.UploadMessage, nil)

	err := h.ProcessTask(context.Background(),
		notifyTask(t, &NotifyUploadPayload{Kind: "movie", ID: 1, Title: "X"}))
	require.NoError(t, err)
	assert.Empty(t, mailer.subjects)
}

func TestNotifyUploadMailFailureReturnsError(t *testing.T) {
	h := NewNotifyUploadHandler(
		fakeSettings{"email_notifications": "true"},
		&fakeMailer{err: errors.New("smtp timeout")},
		notifications.UploadSubject, notifications.UploadMessage, nil)

	// Errors propagate so asynq applies its retry policy.
	err := h.ProcessTask(context.Background(),
		notifyTask(t, &NotifyUploadPayload{Kind: "movie", ID: 1, Title: "X"}))
	require.Error(t, err)
}

type fakeMovieRefreshStore struct {
	movie   *models.Movie
	applied []*models.Enrichment
}

func (f *fakeMovieRefreshStore) GetByID(int64) (*models.Movie, error) {
	if f.movie == nil {
		return nil, errors.New("not found")
	}
	return f.movie, nil
}

func (f *fakeMovieRefreshStore) ApplyEnrichment(_ int64, e *models.Enrichment) error {
	f.applied = append(f.applied, e)
	return nil
}

type fakeSeriesRefreshStore struct{}

func (fakeSeriesRefreshStore) GetByID(int64) (*models.Series, error) {
	return nil, errors.New("not found")
}
func (fakeSeriesRefreshStore) ApplyEnrichment(int64, *models.Enrichment) error { return nil }

type stubEnricher struct {
	result *models.Enrichment
	err    error
	titles []string
}

func (s *stubEnricher) Enrich(_ context.Context, title string, _ models.Kind) (*models.Enrichment, error) {
	s.titles = append(s.titles, title)
	return s.result, s.err
}

func refreshTask(t *testing.T, p *MetadataRefreshPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(TaskMetadataRefresh, data)
}

func TestMetadataRefreshAppliesMatch(t *testing.T) {
	store := &fakeMovieRefreshStore{movie: &models.Movie{ID: 7, Title: "Inception"}}
	enricher := &stubEnricher{result: &models.Enrichment{TMDBID: 27205}}
	h := NewMetadataRefreshHandler(store, fakeSeriesRefreshStore{}, enricher)

	err := h.ProcessTask(context.Background(),
		refreshTask(t, &MetadataRefreshPayload{Kind: "movie", ID: 7}))
	require.NoError(t, err)

	assert.Equal(t, []string{"Inception"}, enricher.titles)
	require.Len(t, store.applied, 1)
	assert.Equal(t, int64(27205), store.applied[0].TMDBID)
}

func TestMetadataRefreshNoMatchIsTerminal(t *testing.T) {
	store := &fakeMovieRefreshStore{movie: &models.Movie{ID: 7, Title: "Obscure"}}
	h := NewMetadataRefreshHandler(store, fakeSeriesRefreshStore{}, &stubEnricher{result: nil})

	// No match must not error, or asynq would retry a hopeless task.
	err := h.ProcessTask(context.Background(),
		refreshTask(t, &MetadataRefreshPayload{Kind: "movie", ID: 7}))
	require.NoError(t, err)
	assert.Empty(t, store.applied)
}
