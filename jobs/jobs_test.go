package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/novaq/novaq-dashboard/internal/jobs"
	"github.com/novaq/novaq-dashboard/internal/reference"
)

type stubWarmer struct {
	data  reference.Data
	err   error
	calls int
}

func (s *stubWarmer) Warm(context.Context) (reference.Data, error) {
	s.calls++
	return s.data, s.err
}

type stubCleaner struct {
	deleted int64
	err     error
}

func (s stubCleaner) CleanupSessions(context.Context) (int64, error) { return s.deleted, s.err }

func TestReferenceWarmupJob(t *testing.T) {
	warmer := &stubWarmer{data: reference.Data{Regions: []reference.Region{{Oid: "r1"}}, BusinessClasses: []reference.BusinessClass{{Oid: "b1"}}}}
	job := NewReferenceWarmupJob(warmer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewReferenceWarmupTask("startup")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, warmer.calls)

	var payload ReferenceWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "startup", payload.Reason)
}

func TestReferenceWarmupJobFailures(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	boom := errors.New("regions down")
	job := NewReferenceWarmupJob(&stubWarmer{err: boom}, nil, metrics)
	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskReferenceWarmup, nil)), boom)

	bad := asynq.NewTask(TaskReferenceWarmup, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	var missing *ReferenceWarmupJob
	assert.Error(t, missing.Handle(context.Background(), bad))
}

func TestLoginSessionCleanupJob(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewLoginSessionCleanupJob(stubCleaner{deleted: 7}, nil, metrics)
	assert.NoError(t, job.Handle(context.Background(), NewLoginSessionCleanupTask()))

	boom := errors.New("pg down")
	job = NewLoginSessionCleanupJob(stubCleaner{err: boom}, nil, metrics)
	assert.ErrorIs(t, job.Handle(context.Background(), NewLoginSessionCleanupTask()), boom)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestHealthEndpoint(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Route("/jobs", h.MountRoutes)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		return rec
	}

	rec := serve(NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0}`, rec.Body.String())

	rec = serve(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}}, nil))
	assert.JSONEq(t, `{"queue":"default","pending":4,"active":0,"scheduled":0,"retry":1}`, rec.Body.String())

	rec = serve(NewHandler(stubInspector{err: errors.New("redis down")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewServeMuxSkipsIncompleteHandlers(t *testing.T) {
	called := false
	mux := NewServeMux([]TaskHandler{
		{Type: TaskLoginSessionCleanup, Handler: func(context.Context, *asynq.Task) error { called = true; return nil }},
		{Type: "", Handler: func(context.Context, *asynq.Task) error { return nil }},
		{Type: TaskReferenceWarmup},
	})
	require.NoError(t, mux.ProcessTask(context.Background(), NewLoginSessionCleanupTask()))
	assert.True(t, called)
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask(TaskReferenceWarmup, nil)))
}

func TestNewTaskByName(t *testing.T) {
	task, opts, err := NewTask(TaskReferenceWarmup, "manual")
	require.NoError(t, err)
	assert.Equal(t, TaskReferenceWarmup, task.Type())
	assert.JSONEq(t, `{"reason":"manual"}`, string(task.Payload()))
	assert.Len(t, opts, 3)

	task, opts, err = NewTask(TaskLoginSessionCleanup, "ignored")
	require.NoError(t, err)
	assert.Empty(t, task.Payload())
	assert.Len(t, opts, 2)

	_, _, err = NewTask("inventory:reval", "")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestInspectQueueWithoutInspector(t *testing.T) {
	stats, err := InspectQueue(nil)
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Queue: QueueDefault}, stats)
}
