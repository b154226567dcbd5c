package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/handlers"
	"github.com/ammerola/stocksync/internal/workers"
	"github.com/ammerola/stocksync/test/helpers"
	"github.com/ammerola/stocksync/test/mocks"
)

type fakeInspector struct {
	err       error
	scheduled bool
}

func (f fakeInspector) Queues() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"sync"}, nil
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Size: 3, Pending: 2, Active: 1}, nil
}

func (f fakeInspector) Servers() ([]*asynq.ServerInfo, error) {
	return []*asynq.ServerInfo{{Queues: map[string]int{"sync": 5}}}, nil
}

func (f fakeInspector) SchedulerEntries() ([]*asynq.SchedulerEntry, error) {
	if !f.scheduled {
		return nil, nil
	}
	return []*asynq.SchedulerEntry{{
		Spec: "@every 1h",
		Task: asynq.NewTask(workers.TypeSyncAll, nil),
		Next: time.Now().Add(time.Hour),
	}}, nil
}

func lastRun(age time.Duration) *ports.RunListResult {
	return &ports.RunListResult{Runs: []domain.SyncLogEntry{{
		Shop:      "demo.myshopify.com",
		Status:    domain.SyncStatusSuccess,
		StartedAt: time.Now().Add(-age),
	}}, TotalCount: 1, Limit: 1}
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		inspector      handlers.QueueInspector
		runs           *ports.RunListResult
		runsErr        error
		expectedStatus int
		expectedState  string
		check          func(t *testing.T, body handlers.HealthStatus)
	}{
		{
			name:           "all_healthy",
			inspector:      fakeInspector{scheduled: true},
			runs:           lastRun(10 * time.Minute),
			expectedStatus: http.StatusOK,
			expectedState:  "healthy",
			check: func(t *testing.T, body handlers.HealthStatus) {
				assert.Equal(t, "ok", body.Sync.Status)
				assert.Equal(t, "static", body.Sync.WarehouseMode)
				require.NotNil(t, body.Sync.Scheduled)
				assert.True(t, *body.Sync.Scheduled)
				assert.NotNil(t, body.Sync.NextRun)
				require.NotNil(t, body.Sync.LastRun)
				assert.Equal(t, "demo.myshopify.com", body.Sync.LastRun.Shop)
				assert.EqualValues(t, 1, body.Services["sync_queue"].Details["workers"])
			},
		},
		{
			name:           "database_down",
			dbErr:          errors.New("connection refused"),
			inspector:      fakeInspector{},
			runs:           lastRun(time.Minute),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
		},
		{
			name:           "queue_unreachable",
			inspector:      fakeInspector{err: errors.New("redis: nil")},
			runs:           lastRun(time.Minute),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
		},
		{
			name:           "last_run_stale",
			inspector:      fakeInspector{},
			runs:           lastRun(5 * time.Hour),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
			check: func(t *testing.T, body handlers.HealthStatus) {
				assert.Equal(t, "stale", body.Sync.Status)
				require.NotNil(t, body.Sync.Scheduled)
				assert.False(t, *body.Sync.Scheduled)
			},
		},
		{
			name:           "no_runs_yet",
			runs:           &ports.RunListResult{Limit: 1},
			expectedStatus: http.StatusOK,
			expectedState:  "healthy",
			check: func(t *testing.T, body handlers.HealthStatus) {
				assert.Equal(t, "ok", body.Sync.Status)
				assert.Equal(t, "no runs recorded", body.Sync.Message)
				assert.Nil(t, body.Sync.LastRun)
				assert.Nil(t, body.Sync.Scheduled)
			},
		},
		{
			name:           "run_log_unavailable",
			runsErr:        errors.New("timeout"),
			expectedStatus: http.StatusOK,
			expectedState:  "healthy",
			check: func(t *testing.T, body handlers.HealthStatus) {
				assert.Equal(t, "unknown", body.Sync.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			db := mocks.NewMockDatabase(ctrl)
			db.EXPECT().Ping(gomock.Any()).Return(tt.dbErr)
			runs := mocks.NewMockSyncLogRepository(ctrl)
			runs.EXPECT().List(gomock.Any(), ports.RunListParams{Limit: 1}).Return(tt.runs, tt.runsErr)

			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { rdb.Close() })

			h := handlers.NewHealthHandler(db, rdb, tt.inspector, runs, helpers.LoadTestConfig(), helpers.TestLogger())

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedState, body.Status)
			assert.Contains(t, body.Services, "database")
			assert.Contains(t, body.Services, "redis")
			_, hasQueue := body.Services["sync_queue"]
			assert.Equal(t, tt.inspector != nil, hasQueue)
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDatabase(ctrl)
	db.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := handlers.NewHealthHandler(db, rdb, fakeInspector{}, nil, helpers.LoadTestConfig(), helpers.TestLogger())

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Ready   bool              `json:"ready"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.Equal(t, "ready", body.Details["asynq"])

	mr.Close()

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Equal(t, "not ready", body.Details["redis"])
}
