package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/progress"
)

func TestRunHandlerLatestRun(t *testing.T) {
	t.Parallel()

	runs := progress.NewRunStore()
	runID := progress.UUIDToBytes(uuid.MustParse("00000000-0000-0000-0000-0000000000bb"))
	runs.Apply(progress.Event{RunID: runID, TS: time.Unix(20, 0), Stage: progress.StageRunStart})
	runs.Apply(progress.Event{
		RunID:       runID,
		TS:          time.Unix(21, 0),
		Stage:       progress.StageFetchDone,
		Locator:     "https://example.com/tag54.html",
		StatusClass: progress.Status5xx,
		Kind:        "transport",
		Name:        "Side",
		Completed:   1,
		Total:       2,
	})
	handler := NewRunHandler(runs, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/run", nil)
	rec := httptest.NewRecorder()
	handler.LatestRun(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Run progress.RunState `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Run.Failures, 1)
	require.Equal(t, "Side", payload.Run.Failures[0].Name)
	require.Equal(t, "transport", payload.Run.Failures[0].Kind)
}

func TestRunHandlerNoRuns(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(progress.NewRunStore(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/run", nil)
	rec := httptest.NewRecorder()
	handler.LatestRun(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunHandlerNilStore(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/run", nil)
	rec := httptest.NewRecorder()
	handler.LatestRun(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
