package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fixwire/fixharvest/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	batch := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
		{RunID: runID, TS: time.Now().Add(time.Second), Stage: progress.StageIndexDone, Total: 4},
		{
			RunID:       runID,
			TS:          time.Now().Add(10 * time.Second),
			Stage:       progress.StageFetchDone,
			Locator:     "https://example.com/tag52.html",
			Bytes:       1024,
			StatusClass: progress.Status2xx,
			Dur:         200 * time.Millisecond,
			Completed:   1,
			Total:       4,
		},
		{RunID: runID, TS: time.Now().Add(15 * time.Second), Stage: progress.StageRunDone, Dur: 15 * time.Second},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))

	require.InDelta(
		t,
		1.0,
		testutil.ToFloat64(sink.fetchRequests.WithLabelValues(string(progress.Status2xx), "none")),
		1e-9,
	)
	require.InDelta(t, 1024.0, testutil.ToFloat64(sink.fetchBytes), 1e-9)
	require.Equal(t, 1, testutil.CollectAndCount(sink.fetchDuration, "fixharvest_fetch_duration_seconds"))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.batchCompleted))
	require.Equal(t, 4.0, testutil.ToFloat64(sink.batchTotal))
}

// TestPrometheusSinkTracksFailureKinds verifies failed fetches are partitioned by kind.
func TestPrometheusSinkTracksFailureKinds(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	batch := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
		{
			RunID:       runID,
			TS:          time.Now(),
			Stage:       progress.StageFetchDone,
			Locator:     "https://example.com/tag54.html",
			StatusClass: progress.Status5xx,
			Kind:        "transport",
			Completed:   1,
			Total:       2,
		},
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunError, Dur: time.Second, Note: "index fetch failed"},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.fetchRequests.WithLabelValues(string(progress.Status5xx), "transport")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
}
