package sinks

import (
	"context"

	"github.com/fixwire/fixharvest/internal/progress"
)

// SnapshotSink folds events into an in-memory run snapshot so the status API
// can answer without touching the pipeline.
type SnapshotSink struct {
	store *progress.RunStore
}

// NewSnapshotSink constructs a SnapshotSink backed by store.
func NewSnapshotSink(store *progress.RunStore) *SnapshotSink {
	return &SnapshotSink{store: store}
}

// Consume applies each event in order. RunStore handles unknown stages.
func (s *SnapshotSink) Consume(_ context.Context, batch []progress.Event) error {
	if s == nil || s.store == nil {
		return nil
	}
	for _, evt := range batch {
		s.store.Apply(evt)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *SnapshotSink) Close(context.Context) error {
	return nil
}
