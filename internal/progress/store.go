package progress

import (
	"sync"
	"time"
)

// FailureRecord is one failed category retained for reporting.
type FailureRecord struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Locator string `json:"locator,omitempty"`
}

// RunState is a point-in-time view of the most recent harvest run.
type RunState struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Failures  []FailureRecord `json:"failures,omitempty"`
	Done      bool            `json:"done"`
	Error     string          `json:"error,omitempty"`
}

// RunStore keeps the latest run's state in memory for the status API. The
// zero value is not usable; construct with NewRunStore.
type RunStore struct {
	mu      sync.RWMutex
	state   RunState
	started bool
}

// NewRunStore returns an empty store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// Apply folds one event into the stored state.
func (s *RunStore) Apply(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := evt.RunUUID().String()
	if !s.started || s.state.RunID != id {
		s.state = RunState{RunID: id, StartedAt: evt.TS}
		s.started = true
	}
	s.state.UpdatedAt = evt.TS

	switch evt.Stage {
	case StageIndexDone:
		s.state.Total = evt.Total
	case StageFetchDone:
		s.state.Completed = evt.Completed
		if evt.Total > 0 {
			s.state.Total = evt.Total
		}
		if evt.Kind != "" {
			s.state.Failures = append(s.state.Failures, FailureRecord{
				Name:    evt.Name,
				Kind:    evt.Kind,
				Locator: evt.Locator,
			})
		}
	case StageRunDone:
		s.state.Done = true
		if evt.Completed > 0 {
			s.state.Completed = evt.Completed
		}
	case StageRunError:
		s.state.Done = true
		s.state.Error = evt.Note
	}
}

// Latest returns a copy of the most recent run state and whether one exists.
func (s *RunStore) Latest() (RunState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return RunState{}, false
	}
	state := s.state
	state.Failures = append([]FailureRecord(nil), s.state.Failures...)
	return state, true
}
