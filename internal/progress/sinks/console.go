package sinks

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fixwire/fixharvest/internal/progress"
)

// ConsoleSink renders a single-line completed/total counter on a terminal
// while the detail batch runs. It is the human-facing analogue of the log and
// Prometheus sinks and carries no correctness weight.
type ConsoleSink struct {
	mu      sync.Mutex
	w       io.Writer
	active  bool
	lastLen int
}

// NewConsoleSink writes the counter to w; nil defaults to stderr.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleSink{w: w}
}

// Consume redraws the counter using the latest countable event in the batch
// and finishes the line when the run ends.
func (s *ConsoleSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageIndexDone, progress.StageFetchDone:
			if evt.Total > 0 {
				s.redraw(evt.Completed, evt.Total)
			}
		case progress.StageRunDone, progress.StageRunError:
			s.finish()
		}
	}
	return nil
}

func (s *ConsoleSink) redraw(completed, total int) {
	line := fmt.Sprintf("fetching details %d/%d", completed, total)
	pad := s.lastLen - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(s.w, "\r%s%*s", line, pad, "")
	s.lastLen = len(line)
	s.active = true
}

func (s *ConsoleSink) finish() {
	if !s.active {
		return
	}
	fmt.Fprintln(s.w)
	s.active = false
	s.lastLen = 0
}

// Close terminates any open counter line.
func (s *ConsoleSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish()
	return nil
}
