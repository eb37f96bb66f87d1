package harvest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/progress"
)

// Default deadlines applied when Options leaves them unset.
const (
	defaultPerRequestTimeout = 15 * time.Second
	defaultTotalTimeout      = 400 * time.Second
)

// Options controls one orchestrated run.
type Options struct {
	IndexURL          string
	PerRequestTimeout time.Duration
	TotalTimeout      time.Duration
	Workers           int
}

// Orchestrator drives a full run: fetch the index, fan detail fetches out to
// a bounded worker pool, and collect per-category results.
type Orchestrator struct {
	fetcher Fetcher
	ids     IDGenerator
	clock   Clock
	emitter progress.Emitter
	logger  *zap.Logger
	opts    Options
}

// NewOrchestrator constructs an Orchestrator. A nil emitter disables progress
// events; nil clock and logger fall back to real time and a no-op logger.
func NewOrchestrator(
	fetcher Fetcher,
	ids IDGenerator,
	clock Clock,
	emitter progress.Emitter,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PerRequestTimeout <= 0 {
		opts.PerRequestTimeout = defaultPerRequestTimeout
	}
	if opts.TotalTimeout <= 0 {
		opts.TotalTimeout = defaultTotalTimeout
	}
	return &Orchestrator{
		fetcher: fetcher,
		ids:     ids,
		clock:   clock,
		emitter: emitter,
		logger:  logger,
		opts:    opts,
	}
}

// task is one unique detail page and every category name that points at it.
type task struct {
	loc   Locator
	names []string
}

// completion is one finished task in whatever order the pool produced it.
type completion struct {
	idx     int
	entries []CodeEntry
	status  int
	bytes   int64
	dur     time.Duration
	err     error
}

// Run executes one harvest. An index failure aborts the run with an error;
// detail failures are recorded in the Outcome and never stop the batch. When
// the total deadline expires, unfinished tasks become timeout failures and
// GlobalTimedOut is set.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	runID, err := o.ids.NewRawID()
	if err != nil {
		return nil, fmt.Errorf("new run id: %w", err)
	}
	base, err := url.Parse(o.opts.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}
	start := o.clock.Now()
	binID := progress.UUIDToBytes(runID)
	o.emit(progress.Event{RunID: binID, TS: start, Stage: progress.StageRunStart})

	index, err := o.loadIndex(ctx, base)
	if err != nil {
		o.emit(progress.Event{
			RunID: binID,
			TS:    o.clock.Now(),
			Stage: progress.StageRunError,
			Dur:   o.clock.Now().Sub(start),
			Note:  err.Error(),
		})
		return nil, err
	}

	tasks, meta := dedupeTasks(index)
	o.logger.Info("index extracted",
		zap.Int("entries", len(index)),
		zap.Int("unique_pages", len(tasks)))
	o.emit(progress.Event{
		RunID: binID,
		TS:    o.clock.Now(),
		Stage: progress.StageIndexDone,
		Total: len(tasks),
	})

	outcome := &Outcome{RunID: runID, Index: index}
	if len(tasks) == 0 {
		o.finish(outcome, binID, start, 0, 0)
		return outcome, nil
	}

	batchCtx, cancel := context.WithTimeout(ctx, o.opts.TotalTimeout)
	defer cancel()

	workers := o.opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan int)
	completions := make(chan completion, len(tasks))
	for i := 0; i < workers; i++ {
		go func() {
			for idx := range taskCh {
				completions <- o.runTask(batchCtx, idx, tasks[idx])
			}
		}()
	}
	go func() {
		defer close(taskCh)
		for i := range tasks {
			select {
			case taskCh <- i:
			case <-batchCtx.Done():
				return
			}
		}
	}()

	done := make([]bool, len(tasks))
	collected := 0
	for collected < len(tasks) && !outcome.GlobalTimedOut {
		select {
		case comp := <-completions:
			done[comp.idx] = true
			collected++
			o.recordCompletion(outcome, binID, tasks[comp.idx], meta, comp, collected, len(tasks))
		case <-batchCtx.Done():
			outcome.GlobalTimedOut = true
		}
	}

	if outcome.GlobalTimedOut {
	drain:
		for {
			select {
			case comp := <-completions:
				done[comp.idx] = true
				collected++
				o.recordCompletion(outcome, binID, tasks[comp.idx], meta, comp, collected, len(tasks))
			default:
				break drain
			}
		}
		for idx, t := range tasks {
			if done[idx] {
				continue
			}
			for _, name := range t.names {
				outcome.Results = append(outcome.Results, FetchResult{
					Name: name,
					Err: &Error{
						Kind:    KindTimeout,
						Name:    name,
						Locator: t.loc,
						Err:     batchCtx.Err(),
					},
				})
			}
		}
		o.logger.Warn("total deadline exceeded, abandoning remaining fetches",
			zap.Int("completed", collected),
			zap.Int("total", len(tasks)))
	}

	o.finish(outcome, binID, start, collected, len(tasks))
	return outcome, nil
}

func (o *Orchestrator) loadIndex(ctx context.Context, base *url.URL) ([]IndexEntry, error) {
	reqCtx, cancel := context.WithTimeout(ctx, o.opts.PerRequestTimeout)
	defer cancel()

	page, err := o.fetcher.Fetch(reqCtx, Locator(base.String()))
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	entries, err := ExtractIndex(page.Body, base, o.logger)
	if err != nil {
		return nil, fmt.Errorf("extract index: %w", err)
	}
	return entries, nil
}

func (o *Orchestrator) runTask(ctx context.Context, idx int, t task) completion {
	reqCtx, cancel := context.WithTimeout(ctx, o.opts.PerRequestTimeout)
	defer cancel()

	page, err := o.fetcher.Fetch(reqCtx, t.loc)
	comp := completion{
		idx:    idx,
		status: page.StatusCode,
		bytes:  int64(len(page.Body)),
		dur:    page.Duration,
	}
	if err != nil {
		comp.err = fmt.Errorf("fetch %s: %w", t.loc, err)
		return comp
	}
	entries, err := ExtractDetail(page.Body)
	if err != nil {
		comp.err = fmt.Errorf("extract %s: %w", t.loc, err)
		return comp
	}
	comp.entries = entries
	return comp
}

// recordCompletion turns one finished task into per-category results and a
// single progress event. Categories sharing a locator share its outcome.
func (o *Orchestrator) recordCompletion(
	outcome *Outcome,
	binID [16]byte,
	t task,
	meta map[string]IndexEntry,
	comp completion,
	completed, total int,
) {
	evt := progress.Event{
		RunID:       binID,
		TS:          o.clock.Now(),
		Stage:       progress.StageFetchDone,
		Locator:     t.loc.String(),
		Bytes:       comp.bytes,
		StatusClass: progress.ClassifyStatus(comp.status),
		Dur:         comp.dur,
		Completed:   completed,
		Total:       total,
	}
	if comp.err != nil {
		kind := Classify(comp.err)
		evt.Kind = string(kind)
		evt.Name = strings.Join(t.names, ",")
		for _, name := range t.names {
			outcome.Results = append(outcome.Results, FetchResult{
				Name: name,
				Err: &Error{
					Kind:    kind,
					Name:    name,
					Locator: t.loc,
					Status:  comp.status,
					Err:     comp.err,
				},
			})
		}
		o.logger.Warn("detail fetch failed",
			zap.String("locator", t.loc.String()),
			zap.String("kind", string(kind)),
			zap.Error(comp.err))
	} else {
		for _, name := range t.names {
			entry := meta[name]
			set := &CodeSet{
				Name:        name,
				TagID:       entry.TagID,
				Description: entry.Description,
				Datatype:    entry.Datatype,
				Entries:     comp.entries,
			}
			if set.Entries == nil {
				set.Entries = []CodeEntry{}
			}
			outcome.Results = append(outcome.Results, FetchResult{Name: name, Set: set})
		}
	}
	o.emit(evt)
}

func (o *Orchestrator) finish(outcome *Outcome, binID [16]byte, start time.Time, completed, total int) {
	o.emit(progress.Event{
		RunID:     binID,
		TS:        o.clock.Now(),
		Stage:     progress.StageRunDone,
		Dur:       o.clock.Now().Sub(start),
		Completed: completed,
		Total:     total,
	})
	o.logger.Info("run complete",
		zap.String("run_id", outcome.RunID.String()),
		zap.Int("completed", completed),
		zap.Int("total", total),
		zap.Bool("timed_out", outcome.GlobalTimedOut))
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(evt)
}

// dedupeTasks collapses the index to unique detail pages in first-appearance
// order. A category name appearing more than once keeps only its first row.
func dedupeTasks(index []IndexEntry) ([]task, map[string]IndexEntry) {
	byLoc := make(map[Locator]int)
	meta := make(map[string]IndexEntry, len(index))
	tasks := make([]task, 0, len(index))
	for _, entry := range index {
		if _, seen := meta[entry.Name]; seen {
			continue
		}
		meta[entry.Name] = entry
		idx, ok := byLoc[entry.Locator]
		if !ok {
			byLoc[entry.Locator] = len(tasks)
			tasks = append(tasks, task{loc: entry.Locator, names: []string{entry.Name}})
			continue
		}
		tasks[idx].names = append(tasks[idx].names, entry.Name)
	}
	return tasks, meta
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
