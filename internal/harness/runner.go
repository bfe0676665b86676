// Package harness runs a per-item function over a large product list in
// bounded chunks and batches.
package harness

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize          = 10
	DefaultBatchSize          = 5
	DefaultUnchunkedThreshold = 50
)

// ItemFunc processes one item. ctx carries the item id on the log context.
type ItemFunc func(ctx context.Context, item string) error

// EnabledChecker reports whether a named job may keep running.
type EnabledChecker interface {
	IsEnabled(job string) bool
}

// Observer receives per-chunk and per-item outcomes.
type Observer interface {
	ObserveChunk(job string, d time.Duration)
	ItemFailed(job string)
}

// Options sizes the chunks and batches.
type Options struct {
	ChunkSize          int
	BatchSize          int
	UnchunkedThreshold int
}

// RunnerParams wires a Runner. Guard, Enabled and Observer are optional.
type RunnerParams struct {
	Options  Options
	Guard    *Guard
	Enabled  EnabledChecker
	Observer Observer
	Logger   *logger.Logger
	NewRunID func(job string) string
}

type Runner struct {
	opts     Options
	guard    *Guard
	enabled  EnabledChecker
	observer Observer
	logg     *logger.Logger
	newRunID func(job string) string
}

func NewRunner(p RunnerParams) *Runner {
	if p.Options.ChunkSize <= 0 {
		p.Options.ChunkSize = DefaultChunkSize
	}
	if p.Options.BatchSize <= 0 {
		p.Options.BatchSize = DefaultBatchSize
	}
	if p.Options.UnchunkedThreshold <= 0 {
		p.Options.UnchunkedThreshold = DefaultUnchunkedThreshold
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.NewRunID == nil {
		p.NewRunID = NewRunID
	}
	return &Runner{
		opts:     p.Options,
		guard:    p.Guard,
		enabled:  p.Enabled,
		observer: p.Observer,
		logg:     p.Logger,
		newRunID: p.NewRunID,
	}
}

// Summary reports one Execute call.
type Summary struct {
	RunID     string
	Job       string
	Total     int
	Processed int
	Failed    int
	Batches   int
	Chunks    int
	Stopped   bool
	Started   time.Time
	Finished  time.Time

	errs error
}

// Err combines every item failure, or nil.
func (s Summary) Err() error {
	return s.errs
}

// Execute runs fn over items. Lists at or under the unchunked threshold run
// as one concurrent group; larger lists run batch by batch, every chunk of a
// batch concurrently, and batch N+1 starts only after batch N settled. Item
// failures never abort the run. Between batches the job switch and ctx are
// consulted; a stop there leaves Summary.Stopped set and, for cancellation,
// returns ctx's error alongside the partial summary.
func (r *Runner) Execute(ctx context.Context, job string, items []string, fn ItemFunc) (Summary, error) {
	runID := r.newRunID(job)
	summary := Summary{RunID: runID, Job: job, Total: len(items), Started: time.Now().UTC()}

	if r.enabled != nil && !r.enabled.IsEnabled(job) {
		return summary, pkgerrors.New(pkgerrors.CodeJobDisabled, "job is disabled").WithDetails(map[string]any{"job": job})
	}
	if r.guard != nil {
		if err := r.guard.Begin(ctx, job, runID); err != nil {
			return summary, err
		}
		defer func() {
			if err := r.guard.End(context.WithoutCancel(ctx), job, runID); err != nil {
				r.logg.Error(ctx, "failed to clear job marker", err)
			}
		}()
	}

	ctx = context.WithValue(r.logg.WithJob(r.logg.WithRunID(ctx, runID), job), runIDKey{}, runID)
	r.logg.Info(r.logg.WithField(ctx, "items", len(items)), "run started")

	st := &state{}
	var stopErr error
	if len(items) <= r.opts.UnchunkedThreshold {
		summary.Batches, summary.Chunks = 1, 1
		r.runItems(ctx, job, runID, items, fn, st)
	} else {
		batches := Partition(Partition(items, r.opts.ChunkSize), r.opts.BatchSize)
		chunkNo := 0
		for b, batch := range batches {
			if b > 0 {
				if stop, err := r.shouldStop(ctx, job); stop {
					summary.Stopped, stopErr = true, err
					break
				}
			}
			var g errgroup.Group
			for _, chunk := range batch {
				chunkNo++
				chunkID := ChunkID(runID, chunkNo)
				g.Go(func() error {
					started := time.Now()
					r.runItems(r.logg.WithRunID(ctx, chunkID), job, chunkID, chunk, fn, st)
					if r.observer != nil {
						r.observer.ObserveChunk(job, time.Since(started))
					}
					return nil
				})
			}
			_ = g.Wait()
			summary.Batches++
			summary.Chunks += len(batch)
		}
	}

	summary.Processed = int(st.processed.Load())
	summary.Failed = int(st.failed.Load())
	summary.errs = st.errs
	summary.Finished = time.Now().UTC()

	done := r.logg.WithFields(ctx, map[string]any{
		"processed":   summary.Processed,
		"failed":      summary.Failed,
		"batches":     summary.Batches,
		"stopped":     summary.Stopped,
		"duration_ms": summary.Finished.Sub(summary.Started).Milliseconds(),
	})
	if summary.Failed > 0 {
		r.logg.Warn(done, "run finished with failures")
	} else {
		r.logg.Info(done, "run finished")
	}
	return summary, stopErr
}

type state struct {
	processed atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex
	errs      error
}

func (s *state) fail(err error) {
	s.failed.Add(1)
	s.mu.Lock()
	s.errs = multierr.Append(s.errs, err)
	s.mu.Unlock()
}

// runItems runs every item concurrently and waits for all of them.
func (r *Runner) runItems(ctx context.Context, job, parentID string, items []string, fn ItemFunc, st *state) {
	var g errgroup.Group
	for i, item := range items {
		itemID := ItemID(parentID, i+1)
		g.Go(func() error {
			itemCtx := r.logg.WithRunID(ctx, itemID)
			if err := safeCall(itemCtx, item, fn); err != nil {
				st.fail(fmt.Errorf("%s (%s): %w", item, itemID, err))
				if r.observer != nil {
					r.observer.ItemFailed(job)
				}
				r.logg.Error(r.logg.WithField(itemCtx, "item", item), "item failed", err)
				return nil
			}
			st.processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()
}

// shouldStop is consulted between batches. Cancellation returns ctx's error;
// a disabled job stops quietly.
func (r *Runner) shouldStop(ctx context.Context, job string) (bool, error) {
	if err := ctx.Err(); err != nil {
		r.logg.Warn(ctx, "run cancelled between batches")
		return true, err
	}
	if r.enabled != nil && !r.enabled.IsEnabled(job) {
		r.logg.Warn(ctx, "job disabled between batches")
		return true, nil
	}
	return false, nil
}

func safeCall(ctx context.Context, item string, fn ItemFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic processing %s: %v", item, rec))
		}
	}()
	return fn(ctx, item)
}

// Partition splits items into consecutive groups of at most size.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
