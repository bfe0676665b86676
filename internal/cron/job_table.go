package cron

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/redis"
)

const switchReadTimeout = 2 * time.Second

// JobState is the externally visible state of one named job.
type JobState struct {
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	LastRunID string    `json:"lastRunId,omitempty"`
	LastRunAt time.Time `json:"lastRunAt,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// switchStore shares enable flags between the worker and the API process.
type switchStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// JobTable is the enable switch consulted by the scheduler, the harness and
// the API. Unknown jobs are reported as disabled. With a store attached, a
// stored flag overrides the in-memory one.
type JobTable struct {
	mu    sync.RWMutex
	jobs  map[string]*JobState
	store switchStore
	key   func(job string) string
}

func NewJobTable() *JobTable {
	return &JobTable{jobs: map[string]*JobState{}}
}

// WithStore attaches a shared store for the enable flags.
func (t *JobTable) WithStore(store switchStore, key func(job string) string) *JobTable {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store = store
	t.key = key
	if t.key == nil {
		t.key = func(job string) string { return "job:" + job + ":enabled" }
	}
	return t
}

// Register adds name with its initial enabled state. Re-registering keeps
// the recorded run history. A stored flag is never overwritten here.
func (t *JobTable) Register(name string, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.jobs[name]; ok {
		st.Enabled = enabled
		return
	}
	t.jobs[name] = &JobState{Name: name, Enabled: enabled}
}

// IsEnabled satisfies harness.EnabledChecker.
func (t *JobTable) IsEnabled(name string) bool {
	t.mu.RLock()
	st, ok := t.jobs[name]
	enabled := ok && st.Enabled
	store, key := t.store, t.key
	t.mu.RUnlock()
	if !ok || store == nil {
		return enabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), switchReadTimeout)
	defer cancel()
	raw, err := store.Get(ctx, key(name))
	if err != nil {
		return enabled
	}
	stored, err := strconv.ParseBool(raw)
	if err != nil {
		return enabled
	}
	return stored
}

// SetEnabled flips the switch of a registered job.
func (t *JobTable) SetEnabled(ctx context.Context, name string, enabled bool) error {
	t.mu.Lock()
	st, ok := t.jobs[name]
	if !ok {
		t.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "unknown job").WithDetails(map[string]any{"job": name})
	}
	st.Enabled = enabled
	store, key := t.store, t.key
	t.mu.Unlock()

	if store == nil {
		return nil
	}
	if err := store.Set(ctx, key(name), strconv.FormatBool(enabled), 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store job switch")
	}
	return nil
}

// RecordRun stores the outcome of the latest run of name.
func (t *JobTable) RecordRun(name, runID string, at time.Time, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.jobs[name]
	if !ok {
		return
	}
	st.LastRunID = runID
	st.LastRunAt = at.UTC()
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
}

// Get returns a copy of the state of name with the effective enabled flag.
func (t *JobTable) Get(name string) (JobState, bool) {
	t.mu.RLock()
	st, ok := t.jobs[name]
	var out JobState
	if ok {
		out = *st
	}
	t.mu.RUnlock()
	if !ok {
		return JobState{}, false
	}
	out.Enabled = t.IsEnabled(name)
	return out, true
}

// Snapshot lists every job sorted by name.
func (t *JobTable) Snapshot() []JobState {
	t.mu.RLock()
	names := make([]string, 0, len(t.jobs))
	for name := range t.jobs {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Strings(names)

	out := make([]JobState, 0, len(names))
	for _, name := range names {
		if st, ok := t.Get(name); ok {
			out = append(out, st)
		}
	}
	return out
}

// compile-time check that the redis client can back the table.
var _ switchStore = (*redis.Client)(nil)
