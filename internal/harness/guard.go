package harness

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/redis"
)

const (
	DefaultStaleAfter = 2 * time.Hour
	DefaultMarkerTTL  = 3 * time.Hour
)

// Guard keeps two runs of the same named job from overlapping. It is a
// check-then-set on a cache marker, not a lock: near-simultaneous triggers
// may both pass.
type Guard struct {
	cache      redis.Cache
	key        func(job string) string
	staleAfter time.Duration
	ttl        time.Duration
	now        func() time.Time
}

// GuardParams configures a Guard.
type GuardParams struct {
	Cache      redis.Cache
	KeyFunc    func(job string) string
	StaleAfter time.Duration
	TTL        time.Duration
	Now        func() time.Time
}

type marker struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
}

func NewGuard(p GuardParams) (*Guard, error) {
	if p.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "overlap guard cache is required")
	}
	if p.KeyFunc == nil {
		p.KeyFunc = func(job string) string { return "job:" + job + ":running" }
	}
	if p.StaleAfter <= 0 {
		p.StaleAfter = DefaultStaleAfter
	}
	if p.TTL <= 0 {
		p.TTL = DefaultMarkerTTL
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Guard{cache: p.Cache, key: p.KeyFunc, staleAfter: p.StaleAfter, ttl: p.TTL, now: p.Now}, nil
}

// Begin records runID as the running instance of job. It fails with
// CodeJobOverlap while a fresh marker from another run exists; markers
// older than the stale threshold are cleared.
func (g *Guard) Begin(ctx context.Context, job, runID string) error {
	key := g.key(job)
	has, err := g.cache.Has(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check job marker")
	}
	if has {
		current, running, err := g.read(ctx, key)
		if err != nil {
			return err
		}
		if running {
			return pkgerrors.New(pkgerrors.CodeJobOverlap, "job is already running").WithDetails(map[string]any{
				"job":        job,
				"run_id":     current.RunID,
				"started_at": current.StartedAt,
			})
		}
		if err := g.cache.Delete(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear stale job marker")
		}
	}

	payload, err := json.Marshal(marker{RunID: runID, StartedAt: g.now().UTC()})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode job marker")
	}
	if err := g.cache.Set(ctx, key, string(payload), g.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set job marker")
	}
	return nil
}

// End clears the marker of job when it still belongs to runID. A marker
// written by a newer run is left in place.
func (g *Guard) End(ctx context.Context, job, runID string) error {
	key := g.key(job)
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		if redis.IsMiss(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read job marker")
	}
	var m marker
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m.RunID != runID {
		return nil
	}
	if err := g.cache.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear job marker")
	}
	return nil
}

// Running reports the live marker of job, if any.
func (g *Guard) Running(ctx context.Context, job string) (string, time.Time, bool, error) {
	key := g.key(job)
	has, err := g.cache.Has(ctx, key)
	if err != nil || !has {
		return "", time.Time{}, false, err
	}
	m, running, err := g.read(ctx, key)
	if err != nil || !running {
		return "", time.Time{}, false, err
	}
	return m.RunID, m.StartedAt, true, nil
}

// read decodes the marker at key. Unreadable or stale markers count as not running.
func (g *Guard) read(ctx context.Context, key string) (marker, bool, error) {
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		if redis.IsMiss(err) {
			return marker{}, false, nil
		}
		return marker{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read job marker")
	}
	var m marker
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m.StartedAt.IsZero() {
		return marker{}, false, nil
	}
	if g.now().Sub(m.StartedAt) >= g.staleAfter {
		return m, false, nil
	}
	return m, true, nil
}
