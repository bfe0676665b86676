package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/repricer/api/responses"
	"github.com/angelmondragon/repricer/api/validators"
	"github.com/angelmondragon/repricer/internal/cron"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
)

// JobRunner runs a named job once outside the schedule.
type JobRunner interface {
	RunOnce(ctx context.Context, name string) error
}

// JobSwitch is the job state table.
type JobSwitch interface {
	Get(name string) (cron.JobState, bool)
	Snapshot() []cron.JobState
	SetEnabled(ctx context.Context, name string, enabled bool) error
}

// RunningChecker reports a live run of a job.
type RunningChecker interface {
	Running(ctx context.Context, job string) (runID string, startedAt time.Time, running bool, err error)
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func JobList(jobs JobSwitch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, jobs.Snapshot())
	}
}

// JobTrigger starts a job in the background and answers 202. A job that is
// already running answers 409 and a disabled one 422.
func JobTrigger(runner JobRunner, jobs JobSwitch, running RunningChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "job"))
		state, ok := jobs.Get(name)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown job").WithDetails(map[string]any{"job": name}))
			return
		}
		if !state.Enabled {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeJobDisabled, "job is disabled").WithDetails(map[string]any{"job": name}))
			return
		}
		if running != nil {
			runID, startedAt, busy, err := running.Running(r.Context(), name)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if busy {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeJobOverlap, "job is already running").WithDetails(map[string]any{
					"job":        name,
					"run_id":     runID,
					"started_at": startedAt,
				}))
				return
			}
		}

		ctx := logg.WithJob(context.WithoutCancel(r.Context()), name)
		go func() {
			if err := runner.RunOnce(ctx, name); err != nil {
				logg.Error(ctx, "manual job run failed", err)
			}
		}()
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"job": name, "status": "started"})
	}
}

func JobSetEnabled(jobs JobSwitch, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "job"))
		var req setEnabledRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := jobs.SetEnabled(r.Context(), name, *req.Enabled); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithFields(r.Context(), map[string]any{"job": name, "enabled": *req.Enabled}), "job switch updated")
		state, _ := jobs.Get(name)
		responses.WriteSuccess(w, state)
	}
}
