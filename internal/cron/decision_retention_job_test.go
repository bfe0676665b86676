package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/repricer/pkg/logger"
	"gorm.io/gorm"
)

func TestDecisionRetentionJobDeletesOldEnvelopes(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeDecisionRetentionRepo{}
	job := newDecisionRetentionJob(t, repo, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-defaultDecisionRetention)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestDecisionRetentionJobCustomWindow(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeDecisionRetentionRepo{}
	job := newDecisionRetentionJob(t, repo, 48*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected cutoff %s", repo.lastCutoff)
	}
}

func TestDecisionRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeDecisionRetentionRepo{err: errors.New("boom")}
	job := newDecisionRetentionJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newDecisionRetentionJob(t *testing.T, repo *fakeDecisionRetentionRepo, retention time.Duration) *decisionRetentionJob {
	t.Helper()
	jobIface, err := NewDecisionRetentionJob(DecisionRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         passthroughTx{},
		Repository: repo,
		Retention:  retention,
	})
	if err != nil {
		t.Fatalf("NewDecisionRetentionJob: %v", err)
	}
	job, ok := jobIface.(*decisionRetentionJob)
	if !ok {
		t.Fatalf("expected decisionRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeDecisionRetentionRepo struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeDecisionRetentionRepo) DeleteDecidedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 4, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
