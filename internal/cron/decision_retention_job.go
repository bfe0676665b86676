package cron

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
	"gorm.io/gorm"
)

// DecisionRetentionJob is the name of the decision history cleanup.
const DecisionRetentionJob = "decision-retention"

const defaultDecisionRetention = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type decisionRetentionRepo interface {
	DeleteDecidedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type DecisionRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository decisionRetentionRepo
	Retention  time.Duration
}

func NewDecisionRetentionJob(params DecisionRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db runner required")
	}
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultDecisionRetention
	}
	return &decisionRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type decisionRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      decisionRetentionRepo
	retention time.Duration
	now       func() time.Time
}

func (j *decisionRetentionJob) Name() string { return DecisionRetentionJob }

func (j *decisionRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteDecidedBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("decision retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"retention_hours": int(j.retention.Hours()),
		"rows_deleted":    deleted,
	})
	j.logg.Info(logCtx, "decision retention cleanup complete")
	return nil
}
