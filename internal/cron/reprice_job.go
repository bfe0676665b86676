package cron

import (
	"context"
	"sync"

	"github.com/angelmondragon/repricer/internal/harness"
	"github.com/angelmondragon/repricer/internal/repricing"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
)

// RepriceAllJob is the name of the scheduled full reprice.
const RepriceAllJob = "reprice-all"

type productLister interface {
	ListActiveProductIDs(ctx context.Context) ([]string, error)
}

type productProcessor interface {
	ProcessProduct(ctx context.Context, runID, productID string) (repricing.Result, error)
}

type batchRunner interface {
	Execute(ctx context.Context, job string, items []string, fn harness.ItemFunc) (harness.Summary, error)
}

// purger drops memoized policies so a run reads fresh rows.
type purger interface {
	Purge()
}

// RepriceJobParams wires a RepriceJob.
type RepriceJobParams struct {
	Name      string
	Logger    *logger.Logger
	Products  productLister
	Processor productProcessor
	Runner    batchRunner
	Cache     purger
}

// RepriceJob reprices every product that has an active policy, through the
// chunked harness.
type RepriceJob struct {
	name      string
	logg      *logger.Logger
	products  productLister
	processor productProcessor
	runner    batchRunner
	cache     purger

	mu   sync.Mutex
	last harness.Summary
}

func NewRepriceJob(params RepriceJobParams) (*RepriceJob, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product lister required")
	}
	if params.Processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repricing service required")
	}
	if params.Runner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "harness runner required")
	}
	name := params.Name
	if name == "" {
		name = RepriceAllJob
	}
	return &RepriceJob{
		name:      name,
		logg:      params.Logger,
		products:  params.Products,
		processor: params.Processor,
		runner:    params.Runner,
		cache:     params.Cache,
	}, nil
}

func (j *RepriceJob) Name() string { return j.name }

// Run lists the products and hands them to the harness. Item failures are
// counted in the summary and do not fail the job; only cancellation,
// overlap or a failed listing do.
func (j *RepriceJob) Run(ctx context.Context) error {
	ids, err := j.products.ListActiveProductIDs(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products to reprice")
	}
	if j.cache != nil {
		j.cache.Purge()
	}

	summary, err := j.runner.Execute(ctx, j.name, ids, func(itemCtx context.Context, productID string) error {
		_, perr := j.processor.ProcessProduct(itemCtx, harness.RunIDFromContext(itemCtx), productID)
		return perr
	})
	j.mu.Lock()
	j.last = summary
	j.mu.Unlock()
	if err != nil {
		return err
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"run_id":    summary.RunID,
		"products":  summary.Total,
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"stopped":   summary.Stopped,
	})
	j.logg.Info(logCtx, "reprice run summary")
	return nil
}

// LastSummary returns the summary of the most recent run.
func (j *RepriceJob) LastSummary() harness.Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

func (j *RepriceJob) LastRunID() string {
	return j.LastSummary().RunID
}
