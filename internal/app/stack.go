// Package app wires the repricer collaborators shared by the worker and the
// API binaries.
package app

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/repricer/internal/cron"
	"github.com/angelmondragon/repricer/internal/decisions"
	"github.com/angelmondragon/repricer/internal/harness"
	"github.com/angelmondragon/repricer/internal/marketplace"
	"github.com/angelmondragon/repricer/internal/policies"
	"github.com/angelmondragon/repricer/internal/reprice/buybox"
	"github.com/angelmondragon/repricer/internal/reprice/rules"
	"github.com/angelmondragon/repricer/internal/repricing"
	"github.com/angelmondragon/repricer/pkg/bigquery"
	"github.com/angelmondragon/repricer/pkg/config"
	"github.com/angelmondragon/repricer/pkg/db"
	"github.com/angelmondragon/repricer/pkg/enums"
	"github.com/angelmondragon/repricer/pkg/logger"
	"github.com/angelmondragon/repricer/pkg/metrics"
	"github.com/angelmondragon/repricer/pkg/migrate"
	"github.com/angelmondragon/repricer/pkg/pubsub"
	"github.com/angelmondragon/repricer/pkg/redis"
	"go.uber.org/multierr"
)

const schedulerLockName = "cron"

// Stack holds every long-lived client and service of a repricer process.
// PubSub and BigQuery are nil when their feature flag is off.
type Stack struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	PubSub   *pubsub.Client
	BigQuery *bigquery.Client
	Registry *prometheus.Registry

	Policies  *policies.Repository
	Source    *policies.CachedSource
	Decisions *decisions.Repository
	Repricing *repricing.Service
	Guard     *harness.Guard
	Runner    *harness.Runner
	Jobs      *cron.JobTable
	Cron      *cron.Service

	closers []func() error
}

// Build connects to every dependency and assembles the services. On error
// whatever was already opened is closed.
func Build(ctx context.Context, cfg *config.Config, logg *logger.Logger) (_ *Stack, err error) {
	s := &Stack{Config: cfg, Logger: logg}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	s.DB, err = db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.DB.Close)
	if err = migrate.MaybeRunDev(ctx, cfg, logg, s.DB); err != nil {
		return nil, err
	}

	s.Redis, err = redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.Redis.Close)

	s.Registry = newRegistry()
	cronMetrics := metrics.NewCronJobMetrics(s.Registry)
	repriceMetrics := metrics.NewRepriceMetrics(s.Registry)

	market, err := marketplace.NewClient(cfg.Marketplace)
	if err != nil {
		return nil, err
	}

	s.Policies = policies.NewRepository(s.DB.DB())
	s.Source, err = policies.NewCachedSource(policies.CachedSourceParams{
		Source: policies.NewStore(s.Policies, logg),
		Cache:  s.Redis,
		Key:    s.Redis.PolicyKey,
		Size:   cfg.Repricer.PolicyCacheSize,
		TTL:    cfg.Repricer.PolicyCacheTTL,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}
	s.Decisions = decisions.NewRepository(s.DB)

	engine, err := enums.ParseEngine(cfg.Repricer.Engine)
	if err != nil {
		return nil, err
	}
	params := repricing.ServiceParams{
		Engine:   engine,
		Rules:    rules.NewEngine(rules.Options{PromoWindow: cfg.Repricer.PromoWindow, DisableTie: cfg.Repricer.DisableTie}),
		Solver:   buybox.NewSolver(buybox.Options{MaxOwned: cfg.Repricer.MaxOwnedIdentities}),
		Fetcher:  market,
		Policies: s.Source,
		Sink:     s.Decisions,
		Pusher:   market,
		Metrics:  repriceMetrics,
		Logger:   logg,
	}
	if cfg.FeatureFlags.PublishUpdates {
		s.PubSub, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, s.PubSub.Close)
		params.Publisher = pubsub.NewJSONPublisher(s.PubSub.PriceUpdatePublisher())
	}
	if cfg.FeatureFlags.AuditDecisions {
		s.BigQuery, err = bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, s.BigQuery.Close)
		params.Auditor = s.BigQuery
	}
	s.Repricing, err = repricing.NewService(params)
	if err != nil {
		return nil, err
	}

	s.Guard, err = harness.NewGuard(harness.GuardParams{
		Cache:      s.Redis,
		KeyFunc:    s.Redis.JobMarkerKey,
		StaleAfter: cfg.Repricer.OverlapStaleAfter,
		TTL:        cfg.Repricer.OverlapMarkerTTL,
	})
	if err != nil {
		return nil, err
	}
	s.Jobs = NewJobTable(cfg.Repricer).WithStore(s.Redis, s.Redis.JobSwitchKey)
	s.Runner = harness.NewRunner(harness.RunnerParams{
		Options: harness.Options{
			ChunkSize:          cfg.Repricer.ChunkSize,
			BatchSize:          cfg.Repricer.BatchSize,
			UnchunkedThreshold: cfg.Repricer.UnchunkedThreshold,
		},
		Guard:    s.Guard,
		Enabled:  s.Jobs,
		Observer: repriceMetrics,
		Logger:   logg,
	})

	registry, err := s.jobRegistry()
	if err != nil {
		return nil, err
	}
	lock, err := cron.NewRedisLock(s.Redis, s.Redis.LockKey(schedulerLockName), 0)
	if err != nil {
		return nil, err
	}
	s.Cron, err = cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Jobs:     s.Jobs,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Repricer.Interval,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stack) jobRegistry() (*cron.Registry, error) {
	reprice, err := cron.NewRepriceJob(cron.RepriceJobParams{
		Logger:    s.Logger,
		Products:  s.Policies,
		Processor: s.Repricing,
		Runner:    s.Runner,
		Cache:     s.Source,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewDecisionRetentionJob(cron.DecisionRetentionJobParams{
		Logger:     s.Logger,
		DB:         s.DB,
		Repository: s.Decisions,
		Retention:  s.Config.Repricer.DecisionRetention,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(reprice, retention), nil
}

// NewJobTable registers the known jobs, enabled unless listed in the
// disabled jobs setting.
func NewJobTable(cfg config.RepricerConfig) *cron.JobTable {
	disabled := map[string]bool{}
	for _, name := range cfg.DisabledJobs {
		if name = strings.TrimSpace(name); name != "" {
			disabled[name] = true
		}
	}
	table := cron.NewJobTable()
	for _, name := range []string{cron.RepriceAllJob, cron.DecisionRetentionJob} {
		table.Register(name, !disabled[name])
	}
	return table
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Close releases the clients in reverse order of creation.
func (s *Stack) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	s.closers = nil
	return err
}
