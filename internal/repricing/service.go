// Package repricing runs the decision engines for one product at a time:
// fetch listings, load policies, decide, persist, publish and audit.
package repricing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/repricer/internal/marketplace"
	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/internal/reprice/buybox"
	"github.com/angelmondragon/repricer/internal/reprice/rules"
	"github.com/angelmondragon/repricer/pkg/enums"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
	"github.com/angelmondragon/repricer/pkg/metrics"
	"go.uber.org/multierr"
)

type ListingFetcher interface {
	FetchListings(ctx context.Context, productID string) ([]reprice.Listing, error)
}

type PolicySource interface {
	ForProduct(ctx context.Context, productID string) ([]reprice.Policy, error)
}

type EnvelopeSink interface {
	SaveEnvelope(ctx context.Context, env reprice.Envelope) error
}

// UpdatePublisher hands applied decisions to the price update service.
type UpdatePublisher interface {
	Publish(ctx context.Context, payload any, attrs map[string]string) (string, error)
}

// PricePusher applies decisions directly when no publisher is configured.
type PricePusher interface {
	PushPrice(ctx context.Context, update marketplace.PriceUpdate) error
}

// ServiceParams wires the collaborators. Sink, Publisher, Pusher, Auditor and
// Metrics are optional.
type ServiceParams struct {
	Engine    enums.Engine
	Rules     *rules.Engine
	Solver    *buybox.Solver
	Fetcher   ListingFetcher
	Policies  PolicySource
	Sink      EnvelopeSink
	Publisher UpdatePublisher
	Pusher    PricePusher
	Auditor   Auditor
	Metrics   *metrics.RepriceMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type Service struct {
	engine    enums.Engine
	rules     *rules.Engine
	solver    *buybox.Solver
	fetcher   ListingFetcher
	policies  PolicySource
	sink      EnvelopeSink
	publisher UpdatePublisher
	pusher    PricePusher
	auditor   Auditor
	metrics   *metrics.RepriceMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Fetcher == nil {
		return nil, fmt.Errorf("listing fetcher is required")
	}
	if params.Policies == nil {
		return nil, fmt.Errorf("policy source is required")
	}
	engine := params.Engine
	if engine == "" {
		engine = enums.EngineRules
	}
	if !engine.IsValid() {
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
	svc := &Service{
		engine:    engine,
		rules:     params.Rules,
		solver:    params.Solver,
		fetcher:   params.Fetcher,
		policies:  params.Policies,
		sink:      params.Sink,
		publisher: params.Publisher,
		pusher:    params.Pusher,
		auditor:   params.Auditor,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       params.Now,
	}
	if svc.rules == nil {
		svc.rules = rules.NewEngine(rules.Options{})
	}
	if svc.solver == nil {
		svc.solver = buybox.NewSolver(buybox.Options{})
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = func() time.Time { return time.Now().UTC() }
	}
	return svc, nil
}

// Engine reports which engine drives decisions.
func (s *Service) Engine() enums.Engine {
	return s.engine
}

// Result is the outcome of one product pass.
type Result struct {
	ProductID string               `json:"productId"`
	Engine    enums.Engine         `json:"engine"`
	Envelopes []reprice.Envelope   `json:"envelopes"`
	Solutions []buybox.BreakResult `json:"solutions,omitempty"`
	Skipped   []SkippedPolicy      `json:"skipped,omitempty"`
	Applied   int                  `json:"applied"`
}

// SkippedPolicy names a policy the engine could not run.
type SkippedPolicy struct {
	OwnVendorID int64            `json:"ownVendorId"`
	Channel     string           `json:"channel"`
	Reason      enums.ReasonCode `json:"reason,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// ProcessProduct decides prices for productID and applies the repriced breaks.
// Persistence and audit failures are logged; fetch, policy and apply failures
// are returned.
func (s *Service) ProcessProduct(ctx context.Context, runID, productID string) (Result, error) {
	ctx = s.logg.WithProductID(ctx, productID)
	res, err := s.compute(ctx, runID, productID)
	if err != nil {
		return res, err
	}

	var errs error
	for _, env := range res.Envelopes {
		s.record(env)
		if s.sink != nil {
			if err := s.sink.SaveEnvelope(ctx, env); err != nil {
				s.logg.Error(s.logg.WithVendorID(ctx, env.OwnVendorID), "failed to persist decision envelope", err)
			}
		}
		applied, err := s.apply(ctx, env)
		res.Applied += applied
		errs = multierr.Append(errs, err)
	}
	s.audit(ctx, res.Envelopes)

	if errs != nil {
		return res, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "apply price decisions")
	}
	if res.Applied > 0 {
		s.logg.Info(s.logg.WithField(ctx, "applied", res.Applied), "product repriced")
	}
	return res, nil
}

// Preview runs the engines without persisting, publishing or auditing.
func (s *Service) Preview(ctx context.Context, productID string) (Result, error) {
	return s.compute(s.logg.WithProductID(ctx, productID), "preview", productID)
}

func (s *Service) compute(ctx context.Context, runID, productID string) (Result, error) {
	res := Result{ProductID: productID, Engine: s.engine}

	listings, err := s.fetcher.FetchListings(ctx, productID)
	if err != nil {
		return res, err
	}
	policies, err := s.policies.ForProduct(ctx, productID)
	if err != nil {
		return res, err
	}
	if len(policies) == 0 {
		s.logg.Debug(ctx, "no active policies")
		return res, nil
	}

	asOf := s.now()
	if s.engine == enums.EngineBuyBox {
		s.solve(&res, runID, listings, policies, asOf)
		return res, nil
	}
	for _, policy := range reprice.SortByPriority(policies) {
		env, err := s.rules.Reprice(rules.Input{
			ProductID: productID,
			RunID:     runID,
			Listings:  listings,
			Policy:    policy,
			AsOf:      asOf,
		})
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "skipping policy")
			res.Skipped = append(res.Skipped, SkippedPolicy{OwnVendorID: policy.OwnVendorID, Channel: policy.Channel, Error: err.Error()})
			continue
		}
		if _, ok := reprice.FindVendor(listings, policy.OwnVendorID); !ok {
			s.metrics.ObserveDecision(s.engine.String(), enums.ReasonNoOwnListing.String(), false)
			res.Skipped = append(res.Skipped, SkippedPolicy{OwnVendorID: policy.OwnVendorID, Channel: policy.Channel, Reason: enums.ReasonNoOwnListing})
			continue
		}
		res.Envelopes = append(res.Envelopes, env)
	}
	return res, nil
}

func (s *Service) solve(res *Result, runID string, listings []reprice.Listing, policies []reprice.Policy, asOf time.Time) {
	res.Solutions = s.solver.Solve(buybox.Input{ProductID: res.ProductID, Listings: listings, Owned: policies})

	byVendor := make(map[int64][]reprice.Decision)
	for _, br := range res.Solutions {
		if br.SolutionLess {
			s.metrics.IncSolutionLess()
		}
		for _, d := range buybox.Decisions(br, listings) {
			byVendor[d.VendorID] = append(byVendor[d.VendorID], d)
		}
	}

	for _, policy := range reprice.SortByPriority(policies) {
		decisions, ok := byVendor[policy.OwnVendorID]
		if !ok {
			continue
		}
		delete(byVendor, policy.OwnVendorID)
		res.Envelopes = append(res.Envelopes, reprice.Envelope{
			ProductID:   res.ProductID,
			OwnVendorID: policy.OwnVendorID,
			Channel:     policy.Channel,
			RunID:       runID,
			Engine:      enums.EngineBuyBox,
			Decisions:   reprice.SortDecisions(decisions),
			DecidedAt:   asOf,
		})
	}
}

func (s *Service) record(env reprice.Envelope) {
	for _, d := range env.Decisions {
		s.metrics.ObserveDecision(env.Engine.String(), d.Explanation.Reason.String(), d.IsRepriced)
	}
}

// apply sends every repriced or deactivated break downstream.
func (s *Service) apply(ctx context.Context, env reprice.Envelope) (int, error) {
	if s.publisher == nil && s.pusher == nil {
		return 0, nil
	}
	applied := 0
	var errs error
	for _, d := range env.Decisions {
		if !d.IsRepriced && d.Active {
			continue
		}
		vendorID := d.VendorID
		if vendorID == 0 {
			vendorID = env.OwnVendorID
		}
		update := marketplace.PriceUpdate{
			ProductID: env.ProductID,
			VendorID:  vendorID,
			MinQty:    d.MinQty,
			Price:     d.Price(),
			Active:    d.Active,
			RunID:     env.RunID,
			Reason:    d.Explanation.String(),
		}
		if err := s.send(ctx, env, update); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		applied++
	}
	return applied, errs
}

func (s *Service) send(ctx context.Context, env reprice.Envelope, update marketplace.PriceUpdate) error {
	if s.publisher != nil {
		_, err := s.publisher.Publish(ctx, update, map[string]string{
			"product_id": update.ProductID,
			"vendor_id":  strconv.FormatInt(update.VendorID, 10),
			"channel":    env.Channel,
			"engine":     env.Engine.String(),
		})
		return err
	}
	return s.pusher.PushPrice(ctx, update)
}
