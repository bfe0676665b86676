// Package rules is the V1 rule engine: one price decision per quantity break
// of the vendor's own listing, derived from the cheapest eligible competitors.
package rules

import (
	"time"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/internal/reprice/filters"
	"github.com/angelmondragon/repricer/pkg/enums"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/money"
)

const DefaultPromoWindow = 24 * time.Hour

// Options tunes engine behaviour for every product.
type Options struct {
	// PromoWindow drops competitor promos that end sooner than this.
	PromoWindow time.Duration
	// DisableTie turns off own/sister tie handling globally.
	DisableTie bool
}

// Engine computes V1 decisions. It holds no per-product state.
type Engine struct {
	opts Options
}

// NewEngine builds an engine, defaulting the promo window.
func NewEngine(opts Options) *Engine {
	if opts.PromoWindow == 0 {
		opts.PromoWindow = DefaultPromoWindow
	}
	return &Engine{opts: opts}
}

// Input is one product snapshot for one own vendor identity.
type Input struct {
	ProductID string
	RunID     string
	Listings  []reprice.Listing
	Policy    reprice.Policy
	AsOf      time.Time
}

// Reprice returns one decision per quantity break of the own listing.
func (e *Engine) Reprice(in Input) (reprice.Envelope, error) {
	if in.Policy.OwnVendorID <= 0 {
		return reprice.Envelope{}, pkgerrors.New(pkgerrors.CodeValidation, "own vendor id is required").
			WithDetails(map[string]any{"product_id": in.ProductID, "channel": in.Policy.Channel})
	}
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	env := reprice.Envelope{
		ProductID:   in.ProductID,
		OwnVendorID: in.Policy.OwnVendorID,
		Channel:     in.Policy.Channel,
		RunID:       in.RunID,
		Engine:      enums.EngineRules,
		DecidedAt:   asOf,
	}

	listings := reprice.Normalize(in.Listings)
	own, ok := reprice.FindVendor(listings, in.Policy.OwnVendorID)
	if !ok {
		return env, nil
	}

	// Competitor breaks are resolved per quantity from the raw snapshot so an
	// expiring promo does not hide a regular break at the same quantity.
	decisions := make([]reprice.Decision, 0, len(own.PriceBreaks))
	for _, q := range reprice.BreakQuantities(own) {
		decisions = append(decisions, e.decide(in.Listings, own, in.Policy, q, asOf))
	}
	env.Decisions = EnforceHierarchy(decisions)
	return env, nil
}

func (e *Engine) decide(listings []reprice.Listing, own reprice.Listing, policy reprice.Policy, q int, asOf time.Time) reprice.Decision {
	ownBreak, _ := own.AnyBreakAt(q)
	d := reprice.Decision{
		MinQty:   q,
		OldPrice: ownBreak.UnitPrice,
		Active:   true,
		VendorID: own.VendorID,
		Explanation: reprice.Explanation{
			Reason: enums.ReasonDefault,
		},
	}
	if !ownBreak.Active || (q > 1 && own.Inventory < q) {
		return d.Deactivate()
	}

	eligible := e.eligible(listings, own.VendorID, q, asOf)

	tie := !e.opts.DisableTie && isOwnTie(eligible, policy, q)
	if tie {
		policy = policy.WithoutExclusions()
	}

	params := filters.Params{Policy: policy, MinQty: q}
	if _, ok := reprice.FindVendor(eligible, own.VendorID); ok {
		params.Own = &own
	}
	pipeline := filters.StandardPipeline(policy)
	if !tie && (policy.CompeteWithNext || policy.EffectiveDirection() == enums.DirectionUpDown) {
		pipeline = pipeline.With(enums.FilterSisterVendor)
	}
	sorted := rank(pipeline.Run(eligible, params), q, own.VendorID)

	out := e.choose(d, sorted, own, policy, q)
	if tie {
		out = out.WithTag(enums.TagTie)
	}
	return out
}

func (e *Engine) choose(d reprice.Decision, sorted []entry, own reprice.Listing, policy reprice.Policy, q int) reprice.Decision {
	if len(sorted) == 0 {
		return d
	}
	d.LowestVendor = sorted[0].listing.VendorName
	d.LowestVendorPrice = reprice.Ptr(sorted[0].price)

	if sorted[0].listing.VendorID == own.VendorID {
		next, ok := nextCompetitor(sorted, 1, policy)
		if !ok {
			return toCeiling(d, policy)
		}
		return priceAgainst(d, next, policy, q, enums.ReasonOwnLowestUndercutNext)
	}

	cheapest := sorted[0]
	if policy.IsSister(cheapest.listing.VendorID) || policy.IsExcluded(cheapest.listing.VendorID) {
		goTo := money.Sub(cheapest.price, effectiveOffset(policy))
		if goTo > policy.Floor() {
			d.GoToPrice = reprice.Ptr(goTo)
			d.TriggeredByVendor = cheapest.listing.VendorName
			d.Explanation = reprice.Explain(enums.ReasonSisterLowest)
			return d
		}
		next, ok := nextCompetitor(sorted, 1, policy)
		if !ok {
			d.GoToPrice = reprice.Ptr(goTo)
			d.TriggeredByVendor = cheapest.listing.VendorName
			d.Explanation = reprice.Explain(enums.ReasonFloorHit)
			return d
		}
		return priceAgainst(d, next, policy, q, enums.ReasonSisterFloorEscalated)
	}
	return priceAgainst(d, cheapest, policy, q, enums.ReasonUndercutLowest)
}

// toCeiling moves the price to the policy maximum when nobody competes.
func toCeiling(d reprice.Decision, policy reprice.Policy) reprice.Decision {
	d.Explanation = reprice.Explain(enums.ReasonNoCompetitor)
	if !policy.HasMaxPrice() {
		return d
	}
	ceiling := money.FloorCents(policy.MaxPrice)
	if ceiling <= policy.Floor() || money.Equal2(ceiling, d.OldPrice) {
		return d
	}
	return applyDirection(d, policy, ceiling)
}
