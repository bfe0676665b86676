// Package buybox is the V2 solver. For every quantity break it searches
// price assignments over the vendor's own identities that win the best
// buy-box rank at the highest average price.
package buybox

import (
	"slices"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/internal/reprice/filters"
	"github.com/angelmondragon/repricer/pkg/money"
)

const DefaultMaxOwned = 8

// Options bounds the search.
type Options struct {
	// MaxOwned caps owned identities per product; lowest priority values are kept.
	MaxOwned int
}

// Solver is stateless and safe for concurrent use.
type Solver struct {
	opts Options
}

func NewSolver(opts Options) *Solver {
	if opts.MaxOwned <= 0 {
		opts.MaxOwned = DefaultMaxOwned
	}
	return &Solver{opts: opts}
}

// Input is a product snapshot plus the policies of every owned identity.
type Input struct {
	ProductID string
	Listings  []reprice.Listing
	Owned     []reprice.Policy
}

// Assignment is the price chosen for one owned identity.
type Assignment struct {
	VendorID int64   `json:"vendorId"`
	OldPrice float64 `json:"oldPrice"`
	Price    float64 `json:"price"`
	Priority int     `json:"priority"`
}

// PriceSolution is one candidate assignment set for a break.
type PriceSolution struct {
	MinQty          int          `json:"minQty"`
	Assignments     []Assignment `json:"assignments"`
	RankShipping    int          `json:"buyBoxRankShipping"`
	RankNonShipping int          `json:"buyBoxRankNonShipping"`
	TotalRank       int          `json:"totalRank"`
	AveragePrice    float64      `json:"averagePrice"`
	PrioritySum     int          `json:"prioritySum"`
}

// BreakResult holds the ranked solutions of one quantity break.
type BreakResult struct {
	MinQty       int             `json:"minQty"`
	Solutions    []PriceSolution `json:"solutions,omitempty"`
	SolutionLess bool            `json:"solutionLess"`
	Owned        []int64         `json:"owned"`
}

// Best returns the selected solution.
func (r BreakResult) Best() (PriceSolution, bool) {
	if len(r.Solutions) == 0 {
		return PriceSolution{}, false
	}
	return r.Solutions[0], true
}

type member struct {
	policy      reprice.Policy
	offer       offer
	competitors []offer
}

// Solve ranks solutions for every break at which an owned identity is priced.
func (s *Solver) Solve(in Input) []BreakResult {
	listings := reprice.Normalize(in.Listings)
	owned := reprice.SortByPriority(in.Owned)
	allOwned := make(map[int64]struct{}, len(owned))
	for _, p := range owned {
		allOwned[p.OwnVendorID] = struct{}{}
	}
	if len(owned) > s.opts.MaxOwned {
		owned = owned[:s.opts.MaxOwned]
	}
	ownedIDs := make(map[int64]reprice.Policy, len(owned))
	for _, p := range owned {
		if p.OwnVendorID > 0 {
			if _, dup := ownedIDs[p.OwnVendorID]; !dup {
				ownedIDs[p.OwnVendorID] = p
			}
		}
	}

	var results []BreakResult
	for _, q := range breakQuantities(listings) {
		var members []member
		for _, l := range listings {
			if !l.InStock {
				continue
			}
			p, mine := ownedIDs[l.VendorID]
			if !mine || slices.ContainsFunc(members, func(m member) bool { return m.offer.vendorID == l.VendorID }) {
				continue
			}
			unit, ok := l.PriceAt(q)
			if !ok {
				continue
			}
			members = append(members, member{
				policy:      p,
				offer:       newOffer(l, unit, q),
				competitors: competitorsFor(listings, l, p, q, allOwned),
			})
		}
		if len(members) == 0 {
			continue
		}
		results = append(results, solveBreak(q, members))
	}
	return results
}

// competitorsFor runs the identity's filter pipeline and keeps the in-stock
// non-owned offers priced at q.
func competitorsFor(listings []reprice.Listing, own reprice.Listing, policy reprice.Policy, q int, owned map[int64]struct{}) []offer {
	params := filters.Params{Policy: policy, MinQty: q, Own: &own}
	var out []offer
	for _, l := range filters.StandardPipeline(policy).Run(listings, params) {
		if !l.InStock {
			continue
		}
		if _, mine := owned[l.VendorID]; mine {
			continue
		}
		unit, ok := l.PriceAt(q)
		if !ok {
			continue
		}
		out = append(out, newOffer(l, unit, q))
	}
	return out
}

func solveBreak(q int, members []member) BreakResult {
	result := BreakResult{MinQty: q}
	for _, m := range members {
		result.Owned = append(result.Owned, m.offer.vendorID)
	}

	candidates := make([][]float64, len(members))
	for i, m := range members {
		candidates[i] = candidatePrices(m)
	}

	subsets(len(members), func(idx []int) {
		choices := make([][]float64, len(idx))
		for k, i := range idx {
			if len(candidates[i]) == 0 {
				return
			}
			choices[k] = candidates[i]
		}
		crossProduct(choices, func(prices []float64) {
			result.Solutions = append(result.Solutions, score(q, members, idx, prices))
		})
	})

	slices.SortStableFunc(result.Solutions, func(a, b PriceSolution) int {
		switch {
		case a.TotalRank != b.TotalRank:
			return a.TotalRank - b.TotalRank
		case !money.Equal2(a.AveragePrice, b.AveragePrice):
			if a.AveragePrice > b.AveragePrice {
				return -1
			}
			return 1
		}
		return a.PrioritySum - b.PrioritySum
	})
	result.SolutionLess = len(result.Solutions) == 0
	return result
}

// candidatePrices returns at most one price per ranking mode: the undercut of
// the best-ranked competitor that lands above the member's floor and within its max.
func candidatePrices(m member) []float64 {
	var out []float64
	for _, mode := range []Mode{ModeShipping, ModeUnit} {
		competitors := order(m.competitors, mode)
		if len(competitors) == 0 {
			if m.policy.HasMaxPrice() && inBounds(money.FloorCents(m.policy.MaxPrice), m.policy) {
				out = appendUnique(out, money.FloorCents(m.policy.MaxPrice))
			} else if inBounds(m.offer.unit, m.policy) {
				out = appendUnique(out, money.Round2(m.offer.unit))
			}
			continue
		}
		for _, c := range competitors {
			price, ok := undercut(m.offer, c, mode)
			if ok && inBounds(price, m.policy) {
				out = appendUnique(out, price)
				break
			}
		}
	}
	return out
}

// inBounds rejects prices at or below the floor.
func inBounds(price float64, policy reprice.Policy) bool {
	if price <= 0 || price < policy.Floor() || money.Equal2(price, policy.Floor()) {
		return false
	}
	return !policy.HasMaxPrice() || price <= policy.MaxPrice+epsilon
}

func appendUnique(prices []float64, price float64) []float64 {
	for _, p := range prices {
		if money.Equal2(p, price) {
			return prices
		}
	}
	return append(prices, price)
}

// score prices the chosen members and ranks every owned offer against its
// own filtered competitors; members not in the subset keep their current price.
func score(q int, members []member, idx []int, prices []float64) PriceSolution {
	sol := PriceSolution{MinQty: q, RankShipping: -1, RankNonShipping: -1}
	chosen := make(map[int]float64, len(idx))
	var sum float64
	for k, i := range idx {
		chosen[i] = prices[k]
		sum += prices[k]
		m := members[i]
		sol.Assignments = append(sol.Assignments, Assignment{
			VendorID: m.offer.vendorID,
			OldPrice: m.offer.unit,
			Price:    prices[k],
			Priority: m.policy.Priority,
		})
		sol.PrioritySum += m.policy.Priority
	}
	sol.AveragePrice = money.Round2(sum / float64(len(idx)))

	for i, m := range members {
		o := m.offer
		if p, ok := chosen[i]; ok {
			o = o.at(p)
		}
		if r := rankOf(o, m.competitors, ModeShipping); sol.RankShipping < 0 || r < sol.RankShipping {
			sol.RankShipping = r
		}
		if r := rankOf(o, m.competitors, ModeUnit); sol.RankNonShipping < 0 || r < sol.RankNonShipping {
			sol.RankNonShipping = r
		}
	}
	sol.TotalRank = sol.RankShipping + sol.RankNonShipping
	return sol
}

func breakQuantities(listings []reprice.Listing) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, l := range listings {
		if !l.InStock {
			continue
		}
		for _, b := range l.PriceBreaks {
			if !b.Active {
				continue
			}
			if _, ok := seen[b.MinQty]; ok {
				continue
			}
			seen[b.MinQty] = struct{}{}
			out = append(out, b.MinQty)
		}
	}
	slices.Sort(out)
	return out
}
