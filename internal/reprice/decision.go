package reprice

import (
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/repricer/pkg/enums"
)

// Explanation is the structured reason attached to a decision.
type Explanation struct {
	Reason enums.ReasonCode  `json:"reason"`
	Tags   []enums.ReasonTag `json:"tags,omitempty"`
}

// Explain builds an explanation from a reason code.
func Explain(reason enums.ReasonCode, tags ...enums.ReasonTag) Explanation {
	e := Explanation{Reason: reason}
	for _, t := range tags {
		e = e.WithTag(t)
	}
	return e
}

// WithTag returns a copy carrying tag once.
func (e Explanation) WithTag(tag enums.ReasonTag) Explanation {
	if slices.Contains(e.Tags, tag) {
		return e
	}
	e.Tags = append(slices.Clone(e.Tags), tag)
	return e
}

// Has reports whether tag is present.
func (e Explanation) Has(tag enums.ReasonTag) bool {
	return slices.Contains(e.Tags, tag)
}

// String renders the audit form, e.g. "UNDERCUT_LOWEST #TIE #%Down".
func (e Explanation) String() string {
	var b strings.Builder
	b.WriteString(string(e.Reason))
	for _, t := range e.Tags {
		b.WriteByte(' ')
		b.WriteString(string(t))
	}
	return b.String()
}

// ParseExplanation is the inverse of Explanation.String.
func ParseExplanation(raw string) (Explanation, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Explanation{}, nil
	}
	reason, err := enums.ParseReasonCode(fields[0])
	if err != nil {
		return Explanation{}, err
	}
	e := Explanation{Reason: reason}
	for _, f := range fields[1:] {
		tag, err := enums.ParseReasonTag(f)
		if err != nil {
			return Explanation{}, err
		}
		e = e.WithTag(tag)
	}
	return e, nil
}

// Decision is the engine output for one quantity break.
type Decision struct {
	MinQty            int         `json:"minQty"`
	OldPrice          float64     `json:"oldPrice"`
	NewPrice          *float64    `json:"newPrice,omitempty"`
	IsRepriced        bool        `json:"isRepriced"`
	Explanation       Explanation `json:"explanation"`
	LowestVendor      string      `json:"lowestVendor,omitempty"`
	LowestVendorPrice *float64    `json:"lowestVendorPrice,omitempty"`
	TriggeredByVendor string      `json:"triggeredByVendor,omitempty"`
	GoToPrice         *float64    `json:"goToPrice,omitempty"`
	Active            bool        `json:"active"`
	VendorID          int64       `json:"vendorId"`
}

// Price returns the price the break ends up with after this decision.
func (d Decision) Price() float64 {
	if d.IsRepriced && d.NewPrice != nil {
		return *d.NewPrice
	}
	return d.OldPrice
}

// Suppress returns a copy with the price change withdrawn under reason.
// Tags are kept.
func (d Decision) Suppress(reason enums.ReasonCode) Decision {
	if d.NewPrice != nil && d.GoToPrice == nil {
		d.GoToPrice = Ptr(*d.NewPrice)
	}
	d.NewPrice = nil
	d.IsRepriced = false
	d.Explanation = Explanation{Reason: reason, Tags: slices.Clone(d.Explanation.Tags)}
	return d
}

// WithTag returns a copy tagged with tag.
func (d Decision) WithTag(tag enums.ReasonTag) Decision {
	d.Explanation = d.Explanation.WithTag(tag)
	return d
}

// Deactivate returns a copy flagged for break shutdown.
func (d Decision) Deactivate() Decision {
	d.Active = false
	d.NewPrice = nil
	d.IsRepriced = false
	d.Explanation = Explanation{Reason: enums.ReasonBreakDeactivated, Tags: slices.Clone(d.Explanation.Tags)}
	return d
}

// Envelope groups one product's decisions for a single own vendor identity.
type Envelope struct {
	ProductID   string       `json:"productId"`
	OwnVendorID int64        `json:"ownVendorId"`
	Channel     string       `json:"channel"`
	RunID       string       `json:"runId"`
	Engine      enums.Engine `json:"engine"`
	Decisions   []Decision   `json:"decisions"`
	DecidedAt   time.Time    `json:"decidedAt"`
}

// Repriced returns the decisions that change a price.
func (e Envelope) Repriced() []Decision {
	out := make([]Decision, 0, len(e.Decisions))
	for _, d := range e.Decisions {
		if d.IsRepriced && d.NewPrice != nil {
			out = append(out, d)
		}
	}
	return out
}

// SortDecisions orders decisions by MinQty.
func SortDecisions(decisions []Decision) []Decision {
	out := slices.Clone(decisions)
	slices.SortStableFunc(out, func(a, b Decision) int {
		return a.MinQty - b.MinQty
	})
	return out
}

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 {
	return &v
}
