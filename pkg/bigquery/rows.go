package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// DecisionRow is the audit shape of one break decision.
type DecisionRow struct {
	RunID             string                 `bigquery:"run_id"`
	ProductID         string                 `bigquery:"product_id"`
	VendorID          int64                  `bigquery:"vendor_id"`
	Channel           string                 `bigquery:"channel"`
	Engine            string                 `bigquery:"engine"`
	MinQty            int64                  `bigquery:"min_qty"`
	OldPrice          float64                `bigquery:"old_price"`
	NewPrice          bigquery.NullFloat64   `bigquery:"new_price"`
	GoToPrice         bigquery.NullFloat64   `bigquery:"go_to_price"`
	LowestVendor      bigquery.NullString    `bigquery:"lowest_vendor"`
	LowestVendorPrice bigquery.NullFloat64   `bigquery:"lowest_vendor_price"`
	IsRepriced        bool                   `bigquery:"is_repriced"`
	Active            bool                   `bigquery:"active"`
	Reason            string                 `bigquery:"reason"`
	Explanation       string                 `bigquery:"explanation"`
	DecidedAt         time.Time              `bigquery:"decided_at"`
	InsertedAt        bigquery.NullTimestamp `bigquery:"inserted_at"`
}

// NullFloat wraps an optional price.
func NullFloat(v *float64) bigquery.NullFloat64 {
	if v == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *v, Valid: true}
}

// NullString wraps an optional label.
func NullString(v string) bigquery.NullString {
	return bigquery.NullString{StringVal: v, Valid: v != ""}
}
