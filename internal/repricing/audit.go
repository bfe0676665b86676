package repricing

import (
	"context"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/bigquery"
)

// Auditor streams decision rows to the analytics store.
type Auditor interface {
	InsertDecisions(ctx context.Context, rows []bigquery.DecisionRow) error
}

func (s *Service) audit(ctx context.Context, envelopes []reprice.Envelope) {
	if s.auditor == nil {
		return
	}
	rows := AuditRows(envelopes)
	if len(rows) == 0 {
		return
	}
	if err := s.auditor.InsertDecisions(ctx, rows); err != nil {
		s.logg.Error(ctx, "failed to audit decisions", err)
	}
}

// AuditRows flattens envelopes into one row per decision.
func AuditRows(envelopes []reprice.Envelope) []bigquery.DecisionRow {
	var rows []bigquery.DecisionRow
	for _, env := range envelopes {
		for _, d := range env.Decisions {
			vendorID := d.VendorID
			if vendorID == 0 {
				vendorID = env.OwnVendorID
			}
			rows = append(rows, bigquery.DecisionRow{
				RunID:             env.RunID,
				ProductID:         env.ProductID,
				VendorID:          vendorID,
				Channel:           env.Channel,
				Engine:            env.Engine.String(),
				MinQty:            int64(d.MinQty),
				OldPrice:          d.OldPrice,
				NewPrice:          bigquery.NullFloat(d.NewPrice),
				GoToPrice:         bigquery.NullFloat(d.GoToPrice),
				LowestVendor:      bigquery.NullString(d.LowestVendor),
				LowestVendorPrice: bigquery.NullFloat(d.LowestVendorPrice),
				IsRepriced:        d.IsRepriced,
				Active:            d.Active,
				Reason:            d.Explanation.Reason.String(),
				Explanation:       d.Explanation.String(),
				DecidedAt:         env.DecidedAt,
			})
		}
	}
	return rows
}
