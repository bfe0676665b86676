package decisions

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/db/models"
	"github.com/angelmondragon/repricer/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository persists decision envelopes and their per-break history rows.
type Repository struct {
	db txRunner
}

func NewRepository(db txRunner) *Repository {
	return &Repository{db: db}
}

// SaveEnvelope writes the envelope and its decisions in one transaction.
func (r *Repository) SaveEnvelope(ctx context.Context, env reprice.Envelope) error {
	row := ToModel(env)
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		decisions := row.Decisions
		row.Decisions = nil
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert envelope: %w", err)
		}
		if len(decisions) == 0 {
			return nil
		}
		for i := range decisions {
			decisions[i].EnvelopeID = row.ID
		}
		if err := tx.Create(&decisions).Error; err != nil {
			return fmt.Errorf("insert decisions: %w", err)
		}
		return nil
	})
}

// History returns the latest envelopes of a product, newest first.
func (r *Repository) History(ctx context.Context, productID string, limit int) ([]reprice.Envelope, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.RepriceEnvelope
	if err := r.db.DB().WithContext(ctx).
		Preload("Decisions", func(db *gorm.DB) *gorm.DB { return db.Order("min_qty ASC") }).
		Where("product_id = ?", productID).
		Order("decided_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]reprice.Envelope, 0, len(rows))
	for _, row := range rows {
		env, err := FromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// CountForRun returns how many envelopes a run produced.
func (r *Repository) CountForRun(ctx context.Context, runID string) (int64, error) {
	var n int64
	err := r.db.DB().WithContext(ctx).
		Model(&models.RepriceEnvelope{}).
		Where("run_id = ?", runID).
		Count(&n).Error
	return n, err
}

// ToModel maps an envelope onto its rows.
func ToModel(env reprice.Envelope) models.RepriceEnvelope {
	row := models.RepriceEnvelope{
		RunID:       env.RunID,
		ProductID:   env.ProductID,
		OwnVendorID: env.OwnVendorID,
		Channel:     env.Channel,
		Engine:      env.Engine.String(),
		Repriced:    len(env.Repriced()),
		DecidedAt:   env.DecidedAt,
		Decisions:   make([]models.RepriceDecision, 0, len(env.Decisions)),
	}
	for _, d := range env.Decisions {
		vendorID := d.VendorID
		if vendorID == 0 {
			vendorID = env.OwnVendorID
		}
		row.Decisions = append(row.Decisions, models.RepriceDecision{
			ProductID:         env.ProductID,
			VendorID:          vendorID,
			MinQty:            d.MinQty,
			OldPrice:          decimal.NewFromFloat(d.OldPrice).Round(2),
			NewPrice:          nullDecimal(d.NewPrice),
			GoToPrice:         nullDecimal(d.GoToPrice),
			LowestVendor:      d.LowestVendor,
			LowestVendorPrice: nullDecimal(d.LowestVendorPrice),
			TriggeredBy:       d.TriggeredByVendor,
			IsRepriced:        d.IsRepriced,
			Active:            d.Active,
			Explanation:       d.Explanation.String(),
		})
	}
	return row
}

// FromModel rebuilds an envelope from stored rows.
func FromModel(row models.RepriceEnvelope) (reprice.Envelope, error) {
	engine, err := enums.ParseEngine(row.Engine)
	if err != nil {
		return reprice.Envelope{}, err
	}
	env := reprice.Envelope{
		ProductID:   row.ProductID,
		OwnVendorID: row.OwnVendorID,
		Channel:     row.Channel,
		RunID:       row.RunID,
		Engine:      engine,
		DecidedAt:   row.DecidedAt,
		Decisions:   make([]reprice.Decision, 0, len(row.Decisions)),
	}
	for _, d := range row.Decisions {
		explanation, err := reprice.ParseExplanation(d.Explanation)
		if err != nil {
			return reprice.Envelope{}, err
		}
		old, _ := d.OldPrice.Float64()
		env.Decisions = append(env.Decisions, reprice.Decision{
			MinQty:            d.MinQty,
			OldPrice:          old,
			NewPrice:          floatPtr(d.NewPrice),
			IsRepriced:        d.IsRepriced,
			Explanation:       explanation,
			LowestVendor:      d.LowestVendor,
			LowestVendorPrice: floatPtr(d.LowestVendorPrice),
			TriggeredByVendor: d.TriggeredBy,
			GoToPrice:         floatPtr(d.GoToPrice),
			Active:            d.Active,
			VendorID:          d.VendorID,
		})
	}
	env.Decisions = reprice.SortDecisions(env.Decisions)
	return env, nil
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v).Round(2))
}

func floatPtr(v decimal.NullDecimal) *float64 {
	if !v.Valid {
		return nil
	}
	f, _ := v.Decimal.Float64()
	return &f
}

// DeleteDecidedBefore removes envelopes decided before cutoff together with
// their decision rows.
func (r *Repository) DeleteDecidedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	old := tx.WithContext(ctx).Model(&models.RepriceEnvelope{}).Select("id").Where("decided_at < ?", cutoff)
	if err := tx.WithContext(ctx).Where("envelope_id IN (?)", old).Delete(&models.RepriceDecision{}).Error; err != nil {
		return 0, fmt.Errorf("delete decisions: %w", err)
	}
	res := tx.WithContext(ctx).Where("decided_at < ?", cutoff).Delete(&models.RepriceEnvelope{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete envelopes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
