package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RepriceEnvelope records one engine pass for a product and own vendor identity.
type RepriceEnvelope struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	RunID       string            `gorm:"column:run_id;not null;index:idx_reprice_envelopes_run"`
	ProductID   string            `gorm:"column:product_id;not null;index:idx_reprice_envelopes_product"`
	OwnVendorID int64             `gorm:"column:own_vendor_id;not null"`
	Channel     string            `gorm:"column:channel;not null"`
	Engine      string            `gorm:"column:engine;not null"`
	Repriced    int               `gorm:"column:repriced_count;not null;default:0"`
	DecidedAt   time.Time         `gorm:"column:decided_at;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	Decisions   []RepriceDecision `gorm:"foreignKey:EnvelopeID"`
}

func (RepriceEnvelope) TableName() string {
	return "reprice_envelopes"
}

func (e *RepriceEnvelope) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// RepriceDecision is the history row for one quantity break.
type RepriceDecision struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	EnvelopeID        uuid.UUID           `gorm:"column:envelope_id;type:uuid;not null;index:idx_reprice_decisions_envelope"`
	ProductID         string              `gorm:"column:product_id;not null"`
	VendorID          int64               `gorm:"column:vendor_id;not null"`
	MinQty            int                 `gorm:"column:min_qty;not null"`
	OldPrice          decimal.Decimal     `gorm:"column:old_price;type:numeric(12,2);not null"`
	NewPrice          decimal.NullDecimal `gorm:"column:new_price;type:numeric(12,2)"`
	GoToPrice         decimal.NullDecimal `gorm:"column:go_to_price;type:numeric(12,2)"`
	LowestVendor      string              `gorm:"column:lowest_vendor"`
	LowestVendorPrice decimal.NullDecimal `gorm:"column:lowest_vendor_price;type:numeric(12,2)"`
	TriggeredBy       string              `gorm:"column:triggered_by_vendor"`
	IsRepriced        bool                `gorm:"column:is_repriced;not null;default:false"`
	Active            bool                `gorm:"column:active;not null"`
	Explanation       string              `gorm:"column:explanation;not null"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (RepriceDecision) TableName() string {
	return "reprice_decisions"
}

func (d *RepriceDecision) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
