package models

import (
	"time"

	dbtypes "github.com/angelmondragon/repricer/pkg/db/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepricePolicy is the stored pricing configuration for one vendor identity on
// one product and channel. Numeric settings are kept as text exactly as the
// vendor entered them; the policy store parses them on read.
type RepricePolicy struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProductID           string            `gorm:"column:product_id;not null;index:idx_reprice_policies_product"`
	Channel             string            `gorm:"column:channel;not null;default:default"`
	OwnVendorID         int64             `gorm:"column:own_vendor_id"`
	Priority            int               `gorm:"column:priority;not null;default:0"`
	FloorPrice          string            `gorm:"column:floor_price"`
	MaxPrice            string            `gorm:"column:max_price"`
	PercentageDown      string            `gorm:"column:percentage_down"`
	Offset              string            `gorm:"column:price_offset"`
	BadgePercentage     string            `gorm:"column:badge_percentage"`
	Direction           string            `gorm:"column:direction"`
	HandlingTime        string            `gorm:"column:handling_time"`
	BadgeIndicator      string            `gorm:"column:badge_indicator"`
	ExcludedVendors     dbtypes.VendorIDs `gorm:"column:excluded_vendors"`
	SisterVendorIDs     dbtypes.VendorIDs `gorm:"column:sister_vendor_ids"`
	InventoryThreshold  int               `gorm:"column:inventory_threshold;not null;default:0"`
	ExcludeInactive     bool              `gorm:"column:exclude_inactive;not null;default:false"`
	CompeteWithNext     bool              `gorm:"column:compete_with_next;not null;default:false"`
	IgnorePhantomQBreak bool              `gorm:"column:ignore_phantom_q_break;not null;default:false"`
	Active              bool              `gorm:"column:active;not null;default:true"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (RepricePolicy) TableName() string {
	return "reprice_policies"
}

func (p *RepricePolicy) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
