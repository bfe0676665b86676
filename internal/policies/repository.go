package policies

import (
	"context"
	"fmt"

	"github.com/angelmondragon/repricer/pkg/db/models"
	"gorm.io/gorm"
)

// Repository handles policy persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to policy operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new policy row.
func (r *Repository) Create(ctx context.Context, row *models.RepricePolicy) error {
	if row == nil {
		return fmt.Errorf("policy is required")
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// ListForProduct returns the active policy rows of a product ordered by priority.
func (r *Repository) ListForProduct(ctx context.Context, productID string) ([]models.RepricePolicy, error) {
	var rows []models.RepricePolicy
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND active = ?", productID, true).
		Order("priority ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveProductIDs returns every product with at least one active policy.
func (r *Repository) ListActiveProductIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.RepricePolicy{}).
		Where("active = ?", true).
		Distinct("product_id").
		Order("product_id ASC").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SetActive toggles a policy row.
func (r *Repository) SetActive(ctx context.Context, productID string, ownVendorID int64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.RepricePolicy{}).
		Where("product_id = ? AND own_vendor_id = ?", productID, ownVendorID).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
