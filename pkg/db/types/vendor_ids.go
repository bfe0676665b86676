package dbtypes

import (
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// VendorIDs is a bigint[] column on postgres and its array literal text on sqlite.
type VendorIDs []int64

func (a *VendorIDs) Scan(src any) error {
	if src == nil {
		*a = VendorIDs{}
		return nil
	}
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("VendorIDs: %w", err)
	}
	*a = VendorIDs(arr)
	return nil
}

func (a VendorIDs) Value() (driver.Value, error) {
	// Postgres array literal: {1,2}
	if len(a) == 0 {
		return "{}", nil
	}
	return pq.Int64Array(a).Value()
}

func (VendorIDs) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return "bigint[]"
}

// Int64s returns the ids as a plain slice.
func (a VendorIDs) Int64s() []int64 {
	if len(a) == 0 {
		return nil
	}
	return append([]int64(nil), a...)
}
