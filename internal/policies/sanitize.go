package policies

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/db/models"
	"github.com/angelmondragon/repricer/pkg/enums"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/money"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

var validate = validator.New()

// ToPolicy converts a stored row into an engine policy. Numeric text that is
// empty or malformed becomes reprice.Unset for floor and max, and zero for the
// offset and percentages. Percentages above 1 are read as whole percents.
func ToPolicy(row models.RepricePolicy) (reprice.Policy, error) {
	p := reprice.Policy{
		OwnVendorID:         row.OwnVendorID,
		Channel:             row.Channel,
		Priority:            row.Priority,
		FloorPrice:          parsePrice(row.FloorPrice),
		MaxPrice:            parsePrice(row.MaxPrice),
		Offset:              parseAmount(row.Offset),
		PercentageDown:      parsePercent(row.PercentageDown),
		BadgePercentage:     parsePercent(row.BadgePercentage),
		ExcludedVendors:     row.ExcludedVendors.Int64s(),
		SisterVendorIDs:     row.SisterVendorIDs.Int64s(),
		InventoryThreshold:  row.InventoryThreshold,
		ExcludeInactive:     row.ExcludeInactive,
		CompeteWithNext:     row.CompeteWithNext,
		IgnorePhantomQBreak: row.IgnorePhantomQBreak,
	}

	var errs error
	var err error
	if p.Direction, err = enums.ParseDirection(row.Direction); err != nil {
		errs = multierr.Append(errs, err)
	}
	if p.HandlingTime, err = enums.ParseHandlingTime(row.HandlingTime); err != nil {
		errs = multierr.Append(errs, err)
	}
	if p.BadgeIndicator, err = enums.ParseBadgeIndicator(row.BadgeIndicator); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := validate.Struct(p); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return reprice.Policy{}, pkgerrors.Wrap(pkgerrors.CodeValidation, errs,
			fmt.Sprintf("invalid policy for product %s vendor %d", row.ProductID, row.OwnVendorID)).
			WithDetails(map[string]any{"productId": row.ProductID, "ownVendorId": row.OwnVendorID, "channel": row.Channel})
	}
	return p, nil
}

func clean(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.TrimSuffix(raw, "%")
	return strings.ReplaceAll(raw, ",", "")
}

func parsePrice(raw string) float64 {
	v, ok := money.Parse(clean(raw))
	if !ok || v < 0 {
		return reprice.Unset
	}
	return money.Round2(v)
}

func parseAmount(raw string) float64 {
	v, ok := money.Parse(clean(raw))
	if !ok || v < 0 {
		return 0
	}
	return v
}

func parsePercent(raw string) float64 {
	v := parseAmount(raw)
	if v > 1 {
		v /= 100
	}
	return v
}
