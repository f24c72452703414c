package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

const hoursPerDay = 24

// ValuationCalculator computes present and projected cost-per-wear.
type ValuationCalculator struct {
	ledger      service.Ledger
	clock       service.Clock
	horizonDays int
}

// NewValuationCalculator creates a calculator projecting over cfg.HorizonDays.
func NewValuationCalculator(deps Deps, cfg Config) *ValuationCalculator {
	deps = deps.withDefaults()
	return &ValuationCalculator{
		ledger:      deps.Ledger,
		clock:       deps.Clock,
		horizonDays: cfg.HorizonDays,
	}
}

// CalculateCostPerWear values a single non-tombstoned item from its full wear history.
func (v *ValuationCalculator) CalculateCostPerWear(ctx context.Context, itemID string) (*model.CostPerWearResult, error) {
	item, err := v.ledger.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item.IsTombstoned() {
		return nil, fmt.Errorf("item %s was deleted: %w", itemID, common.ErrNotFound)
	}

	wears, err := v.ledger.ListWearEvents(ctx, service.WearEventFilter{ItemID: itemID})
	if err != nil {
		return nil, fmt.Errorf("failed to load wear history: %w", err)
	}

	result := CostPerWear(item, len(wears), v.clock.Now(), v.horizonDays)
	slog.Debug("calculated cost per wear",
		"item_id", itemID,
		"wears", result.TotalWears,
		"cost_per_wear", result.CostPerWear)
	return &result, nil
}

// DaysSince returns the whole days elapsed from then to now, never negative.
func DaysSince(then, now time.Time) int {
	days := int(now.Sub(then).Hours() / hoursPerDay)
	if days < 0 {
		return 0
	}
	return days
}

// CostPerWear values item given its wear count at now. An unworn item costs
// its full price per wear. The projection extrapolates the observed wear rate
// linearly to horizonDays after purchase and stops once the horizon has passed.
// Values keep full precision; rounding to cents is left to presentation.
func CostPerWear(item *model.WardrobeItem, totalWears int, now time.Time, horizonDays int) model.CostPerWearResult {
	days := DaysSince(item.PurchaseDate, now)
	cpw, projected := costPerWear(decimal.NewFromFloat(item.PurchasePrice), totalWears, days, horizonDays)
	return model.CostPerWearResult{
		ItemID:               item.ID,
		PurchasePrice:        item.PurchasePrice,
		CostPerWear:          cpw.InexactFloat64(),
		ProjectedCostPerWear: projected.InexactFloat64(),
		TotalWears:           totalWears,
		DaysSincePurchase:    days,
	}
}

func costPerWear(price decimal.Decimal, totalWears, days, horizonDays int) (current, projected decimal.Decimal) {
	if totalWears == 0 {
		return price, price
	}

	wears := decimal.NewFromInt(int64(totalWears))
	current = price.Div(wears)
	if days >= horizonDays {
		return current, current
	}

	estimated := wears.Mul(decimal.NewFromInt(int64(horizonDays))).
		Div(decimal.NewFromInt(int64(max(days, 1))))
	estimated = decimal.Max(estimated, decimal.NewFromInt(1))
	return current, price.Div(estimated)
}
