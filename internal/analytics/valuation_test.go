package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
	"github.com/Veraticus/the-closet-must-flow/internal/testutil"
)

var testNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return testNow.Add(-time.Duration(d) * 24 * time.Hour)
}

func newValuation(ledger service.Ledger) *ValuationCalculator {
	return NewValuationCalculator(Deps{Ledger: ledger, Clock: service.FixedClock{T: testNow}}, DefaultConfig())
}

func TestCostPerWear(t *testing.T) {
	tests := []struct {
		purchased     time.Time
		name          string
		price         float64
		wears         int
		wantDays      int
		wantCPW       float64
		wantProjected float64
	}{
		{
			name:          "worn four times in a hundred days",
			price:         100,
			purchased:     daysAgo(100),
			wears:         4,
			wantDays:      100,
			wantCPW:       25,
			wantProjected: 100 / 14.6,
		},
		{
			name:          "unworn item costs its full price",
			price:         79.99,
			purchased:     daysAgo(40),
			wears:         0,
			wantDays:      40,
			wantCPW:       79.99,
			wantProjected: 79.99,
		},
		{
			name:          "horizon passed stops projecting",
			price:         200,
			purchased:     daysAgo(400),
			wears:         8,
			wantDays:      400,
			wantCPW:       25,
			wantProjected: 25,
		},
		{
			name:          "horizon reached exactly",
			price:         90,
			purchased:     daysAgo(365),
			wears:         3,
			wantDays:      365,
			wantCPW:       30,
			wantProjected: 30,
		},
		{
			name:          "uneven split is not rounded to cents",
			price:         10,
			purchased:     daysAgo(400),
			wears:         3,
			wantDays:      400,
			wantCPW:       10.0 / 3,
			wantProjected: 10.0 / 3,
		},
		{
			name:          "future purchase date clamps to zero days",
			price:         60,
			purchased:     testNow.Add(48 * time.Hour),
			wears:         1,
			wantDays:      0,
			wantCPW:       60,
			wantProjected: 60.0 / 365,
		},
		{
			name:          "partial day rounds down",
			price:         30,
			purchased:     testNow.Add(-36 * time.Hour),
			wears:         1,
			wantDays:      1,
			wantCPW:       30,
			wantProjected: 30.0 / 365,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &model.WardrobeItem{ID: "item", PurchasePrice: tt.price, PurchaseDate: tt.purchased}
			got := CostPerWear(item, tt.wears, testNow, 365)

			assert.Equal(t, tt.wears, got.TotalWears)
			assert.Equal(t, tt.wantDays, got.DaysSincePurchase)
			assert.InDelta(t, tt.wantCPW, got.CostPerWear, 1e-9)
			assert.InDelta(t, tt.wantProjected, got.ProjectedCostPerWear, 1e-9)
		})
	}
}

func TestCostPerWear_ProjectionNeverExceedsCurrent(t *testing.T) {
	for wears := 1; wears <= 40; wears += 3 {
		for days := 0; days < 365; days += 17 {
			item := &model.WardrobeItem{ID: "x", PurchasePrice: 137.45, PurchaseDate: daysAgo(days)}
			got := CostPerWear(item, wears, testNow, 365)
			if got.ProjectedCostPerWear > got.CostPerWear {
				t.Errorf("wears=%d days=%d: projected %.2f > current %.2f",
					wears, days, got.ProjectedCostPerWear, got.CostPerWear)
			}
		}
	}
}

func TestValuationCalculator_CalculateCostPerWear(t *testing.T) {
	ledger := testutil.NewWardrobeBuilder(t, "me", testNow).
		WithItem("coat", "outerwear", testutil.Price(100), testutil.PurchasedAt(daysAgo(100))).
		WornDaysAgo("coat", 90, 60, 30, 1).
		WithItem("old-tee", "tops", testutil.Deleted(daysAgo(5))).
		Memory()
	calc := newValuation(ledger)
	ctx := context.Background()

	t.Run("example item", func(t *testing.T) {
		result, err := calc.CalculateCostPerWear(ctx, "coat")
		require.NoError(t, err)
		assert.Equal(t, "coat", result.ItemID)
		assert.Equal(t, 4, result.TotalWears)
		assert.Equal(t, 100, result.DaysSincePurchase)
		assert.InDelta(t, 25.0, result.CostPerWear, 1e-9)
		assert.InDelta(t, 100/14.6, result.ProjectedCostPerWear, 1e-9)
	})

	t.Run("missing item", func(t *testing.T) {
		_, err := calc.CalculateCostPerWear(ctx, "ghost")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("tombstoned item", func(t *testing.T) {
		_, err := calc.CalculateCostPerWear(ctx, "old-tee")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestValuationCalculator_LedgerFailures(t *testing.T) {
	ctx := context.Background()
	down := common.Unavailable("query", errors.New("disk I/O error"))

	t.Run("item lookup", func(t *testing.T) {
		ledger := &mockLedger{}
		ledger.On("GetItem", mock.Anything, "coat").Return(nil, down)

		_, err := newValuation(ledger).CalculateCostPerWear(ctx, "coat")
		assert.ErrorIs(t, err, common.ErrLedgerUnavailable)
		ledger.AssertExpectations(t)
	})

	t.Run("wear history", func(t *testing.T) {
		ledger := &mockLedger{}
		ledger.On("GetItem", mock.Anything, "coat").
			Return(&model.WardrobeItem{ID: "coat", PurchasePrice: 10, PurchaseDate: daysAgo(3)}, nil)
		ledger.On("ListWearEvents", mock.Anything, service.WearEventFilter{ItemID: "coat"}).Return(nil, down)

		result, err := newValuation(ledger).CalculateCostPerWear(ctx, "coat")
		assert.ErrorIs(t, err, common.ErrLedgerUnavailable)
		assert.Nil(t, result)
		ledger.AssertExpectations(t)
	})
}
