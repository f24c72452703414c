package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// TrendAggregator rolls a month of ratings and usage into one report.
type TrendAggregator struct {
	ledger service.Ledger
	clock  service.Clock
	cfg    Config
}

// NewTrendAggregator creates an aggregator using cfg's month boundaries and baselines.
func NewTrendAggregator(deps Deps, cfg Config) *TrendAggregator {
	deps = deps.withDefaults()
	return &TrendAggregator{ledger: deps.Ledger, clock: deps.Clock, cfg: cfg}
}

// monthSnapshot is everything one report is computed from.
type monthSnapshot struct {
	current []model.OutfitRating
	prior   []model.OutfitRating
	wears   []model.WearEvent
	items   []model.WardrobeItem
}

// GenerateMonthlyConfidenceMetrics reports on the given calendar month. A zero
// month or year means the current one.
func (a *TrendAggregator) GenerateMonthlyConfidenceMetrics(ctx context.Context, userID string, month time.Month, year int) (*model.MonthlyConfidenceMetrics, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user ID is required", common.ErrInvalidInput)
	}
	now := a.clock.Now().In(a.cfg.Location)
	if month == 0 {
		month = now.Month()
	}
	if year == 0 {
		year = now.Year()
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12, got %d", common.ErrInvalidInput, month)
	}

	current := service.MonthRange(year, month, a.cfg.Location)
	prior := service.MonthRange(year, month-1, a.cfg.Location)

	snap, err := a.load(ctx, userID, current, prior)
	if err != nil {
		return nil, err
	}

	metrics := &model.MonthlyConfidenceMetrics{
		Month:                   int(month),
		Year:                    year,
		AverageConfidenceRating: averageRating(snap.current),
		TotalOutfitsRated:       distinctOutfits(snap.current),
	}
	if len(snap.prior) > 0 && len(snap.current) > 0 {
		metrics.ConfidenceImprovement = metrics.AverageConfidenceRating - averageRating(snap.prior)
	}
	metrics.WardrobeUtilization = utilization(snap.items, snap.wears, current)
	metrics.ShoppingReductionPercentage = a.shoppingReduction(snap.items, year, month)
	metrics.CostPerWearImprovement = a.costPerWearImprovement(snap.items, snap.wears, year, month)

	confidence := itemConfidence(snap.current, snap.items)
	metrics.MostConfidentItems = mostConfident(confidence, a.cfg.TopItems)
	metrics.LeastConfidentItems = leastConfident(confidence, a.cfg.TopItems)

	slog.Debug("generated monthly metrics",
		"user_id", userID,
		"month", month,
		"year", year,
		"ratings", len(snap.current),
		"utilization", metrics.WardrobeUtilization)
	return metrics, nil
}

// load reads the ledger slices for one report in parallel.
func (a *TrendAggregator) load(ctx context.Context, userID string, current, prior service.DateRange) (*monthSnapshot, error) {
	var snap monthSnapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ratings, err := a.ledger.ListOutfitRatings(gctx, userID, current)
		if err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		snap.current = ratings
		return nil
	})
	g.Go(func() error {
		ratings, err := a.ledger.ListOutfitRatings(gctx, userID, prior)
		if err != nil {
			return fmt.Errorf("failed to load prior ratings: %w", err)
		}
		snap.prior = ratings
		return nil
	})
	g.Go(func() error {
		// Cost-per-wear at each baseline cutoff needs the whole history.
		history := service.DateRange{End: current.End}
		wears, err := a.ledger.ListWearEvents(gctx, service.WearEventFilter{UserID: userID, Range: &history})
		if err != nil {
			return fmt.Errorf("failed to load wear history: %w", err)
		}
		snap.wears = wears
		return nil
	})
	g.Go(func() error {
		items, err := a.ledger.ListItems(gctx, userID, service.ItemListOptions{IncludeTombstoned: true})
		if err != nil {
			return fmt.Errorf("failed to load wardrobe: %w", err)
		}
		snap.items = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func averageRating(ratings []model.OutfitRating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range ratings {
		sum += r.Rating
	}
	return sum / float64(len(ratings))
}

func distinctOutfits(ratings []model.OutfitRating) int {
	seen := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		seen[r.OutfitKey()] = struct{}{}
	}
	return len(seen)
}

// utilization is the share of items owned during the month that were worn in
// it, as a percentage in [0, 100].
func utilization(items []model.WardrobeItem, wears []model.WearEvent, month service.DateRange) float64 {
	owned := make(map[string]struct{})
	for i := range items {
		item := &items[i]
		if !item.PurchaseDate.Before(month.End) {
			continue
		}
		if item.DeletedAt != nil && item.DeletedAt.Before(month.Start) {
			continue
		}
		owned[item.ID] = struct{}{}
	}
	if len(owned) == 0 {
		return 0
	}

	worn := make(map[string]struct{})
	for _, w := range wears {
		if _, ok := owned[w.ItemID]; ok && month.Contains(w.WornAt) {
			worn[w.ItemID] = struct{}{}
		}
	}
	return min(max(float64(len(worn))/float64(len(owned))*100, 0), 100)
}

// shoppingReduction compares this month's purchases with the average of the
// trailing baseline months. Fewer purchases give a positive percentage.
func (a *TrendAggregator) shoppingReduction(items []model.WardrobeItem, year int, month time.Month) float64 {
	purchasesIn := func(r service.DateRange) int {
		n := 0
		for _, item := range items {
			if r.Contains(item.PurchaseDate) {
				n++
			}
		}
		return n
	}

	current := purchasesIn(service.MonthRange(year, month, a.cfg.Location))
	total := 0
	for i := 1; i <= a.cfg.BaselineMonths; i++ {
		total += purchasesIn(service.MonthRange(year, month-time.Month(i), a.cfg.Location))
	}
	baseline := float64(total) / float64(a.cfg.BaselineMonths)
	if baseline == 0 {
		return 0
	}
	return (baseline - float64(current)) / baseline * 100
}

// costPerWearImprovement is the trailing-baseline aggregate cost-per-wear
// minus this month's. A drop in cost-per-wear is a positive improvement.
func (a *TrendAggregator) costPerWearImprovement(items []model.WardrobeItem, wears []model.WearEvent, year int, month time.Month) float64 {
	current, ok := a.aggregateCostPerWear(items, wears, service.MonthRange(year, month, a.cfg.Location).End)
	if !ok {
		return 0
	}

	sum := decimal.Zero
	months := 0
	for i := 1; i <= a.cfg.BaselineMonths; i++ {
		cutoff := service.MonthRange(year, month-time.Month(i), a.cfg.Location).End
		if v, ok := a.aggregateCostPerWear(items, wears, cutoff); ok {
			sum = sum.Add(v)
			months++
		}
	}
	if months == 0 {
		return 0
	}
	baseline := sum.Div(decimal.NewFromInt(int64(months)))
	return baseline.Sub(current).InexactFloat64()
}

// aggregateCostPerWear is the mean cost-per-wear of the items owned at cutoff,
// counting wears before cutoff. It reports false when nothing was owned.
func (a *TrendAggregator) aggregateCostPerWear(items []model.WardrobeItem, wears []model.WearEvent, cutoff time.Time) (decimal.Decimal, bool) {
	counts := make(map[string]int)
	for _, w := range wears {
		if w.WornAt.Before(cutoff) {
			counts[w.ItemID]++
		}
	}

	sum := decimal.Zero
	owned := 0
	for i := range items {
		item := &items[i]
		if !item.OwnedAt(cutoff) {
			continue
		}
		cpw, _ := costPerWear(decimal.NewFromFloat(item.PurchasePrice), counts[item.ID],
			DaysSince(item.PurchaseDate, cutoff), a.cfg.HorizonDays)
		sum = sum.Add(cpw)
		owned++
	}
	if owned == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(int64(owned))), true
}

// itemConfidence attributes every rating to each distinct item in its outfit
// and averages per item. Items without ratings are absent.
func itemConfidence(ratings []model.OutfitRating, items []model.WardrobeItem) []model.ItemConfidence {
	type tally struct {
		sum   float64
		count int
	}
	tallies := make(map[string]*tally)
	for i := range ratings {
		for _, id := range ratings[i].DistinctItemIDs() {
			t, ok := tallies[id]
			if !ok {
				t = &tally{}
				tallies[id] = t
			}
			t.sum += ratings[i].Rating
			t.count++
		}
	}

	byID := make(map[string]*model.WardrobeItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	result := make([]model.ItemConfidence, 0, len(tallies))
	for id, t := range tallies {
		ic := model.ItemConfidence{
			ItemID:        id,
			AverageRating: t.sum / float64(t.count),
			RatingCount:   t.count,
		}
		if item, ok := byID[id]; ok {
			ic.Name = item.DisplayName()
			ic.Category = item.Category
		}
		result = append(result, ic)
	}
	return result
}

// mostConfident returns the n highest-rated items. More ratings win ties.
func mostConfident(all []model.ItemConfidence, n int) []model.ItemConfidence {
	sorted := make([]model.ItemConfidence, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AverageRating != sorted[j].AverageRating {
			return sorted[i].AverageRating > sorted[j].AverageRating
		}
		if sorted[i].RatingCount != sorted[j].RatingCount {
			return sorted[i].RatingCount > sorted[j].RatingCount
		}
		return sorted[i].ItemID < sorted[j].ItemID
	})
	return sorted[:min(n, len(sorted))]
}

// leastConfident returns the n lowest-rated items. More ratings win ties.
func leastConfident(all []model.ItemConfidence, n int) []model.ItemConfidence {
	sorted := make([]model.ItemConfidence, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AverageRating != sorted[j].AverageRating {
			return sorted[i].AverageRating < sorted[j].AverageRating
		}
		if sorted[i].RatingCount != sorted[j].RatingCount {
			return sorted[i].RatingCount > sorted[j].RatingCount
		}
		return sorted[i].ItemID < sorted[j].ItemID
	})
	return sorted[:min(n, len(sorted))]
}
