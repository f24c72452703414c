package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
	"github.com/Veraticus/the-closet-must-flow/internal/storage"
)

const day = 24 * time.Hour

// ItemOption customizes a fixture item.
type ItemOption func(*model.WardrobeItem)

// Price sets the purchase price.
func Price(p float64) ItemOption {
	return func(i *model.WardrobeItem) { i.PurchasePrice = p }
}

// Colors sets the item colors.
func Colors(colors ...string) ItemOption {
	return func(i *model.WardrobeItem) { i.Colors = colors }
}

// Tags sets the item tags.
func Tags(tags ...string) ItemOption {
	return func(i *model.WardrobeItem) { i.Tags = tags }
}

// Named sets the display name.
func Named(name string) ItemOption {
	return func(i *model.WardrobeItem) { i.Name = name }
}

// PurchasedAt sets the purchase date.
func PurchasedAt(t time.Time) ItemOption {
	return func(i *model.WardrobeItem) { i.PurchaseDate = t }
}

// Deleted tombstones the item at t once its history has been recorded.
func Deleted(t time.Time) ItemOption {
	return func(i *model.WardrobeItem) { i.DeletedAt = &t }
}

// WardrobeBuilder assembles items, wear events and ratings for one user and
// writes them to any service.Wardrobe.
type WardrobeBuilder struct {
	now     time.Time
	t       testing.TB
	userID  string
	items   []model.WardrobeItem
	wears   []model.WearEvent
	ratings []model.OutfitRating
}

// NewWardrobeBuilder creates a builder; relative dates count back from now.
func NewWardrobeBuilder(t testing.TB, userID string, now time.Time) *WardrobeBuilder {
	return &WardrobeBuilder{t: t, userID: userID, now: now}
}

// WithItem adds an item bought 30 days before now for 50 unless options say otherwise.
func (b *WardrobeBuilder) WithItem(id, category string, opts ...ItemOption) *WardrobeBuilder {
	item := model.WardrobeItem{
		ID:            id,
		UserID:        b.userID,
		Name:          id,
		Category:      category,
		PurchasePrice: 50,
		PurchaseDate:  b.now.Add(-30 * day),
	}
	for _, opt := range opts {
		opt(&item)
	}
	b.items = append(b.items, item)
	return b
}

// WornAt records wears of itemID at the given times.
func (b *WardrobeBuilder) WornAt(itemID string, times ...time.Time) *WardrobeBuilder {
	for _, at := range times {
		b.wears = append(b.wears, model.WearEvent{
			ID:     fmt.Sprintf("wear-%04d", len(b.wears)+1),
			ItemID: itemID,
			UserID: b.userID,
			WornAt: at,
		})
	}
	return b
}

// WornDaysAgo records wears of itemID the given number of days before now.
func (b *WardrobeBuilder) WornDaysAgo(itemID string, days ...int) *WardrobeBuilder {
	for _, d := range days {
		b.WornAt(itemID, b.now.Add(-time.Duration(d)*day))
	}
	return b
}

// Rated records an outfit rating for the items worn on the given date.
func (b *WardrobeBuilder) Rated(rating float64, on time.Time, itemIDs ...string) *WardrobeBuilder {
	b.ratings = append(b.ratings, model.OutfitRating{
		ID:      fmt.Sprintf("rating-%04d", len(b.ratings)+1),
		UserID:  b.userID,
		ItemIDs: itemIDs,
		Rating:  rating,
		WornOn:  on,
	})
	return b
}

// Build writes the fixture to w. Items marked Deleted are tombstoned last so
// their wear history can be recorded first.
func (b *WardrobeBuilder) Build(ctx context.Context, w service.Wardrobe) error {
	for _, item := range b.items {
		saved := item
		saved.DeletedAt = nil
		if err := w.SaveItem(ctx, &saved); err != nil {
			return fmt.Errorf("item %s: %w", item.ID, err)
		}
	}
	for i := range b.wears {
		if err := w.RecordWear(ctx, &b.wears[i]); err != nil {
			return fmt.Errorf("wear %s: %w", b.wears[i].ID, err)
		}
	}
	for i := range b.ratings {
		if err := w.SaveOutfitRating(ctx, &b.ratings[i]); err != nil {
			return fmt.Errorf("rating %s: %w", b.ratings[i].ID, err)
		}
	}
	for _, item := range b.items {
		if item.DeletedAt == nil {
			continue
		}
		if err := w.TombstoneItem(ctx, item.ID, *item.DeletedAt); err != nil {
			return fmt.Errorf("tombstone %s: %w", item.ID, err)
		}
	}
	return nil
}

// Memory builds the fixture into a fresh in-memory ledger.
func (b *WardrobeBuilder) Memory() *storage.MemoryLedger {
	b.t.Helper()
	ledger := storage.NewMemoryLedger()
	if err := b.Build(context.Background(), ledger); err != nil {
		b.t.Fatalf("failed to build wardrobe: %v", err)
	}
	return ledger
}
