package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

var testEpoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// forEachWardrobe runs fn against every Wardrobe implementation.
func forEachWardrobe(t *testing.T, fn func(t *testing.T, w service.Wardrobe)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()
		fn(t, store)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryLedger())
	})
}

func testItem(id, category string, daysOld int) *model.WardrobeItem {
	return &model.WardrobeItem{
		ID:            id,
		UserID:        "user-1",
		Name:          "Item " + id,
		Category:      category,
		Colors:        []string{"Navy", "white"},
		Tags:          []string{"casual"},
		PurchasePrice: 80,
		PurchaseDate:  testEpoch.AddDate(0, 0, -daysOld),
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("")
		require.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(context.Background()))

		_, err = store.NewCheckpointManager()
		assert.Error(t, err)
	})

	t.Run("creates parent directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "closet.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.Equal(t, dbPath, store.Path())
	})
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"items", "wear_events", "outfit_ratings", "challenges", "checkpoint_metadata"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestWardrobe_Items(t *testing.T) {
	forEachWardrobe(t, func(t *testing.T, w service.Wardrobe) {
		ctx := context.Background()

		require.NoError(t, w.SaveItem(ctx, testItem("shirt-1", " Tops ", 30)))
		require.NoError(t, w.SaveItem(ctx, testItem("shirt-2", "tops", 10)))
		require.NoError(t, w.SaveItem(ctx, testItem("jeans-1", "bottoms", 20)))

		got, err := w.GetItem(ctx, "shirt-1")
		require.NoError(t, err)
		assert.Equal(t, "tops", got.Category)
		assert.Equal(t, []string{"navy", "white"}, got.Colors)
		assert.True(t, got.PurchaseDate.Equal(testEpoch.AddDate(0, 0, -30)))
		assert.False(t, got.IsTombstoned())

		t.Run("duplicate id", func(t *testing.T) {
			err := w.SaveItem(ctx, testItem("shirt-1", "tops", 1))
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})

		t.Run("invalid item", func(t *testing.T) {
			item := testItem("bad", "tops", 1)
			item.PurchasePrice = -1
			assert.ErrorIs(t, w.SaveItem(ctx, item), common.ErrInvalidInput)
			assert.ErrorIs(t, w.SaveItem(ctx, nil), common.ErrInvalidInput)
		})

		t.Run("non-finite price", func(t *testing.T) {
			for _, price := range []float64{math.Inf(1), math.NaN()} {
				item := testItem("inf", "tops", 1)
				item.PurchasePrice = price
				assert.ErrorIs(t, w.SaveItem(ctx, item), common.ErrInvalidInput, "price %v", price)
			}
			_, err := w.GetItem(ctx, "inf")
			assert.ErrorIs(t, err, common.ErrNotFound)
		})

		t.Run("missing item", func(t *testing.T) {
			_, err := w.GetItem(ctx, "nope")
			assert.ErrorIs(t, err, common.ErrNotFound)
		})

		t.Run("list by category in purchase order", func(t *testing.T) {
			items, err := w.ListItems(ctx, "user-1", service.ItemListOptions{Category: "TOPS"})
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, "shirt-1", items[0].ID)
			assert.Equal(t, "shirt-2", items[1].ID)
		})

		t.Run("other users see nothing", func(t *testing.T) {
			items, err := w.ListItems(ctx, "user-2", service.ItemListOptions{})
			require.NoError(t, err)
			assert.Empty(t, items)
		})

		t.Run("update details", func(t *testing.T) {
			require.NoError(t, w.UpdateItemDetails(ctx, "jeans-1", "  Favorite jeans ", []string{"Denim", "denim"}))
			got, err := w.GetItem(ctx, "jeans-1")
			require.NoError(t, err)
			assert.Equal(t, "Favorite jeans", got.Name)
			assert.Equal(t, []string{"denim"}, got.Tags)
			assert.Equal(t, "bottoms", got.Category)
		})

		t.Run("tombstone", func(t *testing.T) {
			at := testEpoch.Add(-time.Hour)
			require.NoError(t, w.TombstoneItem(ctx, "shirt-2", at))

			items, err := w.ListItems(ctx, "user-1", service.ItemListOptions{})
			require.NoError(t, err)
			assert.Len(t, items, 2)

			all, err := w.ListItems(ctx, "user-1", service.ItemListOptions{IncludeTombstoned: true})
			require.NoError(t, err)
			assert.Len(t, all, 3)

			got, err := w.GetItem(ctx, "shirt-2")
			require.NoError(t, err)
			require.NotNil(t, got.DeletedAt)
			assert.True(t, got.DeletedAt.Equal(at))

			assert.ErrorIs(t, w.TombstoneItem(ctx, "shirt-2", at), common.ErrNotFound)
			assert.ErrorIs(t, w.UpdateItemDetails(ctx, "shirt-2", "x", nil), common.ErrNotFound)
		})
	})
}

func TestWardrobe_WearEvents(t *testing.T) {
	forEachWardrobe(t, func(t *testing.T, w service.Wardrobe) {
		ctx := context.Background()
		require.NoError(t, w.SaveItem(ctx, testItem("a", "tops", 60)))
		require.NoError(t, w.SaveItem(ctx, testItem("b", "tops", 60)))

		wears := []model.WearEvent{
			{ID: "w3", ItemID: "a", UserID: "user-1", WornAt: testEpoch.AddDate(0, 0, -1)},
			{ID: "w1", ItemID: "a", UserID: "user-1", WornAt: testEpoch.AddDate(0, 0, -20)},
			{ID: "w2", ItemID: "b", UserID: "user-1", WornAt: testEpoch.AddDate(0, 0, -10)},
		}
		for i := range wears {
			require.NoError(t, w.RecordWear(ctx, &wears[i]))
		}

		t.Run("by item oldest first", func(t *testing.T) {
			events, err := w.ListWearEvents(ctx, service.WearEventFilter{ItemID: "a"})
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, "w1", events[0].ID)
			assert.Equal(t, "w3", events[1].ID)
		})

		t.Run("by user in range", func(t *testing.T) {
			r := service.DateRange{Start: testEpoch.AddDate(0, 0, -15), End: testEpoch}
			events, err := w.ListWearEvents(ctx, service.WearEventFilter{UserID: "user-1", Range: &r})
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, "w2", events[0].ID)
		})

		t.Run("filter needs exactly one key", func(t *testing.T) {
			_, err := w.ListWearEvents(ctx, service.WearEventFilter{})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			_, err = w.ListWearEvents(ctx, service.WearEventFilter{ItemID: "a", UserID: "user-1"})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})

		t.Run("unknown item", func(t *testing.T) {
			err := w.RecordWear(ctx, &model.WearEvent{ID: "w9", ItemID: "ghost", UserID: "user-1", WornAt: testEpoch})
			assert.ErrorIs(t, err, common.ErrNotFound)
		})

		t.Run("tombstoned item", func(t *testing.T) {
			require.NoError(t, w.TombstoneItem(ctx, "b", testEpoch))
			err := w.RecordWear(ctx, &model.WearEvent{ID: "w10", ItemID: "b", UserID: "user-1", WornAt: testEpoch})
			assert.ErrorIs(t, err, common.ErrNotFound)

			// History survives the tombstone.
			events, err := w.ListWearEvents(ctx, service.WearEventFilter{ItemID: "b"})
			require.NoError(t, err)
			assert.Len(t, events, 1)
		})

		t.Run("wrong owner", func(t *testing.T) {
			err := w.RecordWear(ctx, &model.WearEvent{ID: "w11", ItemID: "a", UserID: "user-2", WornAt: testEpoch})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	})
}

func TestWardrobe_OutfitRatings(t *testing.T) {
	forEachWardrobe(t, func(t *testing.T, w service.Wardrobe) {
		ctx := context.Background()
		march := service.MonthRange(2026, time.March, time.UTC)

		ratings := []model.OutfitRating{
			{ID: "r1", UserID: "user-1", ItemIDs: []string{"a", "b"}, Rating: 4, WornOn: march.Start},
			{ID: "r2", UserID: "user-1", ItemIDs: []string{"a"}, Rating: 2.5, WornOn: march.End},
			{ID: "r3", UserID: "user-1", OutfitID: "o1", ItemIDs: []string{"c"}, Rating: 5, WornOn: march.Start.AddDate(0, 0, 14)},
			{ID: "r4", UserID: "user-2", ItemIDs: []string{"z"}, Rating: 1, WornOn: march.Start.AddDate(0, 0, 2)},
		}
		for i := range ratings {
			require.NoError(t, w.SaveOutfitRating(ctx, &ratings[i]))
		}

		got, err := w.ListOutfitRatings(ctx, "user-1", march)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "r1", got[0].ID)
		assert.Equal(t, []string{"a", "b"}, got[0].ItemIDs)
		assert.Equal(t, "r3", got[1].ID)
		assert.Equal(t, "o1", got[1].OutfitID)

		t.Run("out of range rating", func(t *testing.T) {
			err := w.SaveOutfitRating(ctx, &model.OutfitRating{ID: "bad", UserID: "user-1", ItemIDs: []string{"a"}, Rating: 6, WornOn: testEpoch})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})

		t.Run("NaN rating", func(t *testing.T) {
			err := w.SaveOutfitRating(ctx, &model.OutfitRating{ID: "nan", UserID: "user-1", ItemIDs: []string{"a"}, Rating: math.NaN(), WornOn: testEpoch})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			assert.NotErrorIs(t, err, common.ErrLedgerUnavailable)

			got, err := w.ListOutfitRatings(ctx, "user-1", march)
			require.NoError(t, err)
			assert.Len(t, got, 2)
		})

		t.Run("inverted range", func(t *testing.T) {
			_, err := w.ListOutfitRatings(ctx, "user-1", service.DateRange{Start: march.End, End: march.Start})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	})
}
