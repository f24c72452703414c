package importer

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
	"github.com/Veraticus/the-closet-must-flow/internal/storage"
)

const sampleExport = `{
  "items": [
    {"id": "coat", "name": "Wool coat", "category": "Outerwear", "colors": ["Camel"], "purchase_price": 240, "purchase_date": "2025-10-01T00:00:00Z"},
    {"id": "tee", "category": "tops", "purchase_price": 20, "purchase_date": "2026-01-15T00:00:00Z"},
    {"id": "old-boots", "category": "shoes", "purchase_price": 90, "purchase_date": "2024-02-01T00:00:00Z", "deleted_at": "2026-02-01T00:00:00Z"}
  ],
  "wear_events": [
    {"id": "w1", "item_id": "coat", "worn_at": "2026-02-03T08:00:00Z"},
    {"item_id": "old-boots", "worn_at": "2025-12-24T08:00:00Z"}
  ],
  "ratings": [
    {"item_ids": ["coat", "tee"], "rating": 4.5, "worn_on": "2026-02-03T00:00:00Z"}
  ]
}`

func decodeSample(t *testing.T) *Export {
	t.Helper()
	exp, err := Decode(strings.NewReader(sampleExport))
	require.NoError(t, err)
	return exp
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	ledger := storage.NewMemoryLedger()
	var progress bytes.Buffer

	stats, err := New(ledger, Options{UserID: "me", Progress: &progress}).Import(ctx, decodeSample(t))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, 2, stats.WearEvents)
	assert.Equal(t, 1, stats.Ratings)
	assert.Equal(t, 1, stats.Tombstoned)
	assert.Contains(t, progress.String(), "Importing wardrobe")

	items, err := ledger.ListItems(ctx, "me", service.ItemListOptions{})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	boots, err := ledger.GetItem(ctx, "old-boots")
	require.NoError(t, err)
	assert.True(t, boots.IsTombstoned())

	wears, err := ledger.ListWearEvents(ctx, service.WearEventFilter{UserID: "me"})
	require.NoError(t, err)
	require.Len(t, wears, 2)
	assert.NotEmpty(t, wears[0].ID)
	assert.Equal(t, "old-boots", wears[0].ItemID)

	coat, err := ledger.GetItem(ctx, "coat")
	require.NoError(t, err)
	assert.Equal(t, "outerwear", coat.Category)
	assert.Equal(t, []string{"camel"}, coat.Colors)
}

func TestImporter_CheckpointsFirst(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "closet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	_, err = New(store, Options{UserID: "me", Checkpoints: cm}).Import(ctx, decodeSample(t))
	require.NoError(t, err)

	checkpoints, err := cm.List(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)
	assert.True(t, checkpoints[0].IsAuto)
	assert.Zero(t, checkpoints[0].Items())

	items, err := store.ListItems(ctx, "me", service.ItemListOptions{IncludeTombstoned: true})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestImporter_RejectsInvalidExportBeforeWriting(t *testing.T) {
	ctx := context.Background()
	exp := decodeSample(t)
	exp.Ratings[0].Rating = 7

	ledger := storage.NewMemoryLedger()
	_, err := New(ledger, Options{UserID: "me"}).Import(ctx, exp)
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Contains(t, err.Error(), "ratings[0]")

	items, err := ledger.ListItems(ctx, "me", service.ItemListOptions{IncludeTombstoned: true})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestImporter_RequiresUser(t *testing.T) {
	_, err := New(storage.NewMemoryLedger(), Options{}).Import(context.Background(), decodeSample(t))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestImporter_StopsAtFirstFailedWrite(t *testing.T) {
	ctx := context.Background()
	ledger := storage.NewMemoryLedger()
	im := New(ledger, Options{UserID: "me"})

	_, err := im.Import(ctx, decodeSample(t))
	require.NoError(t, err)

	stats, err := im.Import(ctx, decodeSample(t))
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Zero(t, stats.Items)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"items": [], "transactions": []}`))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = Decode(strings.NewReader(`not json`))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
