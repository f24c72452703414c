// Package testutil provides ledger fixtures for tests across the closet packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-closet-must-flow/internal/service"
	"github.com/Veraticus/the-closet-must-flow/internal/storage"
)

// TestDB represents a migrated in-memory SQLite ledger.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	Wardrobe       *WardrobeBuilder
	CustomSetup    func(context.Context, service.Wardrobe) error
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory test database, optionally seeded.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewWardrobeBuilder(t, "me", now).
//			WithItem("tee", "tops", testutil.Price(20)).
//			WornDaysAgo("tee", 3, 10),
//	)
func SetupTestDB(t *testing.T, wardrobe *WardrobeBuilder) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Wardrobe: wardrobe})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.Wardrobe != nil {
		if err := opts.Wardrobe.Build(ctx, store); err != nil {
			t.Fatalf("failed to seed wardrobe: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}
