package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Wardrobe items and wear history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS items (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					name TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL,
					brand TEXT NOT NULL DEFAULT '',
					colors TEXT NOT NULL DEFAULT '[]',
					tags TEXT NOT NULL DEFAULT '[]',
					image_uri TEXT NOT NULL DEFAULT '',
					purchase_price REAL NOT NULL DEFAULT 0,
					purchase_date DATETIME NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					deleted_at DATETIME
				)`,
				`CREATE INDEX idx_items_user ON items(user_id, deleted_at)`,
				`CREATE INDEX idx_items_user_category ON items(user_id, category)`,

				`CREATE TABLE IF NOT EXISTS wear_events (
					id TEXT PRIMARY KEY,
					item_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					worn_at DATETIME NOT NULL,
					FOREIGN KEY (item_id) REFERENCES items(id)
				)`,
				`CREATE INDEX idx_wear_events_item ON wear_events(item_id, worn_at)`,
				`CREATE INDEX idx_wear_events_user ON wear_events(user_id, worn_at)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Outfit confidence ratings",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS outfit_ratings (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					outfit_id TEXT NOT NULL DEFAULT '',
					item_ids TEXT NOT NULL,
					rating REAL NOT NULL CHECK (rating >= 1 AND rating <= 5),
					worn_on DATETIME NOT NULL,
					note TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_outfit_ratings_user_date ON outfit_ratings(user_id, worn_on)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Rediscovery challenges",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS challenges (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					type TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					reward TEXT NOT NULL DEFAULT '',
					target_item_ids TEXT NOT NULL,
					worn_item_ids TEXT NOT NULL DEFAULT '[]',
					progress INTEGER NOT NULL DEFAULT 0,
					total_items INTEGER NOT NULL,
					created_at DATETIME NOT NULL,
					expires_at DATETIME NOT NULL,
					completed_at DATETIME,
					updated_at DATETIME NOT NULL,
					CHECK (progress >= 0 AND progress <= total_items)
				)`,
				`CREATE INDEX idx_challenges_user_active ON challenges(user_id, completed_at, expires_at)`,
			})
		},
	},
	{
		Version:     4,
		Description: "Add checkpoint metadata table",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS checkpoint_metadata (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					description TEXT,
					file_size INTEGER,
					row_counts TEXT,
					schema_version INTEGER,
					is_auto BOOLEAN DEFAULT 0
				)`,
				`CREATE INDEX idx_checkpoint_metadata_created_at ON checkpoint_metadata(created_at)`,
			})
		},
	},
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, common.Unavailable("read schema version", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
