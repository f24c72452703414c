package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

const itemColumns = `id, user_id, name, category, brand, colors, tags, image_uri,
	purchase_price, purchase_date, created_at, updated_at, deleted_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.WardrobeItem, error) {
	var (
		item                 model.WardrobeItem
		colorsJSON, tagsJSON string
		deletedAt            sql.NullTime
	)
	if err := row.Scan(
		&item.ID, &item.UserID, &item.Name, &item.Category, &item.Brand,
		&colorsJSON, &tagsJSON, &item.ImageURI, &item.PurchasePrice,
		&item.PurchaseDate, &item.CreatedAt, &item.UpdatedAt, &deletedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(colorsJSON), &item.Colors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal colors for item %s: %w", item.ID, err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags for item %s: %w", item.ID, err)
	}
	item.DeletedAt = fromNull(deletedAt)
	return &item, nil
}

func marshalLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveItem inserts a new wardrobe item. Category, colors and tags are
// normalized before they are stored.
func (s *SQLiteStorage) SaveItem(ctx context.Context, item *model.WardrobeItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	item.Normalize()
	if err := validateItem(item); err != nil {
		return err
	}

	colors, err := marshalLabels(item.Colors)
	if err != nil {
		return fmt.Errorf("failed to marshal colors: %w", err)
	}
	tags, err := marshalLabels(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := stamp(s.now())
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Name, item.Category, item.Brand,
		colors, tags, item.ImageURI, item.PurchasePrice,
		stamp(item.PurchaseDate), stamp(item.CreatedAt), item.UpdatedAt, nullStamp(item.DeletedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: item %s already exists", common.ErrInvalidInput, item.ID)
		}
		return common.Unavailable("insert item", err)
	}

	slog.Debug("saved wardrobe item", "item_id", item.ID, "category", item.Category)
	return nil
}

// GetItem retrieves an item by ID. Tombstoned items are returned with
// DeletedAt set; callers decide whether they count.
func (s *SQLiteStorage) GetItem(ctx context.Context, itemID string) (*model.WardrobeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.Unavailable("get item", err)
	}
	return item, nil
}

// ListItems returns a user's items ordered by purchase date.
func (s *SQLiteStorage) ListItems(ctx context.Context, userID string, opts service.ItemListOptions) ([]model.WardrobeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = ?`
	args := []any{userID}
	if !opts.IncludeTombstoned {
		query += ` AND deleted_at IS NULL`
	}
	if opts.Category != "" {
		query += ` AND category = ?`
		args = append(args, model.NormalizeLabel(opts.Category))
	}
	query += ` ORDER BY purchase_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Unavailable("list items", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []model.WardrobeItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, common.Unavailable("scan item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Unavailable("iterate items", err)
	}
	return items, nil
}

// UpdateItemDetails applies a soft edit: the user-facing name and the tags.
// Every other field is immutable once the item is created.
func (s *SQLiteStorage) UpdateItemDetails(ctx context.Context, itemID, name string, tags []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return err
	}

	tagsJSON, err := marshalLabels(model.NormalizeLabels(tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET name = ?, tags = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		strings.TrimSpace(name), tagsJSON, stamp(s.now()), itemID)
	if err != nil {
		return common.Unavailable("update item", err)
	}
	return requireRow(result, "item", itemID)
}

// TombstoneItem marks an item deleted at the given time. Wear history is kept.
func (s *SQLiteStorage) TombstoneItem(ctx context.Context, itemID string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		stamp(at), stamp(s.now()), itemID)
	if err != nil {
		return common.Unavailable("tombstone item", err)
	}
	return requireRow(result, "item", itemID)
}

func requireRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return common.Unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}
	return nil
}
