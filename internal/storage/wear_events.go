package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// RecordWear appends a wear event. The item must exist and not be tombstoned.
func (s *SQLiteStorage) RecordWear(ctx context.Context, event *model.WearEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateWear(event); err != nil {
		return err
	}

	item, err := s.GetItem(ctx, event.ItemID)
	if err != nil {
		return err
	}
	if item.IsTombstoned() {
		return fmt.Errorf("item %s was deleted: %w", item.ID, common.ErrNotFound)
	}
	if item.UserID != event.UserID {
		return fmt.Errorf("%w: item %s does not belong to user %s", common.ErrInvalidInput, item.ID, event.UserID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wear_events (id, item_id, user_id, worn_at) VALUES (?, ?, ?, ?)`,
		event.ID, event.ItemID, event.UserID, stamp(event.WornAt))
	if err != nil {
		return common.Unavailable("insert wear event", err)
	}

	slog.Debug("recorded wear", "item_id", event.ItemID, "worn_at", event.WornAt)
	return nil
}

// ListWearEvents returns wear events for one item or one user, oldest first.
func (s *SQLiteStorage) ListWearEvents(ctx context.Context, filter service.WearEventFilter) ([]model.WearEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateWearFilter(filter); err != nil {
		return nil, err
	}

	query := `SELECT id, item_id, user_id, worn_at FROM wear_events WHERE `
	var args []any
	if filter.ItemID != "" {
		query += `item_id = ?`
		args = append(args, filter.ItemID)
	} else {
		query += `user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Range != nil {
		query += ` AND worn_at >= ? AND worn_at < ?`
		args = append(args, stamp(filter.Range.Start), stamp(filter.Range.End))
	}
	query += ` ORDER BY worn_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Unavailable("list wear events", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var events []model.WearEvent
	for rows.Next() {
		var e model.WearEvent
		if err := rows.Scan(&e.ID, &e.ItemID, &e.UserID, &e.WornAt); err != nil {
			return nil, common.Unavailable("scan wear event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Unavailable("iterate wear events", err)
	}
	return events, nil
}
