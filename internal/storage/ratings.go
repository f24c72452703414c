package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// SaveOutfitRating appends a confidence rating.
func (s *SQLiteStorage) SaveOutfitRating(ctx context.Context, rating *model.OutfitRating) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRating(rating); err != nil {
		return err
	}

	itemIDs, err := json.Marshal(rating.ItemIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal item IDs: %w", err)
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = stamp(s.now())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outfit_ratings (id, user_id, outfit_id, item_ids, rating, worn_on, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rating.ID, rating.UserID, rating.OutfitID, string(itemIDs), rating.Rating,
		stamp(rating.WornOn), rating.Note, stamp(rating.CreatedAt))
	if err != nil {
		return common.Unavailable("insert outfit rating", err)
	}

	slog.Debug("saved outfit rating", "rating_id", rating.ID, "rating", rating.Rating)
	return nil
}

// ListOutfitRatings returns a user's ratings whose worn date is in dateRange.
func (s *SQLiteStorage) ListOutfitRatings(ctx context.Context, userID string, dateRange service.DateRange) ([]model.OutfitRating, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateDateRange(dateRange); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, outfit_id, item_ids, rating, worn_on, note, created_at
		FROM outfit_ratings
		WHERE user_id = ? AND worn_on >= ? AND worn_on < ?
		ORDER BY worn_on, id`,
		userID, stamp(dateRange.Start), stamp(dateRange.End))
	if err != nil {
		return nil, common.Unavailable("list outfit ratings", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var ratings []model.OutfitRating
	for rows.Next() {
		var (
			r       model.OutfitRating
			itemIDs string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.OutfitID, &itemIDs, &r.Rating, &r.WornOn, &r.Note, &r.CreatedAt); err != nil {
			return nil, common.Unavailable("scan outfit rating", err)
		}
		if err := json.Unmarshal([]byte(itemIDs), &r.ItemIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item IDs for rating %s: %w", r.ID, err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Unavailable("iterate outfit ratings", err)
	}
	return ratings, nil
}
