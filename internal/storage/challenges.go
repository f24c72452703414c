package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

const challengeColumns = `id, user_id, type, title, description, reward, target_item_ids,
	worn_item_ids, progress, total_items, created_at, expires_at, completed_at`

func scanChallenge(row rowScanner) (*model.RediscoveryChallenge, error) {
	var (
		c                     model.RediscoveryChallenge
		challengeType         string
		targetsJSON, wornJSON string
		completedAt           sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.UserID, &challengeType, &c.Title, &c.Description, &c.Reward,
		&targetsJSON, &wornJSON, &c.Progress, &c.TotalItems,
		&c.CreatedAt, &c.ExpiresAt, &completedAt,
	); err != nil {
		return nil, err
	}
	c.Type = model.ChallengeType(challengeType)
	if err := json.Unmarshal([]byte(targetsJSON), &c.TargetItemIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal targets for challenge %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(wornJSON), &c.WornItemIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal worn items for challenge %s: %w", c.ID, err)
	}
	if c.WornItemIDs == nil {
		c.WornItemIDs = []string{}
	}
	c.CompletedAt = fromNull(completedAt)
	return &c, nil
}

// GetChallenge retrieves a challenge by ID.
func (s *SQLiteStorage) GetChallenge(ctx context.Context, challengeID string) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(challengeID, "challengeID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, challengeID)
	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.Unavailable("get challenge", err)
	}
	return c, nil
}

// GetActiveChallenge returns the user's newest challenge that is neither
// completed nor expired at now, or nil if there is none.
func (s *SQLiteStorage) GetActiveChallenge(ctx context.Context, userID string, now time.Time) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+challengeColumns+` FROM challenges
		WHERE user_id = ? AND completed_at IS NULL AND expires_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		userID, stamp(now))
	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.Unavailable("get active challenge", err)
	}
	return c, nil
}

// CreateChallenge persists a new challenge and returns the stored copy.
func (s *SQLiteStorage) CreateChallenge(ctx context.Context, challenge *model.RediscoveryChallenge) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if challenge != nil && challenge.WornItemIDs == nil {
		challenge.WornItemIDs = []string{}
	}
	if err := validateChallenge(challenge); err != nil {
		return nil, err
	}

	targets, err := json.Marshal(challenge.TargetItemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal targets: %w", err)
	}
	worn, err := json.Marshal(challenge.WornItemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal worn items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO challenges (`+challengeColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		challenge.ID, challenge.UserID, string(challenge.Type), challenge.Title,
		challenge.Description, challenge.Reward, string(targets), string(worn),
		challenge.Progress, challenge.TotalItems,
		stamp(challenge.CreatedAt), stamp(challenge.ExpiresAt), nullStamp(challenge.CompletedAt),
		stamp(s.now()),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: challenge %s already exists", common.ErrInvalidInput, challenge.ID)
		}
		return nil, common.Unavailable("insert challenge", err)
	}

	slog.Info("created challenge",
		"challenge_id", challenge.ID,
		"user_id", challenge.UserID,
		"type", challenge.Type,
		"targets", challenge.TotalItems)

	stored := *challenge
	stored.TargetItemIDs = slices.Clone(challenge.TargetItemIDs)
	stored.WornItemIDs = slices.Clone(challenge.WornItemIDs)
	return &stored, nil
}

// UpdateChallengeProgress applies u only if the stored progress still equals
// u.ExpectedProgress and the challenge is not completed. A lost race returns
// an error wrapping common.ErrConflict.
func (s *SQLiteStorage) UpdateChallengeProgress(ctx context.Context, u service.ChallengeProgressUpdate) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateProgressUpdate(u); err != nil {
		return nil, err
	}

	current, err := s.GetChallenge(ctx, u.ChallengeID)
	if err != nil {
		return nil, err
	}
	if err := checkProgressUpdate(current, u); err != nil {
		return nil, err
	}

	worn, err := json.Marshal(u.WornItemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal worn items: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE challenges
		SET progress = ?, worn_item_ids = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND progress = ? AND completed_at IS NULL`,
		u.NewProgress, string(worn), nullStamp(u.CompletedAt), stamp(s.now()),
		u.ChallengeID, u.ExpectedProgress)
	if err != nil {
		return nil, common.Unavailable("update challenge progress", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, common.Unavailable("rows affected", err)
	}
	if n == 0 {
		// Someone else moved the row between our read and write.
		if _, getErr := s.GetChallenge(ctx, u.ChallengeID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("challenge %s changed concurrently: %w", u.ChallengeID, common.ErrConflict)
	}

	return s.GetChallenge(ctx, u.ChallengeID)
}
