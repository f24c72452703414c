package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// ErrNoEligibleItems means the user owns nothing a challenge could target.
var ErrNoEligibleItems = fmt.Errorf("no eligible items for a challenge: %w", common.ErrNotFound)

// conflictBackoff is the first pause between compare-and-swap attempts.
const conflictBackoff = 5 * time.Millisecond

type challengeText struct {
	title       string
	description string
	reward      string
}

var challengeTexts = map[model.ChallengeType]challengeText{
	model.ChallengeNeglectedItems: {
		title:       "Rediscover Your Closet",
		description: "Wear %d pieces you haven't reached for in a while.",
		reward:      "Closet Rediscoverer badge",
	},
	model.ChallengeColorExploration: {
		title:       "Color Exploration",
		description: "Build outfits around %d pieces that bring different colors back into rotation.",
		reward:      "Color Explorer badge",
	},
	model.ChallengeStyleMixing: {
		title:       "Style Mixing",
		description: "Mix %d forgotten pieces from different categories into new outfits.",
		reward:      "Style Mixer badge",
	},
}

// ChallengeBuilder issues rediscovery challenges and tracks their progress.
type ChallengeBuilder struct {
	ledger   service.Ledger
	clock    service.Clock
	recorder Recorder
	duration time.Duration
	size     int
	attempts int
}

// NewChallengeBuilder creates a builder using cfg's challenge policy.
func NewChallengeBuilder(deps Deps, cfg Config) *ChallengeBuilder {
	deps = deps.withDefaults()
	return &ChallengeBuilder{
		ledger:   deps.Ledger,
		clock:    deps.Clock,
		recorder: deps.Recorder,
		duration: cfg.ChallengeDuration,
		size:     cfg.ChallengeSize,
		attempts: cfg.ConflictAttempts,
	}
}

// CreateChallenge returns the user's active challenge if there is one;
// otherwise it selects neglected items and persists a new challenge. An empty
// challengeType means neglected_items.
func (b *ChallengeBuilder) CreateChallenge(ctx context.Context, userID string, challengeType model.ChallengeType) (*model.RediscoveryChallenge, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user ID is required", common.ErrInvalidInput)
	}
	if challengeType == "" {
		challengeType = model.ChallengeNeglectedItems
	}
	if !challengeType.Valid() {
		return nil, fmt.Errorf("%w: unknown challenge type %q", common.ErrInvalidInput, challengeType)
	}

	now := b.clock.Now()
	active, err := b.ledger.GetActiveChallenge(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check active challenge: %w", err)
	}
	if active != nil {
		slog.Debug("returning active challenge", "challenge_id", active.ID, "user_id", userID)
		return active, nil
	}

	items, err := b.ledger.ListItems(ctx, userID, service.ItemListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load wardrobe: %w", err)
	}
	wears, err := b.ledger.ListWearEvents(ctx, service.WearEventFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load wear history: %w", err)
	}

	targets := selectTargets(challengeType, rankNeglected(items, lastWornByItem(wears)), b.size)
	if len(targets) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNoEligibleItems)
	}

	text := challengeTexts[challengeType]
	challenge := &model.RediscoveryChallenge{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          challengeType,
		Title:         text.title,
		Description:   fmt.Sprintf(text.description, len(targets)),
		Reward:        text.reward,
		TargetItemIDs: itemIDs(targets),
		WornItemIDs:   []string{},
		TotalItems:    len(targets),
		CreatedAt:     now,
		ExpiresAt:     now.Add(b.duration),
	}

	created, err := b.ledger.CreateChallenge(ctx, challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to save challenge: %w", err)
	}
	return created, nil
}

// MarkItemWorn counts itemID toward the challenge. Repeated wears of a
// counted item change nothing. The progress write is a compare-and-swap
// against the stored progress and is retried a bounded number of times when
// another writer gets there first.
func (b *ChallengeBuilder) MarkItemWorn(ctx context.Context, challengeID, itemID string) (*model.RediscoveryChallenge, error) {
	challenge, err := b.ledger.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	item, err := b.ledger.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item.IsTombstoned() {
		return nil, fmt.Errorf("item %s was deleted: %w", itemID, common.ErrNotFound)
	}

	var result *model.RediscoveryChallenge
	attempt := func() error {
		if challenge == nil {
			reloaded, getErr := b.ledger.GetChallenge(ctx, challengeID)
			if getErr != nil {
				return getErr
			}
			challenge = reloaded
		}
		updated, advErr := b.advance(ctx, challenge, itemID)
		if errors.Is(advErr, common.ErrConflict) {
			b.recorder.ObserveConflict()
			challenge = nil
		}
		result = updated
		return advErr
	}

	err = common.WithRetry(ctx, attempt, service.RetryOptions{
		MaxAttempts:  b.attempts,
		InitialDelay: conflictBackoff,
		MaxDelay:     10 * conflictBackoff,
		Multiplier:   2,
		RetryOn:      func(err error) bool { return errors.Is(err, common.ErrConflict) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark item worn: %w", err)
	}
	return result, nil
}

// advance computes the next state of c from its stored state and submits it.
func (b *ChallengeBuilder) advance(ctx context.Context, c *model.RediscoveryChallenge, itemID string) (*model.RediscoveryChallenge, error) {
	now := b.clock.Now()
	if !c.IsActive(now) {
		return nil, fmt.Errorf("challenge %s: %w", c.ID, common.ErrNotActive)
	}
	if !c.Targets(itemID) {
		return nil, fmt.Errorf("item %s in challenge %s: %w", itemID, c.ID, common.ErrNotTargeted)
	}
	if c.HasCounted(itemID) {
		return c, nil
	}

	worn := append(slices.Clone(c.WornItemIDs), itemID)
	update := service.ChallengeProgressUpdate{
		ChallengeID:      c.ID,
		ExpectedProgress: c.Progress,
		NewProgress:      len(worn),
		WornItemIDs:      worn,
	}
	if update.NewProgress == c.TotalItems {
		update.CompletedAt = &now
	}

	updated, err := b.ledger.UpdateChallengeProgress(ctx, update)
	if err != nil {
		return nil, err
	}
	slog.Info("challenge progress",
		"challenge_id", c.ID,
		"item_id", itemID,
		"progress", updated.Progress,
		"total", updated.TotalItems,
		"completed", updated.IsCompleted())
	return updated, nil
}
