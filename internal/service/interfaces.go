// Package service defines the contracts shared between the analytics engine
// and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/model"
)

// DateRange is a half-open time window [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// MonthRange returns the calendar month [first day, first day of next month) in loc.
func MonthRange(year int, month time.Month, loc *time.Location) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return DateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// ItemListOptions filters ListItems.
type ItemListOptions struct {
	Category          string
	IncludeTombstoned bool
}

// WearEventFilter selects wear events by item or by user. Exactly one of
// ItemID and UserID must be set; Range is optional.
type WearEventFilter struct {
	Range  *DateRange
	ItemID string
	UserID string
}

// ChallengeProgressUpdate is a compare-and-swap request against a challenge row.
// The update applies only if the stored progress still equals ExpectedProgress.
type ChallengeProgressUpdate struct {
	CompletedAt      *time.Time
	ChallengeID      string
	WornItemIDs      []string
	ExpectedProgress int
	NewProgress      int
}

// Ledger is the read side of the wardrobe store plus the challenge records the
// engine owns. Implementations return errors wrapping common.ErrNotFound,
// common.ErrConflict or common.ErrLedgerUnavailable.
type Ledger interface {
	GetItem(ctx context.Context, itemID string) (*model.WardrobeItem, error)
	ListItems(ctx context.Context, userID string, opts ItemListOptions) ([]model.WardrobeItem, error)
	ListWearEvents(ctx context.Context, filter WearEventFilter) ([]model.WearEvent, error)
	ListOutfitRatings(ctx context.Context, userID string, dateRange DateRange) ([]model.OutfitRating, error)

	GetChallenge(ctx context.Context, challengeID string) (*model.RediscoveryChallenge, error)
	// GetActiveChallenge returns nil and no error when the user has no
	// challenge that is both incomplete and unexpired at now.
	GetActiveChallenge(ctx context.Context, userID string, now time.Time) (*model.RediscoveryChallenge, error)
	CreateChallenge(ctx context.Context, challenge *model.RediscoveryChallenge) (*model.RediscoveryChallenge, error)
	UpdateChallengeProgress(ctx context.Context, update ChallengeProgressUpdate) (*model.RediscoveryChallenge, error)
}

// WardrobeWriter is the write side used by importers and the CLI. Wear events
// and ratings are append-only, so there is no way to edit or remove them.
type WardrobeWriter interface {
	SaveItem(ctx context.Context, item *model.WardrobeItem) error
	UpdateItemDetails(ctx context.Context, itemID, name string, tags []string) error
	TombstoneItem(ctx context.Context, itemID string, at time.Time) error
	RecordWear(ctx context.Context, event *model.WearEvent) error
	SaveOutfitRating(ctx context.Context, rating *model.OutfitRating) error
}

// Wardrobe is a full read/write store.
type Wardrobe interface {
	Ledger
	WardrobeWriter
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.T
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	// RetryOn decides whether an error is worth another attempt.
	RetryOn      func(error) bool
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
