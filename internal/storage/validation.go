package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// Validation errors. All of them wrap common.ErrInvalidInput.
var (
	ErrNilContext       = fmt.Errorf("%w: context cannot be nil", common.ErrInvalidInput)
	ErrEmptyString      = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidInput)
	ErrNilParameter     = fmt.Errorf("%w: parameter cannot be nil", common.ErrInvalidInput)
	ErrInvalidDateRange = fmt.Errorf("%w: start date must be before end date", common.ErrInvalidInput)
	ErrInvalidFilter    = fmt.Errorf("%w: exactly one of item ID and user ID is required", common.ErrInvalidInput)
	ErrInvalidUpdate    = fmt.Errorf("%w: invalid challenge progress update", common.ErrInvalidInput)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateDateRange(r service.DateRange) error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %v is before start %v", ErrInvalidDateRange, r.End, r.Start)
	}
	return nil
}

func validateWearFilter(f service.WearEventFilter) error {
	if (f.ItemID == "") == (f.UserID == "") {
		return ErrInvalidFilter
	}
	if f.Range != nil {
		return validateDateRange(*f.Range)
	}
	return nil
}

// invalid wraps a model validation failure as common.ErrInvalidInput.
func invalid(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrInvalidInput, what, err)
}

func validateItem(item *model.WardrobeItem) error {
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if err := item.Validate(); err != nil {
		return invalid("item", err)
	}
	return nil
}

func validateWear(event *model.WearEvent) error {
	if event == nil {
		return fmt.Errorf("%w: wear event", ErrNilParameter)
	}
	if err := event.Validate(); err != nil {
		return invalid("wear event", err)
	}
	return nil
}

func validateRating(rating *model.OutfitRating) error {
	if rating == nil {
		return fmt.Errorf("%w: rating", ErrNilParameter)
	}
	if err := rating.Validate(); err != nil {
		return invalid("rating", err)
	}
	return nil
}

func validateChallenge(c *model.RediscoveryChallenge) error {
	if c == nil {
		return fmt.Errorf("%w: challenge", ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return invalid("challenge", err)
	}
	return nil
}

// validateProgressUpdate checks the shape of a CAS request; whether it applies
// is decided against the stored row.
func validateProgressUpdate(u service.ChallengeProgressUpdate) error {
	if err := validateString(u.ChallengeID, "challengeID"); err != nil {
		return err
	}
	switch {
	case u.ExpectedProgress < 0:
		return fmt.Errorf("%w: expected progress %d is negative", ErrInvalidUpdate, u.ExpectedProgress)
	case u.NewProgress < u.ExpectedProgress:
		return fmt.Errorf("%w: progress cannot decrease from %d to %d", ErrInvalidUpdate, u.ExpectedProgress, u.NewProgress)
	case u.NewProgress != len(u.WornItemIDs):
		return fmt.Errorf("%w: progress %d does not match %d worn items", ErrInvalidUpdate, u.NewProgress, len(u.WornItemIDs))
	}
	return nil
}

// checkProgressUpdate validates u against the currently stored challenge.
func checkProgressUpdate(current *model.RediscoveryChallenge, u service.ChallengeProgressUpdate) error {
	if current.Progress != u.ExpectedProgress || current.CompletedAt != nil {
		return fmt.Errorf("challenge %s at progress %d, expected %d: %w",
			current.ID, current.Progress, u.ExpectedProgress, common.ErrConflict)
	}
	next := *current
	next.Progress = u.NewProgress
	next.WornItemIDs = u.WornItemIDs
	next.CompletedAt = u.CompletedAt
	if err := next.Validate(); err != nil {
		return invalid("challenge progress", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
