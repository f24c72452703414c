package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// WearEvent records one "marked as worn" action. Wear events are append-only.
type WearEvent struct {
	WornAt time.Time `json:"worn_at"`
	ID     string    `json:"id"`
	ItemID string    `json:"item_id"`
	UserID string    `json:"user_id"`
}

// Validate ensures the wear event references an item and a time.
func (w *WearEvent) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("wear event ID is required")
	}
	if strings.TrimSpace(w.ItemID) == "" {
		return fmt.Errorf("wear event item ID is required")
	}
	if strings.TrimSpace(w.UserID) == "" {
		return fmt.Errorf("wear event user ID is required")
	}
	if w.WornAt.IsZero() {
		return fmt.Errorf("wear event time is required")
	}
	return nil
}

// Rating bounds for OutfitRating.Rating.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// OutfitRating is a confidence score for an outfit worn on a given date.
// Ratings are append-only.
type OutfitRating struct {
	WornOn    time.Time `json:"worn_on"`
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OutfitID  string    `json:"outfit_id,omitempty"`
	Note      string    `json:"note,omitempty"`
	ItemIDs   []string  `json:"item_ids"`
	Rating    float64   `json:"rating"`
}

// Validate ensures the rating is in range and names at least one item.
func (r *OutfitRating) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("rating ID is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("rating user ID is required")
	}
	if len(r.ItemIDs) == 0 {
		return fmt.Errorf("rating must reference at least one item")
	}
	// Written so NaN fails the range check.
	if !(r.Rating >= MinRating && r.Rating <= MaxRating) {
		return fmt.Errorf("rating must be between %.0f and %.0f, got %.2f", MinRating, MaxRating, r.Rating)
	}
	if r.WornOn.IsZero() {
		return fmt.Errorf("rating worn date is required")
	}
	return nil
}

// OutfitKey identifies the rated outfit: the explicit outfit ID when present,
// otherwise the sorted set of item IDs.
func (r *OutfitRating) OutfitKey() string {
	if r.OutfitID != "" {
		return r.OutfitID
	}
	ids := slices.Clone(r.ItemIDs)
	slices.Sort(ids)
	return strings.Join(slices.Compact(ids), ",")
}

// DistinctItemIDs returns the rated item IDs without duplicates.
func (r *OutfitRating) DistinctItemIDs() []string {
	ids := slices.Clone(r.ItemIDs)
	slices.Sort(ids)
	return slices.Compact(ids)
}
