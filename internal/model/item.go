// Package model defines the wardrobe records and the computed analytics results.
package model

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// WardrobeItem is a single owned piece of clothing.
// Items are never hard-deleted; DeletedAt marks a tombstone so historical
// wear statistics stay reconstructable.
type WardrobeItem struct {
	PurchaseDate  time.Time  `json:"purchase_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	Brand         string     `json:"brand,omitempty"`
	ImageURI      string     `json:"image_uri,omitempty"`
	Colors        []string   `json:"colors,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	PurchasePrice float64    `json:"purchase_price"`
}

// IsTombstoned reports whether the item has been deleted by the user.
func (i *WardrobeItem) IsTombstoned() bool {
	return i.DeletedAt != nil
}

// OwnedAt reports whether the item was purchased before t and not yet deleted at t.
func (i *WardrobeItem) OwnedAt(t time.Time) bool {
	if !i.PurchaseDate.Before(t) {
		return false
	}
	return i.DeletedAt == nil || !i.DeletedAt.Before(t)
}

// HasColor reports whether the item carries the color, ignoring case.
func (i *WardrobeItem) HasColor(color string) bool {
	return slices.Contains(i.Colors, NormalizeLabel(color))
}

// HasTag reports whether the item carries the tag, ignoring case.
func (i *WardrobeItem) HasTag(tag string) bool {
	return slices.Contains(i.Tags, NormalizeLabel(tag))
}

// Normalize lower-cases and de-duplicates category, colors and tags in place.
func (i *WardrobeItem) Normalize() {
	i.Category = NormalizeLabel(i.Category)
	i.Colors = NormalizeLabels(i.Colors)
	i.Tags = NormalizeLabels(i.Tags)
	i.Name = strings.TrimSpace(i.Name)
	i.Brand = strings.TrimSpace(i.Brand)
}

// Validate ensures the item has the fields the ledger requires.
func (i *WardrobeItem) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("item ID is required")
	}
	if strings.TrimSpace(i.UserID) == "" {
		return fmt.Errorf("item user ID is required")
	}
	if strings.TrimSpace(i.Category) == "" {
		return fmt.Errorf("item category is required")
	}
	if math.IsNaN(i.PurchasePrice) || math.IsInf(i.PurchasePrice, 0) {
		return fmt.Errorf("purchase price must be a finite number, got %v", i.PurchasePrice)
	}
	if i.PurchasePrice < 0 {
		return fmt.Errorf("purchase price cannot be negative, got %.2f", i.PurchasePrice)
	}
	if i.PurchaseDate.IsZero() {
		return fmt.Errorf("purchase date is required")
	}
	return nil
}

// DisplayName returns the user-set name, falling back to brand and category.
func (i *WardrobeItem) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Brand != "" {
		return i.Brand + " " + i.Category
	}
	return i.Category
}

// NormalizeLabel canonicalizes a category, color or tag for comparison.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeLabels canonicalizes a label list, dropping blanks and duplicates
// while keeping first-seen order.
func NormalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		n := NormalizeLabel(l)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
