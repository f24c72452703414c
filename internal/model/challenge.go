package model

import (
	"fmt"
	"slices"
	"time"
)

// ChallengeType selects how a rediscovery challenge picks its target items.
type ChallengeType string

// Challenge types.
const (
	ChallengeNeglectedItems   ChallengeType = "neglected_items"
	ChallengeColorExploration ChallengeType = "color_exploration"
	ChallengeStyleMixing      ChallengeType = "style_mixing"
)

// ChallengeTypes lists every supported challenge type.
var ChallengeTypes = []ChallengeType{
	ChallengeNeglectedItems,
	ChallengeColorExploration,
	ChallengeStyleMixing,
}

// Valid reports whether t is a known challenge type.
func (t ChallengeType) Valid() bool {
	return slices.Contains(ChallengeTypes, t)
}

// RediscoveryChallenge is a time-boxed prompt to wear a set of underused items.
//
// Progress counts the distinct target items worn so far and always equals
// len(WornItemIDs). CompletedAt is set exactly when Progress == TotalItems.
type RediscoveryChallenge struct {
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     time.Time     `json:"expires_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Type          ChallengeType `json:"type"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Reward        string        `json:"reward"`
	TargetItemIDs []string      `json:"target_item_ids"`
	WornItemIDs   []string      `json:"worn_item_ids"`
	Progress      int           `json:"progress"`
	TotalItems    int           `json:"total_items"`
}

// IsExpired reports whether now is past the challenge's expiry.
func (c *RediscoveryChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsCompleted reports whether every target has been worn.
func (c *RediscoveryChallenge) IsCompleted() bool {
	return c.CompletedAt != nil
}

// IsActive reports whether the challenge can still make progress at now.
func (c *RediscoveryChallenge) IsActive(now time.Time) bool {
	return !c.IsCompleted() && !c.IsExpired(now)
}

// Targets reports whether itemID is one of the challenge's target items.
func (c *RediscoveryChallenge) Targets(itemID string) bool {
	return slices.Contains(c.TargetItemIDs, itemID)
}

// HasCounted reports whether itemID has already advanced the challenge.
func (c *RediscoveryChallenge) HasCounted(itemID string) bool {
	return slices.Contains(c.WornItemIDs, itemID)
}

// Validate checks the challenge's structural and lifecycle invariants.
func (c *RediscoveryChallenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("challenge ID is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("challenge user ID is required")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("unknown challenge type %q", c.Type)
	}
	if c.TotalItems != len(c.TargetItemIDs) {
		return fmt.Errorf("total items %d does not match %d targets", c.TotalItems, len(c.TargetItemIDs))
	}
	if c.TotalItems == 0 {
		return fmt.Errorf("challenge must target at least one item")
	}
	if c.Progress < 0 || c.Progress > c.TotalItems {
		return fmt.Errorf("progress %d outside [0, %d]", c.Progress, c.TotalItems)
	}
	if c.Progress != len(c.WornItemIDs) {
		return fmt.Errorf("progress %d does not match %d worn items", c.Progress, len(c.WornItemIDs))
	}
	for _, id := range c.WornItemIDs {
		if !c.Targets(id) {
			return fmt.Errorf("worn item %q is not a target", id)
		}
	}
	if (c.Progress == c.TotalItems) != (c.CompletedAt != nil) {
		return fmt.Errorf("completed_at must be set exactly when progress reaches total items")
	}
	if !c.ExpiresAt.After(c.CreatedAt) {
		return fmt.Errorf("expiry must be after creation")
	}
	return nil
}
