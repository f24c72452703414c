package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

var _ service.Wardrobe = (*MemoryLedger)(nil)

// MemoryLedger is an in-process Wardrobe with the same contract as
// SQLiteStorage. Every value crossing the boundary is copied.
type MemoryLedger struct {
	items      map[string]model.WardrobeItem
	challenges map[string]model.RediscoveryChallenge
	now        func() time.Time
	wears      []model.WearEvent
	ratings    []model.OutfitRating
	mu         sync.RWMutex
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		items:      make(map[string]model.WardrobeItem),
		challenges: make(map[string]model.RediscoveryChallenge),
		now:        time.Now,
	}
}

func cloneItem(i model.WardrobeItem) model.WardrobeItem {
	i.Colors = slices.Clone(i.Colors)
	i.Tags = slices.Clone(i.Tags)
	if i.DeletedAt != nil {
		t := *i.DeletedAt
		i.DeletedAt = &t
	}
	return i
}

func cloneChallenge(c model.RediscoveryChallenge) *model.RediscoveryChallenge {
	c.TargetItemIDs = slices.Clone(c.TargetItemIDs)
	c.WornItemIDs = slices.Clone(c.WornItemIDs)
	if c.WornItemIDs == nil {
		c.WornItemIDs = []string{}
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// SaveItem implements service.WardrobeWriter.
func (m *MemoryLedger) SaveItem(ctx context.Context, item *model.WardrobeItem) error {
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

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[item.ID]; exists {
		return fmt.Errorf("%w: item %s already exists", common.ErrInvalidInput, item.ID)
	}
	now := m.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	m.items[item.ID] = cloneItem(*item)
	return nil
}

// GetItem implements service.Ledger.
func (m *MemoryLedger) GetItem(ctx context.Context, itemID string) (*model.WardrobeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, common.ErrNotFound)
	}
	c := cloneItem(item)
	return &c, nil
}

// ListItems implements service.Ledger.
func (m *MemoryLedger) ListItems(ctx context.Context, userID string, opts service.ItemListOptions) ([]model.WardrobeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	category := model.NormalizeLabel(opts.Category)

	m.mu.RLock()
	var items []model.WardrobeItem
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		if item.IsTombstoned() && !opts.IncludeTombstoned {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		items = append(items, cloneItem(item))
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].PurchaseDate.Equal(items[j].PurchaseDate) {
			return items[i].PurchaseDate.Before(items[j].PurchaseDate)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// UpdateItemDetails implements service.WardrobeWriter.
func (m *MemoryLedger) UpdateItemDetails(ctx context.Context, itemID, name string, tags []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.IsTombstoned() {
		return fmt.Errorf("item %s: %w", itemID, common.ErrNotFound)
	}
	item.Name = name
	item.Tags = model.NormalizeLabels(tags)
	item.UpdatedAt = m.now()
	item.Normalize()
	m.items[itemID] = item
	return nil
}

// TombstoneItem implements service.WardrobeWriter.
func (m *MemoryLedger) TombstoneItem(ctx context.Context, itemID string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.IsTombstoned() {
		return fmt.Errorf("item %s: %w", itemID, common.ErrNotFound)
	}
	item.DeletedAt = &at
	item.UpdatedAt = m.now()
	m.items[itemID] = item
	return nil
}

// RecordWear implements service.WardrobeWriter.
func (m *MemoryLedger) RecordWear(ctx context.Context, event *model.WearEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateWear(event); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[event.ItemID]
	if !ok || item.IsTombstoned() {
		return fmt.Errorf("item %s: %w", event.ItemID, common.ErrNotFound)
	}
	if item.UserID != event.UserID {
		return fmt.Errorf("%w: item %s does not belong to user %s", common.ErrInvalidInput, item.ID, event.UserID)
	}
	m.wears = append(m.wears, *event)
	return nil
}

// ListWearEvents implements service.Ledger.
func (m *MemoryLedger) ListWearEvents(ctx context.Context, filter service.WearEventFilter) ([]model.WearEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateWearFilter(filter); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var events []model.WearEvent
	for _, e := range m.wears {
		if filter.ItemID != "" && e.ItemID != filter.ItemID {
			continue
		}
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Range != nil && !filter.Range.Contains(e.WornAt) {
			continue
		}
		events = append(events, e)
	}
	m.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].WornAt.Equal(events[j].WornAt) {
			return events[i].WornAt.Before(events[j].WornAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// SaveOutfitRating implements service.WardrobeWriter.
func (m *MemoryLedger) SaveOutfitRating(ctx context.Context, rating *model.OutfitRating) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRating(rating); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = m.now()
	}
	r := *rating
	r.ItemIDs = slices.Clone(rating.ItemIDs)
	m.ratings = append(m.ratings, r)
	return nil
}

// ListOutfitRatings implements service.Ledger.
func (m *MemoryLedger) ListOutfitRatings(ctx context.Context, userID string, dateRange service.DateRange) ([]model.OutfitRating, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateDateRange(dateRange); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var ratings []model.OutfitRating
	for _, r := range m.ratings {
		if r.UserID != userID || !dateRange.Contains(r.WornOn) {
			continue
		}
		r.ItemIDs = slices.Clone(r.ItemIDs)
		ratings = append(ratings, r)
	}
	m.mu.RUnlock()

	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].WornOn.Before(ratings[j].WornOn)
	})
	return ratings, nil
}

// GetChallenge implements service.Ledger.
func (m *MemoryLedger) GetChallenge(ctx context.Context, challengeID string) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.challenges[challengeID]
	if !ok {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, common.ErrNotFound)
	}
	return cloneChallenge(c), nil
}

// GetActiveChallenge implements service.Ledger.
func (m *MemoryLedger) GetActiveChallenge(ctx context.Context, userID string, now time.Time) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *model.RediscoveryChallenge
	for _, c := range m.challenges {
		if c.UserID != userID || !c.IsActive(now) {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) ||
			(c.CreatedAt.Equal(newest.CreatedAt) && c.ID > newest.ID) {
			newest = cloneChallenge(c)
		}
	}
	return newest, nil
}

// CreateChallenge implements service.Ledger.
func (m *MemoryLedger) CreateChallenge(ctx context.Context, challenge *model.RediscoveryChallenge) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if challenge != nil && challenge.WornItemIDs == nil {
		challenge.WornItemIDs = []string{}
	}
	if err := validateChallenge(challenge); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.challenges[challenge.ID]; exists {
		return nil, fmt.Errorf("%w: challenge %s already exists", common.ErrInvalidInput, challenge.ID)
	}
	m.challenges[challenge.ID] = *cloneChallenge(*challenge)
	return cloneChallenge(*challenge), nil
}

// UpdateChallengeProgress implements service.Ledger. The check and the write
// happen under one lock, so exactly one of two racing updates wins.
func (m *MemoryLedger) UpdateChallengeProgress(ctx context.Context, u service.ChallengeProgressUpdate) (*model.RediscoveryChallenge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateProgressUpdate(u); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.challenges[u.ChallengeID]
	if !ok {
		return nil, fmt.Errorf("challenge %s: %w", u.ChallengeID, common.ErrNotFound)
	}
	if err := checkProgressUpdate(&current, u); err != nil {
		return nil, err
	}
	current.Progress = u.NewProgress
	current.WornItemIDs = slices.Clone(u.WornItemIDs)
	current.CompletedAt = u.CompletedAt
	m.challenges[u.ChallengeID] = current
	return cloneChallenge(current), nil
}
