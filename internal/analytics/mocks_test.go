package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// Mock implementations for failure-path tests.
type mockLedger struct {
	service.Ledger
	mock.Mock
}

func (m *mockLedger) GetItem(ctx context.Context, itemID string) (*model.WardrobeItem, error) {
	args := m.Called(ctx, itemID)
	if item, ok := args.Get(0).(*model.WardrobeItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListItems(ctx context.Context, userID string, opts service.ItemListOptions) ([]model.WardrobeItem, error) {
	args := m.Called(ctx, userID, opts)
	if items, ok := args.Get(0).([]model.WardrobeItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListWearEvents(ctx context.Context, filter service.WearEventFilter) ([]model.WearEvent, error) {
	args := m.Called(ctx, filter)
	if events, ok := args.Get(0).([]model.WearEvent); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListOutfitRatings(ctx context.Context, userID string, dateRange service.DateRange) ([]model.OutfitRating, error) {
	args := m.Called(ctx, userID, dateRange)
	if ratings, ok := args.Get(0).([]model.OutfitRating); ok {
		return ratings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetChallenge(ctx context.Context, challengeID string) (*model.RediscoveryChallenge, error) {
	args := m.Called(ctx, challengeID)
	if c, ok := args.Get(0).(*model.RediscoveryChallenge); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetActiveChallenge(ctx context.Context, userID string, now time.Time) (*model.RediscoveryChallenge, error) {
	args := m.Called(ctx, userID, now)
	if c, ok := args.Get(0).(*model.RediscoveryChallenge); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) UpdateChallengeProgress(ctx context.Context, u service.ChallengeProgressUpdate) (*model.RediscoveryChallenge, error) {
	args := m.Called(ctx, u)
	if c, ok := args.Get(0).(*model.RediscoveryChallenge); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingRecorder captures what the engine reports.
type recordingRecorder struct {
	operations map[string][]error
	conflicts  int
	mu         sync.Mutex
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{operations: make(map[string][]error)}
}

func (r *recordingRecorder) ObserveOperation(operation string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations[operation] = append(r.operations[operation], err)
}

func (r *recordingRecorder) ObserveConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *recordingRecorder) conflictCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflicts
}
