package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

func testChallenge(id string, targets ...string) *model.RediscoveryChallenge {
	return &model.RediscoveryChallenge{
		ID:            id,
		UserID:        "user-1",
		Type:          model.ChallengeNeglectedItems,
		Title:         "Rediscover",
		TargetItemIDs: targets,
		TotalItems:    len(targets),
		CreatedAt:     testEpoch,
		ExpiresAt:     testEpoch.Add(14 * 24 * time.Hour),
	}
}

func TestWardrobe_CreateAndGetChallenge(t *testing.T) {
	forEachWardrobe(t, func(t *testing.T, w service.Wardrobe) {
		ctx := context.Background()

		created, err := w.CreateChallenge(ctx, testChallenge("c1", "a", "b"))
		require.NoError(t, err)
		assert.Equal(t, 0, created.Progress)
		assert.Empty(t, created.WornItemIDs)

		got, err := w.GetChallenge(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got.TargetItemIDs)
		assert.Equal(t, 2, got.TotalItems)
		assert.Nil(t, got.CompletedAt)
		assert.True(t, got.ExpiresAt.Equal(testEpoch.Add(14*24*time.Hour)))

		_, err = w.GetChallenge(ctx, "missing")
		assert.ErrorIs(t, err, common.ErrNotFound)

		t.Run("rejects broken invariants", func(t *testing.T) {
			c := testChallenge("c2", "a")
			c.TotalItems = 3
			_, err := w.CreateChallenge(ctx, c)
			assert.ErrorIs(t, err, common.ErrInvalidInput)

			_, err = w.CreateChallenge(ctx, testChallenge("c3"))
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})

		t.Run("duplicate id", func(t *testing.T) {
			_, err := w.CreateChallenge(ctx, testChallenge("c1", "x"))
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	})
}

func TestWardrobe_GetActiveChallenge(t *testing.T) {
	forEachWardrobe(t, func(t *testing.T, w service.Wardrobe) {
		ctx := context.Background()

		active, err := w.GetActiveChallenge(ctx, "user-1", testEpoch)
		require.NoError(t, err)
		assert.Nil(t, active)

		old := testChallenge("old", "a")
		_, err = w.CreateChallenge(ctx, old)
		require.NoError(t, err)

		newer := testChallenge("newer", "b")
		newer.CreatedAt = testEpoch.Add(time.Hour)
		newer.ExpiresAt = testEpoch.Add(48 * time.Hour)
		_, err = w.CreateChallenge(ctx, newer)
		require.NoError(t, err)

		active, err = w.GetActiveChallenge(ctx, "user-1", testEpoch.Add(2*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, "newer", active.ID)

		// Once the newer challenge has expired the older one is still running.
		active, err = w.GetActiveChallenge(ctx, "user-1", testEpoch.Add(72*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, "old", active.ID)

		// Expiry is inclusive.
		active, err = w.GetActiveChallenge(ctx, "user-1", old.ExpiresAt)
		require.NoError(t, err)
		require.NotNil(t, active)

		active, err = w.GetActiveChallenge(ctx, "user-1", old.ExpiresAt.Add(time.Second))
		require.NoError(t, err)
		assert.Nil(t, active)

		active, err = w.GetActiveChallenge(ctx, "user-2", testEpoch)
		require.NoError(t, err)
		assert.Nil(t, active)
	})
}

func TestWardrobe_UpdateChallengeProgress(t *testing.T) {
	forEachWardrobe(t, func(t *testing.T, w service.Wardrobe) {
		ctx := context.Background()
		_, err := w.CreateChallenge(ctx, testChallenge("c1", "a", "b"))
		require.NoError(t, err)

		updated, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
			ChallengeID:      "c1",
			ExpectedProgress: 0,
			NewProgress:      1,
			WornItemIDs:      []string{"a"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Progress)
		assert.Equal(t, []string{"a"}, updated.WornItemIDs)
		assert.Nil(t, updated.CompletedAt)

		t.Run("stale expectation conflicts", func(t *testing.T) {
			_, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
				ChallengeID:      "c1",
				ExpectedProgress: 0,
				NewProgress:      1,
				WornItemIDs:      []string{"b"},
			})
			assert.ErrorIs(t, err, common.ErrConflict)
		})

		t.Run("worn list must match progress", func(t *testing.T) {
			_, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
				ChallengeID:      "c1",
				ExpectedProgress: 1,
				NewProgress:      2,
				WornItemIDs:      []string{"a"},
			})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})

		t.Run("completion requires timestamp", func(t *testing.T) {
			_, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
				ChallengeID:      "c1",
				ExpectedProgress: 1,
				NewProgress:      2,
				WornItemIDs:      []string{"a", "b"},
			})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})

		t.Run("non-target rejected", func(t *testing.T) {
			_, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
				ChallengeID:      "c1",
				ExpectedProgress: 1,
				NewProgress:      2,
				WornItemIDs:      []string{"a", "zzz"},
				CompletedAt:      &testEpoch,
			})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})

		t.Run("complete then frozen", func(t *testing.T) {
			done := testEpoch.Add(time.Hour)
			completed, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
				ChallengeID:      "c1",
				ExpectedProgress: 1,
				NewProgress:      2,
				WornItemIDs:      []string{"a", "b"},
				CompletedAt:      &done,
			})
			require.NoError(t, err)
			assert.Equal(t, 2, completed.Progress)
			require.NotNil(t, completed.CompletedAt)
			assert.True(t, completed.CompletedAt.Equal(done))

			_, err = w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
				ChallengeID:      "c1",
				ExpectedProgress: 2,
				NewProgress:      2,
				WornItemIDs:      []string{"a", "b"},
				CompletedAt:      &done,
			})
			assert.ErrorIs(t, err, common.ErrConflict)
		})

		t.Run("missing challenge", func(t *testing.T) {
			_, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
				ChallengeID: "nope",
				NewProgress: 0,
			})
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	})
}

func TestWardrobe_UpdateChallengeProgressRace(t *testing.T) {
	forEachWardrobe(t, func(t *testing.T, w service.Wardrobe) {
		ctx := context.Background()
		targets := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		_, err := w.CreateChallenge(ctx, testChallenge("race", targets...))
		require.NoError(t, err)

		// Every writer tries to move 0 -> 1; exactly one may win.
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for _, id := range targets {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := w.UpdateChallengeProgress(ctx, service.ChallengeProgressUpdate{
					ChallengeID:      "race",
					ExpectedProgress: 0,
					NewProgress:      1,
					WornItemIDs:      []string{id},
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, common.ErrConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(id)
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, len(targets)-1, conflicts)

		got, err := w.GetChallenge(ctx, "race")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Progress)
		assert.Len(t, got.WornItemIDs, 1)
	})
}

func TestMemoryLedger_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger()
	require.NoError(t, m.SaveItem(ctx, testItem("a", "tops", 3)))

	item, err := m.GetItem(ctx, "a")
	require.NoError(t, err)
	item.Colors[0] = "mutated"

	again, err := m.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "navy", again.Colors[0])

	c, err := m.CreateChallenge(ctx, testChallenge("c", "a"))
	require.NoError(t, err)
	c.TargetItemIDs[0] = "mutated"

	stored, err := m.GetChallenge(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.TargetItemIDs)
}

func BenchmarkMemoryLedger_ListItems(b *testing.B) {
	ctx := context.Background()
	m := NewMemoryLedger()
	for i := 0; i < 500; i++ {
		if err := m.SaveItem(ctx, testItem(fmt.Sprintf("item-%03d", i), "tops", i)); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.ListItems(ctx, "user-1", service.ItemListOptions{Category: "tops"}); err != nil {
			b.Fatal(err)
		}
	}
}
