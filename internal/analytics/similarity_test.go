package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
	"github.com/Veraticus/the-closet-must-flow/internal/testutil"
)

func newMatcher(t *testing.T, cfg Config) *SimilarityMatcher {
	t.Helper()
	ledger := testutil.NewWardrobeBuilder(t, "me", testNow).
		WithItem("black-tee", "tops", testutil.Colors("black"), testutil.Tags("casual", "minimalist")).
		WithItem("white-shirt", "tops", testutil.Colors("white"), testutil.Tags("formal")).
		WithItem("black-blouse", "tops", testutil.Colors("black", "navy"), testutil.Tags("minimalist")).
		WithItem("black-jeans", "bottoms", testutil.Colors("black")).
		WithItem("old-top", "tops", testutil.Colors("black"), testutil.Tags("minimalist"), testutil.Deleted(daysAgo(1))).
		WornDaysAgo("black-tee", 1, 5, 9, 12).
		WornDaysAgo("black-blouse", 20).
		WornDaysAgo("black-jeans", 1, 2, 3, 4, 5, 6, 7, 8).
		Memory()
	return NewSimilarityMatcher(Deps{Ledger: ledger}, cfg)
}

func matchIDs(rec *model.ShopYourClosetRecommendation) []string {
	ids := make([]string, 0, len(rec.SimilarOwnedItems))
	for _, item := range rec.SimilarOwnedItems {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSimilarityMatcher_GenerateRecommendation(t *testing.T) {
	ctx := context.Background()
	m := newMatcher(t, DefaultConfig())

	t.Run("color and style", func(t *testing.T) {
		rec, err := m.GenerateRecommendation(ctx, RecommendationRequest{
			UserID:            "me",
			TargetDescription: "new black minimalist top",
			Category:          "Tops",
			Colors:            []string{"Black"},
			Style:             "minimalist",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"black-blouse", "black-tee"}, matchIDs(rec))
		assert.InDelta(t, 0.95, rec.ConfidenceScore, 1e-9)
		assert.InDelta(t, 0.8, rec.Matches[1].Score, 1e-9)
		assert.Equal(t, "tops", rec.Category)
		assert.Equal(t, "new black minimalist top", rec.TargetDescription)
		assert.Equal(t, []string{
			"Matches requested color: black",
			"Shares your style: minimalist",
			"Rarely worn - a great opportunity to use it more",
		}, rec.Reasoning)
		for _, match := range rec.Matches {
			assert.NoError(t, match.Validate())
		}
	})

	t.Run("half the requested colors is enough for a reason", func(t *testing.T) {
		rec, err := m.GenerateRecommendation(ctx, RecommendationRequest{
			UserID:   "me",
			Category: "tops",
			Colors:   []string{"navy", "green"},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"black-blouse", "white-shirt"}, matchIDs(rec))
		assert.InDelta(t, 0.55, rec.ConfidenceScore, 1e-9)
		assert.InDelta(t, 0.5, rec.Matches[0].ColorScore, 1e-9)
		assert.Equal(t, []string{
			"Matches requested color: navy",
			"Rarely worn - a great opportunity to use it more",
		}, rec.Reasoning)
	})

	t.Run("no hints scores neutral and favors unworn items", func(t *testing.T) {
		rec, err := m.GenerateRecommendation(ctx, RecommendationRequest{UserID: "me", Category: "tops"})
		require.NoError(t, err)

		assert.Equal(t, []string{"white-shirt", "black-blouse", "black-tee"}, matchIDs(rec))
		assert.InDelta(t, 0.6, rec.ConfidenceScore, 1e-9)
		assert.Equal(t, []string{"Never worn - a great opportunity to finally use it"}, rec.Reasoning)
	})

	t.Run("nothing clears the threshold", func(t *testing.T) {
		rec, err := m.GenerateRecommendation(ctx, RecommendationRequest{
			UserID:   "me",
			Category: "tops",
			Colors:   []string{"purple"},
			Style:    "grunge",
		})
		require.NoError(t, err)

		assert.Zero(t, rec.ConfidenceScore)
		assert.NotNil(t, rec.SimilarOwnedItems)
		assert.Empty(t, rec.SimilarOwnedItems)
		assert.Len(t, rec.Reasoning, 1)
	})

	t.Run("no owned items in category", func(t *testing.T) {
		rec, err := m.GenerateRecommendation(ctx, RecommendationRequest{UserID: "me", Category: "shoes"})
		require.NoError(t, err)

		assert.Zero(t, rec.ConfidenceScore)
		assert.Equal(t, []model.WardrobeItem{}, rec.SimilarOwnedItems)
		assert.Len(t, rec.Reasoning, 1)
	})

	t.Run("category is required", func(t *testing.T) {
		_, err := m.GenerateRecommendation(ctx, RecommendationRequest{UserID: "me", Category: "  "})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestSimilarityMatcher_CapsMatches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMatches = 1
	rec, err := newMatcher(t, cfg).GenerateRecommendation(context.Background(), RecommendationRequest{UserID: "me", Category: "tops"})
	require.NoError(t, err)
	assert.Equal(t, []string{"white-shirt"}, matchIDs(rec))
}

func TestSimilarityMatcher_LedgerFailure(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("ListItems", mock.Anything, "me", service.ItemListOptions{Category: "tops"}).
		Return(nil, common.Unavailable("list", errors.New("connection reset")))

	m := NewSimilarityMatcher(Deps{Ledger: ledger}, DefaultConfig())
	_, err := m.GenerateRecommendation(context.Background(), RecommendationRequest{UserID: "me", Category: "tops"})
	assert.ErrorIs(t, err, common.ErrLedgerUnavailable)
}

func TestStyleKeywords(t *testing.T) {
	tests := []struct {
		style string
		want  []string
	}{
		{"", nil},
		{"Minimalist", []string{"minimalist"}},
		{"smart-casual, Minimalist minimalist", []string{"smart-casual", "minimalist"}},
		{"  boho/vintage ", []string{"boho", "vintage"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StyleKeywords(tt.style), "style %q", tt.style)
	}
}
