package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-closet-must-flow/internal/model"
)

var renderNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &model.CostPerWearResult{ItemID: "coat", CostPerWear: 25}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "coat", decoded["item_id"])
	assert.InDelta(t, 25.0, decoded["cost_per_wear"], 1e-9)
}

func TestRenderItems(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderItems(&buf, nil))
	assert.Contains(t, buf.String(), "Your closet is empty")

	buf.Reset()
	deleted := renderNow
	require.NoError(t, RenderItems(&buf, []model.WardrobeItem{
		{ID: "coat", Name: "Wool coat", Category: "outerwear", PurchasePrice: 240, PurchaseDate: renderNow},
		{ID: "boots", Category: "shoes", PurchasePrice: 90, PurchaseDate: renderNow, DeletedAt: &deleted},
	}))
	out := buf.String()
	assert.Contains(t, out, "Wool coat")
	assert.Contains(t, out, "$240.00")
	assert.Contains(t, out, "(deleted)")
}

func TestRenderCostPerWear(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCostPerWear(&buf, &model.WardrobeItem{ID: "tee", Name: "Black tee"},
		&model.CostPerWearResult{ItemID: "tee", PurchasePrice: 20, CostPerWear: 20, ProjectedCostPerWear: 20}))
	out := buf.String()
	assert.Contains(t, out, "Black tee")
	assert.Contains(t, out, "$20.00")
	assert.Contains(t, out, "Not worn yet")
}

func TestRenderChallenge(t *testing.T) {
	c := &model.RediscoveryChallenge{
		Title:         "Rediscover Your Closet",
		Description:   "Wear 2 items you haven't worn lately",
		Reward:        "Closet Rediscoverer badge",
		TargetItemIDs: []string{"blazer", "scarf"},
		WornItemIDs:   []string{"blazer"},
		Progress:      1,
		TotalItems:    2,
		CreatedAt:     renderNow.Add(-24 * time.Hour),
		ExpiresAt:     renderNow.Add(13 * 24 * time.Hour),
	}

	var buf bytes.Buffer
	require.NoError(t, RenderChallenge(&buf, c, map[string]string{"blazer": "Navy blazer"}, renderNow))
	out := buf.String()
	assert.Contains(t, out, "Navy blazer")
	assert.Contains(t, out, "scarf")
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "13 days left")

	completed := renderNow
	c.CompletedAt = &completed
	c.WornItemIDs = []string{"blazer", "scarf"}
	c.Progress = 2
	buf.Reset()
	require.NoError(t, RenderChallenge(&buf, c, nil, renderNow))
	assert.Contains(t, buf.String(), "Completed! Reward: Closet Rediscoverer badge")
}

func TestRenderRecommendation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRecommendation(&buf, &model.ShopYourClosetRecommendation{
		Category:  "shoes",
		Reasoning: []string{"No similar shoes found in your closet"},
	}))
	assert.Contains(t, buf.String(), "No similar shoes found")

	buf.Reset()
	require.NoError(t, RenderRecommendation(&buf, &model.ShopYourClosetRecommendation{
		TargetDescription: "black top",
		Category:          "tops",
		Reasoning:         []string{"Matches requested color: black"},
		Matches: model.ItemMatches{
			{Item: model.WardrobeItem{ID: "blouse", Name: "Silk blouse"}, Score: 0.95, WearCount: 1},
		},
		ConfidenceScore: 0.95,
	}))
	out := buf.String()
	assert.Contains(t, out, "Silk blouse")
	assert.Contains(t, out, "95%")
	assert.Contains(t, out, "Matches requested color: black")
}

func TestRenderMonthlyMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMonthlyMetrics(&buf, &model.MonthlyConfidenceMetrics{
		Month:                       6,
		Year:                        2026,
		AverageConfidenceRating:     3.5,
		ConfidenceImprovement:       1,
		TotalOutfitsRated:           3,
		WardrobeUtilization:         50,
		ShoppingReductionPercentage: 25,
		CostPerWearImprovement:      -8.83,
		MostConfidentItems:          []model.ItemConfidence{{ItemID: "c", Name: "Loafers", AverageRating: 4, RatingCount: 2}},
		LeastConfidentItems:         []model.ItemConfidence{},
	}))
	out := buf.String()
	assert.Contains(t, out, "June 2026")
	assert.Contains(t, out, "+1.00")
	assert.Contains(t, out, "+25.00%")
	assert.Contains(t, out, "-$8.83")
	assert.Contains(t, out, "Loafers")
	assert.NotContains(t, out, "Could use a rethink")
}
