package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

// RecommendationRequest describes a purchase the user is considering.
// Category is required; Colors and Style refine the match.
type RecommendationRequest struct {
	UserID            string   `json:"user_id"`
	TargetDescription string   `json:"target_description"`
	Category          string   `json:"category"`
	Style             string   `json:"style,omitempty"`
	Colors            []string `json:"colors,omitempty"`
}

// SimilarityMatcher finds owned items that could stand in for a purchase.
type SimilarityMatcher struct {
	ledger service.Ledger
	cfg    Config
}

// NewSimilarityMatcher creates a matcher with cfg's weights and thresholds.
func NewSimilarityMatcher(deps Deps, cfg Config) *SimilarityMatcher {
	deps = deps.withDefaults()
	return &SimilarityMatcher{ledger: deps.Ledger, cfg: cfg}
}

// GenerateRecommendation scores every owned item in the requested category.
// No match is a normal outcome: score 0, no items and one explanation.
func (m *SimilarityMatcher) GenerateRecommendation(ctx context.Context, req RecommendationRequest) (*model.ShopYourClosetRecommendation, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user ID is required", common.ErrInvalidInput)
	}
	category := model.NormalizeLabel(req.Category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", common.ErrInvalidInput)
	}

	candidates, err := m.ledger.ListItems(ctx, req.UserID, service.ItemListOptions{Category: category})
	if err != nil {
		return nil, fmt.Errorf("failed to load wardrobe: %w", err)
	}
	if len(candidates) == 0 {
		return noMatch(req, category), nil
	}

	wears, err := m.ledger.ListWearEvents(ctx, service.WearEventFilter{UserID: req.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to load wear history: %w", err)
	}

	colors := model.NormalizeLabels(req.Colors)
	keywords := StyleKeywords(req.Style)
	matches := m.score(candidates, wearCounts(wears), colors, keywords)
	ranked := matches.AboveThreshold(m.cfg.MatchThreshold).TopN(m.cfg.MaxMatches)
	if len(ranked) == 0 {
		return noMatch(req, category), nil
	}

	top := ranked[0]
	slog.Debug("generated recommendation",
		"category", category,
		"candidates", len(candidates),
		"matches", len(ranked),
		"top_item", top.Item.ID,
		"score", top.Score)

	return &model.ShopYourClosetRecommendation{
		TargetDescription: req.TargetDescription,
		Category:          category,
		ConfidenceScore:   top.Score,
		Reasoning:         m.reasoning(top, len(colors) > 0, len(keywords) > 0),
		SimilarOwnedItems: ranked.Items(),
		Matches:           ranked,
	}, nil
}

func (m *SimilarityMatcher) score(candidates []model.WardrobeItem, wears map[string]int, colors, keywords []string) model.ItemMatches {
	maxWears := 0
	for _, item := range candidates {
		maxWears = max(maxWears, wears[item.ID])
	}
	totalWeight := m.cfg.ColorWeight + m.cfg.StyleWeight + m.cfg.UnderuseWeight

	matches := make(model.ItemMatches, 0, len(candidates))
	for _, item := range candidates {
		match := model.ItemMatch{
			Item:       item,
			WearCount:  wears[item.ID],
			ColorScore: m.cfg.NeutralBaseline,
			StyleScore: m.cfg.NeutralBaseline,
		}
		if len(colors) > 0 {
			for _, c := range colors {
				if item.HasColor(c) {
					match.MatchedColors = append(match.MatchedColors, c)
				}
			}
			match.ColorScore = float64(len(match.MatchedColors)) / float64(len(colors))
		}
		if len(keywords) > 0 {
			for _, k := range keywords {
				if item.HasTag(k) {
					match.MatchedStyles = append(match.MatchedStyles, k)
				}
			}
			match.StyleScore = float64(len(match.MatchedStyles)) / float64(len(keywords))
		}
		match.UnderuseScore = 1
		if maxWears > 0 {
			match.UnderuseScore = 1 - float64(match.WearCount)/float64(maxWears)
		}

		combined := m.cfg.ColorWeight*match.ColorScore +
			m.cfg.StyleWeight*match.StyleScore +
			m.cfg.UnderuseWeight*match.UnderuseScore
		match.Score = clamp01(combined / totalWeight)
		matches = append(matches, match)
	}
	return matches
}

func (m *SimilarityMatcher) reasoning(top model.ItemMatch, colorsRequested, styleRequested bool) []string {
	var reasons []string
	threshold := m.cfg.ReasoningThreshold
	if colorsRequested && top.ColorScore >= threshold {
		reasons = append(reasons, "Matches requested color: "+strings.Join(top.MatchedColors, ", "))
	}
	if styleRequested && top.StyleScore >= threshold {
		reasons = append(reasons, "Shares your style: "+strings.Join(top.MatchedStyles, ", "))
	}
	if top.UnderuseScore >= threshold {
		if top.WearCount == 0 {
			reasons = append(reasons, "Never worn - a great opportunity to finally use it")
		} else {
			reasons = append(reasons, "Rarely worn - a great opportunity to use it more")
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("Closest %s you already own: %s", top.Item.Category, top.Item.DisplayName()))
	}
	return reasons
}

func noMatch(req RecommendationRequest, category string) *model.ShopYourClosetRecommendation {
	return &model.ShopYourClosetRecommendation{
		TargetDescription: req.TargetDescription,
		Category:          category,
		ConfidenceScore:   0,
		Reasoning:         []string{fmt.Sprintf("No similar %s found in your closet", category)},
		SimilarOwnedItems: []model.WardrobeItem{},
		Matches:           model.ItemMatches{},
	}
}

// StyleKeywords splits a style hint into normalized keywords.
func StyleKeywords(style string) []string {
	words := strings.FieldsFunc(style, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	return model.NormalizeLabels(words)
}

func wearCounts(wears []model.WearEvent) map[string]int {
	counts := make(map[string]int)
	for _, w := range wears {
		counts[w.ItemID]++
	}
	return counts
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
