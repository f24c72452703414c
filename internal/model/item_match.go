package model

import (
	"fmt"
	"sort"
)

// ItemMatch scores how well an owned item substitutes for a desired purchase.
type ItemMatch struct {
	Item          WardrobeItem `json:"item"`
	MatchedColors []string     `json:"matched_colors,omitempty"`
	MatchedStyles []string     `json:"matched_styles,omitempty"`
	Score         float64      `json:"score"`
	ColorScore    float64      `json:"color_score"`
	StyleScore    float64      `json:"style_score"`
	UnderuseScore float64      `json:"underuse_score"`
	WearCount     int          `json:"wear_count"`
}

// Validate ensures the match scores are normalized.
func (m *ItemMatch) Validate() error {
	if m.Item.ID == "" {
		return fmt.Errorf("matched item ID is required")
	}
	for name, v := range map[string]float64{
		"score":    m.Score,
		"color":    m.ColorScore,
		"style":    m.StyleScore,
		"underuse": m.UnderuseScore,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s score must be between 0.0 and 1.0, got %.2f", name, v)
		}
	}
	return nil
}

// ItemMatches is a slice of ItemMatch that supports sorting and utility methods.
type ItemMatches []ItemMatch

// Len implements sort.Interface.
func (m ItemMatches) Len() int {
	return len(m)
}

// Less implements sort.Interface. Higher scores come first; ties go to the
// less-worn item, then to the item ID for a stable order.
func (m ItemMatches) Less(i, j int) bool {
	if m[i].Score != m[j].Score {
		return m[i].Score > m[j].Score
	}
	if m[i].WearCount != m[j].WearCount {
		return m[i].WearCount < m[j].WearCount
	}
	return m[i].Item.ID < m[j].Item.ID
}

// Swap implements sort.Interface.
func (m ItemMatches) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

// Sort sorts the matches by score in descending order.
func (m ItemMatches) Sort() {
	sort.Sort(m)
}

// Top returns the best match, or nil if empty.
func (m ItemMatches) Top() *ItemMatch {
	if len(m) == 0 {
		return nil
	}
	m.Sort()
	return &m[0]
}

// TopN returns the N best matches.
func (m ItemMatches) TopN(n int) ItemMatches {
	if n <= 0 {
		return ItemMatches{}
	}

	m.Sort()

	if n > len(m) {
		n = len(m)
	}

	result := make(ItemMatches, n)
	copy(result, m[:n])
	return result
}

// AboveThreshold returns the matches whose score strictly exceeds threshold.
func (m ItemMatches) AboveThreshold(threshold float64) ItemMatches {
	m.Sort()

	result := ItemMatches{}
	for _, match := range m {
		if match.Score > threshold {
			result = append(result, match)
		}
	}
	return result
}

// Items returns the matched wardrobe items in order.
func (m ItemMatches) Items() []WardrobeItem {
	items := make([]WardrobeItem, 0, len(m))
	for _, match := range m {
		items = append(items, match.Item)
	}
	return items
}
