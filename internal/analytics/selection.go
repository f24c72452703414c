package analytics

import (
	"sort"
	"time"

	"github.com/Veraticus/the-closet-must-flow/internal/model"
)

// lastWornByItem returns the most recent wear time of every worn item.
func lastWornByItem(wears []model.WearEvent) map[string]time.Time {
	last := make(map[string]time.Time, len(wears))
	for _, w := range wears {
		if t, ok := last[w.ItemID]; !ok || w.WornAt.After(t) {
			last[w.ItemID] = w.WornAt
		}
	}
	return last
}

// rankNeglected orders items from most to least neglected: never-worn items
// first, then by last wear ascending. Purchase date and ID break ties so the
// ranking is deterministic.
func rankNeglected(items []model.WardrobeItem, lastWorn map[string]time.Time) []model.WardrobeItem {
	ranked := make([]model.WardrobeItem, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		ti, wornI := lastWorn[ranked[i].ID]
		tj, wornJ := lastWorn[ranked[j].ID]
		if wornI != wornJ {
			return !wornI
		}
		if wornI && !ti.Equal(tj) {
			return ti.Before(tj)
		}
		if !ranked[i].PurchaseDate.Equal(ranked[j].PurchaseDate) {
			return ranked[i].PurchaseDate.Before(ranked[j].PurchaseDate)
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// selectTargets picks up to n targets from the neglect ranking using the
// strategy of the challenge type.
func selectTargets(challengeType model.ChallengeType, ranked []model.WardrobeItem, n int) []model.WardrobeItem {
	switch challengeType {
	case model.ChallengeColorExploration:
		return selectDiverse(ranked, n, func(item model.WardrobeItem) []string { return item.Colors })
	case model.ChallengeStyleMixing:
		return selectDiverse(ranked, n, func(item model.WardrobeItem) []string { return []string{item.Category} })
	default:
		return ranked[:min(n, len(ranked))]
	}
}

// selectDiverse walks the ranking and keeps an item only when it adds at
// least one feature the selection does not have yet.
func selectDiverse(ranked []model.WardrobeItem, n int, features func(model.WardrobeItem) []string) []model.WardrobeItem {
	seen := make(map[string]struct{})
	selected := make([]model.WardrobeItem, 0, n)
	for _, item := range ranked {
		if len(selected) == n {
			break
		}
		added := false
		for _, f := range features(item) {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				added = true
			}
		}
		if added {
			selected = append(selected, item)
		}
	}
	return selected
}

func itemIDs(items []model.WardrobeItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
