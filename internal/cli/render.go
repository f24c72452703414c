package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-closet-must-flow/internal/model"
)

const dateFormat = "Jan 2, 2006"

// WriteJSON prints v as indented JSON, for --output json.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

// RenderItems prints a wardrobe listing as a table.
func RenderItems(w io.Writer, items []model.WardrobeItem) error {
	if len(items) == 0 {
		return writeString(w, FormatInfo("Your closet is empty. Add something with: closet items add"))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		TableCellStyle.Width(38).Render("ID"),
		TableCellStyle.Width(24).Render("Name"),
		TableCellStyle.Width(14).Render("Category"),
		TableCellStyle.Width(10).Render("Price"),
		TableCellStyle.Render("Purchased"),
	)
	rows := []string{TableHeaderStyle.Render(header)}
	for i := range items {
		item := &items[i]
		name := item.DisplayName()
		if item.IsTombstoned() {
			name = SubtleStyle.Render(name + " (deleted)")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			TableCellStyle.Width(38).Render(item.ID),
			TableCellStyle.Width(24).Render(name),
			TableCellStyle.Width(14).Render(item.Category),
			TableCellStyle.Width(10).Render(fmt.Sprintf("$%.2f", item.PurchasePrice)),
			TableCellStyle.Render(item.PurchaseDate.Format(dateFormat)),
		))
	}
	return writeString(w, strings.Join(rows, "\n"))
}

// RenderCostPerWear prints one item valuation.
func RenderCostPerWear(w io.Writer, item *model.WardrobeItem, r *model.CostPerWearResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Purchase price:     $%.2f\n", r.PurchasePrice)
	fmt.Fprintf(&b, "Times worn:         %d\n", r.TotalWears)
	fmt.Fprintf(&b, "Days owned:         %d\n", r.DaysSincePurchase)
	fmt.Fprintf(&b, "Cost per wear:      %s\n", ScoreStyle.Render(fmt.Sprintf("$%.2f", r.CostPerWear)))
	fmt.Fprintf(&b, "Projected (1 year): $%.2f", r.ProjectedCostPerWear)
	if r.TotalWears == 0 {
		b.WriteString("\n\n" + FormatWarning("Not worn yet. Every wear brings this down."))
	}

	title := r.ItemID
	if item != nil {
		title = item.DisplayName()
	}
	return writeString(w, RenderBox(ChartIcon+" "+title, b.String()))
}

// RenderChallenge prints a challenge with a progress line per target.
func RenderChallenge(w io.Writer, c *model.RediscoveryChallenge, names map[string]string, now time.Time) error {
	var b strings.Builder
	b.WriteString(c.Description + "\n\n")

	for _, id := range c.TargetItemIDs {
		name := names[id]
		if name == "" {
			name = id
		}
		if c.HasCounted(id) {
			b.WriteString(SuccessStyle.Render(SuccessIcon+" "+name) + "\n")
		} else {
			b.WriteString(SubtleStyle.Render("○ "+name) + "\n")
		}
	}

	fmt.Fprintf(&b, "\nProgress: %s", ScoreStyle.Render(fmt.Sprintf("%d/%d", c.Progress, c.TotalItems)))
	switch {
	case c.IsCompleted():
		b.WriteString("\n" + FormatSuccess(TrophyIcon+" Completed! Reward: "+c.Reward))
	case c.IsExpired(now):
		b.WriteString("\n" + FormatWarning("Expired on "+c.ExpiresAt.Format(dateFormat)))
	default:
		days := int(c.ExpiresAt.Sub(now).Hours() / 24)
		fmt.Fprintf(&b, "\n%s", SubtleStyle.Render(fmt.Sprintf("%d days left. Reward: %s", days, c.Reward)))
	}
	return writeString(w, RenderBox(c.Title, b.String()))
}

// RenderRecommendation prints shop-your-closet matches.
func RenderRecommendation(w io.Writer, r *model.ShopYourClosetRecommendation) error {
	if len(r.Matches) == 0 {
		msg := "No similar " + r.Category + " found in your closet"
		if len(r.Reasoning) > 0 {
			msg = r.Reasoning[0]
		}
		return writeString(w, FormatInfo(msg))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Before buying %q, consider:\n\n", r.TargetDescription)
	for i := range r.Matches {
		m := &r.Matches[i]
		fmt.Fprintf(&b, "%s %s  %s\n",
			ScoreStyle.Render(fmt.Sprintf("%3.0f%%", m.Score*100)),
			BoldStyle.Render(m.Item.DisplayName()),
			SubtleStyle.Render(fmt.Sprintf("worn %d times", m.WearCount)))
	}
	if len(r.Reasoning) > 0 {
		b.WriteString("\n")
		for _, reason := range r.Reasoning {
			b.WriteString("  • " + reason + "\n")
		}
	}
	fmt.Fprintf(&b, "\nConfidence: %.0f%%", r.ConfidenceScore*100)
	return writeString(w, RenderBox("Shop your closet", b.String()))
}

// RenderMonthlyMetrics prints the monthly confidence report.
func RenderMonthlyMetrics(w io.Writer, m *model.MonthlyConfidenceMetrics) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Average confidence:  %s (%s)\n",
		ScoreStyle.Render(fmt.Sprintf("%.2f", m.AverageConfidenceRating)), signed(m.ConfidenceImprovement, ""))
	fmt.Fprintf(&b, "Outfits rated:       %d\n", m.TotalOutfitsRated)
	fmt.Fprintf(&b, "Closet utilization:  %.0f%%\n", m.WardrobeUtilization)
	fmt.Fprintf(&b, "Shopping reduction:  %s\n", signed(m.ShoppingReductionPercentage, "%"))
	fmt.Fprintf(&b, "Cost-per-wear drop:  %s", signed(m.CostPerWearImprovement, "$"))

	if len(m.MostConfidentItems) > 0 {
		b.WriteString("\n\n" + BoldStyle.Render("Feeling great in") + "\n")
		writeConfidence(&b, m.MostConfidentItems)
	}
	if len(m.LeastConfidentItems) > 0 {
		b.WriteString("\n" + BoldStyle.Render("Could use a rethink") + "\n")
		writeConfidence(&b, m.LeastConfidentItems)
	}

	title := fmt.Sprintf("%s %s %d", ChartIcon, time.Month(m.Month), m.Year)
	return writeString(w, RenderBox(title, strings.TrimRight(b.String(), "\n")))
}

func writeConfidence(b *strings.Builder, items []model.ItemConfidence) {
	for _, ic := range items {
		name := ic.Name
		if name == "" {
			name = ic.ItemID
		}
		fmt.Fprintf(b, "  %.1f  %s %s\n", ic.AverageRating, name,
			SubtleStyle.Render(fmt.Sprintf("(%d ratings)", ic.RatingCount)))
	}
}

// signed formats v with an explicit sign. unit "$" is a prefix, anything
// else a suffix.
func signed(v float64, unit string) string {
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	if unit == "$" {
		return fmt.Sprintf("%s$%.2f", sign, v)
	}
	return fmt.Sprintf("%s%.2f%s", sign, v, unit)
}
