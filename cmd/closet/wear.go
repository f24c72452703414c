package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-closet-must-flow/internal/cli"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
)

// wearResult is the JSON output of the wear command.
type wearResult struct {
	Challenge *model.RediscoveryChallenge `json:"challenge,omitempty"`
	Wear      model.WearEvent             `json:"wear"`
}

func wearCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "wear <item-id>",
		Short: "Record that you wore an item",
		Long: `Record a wear of an item. When your active rediscovery challenge
targets the item, it is counted toward the challenge too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, cfg, err := newEngine(store)
			if err != nil {
				return err
			}
			now := time.Now()
			wornAt, err := parseDate(at, cfg.Location, now)
			if err != nil {
				return err
			}

			result := wearResult{Wear: model.WearEvent{
				ID:     uuid.NewString(),
				ItemID: args[0],
				UserID: currentUser(),
				WornAt: wornAt,
			}}
			if err := store.RecordWear(ctx, &result.Wear); err != nil {
				return fmt.Errorf("failed to record wear: %w", err)
			}

			active, err := store.GetActiveChallenge(ctx, currentUser(), now)
			if err != nil {
				slog.Warn("Failed to look up active challenge", "error", err)
			}
			if active != nil && active.Targets(args[0]) && !active.HasCounted(args[0]) {
				result.Challenge, err = engine.MarkItemWorn(ctx, active.ID, args[0])
				if err != nil {
					return fmt.Errorf("wear recorded but challenge not updated: %w", err)
				}
			}

			return render(cmd, result, func(w io.Writer) error {
				fmt.Fprintf(w, "%s Wore %s\n", cli.SuccessStyle.Render(cli.SuccessIcon), cli.InfoStyle.Render(args[0]))
				if c := result.Challenge; c != nil {
					msg := fmt.Sprintf("%s: %d/%d", c.Title, c.Progress, c.TotalItems)
					if c.IsCompleted() {
						msg += " " + cli.TrophyIcon + " " + c.Reward
					}
					fmt.Fprintln(w, cli.FormatInfo(msg))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "When it was worn (default: now)")

	return cmd
}

func rateCmd() *cobra.Command {
	var (
		on       string
		outfitID string
		note     string
	)

	cmd := &cobra.Command{
		Use:   "rate <rating> <item-id>...",
		Short: "Rate how confident you felt in an outfit (1-5)",
		Example: `  # Rate today's outfit
  closet rate 4.5 blazer-id jeans-id boots-id`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid rating %q: %w", args[0], err)
			}
			cfg, err := loadPolicy()
			if err != nil {
				return err
			}
			wornOn, err := parseDate(on, cfg.Location, time.Now())
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rating := model.OutfitRating{
				ID:       uuid.NewString(),
				UserID:   currentUser(),
				OutfitID: outfitID,
				ItemIDs:  args[1:],
				Rating:   value,
				WornOn:   wornOn,
				Note:     note,
			}
			if err := store.SaveOutfitRating(ctx, &rating); err != nil {
				return fmt.Errorf("failed to save rating: %w", err)
			}

			return render(cmd, &rating, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s Rated outfit %s\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.ScoreStyle.Render(strconv.FormatFloat(value, 'f', 1, 64)))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&on, "on", "today", "Day the outfit was worn (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outfitID, "outfit", "", "Outfit identifier, to group ratings of the same outfit")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")

	return cmd
}
