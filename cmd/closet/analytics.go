package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-closet-must-flow/internal/analytics"
	"github.com/Veraticus/the-closet-must-flow/internal/cli"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
)

func valueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "value <item-id>",
		Short: "Show an item's cost per wear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, _, err := newEngine(store)
			if err != nil {
				return err
			}
			result, err := engine.CalculateCostPerWear(ctx, args[0])
			if err != nil {
				return err
			}
			item, err := store.GetItem(ctx, args[0])
			if err != nil {
				return err
			}

			return render(cmd, result, func(w io.Writer) error {
				return cli.RenderCostPerWear(w, item, result)
			})
		},
	}
}

func challengeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Rediscover items you have not worn lately",
		Example: `  # Start a color exploration challenge
  closet challenge new --type color_exploration

  # Count an item toward the active challenge
  closet challenge wear <item-id>`,
	}

	cmd.AddCommand(newChallengeCmd())
	cmd.AddCommand(showChallengeCmd())
	cmd.AddCommand(challengeWearCmd())

	return cmd
}

func newChallengeCmd() *cobra.Command {
	var challengeType string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a challenge, or show the one already running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, _, err := newEngine(store)
			if err != nil {
				return err
			}
			challenge, err := engine.CreateChallenge(ctx, currentUser(), model.ChallengeType(challengeType))
			if err != nil {
				return err
			}
			names, err := itemNames(ctx, store, currentUser())
			if err != nil {
				return err
			}

			return render(cmd, challenge, func(w io.Writer) error {
				return cli.RenderChallenge(w, challenge, names, time.Now())
			})
		},
	}

	types := make([]string, len(model.ChallengeTypes))
	for i, t := range model.ChallengeTypes {
		types[i] = string(t)
	}
	cmd.Flags().StringVarP(&challengeType, "type", "t", string(model.ChallengeNeglectedItems),
		"Challenge type ("+strings.Join(types, ", ")+")")

	return cmd
}

func showChallengeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [challenge-id]",
		Short: "Show the active challenge, or a past one by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			now := time.Now()
			var challenge *model.RediscoveryChallenge
			if len(args) == 1 {
				challenge, err = store.GetChallenge(ctx, args[0])
			} else {
				challenge, err = store.GetActiveChallenge(ctx, currentUser(), now)
			}
			if err != nil {
				return err
			}
			if challenge == nil {
				return render(cmd, challenge, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, cli.FormatInfo("No active challenge. Start one with: closet challenge new"))
					return err
				})
			}

			names, err := itemNames(ctx, store, challenge.UserID)
			if err != nil {
				return err
			}
			return render(cmd, challenge, func(w io.Writer) error {
				return cli.RenderChallenge(w, challenge, names, now)
			})
		},
	}
}

func challengeWearCmd() *cobra.Command {
	var challengeID string

	cmd := &cobra.Command{
		Use:   "wear <item-id>",
		Short: "Count an item toward a challenge without recording a wear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			now := time.Now()
			if challengeID == "" {
				active, err := store.GetActiveChallenge(ctx, currentUser(), now)
				if err != nil {
					return err
				}
				if active == nil {
					return fmt.Errorf("no active challenge; start one with: closet challenge new")
				}
				challengeID = active.ID
			}

			engine, _, err := newEngine(store)
			if err != nil {
				return err
			}
			challenge, err := engine.MarkItemWorn(ctx, challengeID, args[0])
			if err != nil {
				return err
			}
			names, err := itemNames(ctx, store, challenge.UserID)
			if err != nil {
				return err
			}

			return render(cmd, challenge, func(w io.Writer) error {
				return cli.RenderChallenge(w, challenge, names, now)
			})
		},
	}

	cmd.Flags().StringVar(&challengeID, "challenge", "", "Challenge ID (default: the active challenge)")

	return cmd
}

func recommendCmd() *cobra.Command {
	var req analytics.RecommendationRequest

	cmd := &cobra.Command{
		Use:     "recommend <what you want to buy>",
		Short:   "Find things you already own before buying something new",
		Example: `  closet recommend "black silk top" --category tops --color black --style "minimalist evening"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, _, err := newEngine(store)
			if err != nil {
				return err
			}
			req.UserID = currentUser()
			req.TargetDescription = strings.Join(args, " ")

			rec, err := engine.GenerateRecommendation(ctx, req)
			if err != nil {
				return err
			}

			return render(cmd, rec, func(w io.Writer) error {
				return cli.RenderRecommendation(w, rec)
			})
		},
	}

	cmd.Flags().StringVarP(&req.Category, "category", "c", "", "Category of the item you want")
	cmd.Flags().StringVar(&req.Style, "style", "", "Style keywords, e.g. \"smart-casual minimalist\"")
	cmd.Flags().StringSliceVar(&req.Colors, "color", nil, "Desired colors (repeatable)")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func metricsCmd() *cobra.Command {
	var month, year int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show the monthly confidence report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, _, err := newEngine(store)
			if err != nil {
				return err
			}
			report, err := engine.GenerateMonthlyConfidenceMetrics(ctx, currentUser(), time.Month(month), year)
			if err != nil {
				return err
			}

			return render(cmd, report, func(w io.Writer) error {
				return cli.RenderMonthlyMetrics(w, report)
			})
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default: current)")
	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current)")

	return cmd
}
