package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-closet-must-flow/internal/cli"
	"github.com/Veraticus/the-closet-must-flow/internal/config"
	"github.com/Veraticus/the-closet-must-flow/internal/importer"
)

func importCmd() *cobra.Command {
	var noCheckpoint bool

	cmd := &cobra.Command{
		Use:   "import <export.json>",
		Short: "Import items, wear history and ratings from a JSON export",
		Long: `Import a wardrobe export of the form
  {"items": [...], "wear_events": [...], "ratings": [...]}

The whole file is validated before anything is written, and an automatic
checkpoint is taken first so a partial import can be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(config.ExpandPath(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open export: %w", err)
			}
			defer func() { _ = f.Close() }()

			export, err := importer.Decode(f)
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Import",
				"Undo a partial import with: closet checkpoint restore <id> (see closet checkpoint list)")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			opts := importer.Options{UserID: currentUser(), Progress: cmd.ErrOrStderr()}
			if !noCheckpoint {
				manager, err := store.NewCheckpointManager()
				if err != nil {
					return fmt.Errorf("failed to create checkpoint manager: %w", err)
				}
				opts.Checkpoints = manager
			}

			stats, err := importer.New(store, opts).Import(ctx, export)
			if err != nil {
				return err
			}

			return render(cmd, stats, func(w io.Writer) error {
				summary := fmt.Sprintf("  • Items: %d\n", stats.Items) +
					fmt.Sprintf("  • Wear events: %d\n", stats.WearEvents) +
					fmt.Sprintf("  • Ratings: %d\n", stats.Ratings) +
					fmt.Sprintf("  • Deleted items: %d", stats.Tombstoned)
				_, err := fmt.Fprintln(w, cli.RenderBox("Import Complete", summary))
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "Skip the automatic checkpoint")

	return cmd
}
