package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-closet-must-flow/internal/cli"
	"github.com/Veraticus/the-closet-must-flow/internal/model"
	"github.com/Veraticus/the-closet-must-flow/internal/service"
)

func itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage the items in your closet",
		Example: `  # Add a coat bought last autumn
  closet items add --name "Wool coat" --category outerwear --color camel --price 240 --purchased 2025-10-01

  # List everything, including deleted items
  closet items list --all`,
	}

	cmd.AddCommand(addItemCmd())
	cmd.AddCommand(listItemsCmd())
	cmd.AddCommand(deleteItemCmd())
	cmd.AddCommand(tagItemCmd())

	return cmd
}

func addItemCmd() *cobra.Command {
	var (
		item      model.WardrobeItem
		purchased string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadPolicy()
			if err != nil {
				return err
			}
			item.PurchaseDate, err = parseDate(purchased, cfg.Location, time.Now())
			if err != nil {
				return err
			}
			item.ID = uuid.NewString()
			item.UserID = currentUser()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveItem(ctx, &item); err != nil {
				return fmt.Errorf("failed to add item: %w", err)
			}

			return render(cmd, &item, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s Added %s (%s)\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.BoldStyle.Render(item.DisplayName()),
					cli.InfoStyle.Render(item.ID))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&item.Name, "name", "", "Item name")
	cmd.Flags().StringVarP(&item.Category, "category", "c", "", "Category, e.g. tops, shoes")
	cmd.Flags().StringVar(&item.Brand, "brand", "", "Brand")
	cmd.Flags().StringSliceVar(&item.Colors, "color", nil, "Colors (repeatable)")
	cmd.Flags().StringSliceVar(&item.Tags, "tag", nil, "Style tags (repeatable)")
	cmd.Flags().Float64Var(&item.PurchasePrice, "price", 0, "Purchase price")
	cmd.Flags().StringVar(&purchased, "purchased", "today", "Purchase date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&item.ImageURI, "image", "", "Image location")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func listItemsCmd() *cobra.Command {
	var opts service.ItemListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			items, err := store.ListItems(ctx, currentUser(), opts)
			if err != nil {
				return fmt.Errorf("failed to list items: %w", err)
			}

			return render(cmd, items, func(w io.Writer) error {
				return cli.RenderItems(w, items)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "Only this category")
	cmd.Flags().BoolVar(&opts.IncludeTombstoned, "all", false, "Include deleted items")

	return cmd
}

func deleteItemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item, keeping its wear history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.TombstoneItem(ctx, args[0], time.Now()); err != nil {
				return fmt.Errorf("failed to delete item: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(args[0]))
			return nil
		},
	}
}

func tagItemCmd() *cobra.Command {
	var (
		name string
		tags []string
	)

	cmd := &cobra.Command{
		Use:   "tag <item-id>",
		Short: "Rename an item or replace its style tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			item, err := store.GetItem(ctx, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") {
				name = item.Name
			}
			if !cmd.Flags().Changed("tag") {
				tags = item.Tags
			}

			if err := store.UpdateItemDetails(ctx, item.ID, name, tags); err != nil {
				return fmt.Errorf("failed to update item: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Updated %s\n",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(item.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Style tags (repeatable, replaces existing)")

	return cmd
}
