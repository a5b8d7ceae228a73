package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Inspect and restore soft-deleted items",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list <user-id>",
		Short: "List trashed items for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withDeadline()
			defer cancel()
			items, err := store.Trash().GetForUser(ctx, args[0])
			if err != nil {
				return err
			}
			for _, t := range items {
				fmt.Printf("%d\t%s\t%s\t%s (expires %s)\n", t.ID, t.ItemType, t.ItemName, t.Status, t.ExpiresAt)
			}
			return nil
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <trash-id> <user-id>",
		Short: "Restore a trashed item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trashID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid trash id %q: %w", args[0], err)
			}
			isAdmin, _ := cmd.Flags().GetBool("admin")

			ctx, cancel := withDeadline()
			defer cancel()
			rec, err := store.Trash().Restore(ctx, trashID, args[1], isAdmin)
			if err != nil {
				return err
			}
			fmt.Printf("restored %s %d (%s)\n", rec.ItemType, rec.ItemID, rec.ItemName)
			return nil
		},
	}
	restoreCmd.Flags().Bool("admin", false, "restore another user's trashed item")

	emptyCmd := &cobra.Command{
		Use:   "empty <user-id>",
		Short: "Permanently delete all of a user's trashed items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withDeadline()
			defer cancel()
			n, err := store.Trash().EmptyForUser(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("permanently deleted %d item(s)\n", n)
			return nil
		},
	}

	trashCmd.AddCommand(listCmd, restoreCmd, emptyCmd)
}
