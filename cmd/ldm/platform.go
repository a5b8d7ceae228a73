package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Manage platforms (top-level project groupings)",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			desc, _ := cmd.Flags().GetString("description")
			ctx, cancel := withDeadline()
			defer cancel()

			p, err := store.Platforms().Create(ctx, args[0], owner, desc, false)
			if err != nil {
				return err
			}
			fmt.Printf("platform %d: %s\n", p.ID, p.Name)
			return nil
		},
	}
	createCmd.Flags().String("owner", "", "owner user ID")
	createCmd.Flags().String("description", "", "description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withDeadline()
			defer cancel()
			platforms, err := store.Platforms().GetAll(ctx)
			if err != nil {
				return err
			}
			for _, p := range platforms {
				fmt.Printf("%d\t%s\n", p.ID, p.Name)
			}
			return nil
		},
	}

	platformCmd.AddCommand(createCmd, listCmd)
}
