package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ldm-sh/ldm/internal/configfile"
	"github.com/ldm-sh/ldm/internal/orchestrate"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			desc, _ := cmd.Flags().GetString("description")
			platformID, _ := cmd.Flags().GetInt64("platform")

			var platform *int64
			if platformID != 0 {
				platform = &platformID
			}

			ctx, cancel := withDeadline()
			defer cancel()
			p, err := store.Projects().Create(ctx, args[0], owner, desc, platform, false)
			if err != nil {
				return err
			}
			fmt.Printf("project %d: %s\n", p.ID, p.Name)
			return nil
		},
	}
	createCmd.Flags().String("owner", "", "owner user ID")
	createCmd.Flags().String("description", "", "description")
	createCmd.Flags().Int64("platform", 0, "parent platform ID (0 = unattached)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withDeadline()
			defer cancel()
			projects, err := store.Projects().GetAll(ctx)
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Printf("%d\t%s\n", p.ID, p.Name)
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a project into trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[0], err)
			}

			cfg, err := configfile.Load(ldmDir)
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = configfile.DefaultConfig()
			}

			ctx, cancel := withDeadline()
			defer cancel()
			rec, err := orchestrate.DeleteProject(ctx, store, id, actorName(), cfg.GetTrashRetentionDays())
			if err != nil {
				return err
			}
			fmt.Printf("trashed project %d as trash record %d (expires %s)\n", id, rec.ID, rec.ExpiresAt)
			return nil
		},
	}

	projectCmd.AddCommand(createCmd, listCmd, deleteCmd)
}

func actorName() string {
	if u := cmdEnvActor(); u != "" {
		return u
	}
	return "unknown"
}
