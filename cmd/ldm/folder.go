package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ldm-sh/ldm/internal/orchestrate"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders within a project",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create <project-id> <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[0], err)
			}
			parentID, _ := cmd.Flags().GetInt64("parent")
			var parent *int64
			if parentID != 0 {
				parent = &parentID
			}

			ctx, cancel := withDeadline()
			defer cancel()
			f, err := store.Folders().Create(ctx, projectID, parent, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("folder %d: %s\n", f.ID, f.Name)
			return nil
		},
	}
	createCmd.Flags().Int64("parent", 0, "parent folder ID (0 = project root)")

	moveCmd := &cobra.Command{
		Use:   "move <folder-id> <target-project-id>",
		Short: "Move a folder into another project, resolving name collisions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid folder id %q: %w", args[0], err)
			}
			targetProject, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[1], err)
			}
			parentID, _ := cmd.Flags().GetInt64("parent")
			var parent *int64
			if parentID != 0 {
				parent = &parentID
			}

			ctx, cancel := withDeadline()
			defer cancel()
			if err := store.Folders().MoveCrossProject(ctx, folderID, targetProject, parent); err != nil {
				return err
			}
			fmt.Printf("moved folder %d to project %d\n", folderID, targetProject)
			return nil
		},
	}
	moveCmd.Flags().Int64("parent", 0, "destination parent folder ID (0 = project root)")

	copyCmd := &cobra.Command{
		Use:   "copy <folder-id> <target-project-id>",
		Short: "Recursively copy a folder and everything under it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid folder id %q: %w", args[0], err)
			}
			targetProject, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[1], err)
			}
			parentID, _ := cmd.Flags().GetInt64("parent")
			var parent *int64
			if parentID != 0 {
				parent = &parentID
			}

			ctx, cancel := withDeadline()
			defer cancel()
			dest, err := orchestrate.CopyFolder(ctx, store, folderID, &targetProject, parent)
			if err != nil {
				return err
			}
			fmt.Printf("copied folder %d -> %d: %s\n", folderID, dest.ID, dest.Name)
			return nil
		},
	}
	copyCmd.Flags().Int64("parent", 0, "destination parent folder ID (0 = project root)")

	folderCmd.AddCommand(createCmd, moveCmd, copyCmd)
}
