package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ldm-sh/ldm/internal/orchestrate"
	"github.com/ldm-sh/ldm/internal/types"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files within a project",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create <project-id> <name>",
		Short: "Create a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[0], err)
			}
			folderID, _ := cmd.Flags().GetInt64("folder")
			format, _ := cmd.Flags().GetString("format")
			sourceLang, _ := cmd.Flags().GetString("source-lang")

			var folder *int64
			if folderID != 0 {
				folder = &folderID
			}

			ctx, cancel := withDeadline()
			defer cancel()
			f, err := store.Files().Create(ctx, types.File{
				ProjectID:      projectID,
				FolderID:       folder,
				Name:           args[1],
				Format:         format,
				SourceLanguage: sourceLang,
			})
			if err != nil {
				return err
			}
			fmt.Printf("file %d: %s\n", f.ID, f.Name)
			return nil
		},
	}
	createCmd.Flags().Int64("folder", 0, "parent folder ID (0 = project root)")
	createCmd.Flags().String("format", "json", "source file format")
	createCmd.Flags().String("source-lang", "en", "source language code")

	moveCmd := &cobra.Command{
		Use:   "move <file-id> <target-project-id>",
		Short: "Move a file into another project, resolving name collisions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid file id %q: %w", args[0], err)
			}
			targetProject, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[1], err)
			}
			folderID, _ := cmd.Flags().GetInt64("folder")
			var folder *int64
			if folderID != 0 {
				folder = &folderID
			}

			ctx, cancel := withDeadline()
			defer cancel()
			if err := orchestrate.MoveFileCrossProject(ctx, store, fileID, targetProject, folder); err != nil {
				return err
			}
			fmt.Printf("moved file %d to project %d\n", fileID, targetProject)
			return nil
		},
	}
	moveCmd.Flags().Int64("folder", 0, "destination folder ID (0 = project root)")

	fileCmd.AddCommand(createCmd, moveCmd)
}
