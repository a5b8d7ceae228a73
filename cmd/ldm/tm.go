package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ldm-sh/ldm/internal/orchestrate"
	"github.com/ldm-sh/ldm/internal/types"
)

var tmCmd = &cobra.Command{
	Use:   "tm",
	Short: "Manage translation memories and their scope assignment",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create <name> <source-lang> <target-lang>",
		Short: "Create a translation memory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withDeadline()
			defer cancel()
			tm, err := store.TMs().Create(ctx, args[0], args[1], args[2], actorName())
			if err != nil {
				return err
			}
			fmt.Printf("tm %d: %s (%s -> %s)\n", tm.ID, tm.Name, args[1], args[2])
			return nil
		},
	}

	assignCmd := &cobra.Command{
		Use:   "assign <tm-id> <project-id>",
		Short: "Assign a TM to a project scope and activate it",
		Long: `Runs the assign-then-activate state transition in one
transaction: assign alone only links the TM to the scope
(assigned-inactive); this command also activates it so it immediately
participates in lookups.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid tm id %q: %w", args[0], err)
			}
			projectID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[1], err)
			}

			ctx, cancel := withDeadline()
			defer cancel()
			scope := types.Scope{Kind: types.ScopeProject, ProjectID: projectID}
			if err := orchestrate.AssignAndActivateTM(ctx, store, tmID, scope); err != nil {
				return err
			}
			fmt.Printf("tm %d assigned and activated for project %d\n", tmID, projectID)
			return nil
		},
	}

	deactivateCmd := &cobra.Command{
		Use:   "deactivate <tm-id>",
		Short: "Deactivate a TM without removing its scope assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid tm id %q: %w", args[0], err)
			}
			ctx, cancel := withDeadline()
			defer cancel()
			if err := store.TMs().Deactivate(ctx, tmID); err != nil {
				return err
			}
			fmt.Printf("tm %d deactivated\n", tmID)
			return nil
		},
	}

	tmCmd.AddCommand(createCmd, assignCmd, deactivateCmd)
}
