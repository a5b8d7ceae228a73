package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ldm-sh/ldm/internal/configfile"
	"github.com/ldm-sh/ldm/internal/storage/offline"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a deployment directory with an offline database",
	Long: `Creates --dir (default .ldm/) with a metadata.json and an empty
offline SQLite database. Every other command requires this to exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configfile.ConfigPath(ldmDir)); err == nil {
			return fmt.Errorf("init: %s already exists", configfile.ConfigPath(ldmDir))
		}

		if err := os.MkdirAll(ldmDir, 0o755); err != nil {
			return fmt.Errorf("init: create %s: %w", ldmDir, err)
		}

		cfg := configfile.DefaultConfig()
		if err := cfg.Save(ldmDir); err != nil {
			return fmt.Errorf("init: save metadata: %w", err)
		}

		ctx := context.Background()
		s, err := offline.Open(ctx, offline.Options{Path: cfg.DatabasePath(ldmDir)})
		if err != nil {
			return fmt.Errorf("init: open offline database: %w", err)
		}
		defer s.Close()

		fmt.Printf("initialized %s (offline database: %s)\n", ldmDir, cfg.DatabasePath(ldmDir))
		return nil
	},
}
