// Command ldm is a thin operator CLI over the storage and orchestration
// packages: it resolves a mode token to a backend via factory.Resolver and
// drives the repository/orchestrate APIs directly, the way an integration
// test or an admin script would. It is not the LDM server itself — there is
// no HTTP/RPC surface here, just enough wiring to exercise every module
// end-to-end from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ldm-sh/ldm/internal/config"
	"github.com/ldm-sh/ldm/internal/debug"
	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/storage/factory"
)

var (
	ldmDir      string
	modeToken   string
	onlineDSN   string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool

	rootCtx    context.Context
	rootCancel context.CancelFunc

	resolver *factory.Resolver
	store    storage.Storage
)

func init() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&ldmDir, "dir", ".ldm", "deployment directory (metadata.json, offline database)")
	rootCmd.PersistentFlags().StringVar(&modeToken, "token", "", "mode token (default: $LDM_TOKEN or the offline prefix)")
	rootCmd.PersistentFlags().StringVar(&onlineDSN, "online-dsn", "", "go-sql-driver/mysql DSN for the online backend (default: $LDM_ONLINE_DSN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(initCmd, platformCmd, projectCmd, folderCmd, fileCmd, tmCmd, trashCmd)
}

var rootCmd = &cobra.Command{
	Use:   "ldm",
	Short: "ldm - localization data management store",
	Long:  `Operator CLI over the localization data management storage layer: platforms, projects, folders, files, rows, TMs, and trash.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)

		if !cmd.Flags().Changed("token") {
			if t := os.Getenv("LDM_TOKEN"); t != "" {
				modeToken = t
			}
		}
		if !cmd.Flags().Changed("online-dsn") {
			if d := os.Getenv("LDM_ONLINE_DSN"); d != "" {
				onlineDSN = d
			}
		}

		// Commands that only manage the deployment directory itself never
		// need an open backend.
		if cmd.Name() == "init" || cmd.Name() == "ldm" {
			return nil
		}

		resolver = factory.NewResolver(factory.Options{
			Dir:       ldmDir,
			OnlineDSN: onlineDSN,
		})

		s, err := resolver.Open(rootCtx, modeToken)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		store = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func withDeadline() (context.Context, context.CancelFunc) {
	return context.WithTimeout(rootCtx, 30*time.Second)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// cmdEnvActor resolves the acting user for audit trails on mutating
// commands: $LDM_ACTOR, then $USER.
func cmdEnvActor() string {
	if a := os.Getenv("LDM_ACTOR"); a != "" {
		return a
	}
	return os.Getenv("USER")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
