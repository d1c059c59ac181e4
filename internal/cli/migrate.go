package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemanaut/schemanaut/internal/executor"
	"github.com/schemanaut/schemanaut/internal/journal"
	"github.com/schemanaut/schemanaut/internal/service"
)

var migrateCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "migrate",
	Short: "Apply every schema module's pending changes",
	Long: `Diff each schema module against its last applied snapshot and apply
the generated DDL inside a single transaction per module. Destructive
statements block the module unless --force or the configured override
allows them.`,
	RunE: runMigrate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	migrateCmd.Flags().Bool("dry-run", false, "log planned statements without executing")
	migrateCmd.Flags().Bool("force", false, "apply destructive statements without blocking")
	migrateCmd.Flags().Bool("continue-on-block", false, "keep migrating remaining modules after a destructive block")
	migrateCmd.Flags().Duration("lock-timeout", 0, "override lock timeout (e.g., 10s, 1m)")
	migrateCmd.Flags().Duration("statement-timeout", 0, "override statement timeout (e.g., 30s, 5m)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cfg.DatabaseURL == "" {
		return errDatabaseURLRequired
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")
	continueOnBlock, _ := cmd.Flags().GetBool("continue-on-block")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if cmd.Flags().Changed("lock-timeout") {
		cfg.LockTimeout, _ = cmd.Flags().GetDuration("lock-timeout")
	}

	if cmd.Flags().Changed("statement-timeout") {
		cfg.StatementTimeout, _ = cmd.Flags().GetDuration("statement-timeout")
	}

	out := cmd.OutOrStdout()

	modules, err := loadModules(cfg.SchemaDir, out)
	if err != nil || modules == nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := connectDB(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer db.Close()

	var applied, planned, upToDate, blocked, failed int

	svc, err := buildService(cfg, db, log, modules,
		service.WithProgressCallback(func(event service.ProgressEvent) {
			switch event.Status {
			case service.StatusStarting:
				fmt.Fprintf(out, "  %s ... ", event.PluginName)
			case service.StatusCompleted:
				renderCompleted(out, event, &applied, &planned)
			case service.StatusSkipped:
				fmt.Fprintln(out, "up to date")
				upToDate++
			case service.StatusBlocked:
				fmt.Fprintln(out, "BLOCKED (destructive)")
				blocked++
			case service.StatusFailed:
				fmt.Fprintf(out, "FAILED\n    Error: %v\n", event.Error)
				failed++
			}
		}),
	)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Fprintln(out, "\n--- DRY RUN (no changes will be made) ---")
	}

	_, runErr := svc.RunAllPluginMigrations(ctx, service.RunOptions{
		Verbose:         verbose,
		Force:           force || cfg.AllowDestructive,
		DryRun:          dryRun,
		ContinueOnBlock: continueOnBlock,
	})

	if dryRun {
		fmt.Fprintf(out, "\nDry run complete: %d module(s) with pending changes, %d up to date, %d blocked.\n",
			planned, upToDate, blocked)
	} else {
		fmt.Fprintf(out, "\nRun complete: %d applied, %d up to date, %d blocked, %d failed.\n",
			applied, upToDate, blocked, failed)
	}

	return runErr
}

// renderCompleted prints one finished module: planned statements on a
// dry run, the journal tag and timing on a real one.
func renderCompleted(out io.Writer, event service.ProgressEvent, applied, planned *int) {
	res := event.Result

	if res.Status == executor.StatusPlanned {
		fmt.Fprintf(out, "would apply %d statement(s)\n", len(res.Statements))

		for _, stmt := range res.Statements {
			fmt.Fprintf(out, "    %s;\n", stmt.SQL)
		}

		*planned++

		return
	}

	fmt.Fprintf(out, "applied %d statement(s) as %s (%s)\n",
		len(res.Statements),
		journal.Tag(res.SequenceIdx, res.PluginName),
		event.Duration.Truncate(time.Millisecond),
	)

	*applied++
}
