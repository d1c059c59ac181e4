package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemanaut/schemanaut/internal/journal"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show applied migration state per module",
	Long: `Read the bookkeeping tables and report each module's journal: applied
steps with their tags and timestamps, and the stored schema hash.`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cfg.DatabaseURL == "" {
		return errDatabaseURLRequired
	}

	out := cmd.OutOrStdout()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := connectDB(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer db.Close()

	store := journal.NewStore(db)

	names, err := store.Plugins(ctx)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(out, "No modules have been migrated.")

		return nil
	}

	for _, name := range names {
		if err := printModuleStatus(ctx, out, store, name); err != nil {
			return err
		}
	}

	return nil
}

func printModuleStatus(ctx context.Context, out io.Writer, store *journal.Store, name string) error {
	j, err := store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	if j == nil {
		return nil
	}

	hash, err := store.LatestHash(ctx, name)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	fmt.Fprintf(out, "\n%s  (journal v%s, %s)\n", name, j.Version, j.Dialect)

	if len(j.Entries) == 0 {
		fmt.Fprintln(out, "  no applied steps")

		return nil
	}

	for _, e := range j.Entries {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			e.Tag,
			time.UnixMilli(e.When).UTC().Format(time.RFC3339),
			shortHash(e.Hash),
		)
	}

	if hash != "" {
		fmt.Fprintf(out, "  current hash: %s\n", shortHash(hash))
	}

	return nil
}
