package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/schemanaut/schemanaut/internal/executor"
	"github.com/schemanaut/schemanaut/internal/guard"
	"github.com/schemanaut/schemanaut/internal/guard/rules"
	"github.com/schemanaut/schemanaut/internal/sqlgen"
)

const colorReset = "\033[0m"

var planCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "plan",
	Short: "Show the DDL each module would apply",
	Long: `Compute the statements each schema module would run, without executing
anything, and annotate them with lock impact and data-loss findings.`,
	RunE: runPlan,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cfg.DatabaseURL == "" {
		return errDatabaseURLRequired
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

	svc, err := buildService(cfg, db, log, modules)
	if err != nil {
		return err
	}

	results, err := svc.PlanAll(ctx)
	if err != nil {
		return fmt.Errorf("planning migrations: %w", err)
	}

	reviewer := guard.New(guard.WithRegistry(rules.NewDefaultRegistry()))
	pending := 0

	for _, res := range results {
		if res.Status == executor.StatusUpToDate {
			fmt.Fprintf(out, "%s: up to date\n", res.PluginName)

			continue
		}

		pending++

		report, reviewErr := reviewer.Review(res.Statements)
		if reviewErr != nil {
			return fmt.Errorf("reviewing %s: %w", res.PluginName, reviewErr)
		}

		printPlan(out, res, report)
	}

	if pending == 0 {
		fmt.Fprintln(out, "\nAll modules are up to date.")
	}

	return nil
}

// printPlan renders one module's statements with their findings.
// Destructive statements are marked with "!".
func printPlan(out io.Writer, res *executor.Result, report *guard.Report) {
	fmt.Fprintf(out, "\n=== %s (%d statement(s)) ===\n", res.PluginName, len(res.Statements))

	for i, stmt := range res.Statements {
		marker := " "
		if stmt.Destructive {
			marker = "!"
		}

		fmt.Fprintf(out, "%s %s;\n", marker, stmt.SQL)

		for _, f := range report.ForStatement(i) {
			fmt.Fprintf(out, "    %s[%s]%s %s", f.Severity.Color(), f.Severity, colorReset, f.Message)

			if f.LockType != "" {
				fmt.Fprintf(out, " (lock: %s)", f.LockType)
			}

			fmt.Fprintln(out)

			if f.Suggestion != "" {
				fmt.Fprintf(out, "      fix: %s\n", f.Suggestion)
			}
		}
	}

	if destructive := sqlgen.Destructive(res.Statements); len(destructive) > 0 {
		fmt.Fprintf(out, "  %d destructive statement(s); migrate will block without --force.\n", len(destructive))
	}
}
