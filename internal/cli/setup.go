package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/schemanaut/schemanaut/internal/config"
	"github.com/schemanaut/schemanaut/internal/database"
	"github.com/schemanaut/schemanaut/internal/logging"
	"github.com/schemanaut/schemanaut/internal/rls"
	"github.com/schemanaut/schemanaut/internal/schemafile"
	"github.com/schemanaut/schemanaut/internal/service"
)

// errDatabaseURLRequired is returned when no database URL is configured.
var errDatabaseURLRequired = errors.New( //nolint:gochecknoglobals // sentinel error
	"database URL is required (set --database-url, SCHEMANAUT_DATABASE_URL, or database_url in config)",
)

// connectDB opens the configured database, announcing the redacted URL.
func connectDB(ctx context.Context, cfg *config.Config, out io.Writer) (*database.Pool, error) {
	fmt.Fprintf(out, "Connecting to %s\n", config.RedactURL(cfg.DatabaseURL))

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

// loadModules reads every schema module under the given directory.
func loadModules(dir string, out io.Writer) ([]schemafile.Module, error) {
	modules, err := schemafile.LoadFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading schema modules: %w", err)
	}

	if len(modules) == 0 {
		fmt.Fprintln(out, "No schema modules found.")
		return nil, nil //nolint:nilnil // nil,nil signals "no modules, no error"
	}

	return modules, nil
}

// newLogger builds the structured logger for the configured mode.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return log, nil
}

// buildService assembles the migration service: timeouts, logger, the
// RLS reapplier when enabled, and every loaded module registered in
// sorted order.
func buildService(
	cfg *config.Config,
	db database.DB,
	log *logging.Logger,
	modules []schemafile.Module,
	extra ...service.Option,
) (*service.Service, error) {
	opts := []service.Option{
		service.WithLogger(log),
		service.WithLockTimeout(cfg.LockTimeout),
		service.WithStatementTimeout(cfg.StatementTimeout),
	}

	if cfg.RLS.Enabled {
		reapplier, err := rls.New(db, rlsPolicies(cfg), rls.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("configuring row-level security: %w", err)
		}

		opts = append(opts, service.WithReapplier(reapplier))
	}

	opts = append(opts, extra...)

	svc := service.New(db, opts...)

	for _, m := range modules {
		if err := svc.RegisterSchema(m.PluginName, m.Definition); err != nil {
			return nil, fmt.Errorf("registering %s: %w", m.PluginName, err)
		}
	}

	return svc, nil
}

// rlsPolicies maps the config policy section onto the rls package types.
func rlsPolicies(cfg *config.Config) []rls.Policy {
	policies := make([]rls.Policy, 0, len(cfg.RLS.Policies))

	for _, p := range cfg.RLS.Policies {
		policies = append(policies, rls.Policy{
			Name:      p.Name,
			Table:     p.Table,
			Command:   p.Command,
			Using:     p.Using,
			WithCheck: p.WithCheck,
		})
	}

	return policies
}

// shortHash abbreviates a snapshot hash for display.
func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}

	return hash
}
