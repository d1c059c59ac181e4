// Package service coordinates migrations across every registered schema
// module: sequential execution in registration order, failure
// aggregation, and post-run row-level-security reapplication.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schemanaut/schemanaut/internal/database"
	"github.com/schemanaut/schemanaut/internal/executor"
	"github.com/schemanaut/schemanaut/internal/logging"
	"github.com/schemanaut/schemanaut/internal/schema"
)

// RunOptions controls one cross-module run.
type RunOptions struct {
	Verbose bool
	Force   bool
	DryRun  bool
	// ContinueOnBlock keeps attempting later modules after a destructive
	// block instead of stopping the run at the first one.
	ContinueOnBlock bool
}

// Migrator runs a single module. Satisfied by executor.Executor;
// abstracted for testability.
type Migrator interface {
	Migrate(ctx context.Context, pluginName string, def *schema.Definition) (*executor.Result, error)
	Plan(ctx context.Context, pluginName string, def *schema.Definition) (*executor.Result, error)
}

// Reapplier restores row-level-security policies after migrations
// change table shapes. Implementations live outside the engine core.
type Reapplier interface {
	Reapply(ctx context.Context) error
}

// migratorFunc builds the per-run migrator from the run options.
// Injectable so tests can substitute a fake migrator.
type migratorFunc func(opts RunOptions) Migrator

// Service owns the plugin registry and runs migrations across it. It
// keeps no persistent state; everything durable lives in the
// bookkeeping tables.
type Service struct {
	db               database.DB
	logger           *logging.Logger
	reapplier        Reapplier
	lockTimeout      time.Duration
	statementTimeout time.Duration
	onProgress       func(ProgressEvent)
	newMigrator      migratorFunc

	// Registration order is run order.
	names []string
	defs  map[string]*schema.Definition
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithReapplier enables row-level-security reapplication after fully
// successful runs.
func WithReapplier(r Reapplier) Option {
	return func(s *Service) { s.reapplier = r }
}

// WithProgressCallback sets a function called for each module processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(s *Service) { s.onProgress = fn }
}

// WithLockTimeout sets the per-transaction lock_timeout for every run.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) { s.lockTimeout = d }
}

// WithStatementTimeout sets the per-transaction statement_timeout for
// every run.
func WithStatementTimeout(d time.Duration) Option {
	return func(s *Service) { s.statementTimeout = d }
}

// New creates a Service on the given database handle.
func New(db database.DB, opts ...Option) *Service {
	s := &Service{
		db:   db,
		defs: make(map[string]*schema.Definition),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	// Default set after options are applied, so tests can override it.
	if s.newMigrator == nil {
		s.newMigrator = func(opts RunOptions) Migrator {
			return executor.New(s.db,
				executor.WithForce(opts.Force),
				executor.WithDryRun(opts.DryRun),
				executor.WithVerbose(opts.Verbose),
				executor.WithLockTimeout(s.lockTimeout),
				executor.WithStatementTimeout(s.statementTimeout),
				executor.WithLogger(s.logger),
			)
		}
	}

	return s
}

// RegisterSchema adds a module to the registry. Modules migrate in
// registration order.
func (s *Service) RegisterSchema(pluginName string, def *schema.Definition) error {
	if pluginName == "" {
		return ErrEmptyPluginName
	}

	if _, ok := s.defs[pluginName]; ok {
		return fmt.Errorf("plugin %s: %w", pluginName, ErrAlreadyRegistered)
	}

	s.defs[pluginName] = def
	s.names = append(s.names, pluginName)

	return nil
}

// Registered returns the registered plugin names in registration order.
func (s *Service) Registered() []string {
	return append([]string(nil), s.names...)
}

// RunAllPluginMigrations migrates every registered module sequentially.
// Ordinary failures are collected and surfaced once as an
// AggregateError after every module has been attempted. A destructive
// block stops the run unless force or dry-run is set or
// ContinueOnBlock asks to carry on. Row-level-security reapplication
// runs only after a fully successful pass; its failure is a warning,
// not a run failure.
func (s *Service) RunAllPluginMigrations(ctx context.Context, opts RunOptions) (*RunReport, error) {
	report := &RunReport{RunID: uuid.NewString()}
	log := s.logger.With("run_id", report.RunID)

	log.Info("starting migration run", "modules", len(s.names), "dry_run", opts.DryRun, "force", opts.Force)

	m := s.newMigrator(opts)
	stopOnBlock := !opts.Force && !opts.DryRun && !opts.ContinueOnBlock

	for i, name := range s.names {
		s.fireProgress(ProgressEvent{PluginName: name, Status: StatusStarting})

		start := time.Now()
		res, err := m.Migrate(ctx, name, s.defs[name])
		duration := time.Since(start)

		switch {
		case err == nil:
			report.Results = append(report.Results, res)

			status := StatusCompleted
			if res.Status == executor.StatusUpToDate {
				status = StatusSkipped
			}

			s.fireProgress(ProgressEvent{PluginName: name, Status: status, Result: res, Duration: duration})

		case errors.Is(err, executor.ErrDestructiveBlocked):
			report.Blocked = append(report.Blocked, name)
			s.fireProgress(ProgressEvent{PluginName: name, Status: StatusBlocked, Duration: duration, Error: err})

			if stopOnBlock {
				log.Error("stopping run at destructive block",
					"plugin", name,
					"modules_not_attempted", len(s.names)-i-1,
				)

				return report, err
			}

		default:
			report.Failures = append(report.Failures, ModuleFailure{PluginName: name, Err: err})
			s.fireProgress(ProgressEvent{PluginName: name, Status: StatusFailed, Duration: duration, Error: err})
			log.Error("module migration failed", "plugin", name, "error", err)
		}
	}

	if len(report.Failures) > 0 {
		return report, &AggregateError{Failures: report.Failures}
	}

	if len(report.Blocked) > 0 {
		return report, fmt.Errorf("%w: %s", executor.ErrDestructiveBlocked, strings.Join(report.Blocked, ", "))
	}

	s.reapplyRLS(ctx, log, opts)

	log.Info("migration run finished", "modules", len(report.Results))

	return report, nil
}

// PlanAll previews each module's statements without executing anything.
func (s *Service) PlanAll(ctx context.Context) ([]*executor.Result, error) {
	m := s.newMigrator(RunOptions{})

	results := make([]*executor.Result, 0, len(s.names))

	for _, name := range s.names {
		res, err := m.Plan(ctx, name, s.defs[name])
		if err != nil {
			return nil, fmt.Errorf("planning %s: %w", name, err)
		}

		results = append(results, res)
	}

	return results, nil
}

// reapplyRLS invokes the reapply hook after a fully successful run.
// Reapplication is not required for schema correctness, so a failure
// here is logged and swallowed.
func (s *Service) reapplyRLS(ctx context.Context, log *logging.Logger, opts RunOptions) {
	if s.reapplier == nil || opts.DryRun {
		return
	}

	if err := s.reapplier.Reapply(ctx); err != nil {
		log.Warn("row-level-security reapplication failed", "error", err)

		return
	}

	log.Debug("row-level-security policies reapplied")
}
