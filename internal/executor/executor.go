// Package executor runs one schema module's migration from declared
// definitions to committed DDL: snapshot, hash short-circuit, diff,
// destructive gate, then a single transaction covering the statements
// and every bookkeeping write.
package executor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/schemanaut/schemanaut/internal/database"
	"github.com/schemanaut/schemanaut/internal/diff"
	"github.com/schemanaut/schemanaut/internal/journal"
	"github.com/schemanaut/schemanaut/internal/logging"
	"github.com/schemanaut/schemanaut/internal/schema"
	"github.com/schemanaut/schemanaut/internal/snapshot"
	"github.com/schemanaut/schemanaut/internal/sqlgen"
)

// Result statuses.
const (
	// StatusApplied: statements executed and bookkeeping committed.
	StatusApplied = "applied"
	// StatusUpToDate: stored state already matches the definitions.
	StatusUpToDate = "up-to-date"
	// StatusPlanned: statements computed but not executed (dry run / plan).
	StatusPlanned = "planned"
)

// EnvAllowDestructive is the process-wide override that permits
// destructive migrations without a per-call force flag.
const EnvAllowDestructive = "SCHEMANAUT_ALLOW_DESTRUCTIVE"

// Result describes the outcome of one module's run.
type Result struct {
	PluginName string
	Status     string
	// Statements holds what ran, or for planned runs what would run.
	Statements []sqlgen.Statement
	// SequenceIdx is the snapshot index assigned by an applied run,
	// -1 otherwise.
	SequenceIdx int
	Hash        string
	Duration    time.Duration
}

// Store abstracts the bookkeeping operations the executor needs, for
// testability.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context, pluginName string) (*journal.Journal, error)
	Save(ctx context.Context, pluginName string, j *journal.Journal) error
	NextSequenceIndex(ctx context.Context, pluginName string) (int, error)
	SaveSnapshot(ctx context.Context, pluginName string, idx int, snap *snapshot.Snapshot) error
	LoadLatestSnapshot(ctx context.Context, pluginName string) (*snapshot.Snapshot, error)
	LatestHash(ctx context.Context, pluginName string) (string, error)
	RecordApplied(ctx context.Context, pluginName, hash string) error
}

var _ Store = (*journal.Store)(nil)

// storeFunc builds a bookkeeping store bound to the given querier.
// Injectable so tests can substitute a fake store.
type storeFunc func(q database.Querier) Store

// Executor migrates schema modules one at a time against a single
// database handle.
type Executor struct {
	db               database.DB
	logger           *logging.Logger
	force            bool
	dryRun           bool
	verbose          bool
	lockTimeout      time.Duration
	statementTimeout time.Duration
	newStore         storeFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithForce permits destructive statements for every module in this
// executor's runs.
func WithForce(b bool) Option {
	return func(e *Executor) { e.force = b }
}

// WithDryRun makes Migrate log and return the planned statements
// without executing anything or writing bookkeeping rows.
func WithDryRun(b bool) Option {
	return func(e *Executor) { e.dryRun = b }
}

// WithVerbose logs every executed statement at info level.
func WithVerbose(b bool) Option {
	return func(e *Executor) { e.verbose = b }
}

// WithLockTimeout sets the per-transaction lock_timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Executor) { e.lockTimeout = d }
}

// WithStatementTimeout sets the per-transaction statement_timeout.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) { e.statementTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an Executor with the given database handle and options.
func New(db database.DB, opts ...Option) *Executor {
	e := &Executor{
		db: db,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	// Default set after options are applied, so tests can override it.
	if e.newStore == nil {
		e.newStore = func(q database.Querier) Store { return journal.NewStore(q) }
	}

	return e
}

// Migrate brings one module's live schema in line with its declared
// definitions. Runs with nothing to do return up-to-date without
// opening a transaction; runs with changes execute all DDL and
// bookkeeping writes in one transaction that commits or rolls back as
// a unit.
func (e *Executor) Migrate(ctx context.Context, pluginName string, def *schema.Definition) (*Result, error) {
	log := e.logger.With("plugin", pluginName)
	start := time.Now()

	store := e.newStore(e.db)

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	snap, hash, err := e.generate(pluginName, def)
	if err != nil {
		return nil, err
	}

	lastHash, err := store.LatestHash(ctx, pluginName)
	if err != nil {
		return nil, err
	}

	if lastHash == hash {
		log.Debug("schema unchanged", "hash", hash)

		return &Result{
			PluginName:  pluginName,
			Status:      StatusUpToDate,
			SequenceIdx: -1,
			Hash:        hash,
			Duration:    time.Since(start),
		}, nil
	}

	stmts, err := e.computeStatements(ctx, store, pluginName, snap)
	if err != nil {
		return nil, err
	}

	if len(stmts) == 0 {
		return &Result{
			PluginName:  pluginName,
			Status:      StatusUpToDate,
			SequenceIdx: -1,
			Hash:        hash,
			Duration:    time.Since(start),
		}, nil
	}

	if destructive := sqlgen.Destructive(stmts); len(destructive) > 0 && !e.force && !destructiveAllowedByEnv() {
		log.Error("destructive migration blocked",
			"statements", len(destructive),
			"hint", "re-run with force, set "+EnvAllowDestructive+"=true, or split the change",
		)

		return nil, &DestructiveError{PluginName: pluginName, Statements: destructive}
	}

	if e.dryRun {
		for _, s := range stmts {
			log.Info("dry run", "sql", s.SQL, "destructive", s.Destructive)
		}

		return &Result{
			PluginName:  pluginName,
			Status:      StatusPlanned,
			Statements:  stmts,
			SequenceIdx: -1,
			Hash:        hash,
			Duration:    time.Since(start),
		}, nil
	}

	idx, err := e.execute(ctx, pluginName, snap, hash, stmts, log)
	if err != nil {
		return nil, err
	}

	log.Info("migration applied",
		"statements", len(stmts),
		"sequence_idx", idx,
		"duration", time.Since(start),
	)

	return &Result{
		PluginName:  pluginName,
		Status:      StatusApplied,
		Statements:  stmts,
		SequenceIdx: idx,
		Hash:        hash,
		Duration:    time.Since(start),
	}, nil
}

// Plan computes the statements a Migrate call would run, without the
// destructive gate and without executing or writing anything.
func (e *Executor) Plan(ctx context.Context, pluginName string, def *schema.Definition) (*Result, error) {
	start := time.Now()

	store := e.newStore(e.db)

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	snap, hash, err := e.generate(pluginName, def)
	if err != nil {
		return nil, err
	}

	lastHash, err := store.LatestHash(ctx, pluginName)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PluginName:  pluginName,
		Status:      StatusUpToDate,
		SequenceIdx: -1,
		Hash:        hash,
		Duration:    time.Since(start),
	}

	if lastHash == hash {
		return result, nil
	}

	stmts, err := e.computeStatements(ctx, store, pluginName, snap)
	if err != nil {
		return nil, err
	}

	if len(stmts) > 0 {
		result.Status = StatusPlanned
		result.Statements = stmts
	}

	result.Duration = time.Since(start)

	return result, nil
}

// generate builds the canonical snapshot and its hash for a module.
func (e *Executor) generate(pluginName string, def *schema.Definition) (*snapshot.Snapshot, string, error) {
	snap, err := snapshot.Generate(def)
	if err != nil {
		return nil, "", fmt.Errorf("generating snapshot for %s: %w", pluginName, err)
	}

	hash, err := snapshot.Hash(snap)
	if err != nil {
		return nil, "", fmt.Errorf("hashing snapshot for %s: %w", pluginName, err)
	}

	return snap, hash, nil
}

// computeStatements diffs the stored snapshot against the current one
// and renders the plan.
func (e *Executor) computeStatements(ctx context.Context, store Store, pluginName string, snap *snapshot.Snapshot) ([]sqlgen.Statement, error) {
	prev, err := store.LoadLatestSnapshot(ctx, pluginName)
	if err != nil {
		return nil, err
	}

	d, err := diff.Compute(prev, snap)
	if err != nil {
		return nil, fmt.Errorf("diffing schema for %s: %w", pluginName, err)
	}

	if !d.HasChanges() {
		return nil, nil
	}

	return sqlgen.Generate(d), nil
}

// execute runs the plan and all bookkeeping writes in one transaction
// and returns the assigned sequence index.
func (e *Executor) execute(ctx context.Context, pluginName string, snap *snapshot.Snapshot, hash string, stmts []sqlgen.Statement, log *logging.Logger) (int, error) {
	idx := -1

	err := database.WithTx(ctx, e.db, func(tx database.Tx) error {
		if err := e.applyTimeouts(ctx, tx); err != nil {
			return err
		}

		for _, s := range stmts {
			if e.verbose {
				log.Info("executing", "sql", s.SQL, "destructive", s.Destructive)
			} else {
				log.Debug("executing", "sql", s.SQL)
			}

			if err := tx.Exec(ctx, s.SQL); err != nil {
				return fmt.Errorf("executing %q: %w", s.SQL, err)
			}
		}

		txStore := e.newStore(tx)

		if err := txStore.RecordApplied(ctx, pluginName, hash); err != nil {
			return err
		}

		var err error
		idx, err = txStore.NextSequenceIndex(ctx, pluginName)
		if err != nil {
			return err
		}

		j, err := txStore.Load(ctx, pluginName)
		if err != nil {
			return err
		}

		if j == nil {
			j = &journal.Journal{Version: snap.Version, Dialect: snap.Dialect}
		}

		j.Entries = append(j.Entries, journal.Entry{
			Idx:  idx,
			When: time.Now().UnixMilli(),
			Tag:  journal.Tag(idx, pluginName),
			Hash: hash,
		})

		if err := txStore.Save(ctx, pluginName, j); err != nil {
			return err
		}

		return txStore.SaveSnapshot(ctx, pluginName, idx, snap)
	})
	if err != nil {
		return -1, fmt.Errorf("%w: plugin %s: %w", ErrTransactionFailed, pluginName, err)
	}

	return idx, nil
}

// applyTimeouts sets transaction-local safety timeouts when configured.
func (e *Executor) applyTimeouts(ctx context.Context, tx database.Tx) error {
	if e.lockTimeout > 0 {
		if err := SetLockTimeout(ctx, tx, e.lockTimeout); err != nil {
			return err
		}
	}

	if e.statementTimeout > 0 {
		if err := SetStatementTimeout(ctx, tx, e.statementTimeout); err != nil {
			return err
		}
	}

	return nil
}

// destructiveAllowedByEnv reports whether the process-wide override is
// set to a true value.
func destructiveAllowedByEnv() bool {
	ok, err := strconv.ParseBool(os.Getenv(EnvAllowDestructive))

	return err == nil && ok
}
