// Package journal persists migration history: one journal row, one
// snapshot row per applied step, and one hash record per run, all in
// the migrations bookkeeping namespace.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/schemanaut/schemanaut/internal/database"
	"github.com/schemanaut/schemanaut/internal/snapshot"
)

// Entry is one applied migration step in a module's journal.
type Entry struct {
	Idx  int    `json:"idx"`
	When int64  `json:"when"`
	Tag  string `json:"tag"`
	Hash string `json:"hash"`
}

// Journal is the append-only migration history for one schema module.
type Journal struct {
	Version string  `json:"version"`
	Dialect string  `json:"dialect"`
	Entries []Entry `json:"entries"`
}

// Tag returns the journal tag for a migration step, e.g.
// "0003_billing" for the fourth step of the billing module.
func Tag(idx int, pluginName string) string {
	return fmt.Sprintf("%04d_%s", idx, pluginName)
}

// Store reads and writes the bookkeeping tables through whatever
// Querier it is built on. Build one on a transaction to make every
// bookkeeping write atomic with the DDL it describes.
type Store struct {
	q database.Querier
}

// NewStore creates a Store backed by the given Querier.
func NewStore(q database.Querier) *Store {
	return &Store{q: q}
}

// EnsureSchema creates the bookkeeping namespace and tables if they
// do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		createNamespaceSQL,
		createMigrationsSQL,
		createJournalSQL,
		createSnapshotsSQL,
	}

	for _, stmt := range ddl {
		if err := s.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", ErrSchemaCreation, err)
		}
	}

	return nil
}

// Load returns the journal for a module, or nil when the module has
// never been migrated.
func (s *Store) Load(ctx context.Context, pluginName string) (*Journal, error) {
	var (
		j   Journal
		raw []byte
	)

	err := s.q.QueryRow(ctx,
		`SELECT version, dialect, entries FROM migrations._journal WHERE plugin_name = $1`,
		pluginName,
	).Scan(&j.Version, &j.Dialect, &raw)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("loading journal for %s: %w", pluginName, err)
	}

	if err := json.Unmarshal(raw, &j.Entries); err != nil {
		return nil, fmt.Errorf("%w: plugin %s: %w", ErrCorruptJournal, pluginName, err)
	}

	return &j, nil
}

// Plugins returns the name of every module with a journal row, in
// name order.
func (s *Store) Plugins(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx,
		`SELECT plugin_name FROM migrations._journal ORDER BY plugin_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing journaled plugins: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing journaled plugins: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing journaled plugins: %w", err)
	}

	return names, nil
}

// Save upserts a module's journal row.
func (s *Store) Save(ctx context.Context, pluginName string, j *Journal) error {
	// An empty journal still stores a JSON array, not null.
	entries := j.Entries
	if entries == nil {
		entries = []Entry{}
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding journal entries for %s: %w", pluginName, err)
	}

	err = s.q.Exec(ctx,
		`INSERT INTO migrations._journal (plugin_name, version, dialect, entries)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (plugin_name) DO UPDATE SET
		     version = EXCLUDED.version,
		     dialect = EXCLUDED.dialect,
		     entries = EXCLUDED.entries`,
		pluginName, j.Version, j.Dialect, string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving journal for %s: %w", pluginName, err)
	}

	return nil
}

// NextSequenceIndex assigns the next snapshot index for a module,
// starting at zero. Call it inside the transaction that writes the
// snapshot so two runs cannot hand out the same index.
func (s *Store) NextSequenceIndex(ctx context.Context, pluginName string) (int, error) {
	var idx int

	err := s.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(idx) + 1, 0) FROM migrations._snapshots WHERE plugin_name = $1`,
		pluginName,
	).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("assigning sequence index for %s: %w", pluginName, err)
	}

	return idx, nil
}

// SaveSnapshot stores a snapshot under the given sequence index.
// Indexes are unique per module; writing the same index twice fails.
func (s *Store) SaveSnapshot(ctx context.Context, pluginName string, idx int, snap *snapshot.Snapshot) error {
	raw, err := snapshot.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot %d for %s: %w", idx, pluginName, err)
	}

	err = s.q.Exec(ctx,
		`INSERT INTO migrations._snapshots (plugin_name, idx, snapshot) VALUES ($1, $2, $3)`,
		pluginName, idx, string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %d for %s: %w", idx, pluginName, err)
	}

	return nil
}

// LoadLatestSnapshot returns the highest-index snapshot for a module,
// or nil when the module has never been migrated.
func (s *Store) LoadLatestSnapshot(ctx context.Context, pluginName string) (*snapshot.Snapshot, error) {
	var raw []byte

	err := s.q.QueryRow(ctx,
		`SELECT snapshot FROM migrations._snapshots WHERE plugin_name = $1 ORDER BY idx DESC LIMIT 1`,
		pluginName,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("loading latest snapshot for %s: %w", pluginName, err)
	}

	snap, err := snapshot.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: plugin %s: %w", ErrCorruptSnapshot, pluginName, err)
	}

	return snap, nil
}

// LatestHash returns the hash of the most recent migration record for
// a module, or the empty string when no run has been recorded.
func (s *Store) LatestHash(ctx context.Context, pluginName string) (string, error) {
	var hash string

	err := s.q.QueryRow(ctx,
		`SELECT hash FROM migrations._migrations WHERE plugin_name = $1 ORDER BY id DESC LIMIT 1`,
		pluginName,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("loading latest migration hash for %s: %w", pluginName, err)
	}

	return hash, nil
}

// RecordApplied inserts a migration record carrying the snapshot hash
// and the wall-clock time of the run in epoch milliseconds.
func (s *Store) RecordApplied(ctx context.Context, pluginName, hash string) error {
	err := s.q.Exec(ctx,
		`INSERT INTO migrations._migrations (plugin_name, hash, created_at) VALUES ($1, $2, $3)`,
		pluginName, hash, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("recording migration for %s: %w", pluginName, err)
	}

	return nil
}
