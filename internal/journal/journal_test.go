package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemanaut/schemanaut/internal/database"
	"github.com/schemanaut/schemanaut/internal/journal"
	"github.com/schemanaut/schemanaut/internal/schema"
	"github.com/schemanaut/schemanaut/internal/snapshot"
)

type call struct {
	query string
	args  []any
}

// fakeQuerier records every statement, serves a canned scan function
// for single-row queries, and canned string rows for multi-row ones.
type fakeQuerier struct {
	calls    []call
	execErr  error
	queryErr error
	rows     []string
	scan     func(dest ...any) error
}

var _ database.Querier = (*fakeQuerier)(nil)

func (f *fakeQuerier) Exec(_ context.Context, query string, args ...any) error {
	f.calls = append(f.calls, call{query: query, args: args})

	return f.execErr
}

func (f *fakeQuerier) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	f.calls = append(f.calls, call{query: query, args: args})

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	return &fakeRows{values: f.rows}, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, query string, args ...any) database.Row {
	f.calls = append(f.calls, call{query: query, args: args})

	return fakeRow{scan: f.scan}
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scan(dest...)
}

type fakeRows struct {
	values []string
	pos    int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}

	r.pos++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.values[r.pos-1]

	return nil
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() {}

func accountsSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()

	snap, err := snapshot.Generate(&schema.Definition{
		Tables: []schema.Table{
			{
				Name: "accounts",
				Columns: []schema.Column{
					{Name: "id", Type: schema.TypeOf(schema.BigSerial), PrimaryKey: true},
					{Name: "email", Type: schema.VarcharType(255)},
				},
			},
		},
	})
	require.NoError(t, err)

	return snap
}

func TestTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0000_auth", journal.Tag(0, "auth"))
	assert.Equal(t, "0003_billing", journal.Tag(3, "billing"))
	assert.Equal(t, "10000_core", journal.Tag(10000, "core"))
}

func TestEnsureSchema_createsNamespaceAndTables(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}

	err := journal.NewStore(q).EnsureSchema(context.Background())

	require.NoError(t, err)
	require.Len(t, q.calls, 4)
	assert.Contains(t, q.calls[0].query, "CREATE SCHEMA IF NOT EXISTS migrations")
	assert.Contains(t, q.calls[1].query, "migrations._migrations")
	assert.Contains(t, q.calls[2].query, "migrations._journal")
	assert.Contains(t, q.calls[3].query, "migrations._snapshots")

	// Re-running against an initialized database must be a no-op.
	for _, c := range q.calls[1:] {
		assert.Contains(t, c.query, "CREATE TABLE IF NOT EXISTS")
	}
}

func TestEnsureSchema_wrapsFailure(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{execErr: errors.New("permission denied")}

	err := journal.NewStore(q).EnsureSchema(context.Background())

	require.ErrorIs(t, err, journal.ErrSchemaCreation)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestLoad_neverMigratedModuleIsNil(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(...any) error { return database.ErrNoRows }}

	j, err := journal.NewStore(q).Load(context.Background(), "billing")

	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestLoad_decodesRow(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "1"
		*(dest[1].(*string)) = "postgresql"
		*(dest[2].(*[]byte)) = []byte(`[
			{"idx": 0, "when": 1700000000000, "tag": "0000_billing", "hash": "aaaa"},
			{"idx": 1, "when": 1700000100000, "tag": "0001_billing", "hash": "bbbb"}
		]`)

		return nil
	}}

	j, err := journal.NewStore(q).Load(context.Background(), "billing")

	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, "1", j.Version)
	assert.Equal(t, "postgresql", j.Dialect)
	require.Len(t, j.Entries, 2)
	assert.Equal(t, journal.Entry{Idx: 0, When: 1700000000000, Tag: "0000_billing", Hash: "aaaa"}, j.Entries[0])
	assert.Equal(t, journal.Entry{Idx: 1, When: 1700000100000, Tag: "0001_billing", Hash: "bbbb"}, j.Entries[1])

	require.Len(t, q.calls, 1)
	assert.Equal(t, []any{"billing"}, q.calls[0].args)
}

func TestLoad_corruptEntriesRejected(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "1"
		*(dest[1].(*string)) = "postgresql"
		*(dest[2].(*[]byte)) = []byte(`{not json`)

		return nil
	}}

	_, err := journal.NewStore(q).Load(context.Background(), "billing")

	require.ErrorIs(t, err, journal.ErrCorruptJournal)
	assert.Contains(t, err.Error(), "billing")
}

func TestSave_upsertsEncodedEntries(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	j := &journal.Journal{
		Version: "1",
		Dialect: "postgresql",
		Entries: []journal.Entry{
			{Idx: 0, When: 1700000000000, Tag: "0000_billing", Hash: "aaaa"},
		},
	}

	err := journal.NewStore(q).Save(context.Background(), "billing", j)

	require.NoError(t, err)
	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].query, "ON CONFLICT (plugin_name) DO UPDATE")

	args := q.calls[0].args
	require.Len(t, args, 4)
	assert.Equal(t, "billing", args[0])
	assert.Equal(t, "1", args[1])
	assert.Equal(t, "postgresql", args[2])
	assert.JSONEq(t,
		`[{"idx": 0, "when": 1700000000000, "tag": "0000_billing", "hash": "aaaa"}]`,
		args[3].(string),
	)
}

func TestSave_emptyJournalStoresArray(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}

	err := journal.NewStore(q).Save(context.Background(), "billing", &journal.Journal{
		Version: "1",
		Dialect: "postgresql",
	})

	require.NoError(t, err)
	require.Len(t, q.calls, 1)
	assert.Equal(t, "[]", q.calls[0].args[3])
}

func TestNextSequenceIndex_startsAtZero(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(dest ...any) error {
		*(dest[0].(*int)) = 0

		return nil
	}}

	idx, err := journal.NewStore(q).NextSequenceIndex(context.Background(), "billing")

	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Contains(t, q.calls[0].query, "COALESCE(MAX(idx) + 1, 0)")
}

func TestNextSequenceIndex_followsLatestSnapshot(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(dest ...any) error {
		*(dest[0].(*int)) = 7

		return nil
	}}

	idx, err := journal.NewStore(q).NextSequenceIndex(context.Background(), "billing")

	require.NoError(t, err)
	assert.Equal(t, 7, idx)
}

func TestSaveSnapshot_storesCanonicalJSON(t *testing.T) {
	t.Parallel()

	snap := accountsSnapshot(t)
	want, err := snapshot.Marshal(snap)
	require.NoError(t, err)

	q := &fakeQuerier{}

	err = journal.NewStore(q).SaveSnapshot(context.Background(), "accounts", 3, snap)

	require.NoError(t, err)
	require.Len(t, q.calls, 1)

	args := q.calls[0].args
	require.Len(t, args, 3)
	assert.Equal(t, "accounts", args[0])
	assert.Equal(t, 3, args[1])
	assert.Equal(t, string(want), args[2])
}

func TestLoadLatestSnapshot_neverMigratedModuleIsNil(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(...any) error { return database.ErrNoRows }}

	snap, err := journal.NewStore(q).LoadLatestSnapshot(context.Background(), "billing")

	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestLoadLatestSnapshot_roundTrip(t *testing.T) {
	t.Parallel()

	stored := accountsSnapshot(t)
	raw, err := snapshot.Marshal(stored)
	require.NoError(t, err)

	q := &fakeQuerier{scan: func(dest ...any) error {
		*(dest[0].(*[]byte)) = raw

		return nil
	}}

	snap, err := journal.NewStore(q).LoadLatestSnapshot(context.Background(), "accounts")

	require.NoError(t, err)
	require.NotNil(t, snap)

	wantHash, err := snapshot.Hash(stored)
	require.NoError(t, err)
	gotHash, err := snapshot.Hash(snap)
	require.NoError(t, err)
	assert.Equal(t, wantHash, gotHash)

	assert.Contains(t, q.calls[0].query, "ORDER BY idx DESC LIMIT 1")
}

func TestLoadLatestSnapshot_corruptRowRejected(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(dest ...any) error {
		*(dest[0].(*[]byte)) = []byte(`{"version": "99", "dialect": "postgresql", "tables": {}}`)

		return nil
	}}

	_, err := journal.NewStore(q).LoadLatestSnapshot(context.Background(), "billing")

	require.ErrorIs(t, err, journal.ErrCorruptSnapshot)
}

func TestLatestHash_neverMigratedModuleIsEmpty(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(...any) error { return database.ErrNoRows }}

	hash, err := journal.NewStore(q).LatestHash(context.Background(), "billing")

	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestLatestHash_returnsMostRecentRecord(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "cafebabe"

		return nil
	}}

	hash, err := journal.NewStore(q).LatestHash(context.Background(), "billing")

	require.NoError(t, err)
	assert.Equal(t, "cafebabe", hash)
	assert.Contains(t, q.calls[0].query, "ORDER BY id DESC LIMIT 1")
}

func TestPlugins_listsJournaledModules(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{rows: []string{"audit", "billing"}}

	names, err := journal.NewStore(q).Plugins(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "billing"}, names)
	assert.Contains(t, q.calls[0].query, "ORDER BY plugin_name")
}

func TestPlugins_emptyTable(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}

	names, err := journal.NewStore(q).Plugins(context.Background())

	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestPlugins_queryFailureWrapped(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{queryErr: errors.New("relation does not exist")}

	_, err := journal.NewStore(q).Plugins(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing journaled plugins")
}

func TestRecordApplied_insertsHashAndTimestamp(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	before := time.Now().UnixMilli()

	err := journal.NewStore(q).RecordApplied(context.Background(), "billing", "cafebabe")

	require.NoError(t, err)
	require.Len(t, q.calls, 1)

	args := q.calls[0].args
	require.Len(t, args, 3)
	assert.Equal(t, "billing", args[0])
	assert.Equal(t, "cafebabe", args[1])
	assert.GreaterOrEqual(t, args[2].(int64), before)
}
