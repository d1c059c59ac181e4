package rls_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemanaut/schemanaut/internal/database"
	"github.com/schemanaut/schemanaut/internal/rls"
	"github.com/schemanaut/schemanaut/internal/schema"
)

type fakeDB struct {
	begun  int
	failOn string
	tx     *fakeTx
}

func (f *fakeDB) Exec(context.Context, string, ...any) error { return nil }

func (f *fakeDB) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) database.Row { return nil }

func (f *fakeDB) Begin(context.Context) (database.Tx, error) {
	f.begun++
	f.tx = &fakeTx{failOn: f.failOn}

	return f.tx, nil
}

func (f *fakeDB) Close() {}

type fakeTx struct {
	execs      []string
	failOn     string
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, query string, _ ...any) error {
	f.execs = append(f.execs, query)

	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return errors.New("forced failure")
	}

	return nil
}

func (f *fakeTx) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) database.Row { return nil }

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true

	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}

	return nil
}

func tenantPolicy() rls.Policy {
	return rls.Policy{
		Name:  "tenant_isolation",
		Table: "invoices",
		Using: "tenant_id = current_setting('app.tenant_id')::uuid",
	}
}

func TestNew_rejectsInvalidPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		policy  rls.Policy
		wantErr error
	}{
		{
			name:    "bad policy name",
			policy:  rls.Policy{Name: "Tenant-Isolation", Table: "invoices", Using: "true"},
			wantErr: schema.ErrInvalidIdentifier,
		},
		{
			name:    "bad table name",
			policy:  rls.Policy{Name: "p", Table: "1invoices", Using: "true"},
			wantErr: schema.ErrInvalidIdentifier,
		},
		{
			name:    "unknown command",
			policy:  rls.Policy{Name: "p", Table: "invoices", Command: "truncate", Using: "true"},
			wantErr: rls.ErrInvalidCommand,
		},
		{
			name:    "missing using",
			policy:  rls.Policy{Name: "p", Table: "invoices"},
			wantErr: rls.ErrMissingUsing,
		},
		{
			name:    "insert with using",
			policy:  rls.Policy{Name: "p", Table: "invoices", Command: "insert", Using: "true", WithCheck: "true"},
			wantErr: rls.ErrInsertPolicyShape,
		},
		{
			name:    "insert without check",
			policy:  rls.Policy{Name: "p", Table: "invoices", Command: "insert"},
			wantErr: rls.ErrInsertPolicyShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := rls.New(&fakeDB{}, []rls.Policy{tt.policy})

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_rejectsUnparseableExpression(t *testing.T) {
	t.Parallel()

	_, err := rls.New(&fakeDB{}, []rls.Policy{
		{Name: "p", Table: "invoices", Using: "tenant_id = = broken"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "using")
}

func TestReapply_enablesDropsAndRecreates(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r, err := rls.New(db, []rls.Policy{tenantPolicy()})
	require.NoError(t, err)

	require.NoError(t, r.Reapply(context.Background()))

	require.NotNil(t, db.tx)
	assert.True(t, db.tx.committed)
	assert.Equal(t, []string{
		"ALTER TABLE invoices ENABLE ROW LEVEL SECURITY",
		"DROP POLICY IF EXISTS tenant_isolation ON invoices",
		"CREATE POLICY tenant_isolation ON invoices USING (tenant_id = current_setting('app.tenant_id')::uuid)",
	}, db.tx.execs)
}

func TestReapply_statementsParse(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r, err := rls.New(db, []rls.Policy{
		tenantPolicy(),
		{
			Name:      "tenant_write",
			Table:     "invoices",
			Command:   "update",
			Using:     "tenant_id = current_setting('app.tenant_id')::uuid",
			WithCheck: "tenant_id = current_setting('app.tenant_id')::uuid",
		},
		{
			Name:      "tenant_insert",
			Table:     "invoices",
			Command:   "insert",
			WithCheck: "tenant_id = current_setting('app.tenant_id')::uuid",
		},
	})
	require.NoError(t, err)

	require.NoError(t, r.Reapply(context.Background()))

	for _, stmt := range db.tx.execs {
		_, parseErr := pg_query.Parse(stmt)
		require.NoError(t, parseErr, stmt)
	}
}

func TestReapply_rendersCommandAndCheck(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r, err := rls.New(db, []rls.Policy{
		{
			Name:      "tenant_insert",
			Table:     "invoices",
			Command:   "insert",
			WithCheck: "tenant_id = current_setting('app.tenant_id')::uuid",
		},
	})
	require.NoError(t, err)

	require.NoError(t, r.Reapply(context.Background()))

	require.Len(t, db.tx.execs, 3)
	assert.Equal(t,
		"CREATE POLICY tenant_insert ON invoices FOR INSERT WITH CHECK (tenant_id = current_setting('app.tenant_id')::uuid)",
		db.tx.execs[2],
	)
}

func TestReapply_noPoliciesOpensNoTransaction(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r, err := rls.New(db, nil)
	require.NoError(t, err)

	require.NoError(t, r.Reapply(context.Background()))
	assert.Zero(t, db.begun)
}

func TestReapply_failureRollsBack(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r, err := rls.New(db, []rls.Policy{tenantPolicy()})
	require.NoError(t, err)

	db.failOn = "CREATE POLICY"

	err = r.Reapply(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_isolation")
	assert.True(t, db.tx.rolledBack)
}
