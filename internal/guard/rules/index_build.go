package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemanaut/schemanaut/internal/guard"
)

// IndexBuildRule flags index builds, which block writes on the table
// for the duration. The generator never emits CONCURRENTLY because
// every plan runs inside a single transaction.
type IndexBuildRule struct{}

// NewIndexBuildRule creates a new IndexBuildRule.
func NewIndexBuildRule() *IndexBuildRule { return &IndexBuildRule{} }

// ID returns the rule identifier.
func (r *IndexBuildRule) ID() string { return "index-blocks-writes" }

// Check examines a statement for a blocking index build.
func (r *IndexBuildRule) Check(stmt *pg_query.RawStmt, sctx *guard.StatementContext) []guard.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_IndexStmt)
	if !ok {
		return nil
	}

	return []guard.Finding{{
		Rule:       r.ID(),
		Severity:   guard.Warning,
		Table:      guard.TableName(node.IndexStmt.Relation),
		Message:    "CREATE INDEX blocks writes on the table while the index builds",
		Suggestion: "Run the migration during low write traffic on large tables",
		LockType:   "SHARE",
		StmtIndex:  sctx.Index,
	}}
}
