package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemanaut/schemanaut/internal/guard"
)

// SetNotNullRule flags SET NOT NULL, which scans the whole table to
// verify no existing row violates the constraint.
type SetNotNullRule struct{}

// NewSetNotNullRule creates a new SetNotNullRule.
func NewSetNotNullRule() *SetNotNullRule { return &SetNotNullRule{} }

// ID returns the rule identifier.
func (r *SetNotNullRule) ID() string { return "set-not-null-scan" }

// Check examines a statement for SET NOT NULL commands.
func (r *SetNotNullRule) Check(stmt *pg_query.RawStmt, sctx *guard.StatementContext) []guard.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	alt := node.AlterTableStmt

	var findings []guard.Finding

	for _, cmdNode := range alt.Cmds {
		cmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Subtype != pg_query.AlterTableType_AT_SetNotNull {
			continue
		}

		findings = append(findings, guard.Finding{
			Rule:       r.ID(),
			Severity:   guard.Info,
			Table:      guard.TableName(alt.Relation),
			Message:    "SET NOT NULL scans the table to verify existing rows",
			Suggestion: "Backfill NULLs first; the statement fails if any remain",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  sctx.Index,
		})
	}

	return findings
}
