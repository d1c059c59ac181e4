package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemanaut/schemanaut/internal/guard"
)

// TypeChangeRule flags ALTER COLUMN TYPE, which may rewrite the table
// and blocks all access while it runs.
type TypeChangeRule struct{}

// NewTypeChangeRule creates a new TypeChangeRule.
func NewTypeChangeRule() *TypeChangeRule { return &TypeChangeRule{} }

// ID returns the rule identifier.
func (r *TypeChangeRule) ID() string { return "type-change-rewrite" }

// Check examines a statement for column type changes.
func (r *TypeChangeRule) Check(stmt *pg_query.RawStmt, sctx *guard.StatementContext) []guard.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	alt := node.AlterTableStmt

	var findings []guard.Finding

	for _, cmdNode := range alt.Cmds {
		cmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Subtype != pg_query.AlterTableType_AT_AlterColumnType {
			continue
		}

		findings = append(findings, guard.Finding{
			Rule:       r.ID(),
			Severity:   guard.Warning,
			Table:      guard.TableName(alt.Relation),
			Message:    "ALTER COLUMN TYPE may rewrite the table and blocks access while it runs",
			Suggestion: "On large tables consider adding a new column and migrating data gradually",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  sctx.Index,
		})
	}

	return findings
}
