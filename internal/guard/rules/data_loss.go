package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemanaut/schemanaut/internal/guard"
)

// DataLossRule flags statements that permanently delete data: DROP
// TABLE and DROP COLUMN. These are the statements the executor refuses
// to run without the force flag.
type DataLossRule struct{}

// NewDataLossRule creates a new DataLossRule.
func NewDataLossRule() *DataLossRule { return &DataLossRule{} }

// ID returns the rule identifier.
func (r *DataLossRule) ID() string { return "data-loss" }

// Check examines a statement for irreversible data removal.
func (r *DataLossRule) Check(stmt *pg_query.RawStmt, sctx *guard.StatementContext) []guard.Finding {
	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_DropStmt:
		return r.checkDrop(node.DropStmt, sctx)
	case *pg_query.Node_AlterTableStmt:
		return r.checkDropColumn(node.AlterTableStmt, sctx)
	default:
		return nil
	}
}

func (r *DataLossRule) checkDrop(drop *pg_query.DropStmt, sctx *guard.StatementContext) []guard.Finding {
	if drop == nil || drop.RemoveType != pg_query.ObjectType_OBJECT_TABLE {
		return nil
	}

	return []guard.Finding{{
		Rule:       r.ID(),
		Severity:   guard.Critical,
		Table:      strings.Join(dropTableNames(drop), ", "),
		Message:    "DROP TABLE permanently deletes the table and every row in it",
		Suggestion: "Take a backup first; the executor requires force for this statement",
		LockType:   "ACCESS EXCLUSIVE",
		StmtIndex:  sctx.Index,
	}}
}

func (r *DataLossRule) checkDropColumn(alt *pg_query.AlterTableStmt, sctx *guard.StatementContext) []guard.Finding {
	var findings []guard.Finding

	for _, cmdNode := range alt.Cmds {
		cmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Subtype != pg_query.AlterTableType_AT_DropColumn {
			continue
		}

		findings = append(findings, guard.Finding{
			Rule:       r.ID(),
			Severity:   guard.Critical,
			Table:      guard.TableName(alt.Relation),
			Message:    "DROP COLUMN permanently deletes the column " + cmd.AlterTableCmd.Name + " and its data",
			Suggestion: "Take a backup first; the executor requires force for this statement",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  sctx.Index,
		})
	}

	return findings
}

func dropTableNames(drop *pg_query.DropStmt) []string {
	var tables []string

	for _, obj := range drop.Objects {
		listNode, ok := obj.Node.(*pg_query.Node_List)
		if !ok {
			continue
		}

		var parts []string

		for _, item := range listNode.List.Items {
			if s, ok := item.Node.(*pg_query.Node_String_); ok {
				parts = append(parts, s.String_.Sval)
			}
		}

		if len(parts) > 0 {
			tables = append(tables, strings.Join(parts, "."))
		}
	}

	return tables
}
