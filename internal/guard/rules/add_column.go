package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemanaut/schemanaut/internal/guard"
)

// AddNotNullRule flags ADD COLUMN ... NOT NULL without a DEFAULT,
// which fails outright when the table already contains rows.
type AddNotNullRule struct{}

// NewAddNotNullRule creates a new AddNotNullRule.
func NewAddNotNullRule() *AddNotNullRule { return &AddNotNullRule{} }

// ID returns the rule identifier.
func (r *AddNotNullRule) ID() string { return "add-column-not-null" }

// Check examines a statement for NOT NULL columns added without a default.
func (r *AddNotNullRule) Check(stmt *pg_query.RawStmt, sctx *guard.StatementContext) []guard.Finding {
	var findings []guard.Finding

	forEachAddedColumn(stmt, func(colDef *pg_query.ColumnDef, relation *pg_query.RangeVar) {
		if !hasNotNull(colDef) || extractDefaultExpr(colDef) != nil {
			return
		}

		findings = append(findings, guard.Finding{
			Rule:       r.ID(),
			Severity:   guard.Warning,
			Table:      guard.TableName(relation),
			Message:    "adding a NOT NULL column without a default fails when the table has rows",
			Suggestion: "Give the column a default, or add it nullable and backfill before tightening",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  sctx.Index,
		})
	})

	return findings
}

// VolatileDefaultRule flags ADD COLUMN with a volatile DEFAULT, which
// rewrites every existing row instead of storing a cheap metadata-only
// default.
type VolatileDefaultRule struct{}

// NewVolatileDefaultRule creates a new VolatileDefaultRule.
func NewVolatileDefaultRule() *VolatileDefaultRule { return &VolatileDefaultRule{} }

// ID returns the rule identifier.
func (r *VolatileDefaultRule) ID() string { return "add-column-volatile-default" }

// Check examines a statement for volatile column defaults.
func (r *VolatileDefaultRule) Check(stmt *pg_query.RawStmt, sctx *guard.StatementContext) []guard.Finding {
	var findings []guard.Finding

	forEachAddedColumn(stmt, func(colDef *pg_query.ColumnDef, relation *pg_query.RangeVar) {
		def := extractDefaultExpr(colDef)
		if def == nil || !isVolatileDefault(def) {
			return
		}

		findings = append(findings, guard.Finding{
			Rule:       r.ID(),
			Severity:   guard.Warning,
			Table:      guard.TableName(relation),
			Message:    "ADD COLUMN with a volatile DEFAULT rewrites the entire table",
			Suggestion: "Use a constant default, or add the column without one and backfill in batches",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  sctx.Index,
		})
	})

	return findings
}

// forEachAddedColumn walks every ADD COLUMN command in an ALTER TABLE
// statement.
func forEachAddedColumn(stmt *pg_query.RawStmt, fn func(*pg_query.ColumnDef, *pg_query.RangeVar)) {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return
	}

	alt := node.AlterTableStmt

	for _, cmdNode := range alt.Cmds {
		cmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Subtype != pg_query.AlterTableType_AT_AddColumn {
			continue
		}

		if cmd.AlterTableCmd.Def == nil {
			continue
		}

		colDefNode, ok := cmd.AlterTableCmd.Def.Node.(*pg_query.Node_ColumnDef)
		if !ok {
			continue
		}

		fn(colDefNode.ColumnDef, alt.Relation)
	}
}

func hasNotNull(colDef *pg_query.ColumnDef) bool {
	for _, c := range colDef.Constraints {
		cn, ok := c.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}

		if cn.Constraint.Contype == pg_query.ConstrType_CONSTR_NOTNULL {
			return true
		}
	}

	return false
}

// extractDefaultExpr finds the DEFAULT expression from a ColumnDef.
// DEFAULT is stored as a CONSTR_DEFAULT constraint with the expression
// in RawExpr.
func extractDefaultExpr(colDef *pg_query.ColumnDef) *pg_query.Node {
	for _, c := range colDef.Constraints {
		cn, ok := c.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}

		if cn.Constraint.Contype == pg_query.ConstrType_CONSTR_DEFAULT {
			return cn.Constraint.RawExpr
		}
	}

	return nil
}

// isVolatileDefault determines whether a DEFAULT expression is
// volatile. Constants and type casts of constants are non-volatile;
// everything else, including function calls like now(), is assumed
// volatile.
func isVolatileDefault(node *pg_query.Node) bool {
	if node == nil {
		return false
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_AConst:
		return false
	case *pg_query.Node_TypeCast:
		if n.TypeCast.Arg != nil {
			if _, ok := n.TypeCast.Arg.Node.(*pg_query.Node_AConst); ok {
				return false
			}
		}

		return true
	default:
		return true
	}
}
