// Package guard annotates generated DDL with operational findings:
// which locks a statement takes, which statements scan or rewrite the
// table, and which ones lose data. Findings are advisory and feed the
// plan output and verbose logging; destructive gating itself relies on
// the tags the SQL generator assigns.
package guard

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemanaut/schemanaut/internal/sqlgen"
)

// Rule inspects a single parsed statement and reports findings.
type Rule interface {
	// ID returns a unique kebab-case identifier for this rule.
	ID() string
	// Check examines one parsed statement.
	Check(stmt *pg_query.RawStmt, sctx *StatementContext) []Finding
}

// StatementContext carries the generated statement under review and
// its position in the plan.
type StatementContext struct {
	Statement sqlgen.Statement
	Index     int
}

// Registry holds a collection of rules.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Rules returns all registered rules.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Option configures the Reviewer.
type Option func(*Reviewer)

// Reviewer runs registered rules against generated statements.
type Reviewer struct {
	registry *Registry
	parseFn  func(string) (*pg_query.ParseResult, error)
}

// New creates a Reviewer. Without options it has an empty registry;
// pair it with rules.NewDefaultRegistry for the built-in rule set.
func New(opts ...Option) *Reviewer {
	r := &Reviewer{
		registry: NewRegistry(),
		parseFn:  pg_query.Parse,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithRegistry sets a custom rule registry.
func WithRegistry(reg *Registry) Option {
	return func(r *Reviewer) { r.registry = reg }
}

// WithParser overrides the SQL parser function (useful for testing).
func WithParser(fn func(string) (*pg_query.ParseResult, error)) Option {
	return func(r *Reviewer) { r.parseFn = fn }
}

// Review parses every generated statement and collects rule findings.
// Generated statements always parse; a parse failure here means the
// generator produced invalid SQL and is reported as an error.
func (r *Reviewer) Review(stmts []sqlgen.Statement) (*Report, error) {
	report := &Report{}

	for i, stmt := range stmts {
		result, err := r.parseFn(stmt.SQL)
		if err != nil {
			return nil, fmt.Errorf("%w: statement %d: %w", ErrParse, i, err)
		}

		sctx := &StatementContext{Statement: stmt, Index: i}

		for _, parsed := range result.Stmts {
			for _, rule := range r.registry.Rules() {
				fs := rule.Check(parsed, sctx)
				for j := range fs {
					if fs[j].Severity > report.MaxSeverity {
						report.MaxSeverity = fs[j].Severity
					}
				}

				report.Findings = append(report.Findings, fs...)
			}
		}
	}

	return report, nil
}

// TableName extracts a qualified table name from a RangeVar.
func TableName(rv *pg_query.RangeVar) string {
	if rv == nil {
		return "<unknown>"
	}

	if rv.Schemaname != "" {
		return rv.Schemaname + "." + rv.Relname
	}

	return rv.Relname
}
