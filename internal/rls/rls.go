// Package rls reapplies row-level-security policies after migrations
// change table shapes. DDL that drops and recreates a table silently
// drops its policies, so the service invokes this hook after every
// fully successful run.
package rls

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemanaut/schemanaut/internal/database"
	"github.com/schemanaut/schemanaut/internal/logging"
	"github.com/schemanaut/schemanaut/internal/parser"
	"github.com/schemanaut/schemanaut/internal/schema"
)

// Policy declares one row-level-security policy to keep applied.
type Policy struct {
	Name  string
	Table string
	// Command restricts the policy to one statement kind
	// (select/insert/update/delete); empty means ALL.
	Command string
	// Using is the row-visibility expression, e.g.
	// "tenant_id = current_setting('app.tenant_id')::uuid".
	// INSERT policies must leave it empty.
	Using string
	// WithCheck guards written rows; empty means no WITH CHECK clause.
	// Required for INSERT policies.
	WithCheck string
}

// Reapplier enables row-level security and recreates the declared
// policies. It implements the service's reapply hook.
type Reapplier struct {
	db       database.DB
	logger   *logging.Logger
	policies []Policy
}

// Option configures a Reapplier.
type Option func(*Reapplier)

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Reapplier) { r.logger = l }
}

// New creates a Reapplier for the given policies. Policy names, table
// names, and expressions are validated up front so a misconfiguration
// fails at startup instead of surfacing as a post-run warning.
func New(db database.DB, policies []Policy, opts ...Option) (*Reapplier, error) {
	for _, p := range policies {
		if err := validatePolicy(p); err != nil {
			return nil, err
		}
	}

	r := &Reapplier{
		db:       db,
		policies: policies,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logging.NewNop()
	}

	return r, nil
}

// Reapply enables row level security on every policied table and
// recreates each policy, all in one transaction. CREATE POLICY has no
// OR REPLACE form, so each policy is dropped first.
func (r *Reapplier) Reapply(ctx context.Context) error {
	if len(r.policies) == 0 {
		return nil
	}

	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		for _, p := range r.policies {
			for _, stmt := range policyStatements(p) {
				if err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("reapplying policy %s on %s: %w", p.Name, p.Table, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("row-level-security policies reapplied", "policies", len(r.policies))

	return nil
}

// policyStatements renders the DDL for one policy.
func policyStatements(p Policy) []string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE POLICY %s ON %s", p.Name, p.Table)

	if p.Command != "" {
		fmt.Fprintf(&b, " FOR %s", strings.ToUpper(p.Command))
	}

	if p.Using != "" {
		fmt.Fprintf(&b, " USING (%s)", p.Using)
	}

	if p.WithCheck != "" {
		fmt.Fprintf(&b, " WITH CHECK (%s)", p.WithCheck)
	}

	return []string{
		fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", p.Table),
		fmt.Sprintf("DROP POLICY IF EXISTS %s ON %s", p.Name, p.Table),
		b.String(),
	}
}

func validatePolicy(p Policy) error {
	if err := schema.ValidateIdentifier(p.Name); err != nil {
		return fmt.Errorf("policy name %q: %w", p.Name, err)
	}

	if err := schema.ValidateIdentifier(p.Table); err != nil {
		return fmt.Errorf("policy %s: table %q: %w", p.Name, p.Table, err)
	}

	cmd := strings.ToLower(p.Command)

	switch cmd {
	case "", "all", "select", "insert", "update", "delete":
	default:
		return fmt.Errorf("policy %s: %w: %q", p.Name, ErrInvalidCommand, p.Command)
	}

	// Postgres rejects USING on INSERT policies; rows are only checked
	// on the way in.
	if cmd == "insert" {
		if p.Using != "" || p.WithCheck == "" {
			return fmt.Errorf("policy %s: %w", p.Name, ErrInsertPolicyShape)
		}
	} else if p.Using == "" {
		return fmt.Errorf("policy %s: %w", p.Name, ErrMissingUsing)
	}

	if p.Using != "" {
		if err := parser.ValidateExpression(p.Using); err != nil {
			return fmt.Errorf("policy %s: using: %w", p.Name, err)
		}
	}

	if p.WithCheck != "" {
		if err := parser.ValidateExpression(p.WithCheck); err != nil {
			return fmt.Errorf("policy %s: with check: %w", p.Name, err)
		}
	}

	return nil
}
