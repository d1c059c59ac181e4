package executor

import (
	"errors"
	"fmt"

	"github.com/schemanaut/schemanaut/internal/sqlgen"
)

// ErrDestructiveBlocked indicates the computed plan contains destructive
// statements and neither the force option nor the environment override
// permits them.
var ErrDestructiveBlocked = errors.New("destructive migration blocked")

// ErrTransactionFailed indicates the migration transaction rolled back;
// the module's stored state is unchanged.
var ErrTransactionFailed = errors.New("migration transaction failed")

// DestructiveError reports which statements blocked a run. It unwraps to
// ErrDestructiveBlocked so callers can match the condition without
// inspecting the plan.
type DestructiveError struct {
	PluginName string
	Statements []sqlgen.Statement
}

func (e *DestructiveError) Error() string {
	return fmt.Sprintf("%s: plugin %s: %d destructive statement(s)",
		ErrDestructiveBlocked, e.PluginName, len(e.Statements))
}

func (e *DestructiveError) Unwrap() error {
	return ErrDestructiveBlocked
}
