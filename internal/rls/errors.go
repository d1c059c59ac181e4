package rls

import "errors"

// ErrInvalidCommand indicates a policy names an unknown statement kind.
var ErrInvalidCommand = errors.New("invalid policy command")

// ErrMissingUsing indicates a policy without a USING expression.
var ErrMissingUsing = errors.New("policy requires a USING expression")

// ErrInsertPolicyShape indicates an INSERT policy with a USING clause
// or without a WITH CHECK clause.
var ErrInsertPolicyShape = errors.New("insert policies take WITH CHECK, not USING")
