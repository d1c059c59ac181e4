package service

import (
	"fmt"
	"strings"

	"github.com/schemanaut/schemanaut/internal/executor"
)

// RunReport summarizes one RunAllPluginMigrations call.
type RunReport struct {
	RunID string
	// Results holds the outcome of every module that ran to completion,
	// in run order.
	Results []*executor.Result
	// Blocked lists modules stopped by the destructive gate.
	Blocked []string
	// Failures lists modules that failed for any other reason.
	Failures []ModuleFailure
}

// ModuleFailure pairs a failing module with its error.
type ModuleFailure struct {
	PluginName string
	Err        error
}

// AggregateError reports every module that failed during a run, raised
// once after all modules have been attempted.
type AggregateError struct {
	Failures []ModuleFailure
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.PluginName, f.Err)
	}

	return fmt.Sprintf("%d module(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the underlying errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}

	return errs
}
