package service

import (
	"time"

	"github.com/schemanaut/schemanaut/internal/executor"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusBlocked   = "blocked"
	StatusFailed    = "failed"
)

// ProgressEvent is emitted for each module processed during a run.
type ProgressEvent struct {
	PluginName string
	Status     string
	// Result is set for completed and skipped events.
	Result   *executor.Result
	Duration time.Duration
	Error    error
}

func (s *Service) fireProgress(event ProgressEvent) {
	if s.onProgress != nil {
		s.onProgress(event)
	}
}
