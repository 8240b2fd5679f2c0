package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrValidation marks malformed input rejected before reaching the engine
	ErrValidation = goerr.New("validation error")

	// ErrInvalidRACIMember is returned when a RACI field names a non-member
	ErrInvalidRACIMember = goerr.New("RACI member is not part of the team")

	// ErrAccountableRequired is returned when a work order would lose its accountable member
	ErrAccountableRequired = goerr.New("work order requires an accountable member")

	// ErrPermissionDenied is returned for non-transition operations the actor may not perform
	ErrPermissionDenied = goerr.New("permission denied")

	// ErrReviewerUnresolvable means no reviewer could be determined. It
	// indicates broken data and is not recoverable by the caller.
	ErrReviewerUnresolvable = goerr.New("no reviewer could be resolved")

	// ErrConcurrentModification is returned when optimistic retries are exhausted
	ErrConcurrentModification = goerr.New("work item was modified concurrently")

	// ErrTimerNotRunning is returned by StopTimer when the actor has no running timer
	ErrTimerNotRunning = goerr.New("timer is not running")
)

// Context keys for error values
const (
	ProjectIDKey = "project_id"
	TaskIDKey    = "task_id"
	AttemptKey   = "attempt"
)
