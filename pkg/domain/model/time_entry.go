package model

import (
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// TimeEntry is a span of tracked work on a task
type TimeEntry struct {
	ID        string
	TeamID    types.TeamID
	TaskID    int64
	ActorID   types.ActorID
	StartedAt time.Time
	StoppedAt *time.Time
}

// IsRunning reports whether the timer has not been stopped yet
func (e *TimeEntry) IsRunning() bool {
	return e.StoppedAt == nil
}

// Clone returns a deep copy
func (e *TimeEntry) Clone() *TimeEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.StoppedAt != nil {
		s := *e.StoppedAt
		c.StoppedAt = &s
	}
	return &c
}
