package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// TimeEntryRepository reads tracked time. Entries are written only through
// Repository.Commit.
type TimeEntryRepository interface {
	// Running returns the actor's running entry on the task, or nil
	Running(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID) (*model.TimeEntry, error)

	// ListByTask returns the entries of a task, most recently started first
	ListByTask(ctx context.Context, teamID types.TeamID, taskID int64) ([]*model.TimeEntry, error)
}
