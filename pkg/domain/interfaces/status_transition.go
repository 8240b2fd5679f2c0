package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// StatusTransitionRepository reads the append-only transition history.
// Rows are written only through Repository.Commit.
type StatusTransitionRepository interface {
	// ListByItem returns the history of an item, most recent first
	ListByItem(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.StatusTransition, error)

	// LatestInto returns the most recent transition of the item into status,
	// or nil when there is none
	LatestInto(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef, status types.WorkStatus) (*model.StatusTransition, error)
}
