package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// InboxFilter narrows inbox listings
type InboxFilter struct {
	// ReviewerID limits results to one reviewer when set
	ReviewerID types.ActorID
	// IncludeArchived also returns resolved and withdrawn items
	IncludeArchived bool
}

// InboxRepository reads the approval inbox projection. Items are written only
// through Repository.Commit.
type InboxRepository interface {
	// Get retrieves an item by ID, including archived items
	Get(ctx context.Context, teamID types.TeamID, id string) (*model.InboxItem, error)

	// List returns items newest first
	List(ctx context.Context, teamID types.TeamID, filter InboxFilter) ([]*model.InboxItem, error)

	// OpenFor returns the open item of a work item, or nil when there is none
	OpenFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.InboxItem, error)

	// ListFor returns every item of a work item, archived included, newest first
	ListFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.InboxItem, error)
}
