package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// ProjectRepository defines the interface for Project data access
type ProjectRepository interface {
	// Create stores a new project with auto-generated ID and Version 1
	Create(ctx context.Context, teamID types.TeamID, project *model.Project) (*model.Project, error)

	// Get retrieves a project by ID
	Get(ctx context.Context, teamID types.TeamID, id int64) (*model.Project, error)

	// List retrieves all projects of the team ordered by ID
	List(ctx context.Context, teamID types.TeamID) ([]*model.Project, error)
}
