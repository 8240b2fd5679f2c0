package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type projectRepository struct {
	store *store
}

func (r *projectRepository) Create(ctx context.Context, teamID types.TeamID, project *model.Project) (*model.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	td := r.store.team(teamID, true)

	now := time.Now().UTC()
	created := project.Clone()
	created.ID = td.nextProjectID
	created.TeamID = teamID
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now
	td.nextProjectID++

	td.projects[created.ID] = created
	return created.Clone(), nil
}

func (r *projectRepository) Get(ctx context.Context, teamID types.TeamID, id int64) (*model.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	td := r.store.team(teamID, false)
	if td == nil {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
	}
	p, ok := td.projects[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
	}
	return p.Clone(), nil
}

func (r *projectRepository) List(ctx context.Context, teamID types.TeamID) ([]*model.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	td := r.store.team(teamID, false)
	if td == nil {
		return []*model.Project{}, nil
	}

	result := make([]*model.Project, 0, len(td.projects))
	for _, p := range td.projects {
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
