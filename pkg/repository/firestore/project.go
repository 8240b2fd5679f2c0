package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type projectRepository struct {
	*base
}

func projectDocID(id int64) string {
	return fmt.Sprintf("%d", id)
}

func (r *projectRepository) Create(ctx context.Context, teamID types.TeamID, project *model.Project) (*model.Project, error) {
	var created *model.Project
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		id, advance, err := r.nextID(tx, teamID, "project")
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		created = project.Clone()
		created.ID = id
		created.TeamID = teamID
		created.Version = 1
		created.CreatedAt = now
		created.UpdatedAt = now

		if err := advance(); err != nil {
			return goerr.Wrap(err, "failed to advance project counter")
		}
		return tx.Create(r.collection(teamID, CollectionProjects).Doc(projectDocID(id)), toProjectDoc(created))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create project", goerr.V(model.TeamIDKey, teamID))
	}
	return created, nil
}

func (r *projectRepository) Get(ctx context.Context, teamID types.TeamID, id int64) (*model.Project, error) {
	snap, err := r.collection(teamID, CollectionProjects).Doc(projectDocID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}

	var d projectDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode project", goerr.V("id", id))
	}
	return d.toModel(teamID), nil
}

func (r *projectRepository) List(ctx context.Context, teamID types.TeamID) ([]*model.Project, error) {
	iter := r.collection(teamID, CollectionProjects).OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	projects := make([]*model.Project, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate projects")
		}

		var d projectDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode project", goerr.V("doc_id", snap.Ref.ID))
		}
		projects = append(projects, d.toModel(teamID))
	}
	return projects, nil
}
