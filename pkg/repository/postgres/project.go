package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type projectRepository struct {
	pool *pgxpool.Pool
}

const projectColumns = `id, team_id, name, owner_id, accountable, responsible, consulted, informed, version, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, teamID types.TeamID, project *model.Project) (*model.Project, error) {
	created := project.Clone()
	now := time.Now().UTC()
	created.TeamID = teamID
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		id, err := nextID(ctx, tx, teamID, "projects")
		if err != nil {
			return err
		}
		created.ID = id

		_, err = tx.Exec(ctx, `
			INSERT INTO projects (`+projectColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			created.ID, string(teamID), created.Name, string(created.OwnerID),
			string(created.RACI.Accountable), string(created.RACI.Responsible),
			actorStrings(created.RACI.Consulted), actorStrings(created.RACI.Informed),
			created.Version, created.CreatedAt, created.UpdatedAt)
		if err != nil {
			return goerr.Wrap(err, "failed to insert project")
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create project", goerr.V(model.TeamIDKey, teamID))
	}
	return created, nil
}

func (r *projectRepository) Get(ctx context.Context, teamID types.TeamID, id int64) (*model.Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE team_id = $1 AND id = $2`,
		string(teamID), id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}
	return p, nil
}

func (r *projectRepository) List(ctx context.Context, teamID types.TeamID) ([]*model.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE team_id = $1 ORDER BY id`,
		string(teamID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects", goerr.V(model.TeamIDKey, teamID))
	}
	defer rows.Close()

	result := make([]*model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan project")
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate projects")
	}
	return result, nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var (
		p                       model.Project
		teamID, owner, acc, res string
		consulted, informed     []string
	)
	if err := row.Scan(&p.ID, &teamID, &p.Name, &owner, &acc, &res, &consulted, &informed,
		&p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.TeamID = types.TeamID(teamID)
	p.OwnerID = types.ActorID(owner)
	p.RACI = model.RACI{
		Accountable: types.ActorID(acc),
		Responsible: types.ActorID(res),
		Consulted:   actorIDs(consulted),
		Informed:    actorIDs(informed),
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
