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

type workItemRepository struct {
	pool *pgxpool.Pool
}

const workItemColumns = `kind, id, team_id, project_id, work_order_id, title, description, status,
	created_by, assigned_to, reviewer, accountable, responsible, consulted, informed,
	due_date, version, created_at, updated_at`

func (r *workItemRepository) Create(ctx context.Context, teamID types.TeamID, item *model.WorkItem) (*model.WorkItem, error) {
	created := item.Clone()
	now := time.Now().UTC()
	created.TeamID = teamID
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		id, err := nextID(ctx, tx, teamID, "work_items:"+string(item.Kind))
		if err != nil {
			return err
		}
		created.ID = id

		_, err = tx.Exec(ctx, `
			INSERT INTO work_items (`+workItemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
			string(created.Kind), created.ID, string(teamID), created.ProjectID, created.WorkOrderID,
			created.Title, created.Description, string(created.Status),
			string(created.CreatedBy), string(created.AssignedTo), string(created.Reviewer),
			string(created.RACI.Accountable), string(created.RACI.Responsible),
			actorStrings(created.RACI.Consulted), actorStrings(created.RACI.Informed),
			created.DueDate, created.Version, created.CreatedAt, created.UpdatedAt)
		if err != nil {
			return goerr.Wrap(err, "failed to insert work item")
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create work item", goerr.V(model.TeamIDKey, teamID))
	}
	return created, nil
}

func (r *workItemRepository) Get(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.WorkItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+workItemColumns+` FROM work_items
		WHERE team_id = $1 AND kind = $2 AND id = $3`,
		string(teamID), string(ref.Kind), ref.ID)
	w, err := scanWorkItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "work item not found", goerr.V(model.WorkItemKey, ref.String()))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get work item", goerr.V(model.WorkItemKey, ref.String()))
	}
	return w, nil
}

func (r *workItemRepository) ListWorkOrders(ctx context.Context, teamID types.TeamID, projectID int64) ([]*model.WorkItem, error) {
	return r.list(ctx, `SELECT `+workItemColumns+` FROM work_items
		WHERE team_id = $1 AND kind = 'work_order' AND project_id = $2 ORDER BY id`,
		string(teamID), projectID)
}

func (r *workItemRepository) ListTasks(ctx context.Context, teamID types.TeamID, workOrderID int64) ([]*model.WorkItem, error) {
	return r.list(ctx, `SELECT `+workItemColumns+` FROM work_items
		WHERE team_id = $1 AND kind = 'task' AND work_order_id = $2 ORDER BY id`,
		string(teamID), workOrderID)
}

func (r *workItemRepository) list(ctx context.Context, query string, args ...any) ([]*model.WorkItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list work items")
	}
	defer rows.Close()

	result := make([]*model.WorkItem, 0)
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan work item")
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate work items")
	}
	return result, nil
}

func scanWorkItem(row pgx.Row) (*model.WorkItem, error) {
	var (
		w                               model.WorkItem
		kind, teamID, status            string
		createdBy, assignedTo, reviewer string
		acc, res                        string
		consulted, informed             []string
	)
	if err := row.Scan(&kind, &w.ID, &teamID, &w.ProjectID, &w.WorkOrderID, &w.Title, &w.Description, &status,
		&createdBy, &assignedTo, &reviewer, &acc, &res, &consulted, &informed,
		&w.DueDate, &w.Version, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Kind = types.WorkItemKind(kind)
	w.TeamID = types.TeamID(teamID)
	w.Status = types.WorkStatus(status)
	w.CreatedBy = types.ActorID(createdBy)
	w.AssignedTo = types.ActorID(assignedTo)
	w.Reviewer = types.ActorID(reviewer)
	w.RACI = model.RACI{
		Accountable: types.ActorID(acc),
		Responsible: types.ActorID(res),
		Consulted:   actorIDs(consulted),
		Informed:    actorIDs(informed),
	}
	if w.DueDate != nil {
		d := w.DueDate.UTC()
		w.DueDate = &d
	}
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}
