package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type statusTransitionRepository struct {
	pool *pgxpool.Pool
}

const transitionColumns = `id, team_id, item_kind, item_id, actor_kind, actor_id, from_status, to_status, comment, sequence, created_at`

func (r *statusTransitionRepository) ListByItem(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.StatusTransition, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+transitionColumns+` FROM status_transitions
		WHERE team_id = $1 AND item_kind = $2 AND item_id = $3
		ORDER BY sequence DESC`,
		string(teamID), string(ref.Kind), ref.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list transitions", goerr.V(model.WorkItemKey, ref.String()))
	}
	defer rows.Close()

	result := make([]*model.StatusTransition, 0)
	for rows.Next() {
		tr, err := scanTransition(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan transition")
		}
		result = append(result, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate transitions")
	}
	return result, nil
}

func (r *statusTransitionRepository) LatestInto(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef, status types.WorkStatus) (*model.StatusTransition, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transitionColumns+` FROM status_transitions
		WHERE team_id = $1 AND item_kind = $2 AND item_id = $3 AND to_status = $4
		ORDER BY sequence DESC LIMIT 1`,
		string(teamID), string(ref.Kind), ref.ID, string(status))
	tr, err := scanTransition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest transition",
			goerr.V(model.WorkItemKey, ref.String()), goerr.V(model.ToStatusKey, status))
	}
	return tr, nil
}

func scanTransition(row pgx.Row) (*model.StatusTransition, error) {
	var (
		tr                               model.StatusTransition
		teamID, kind, actorKind, actorID string
		from, comment                    *string
		to                               string
	)
	if err := row.Scan(&tr.ID, &teamID, &kind, &tr.Item.ID, &actorKind, &actorID, &from, &to, &comment,
		&tr.Sequence, &tr.CreatedAt); err != nil {
		return nil, err
	}
	tr.TeamID = types.TeamID(teamID)
	tr.Item.Kind = types.WorkItemKind(kind)
	tr.ActorKind = types.ActorKind(actorKind)
	tr.ActorID = types.ActorID(actorID)
	tr.FromStatus = types.WorkStatus(derefString(from))
	tr.ToStatus = types.WorkStatus(to)
	tr.Comment = derefString(comment)
	tr.CreatedAt = tr.CreatedAt.UTC()
	return &tr, nil
}

func insertTransition(ctx context.Context, tx pgx.Tx, tr *model.StatusTransition) error {
	_, err := tx.Exec(ctx, `INSERT INTO status_transitions (`+transitionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tr.ID, string(tr.TeamID), string(tr.Item.Kind), tr.Item.ID,
		string(tr.ActorKind), string(tr.ActorID),
		nullString(string(tr.FromStatus)), string(tr.ToStatus), nullString(tr.Comment),
		tr.Sequence, tr.CreatedAt)
	if err != nil {
		return goerr.Wrap(err, "failed to insert transition", goerr.V("id", tr.ID))
	}
	return nil
}
