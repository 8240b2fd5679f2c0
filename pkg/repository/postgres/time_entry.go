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

type timeEntryRepository struct {
	pool *pgxpool.Pool
}

const timeEntryColumns = `id, team_id, task_id, actor_id, started_at, stopped_at`

func (r *timeEntryRepository) Running(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID) (*model.TimeEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+timeEntryColumns+` FROM time_entries
		WHERE team_id = $1 AND task_id = $2 AND actor_id = $3 AND stopped_at IS NULL
		ORDER BY started_at DESC LIMIT 1`,
		string(teamID), taskID, string(actorID))
	e, err := scanTimeEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get running time entry", goerr.V("task_id", taskID))
	}
	return e, nil
}

func (r *timeEntryRepository) ListByTask(ctx context.Context, teamID types.TeamID, taskID int64) ([]*model.TimeEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+timeEntryColumns+` FROM time_entries
		WHERE team_id = $1 AND task_id = $2 ORDER BY started_at DESC`,
		string(teamID), taskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list time entries", goerr.V("task_id", taskID))
	}
	defer rows.Close()

	result := make([]*model.TimeEntry, 0)
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan time entry")
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate time entries")
	}
	return result, nil
}

func scanTimeEntry(row pgx.Row) (*model.TimeEntry, error) {
	var (
		e               model.TimeEntry
		teamID, actorID string
	)
	if err := row.Scan(&e.ID, &teamID, &e.TaskID, &actorID, &e.StartedAt, &e.StoppedAt); err != nil {
		return nil, err
	}
	e.TeamID = types.TeamID(teamID)
	e.ActorID = types.ActorID(actorID)
	e.StartedAt = e.StartedAt.UTC()
	if e.StoppedAt != nil {
		s := e.StoppedAt.UTC()
		e.StoppedAt = &s
	}
	return &e, nil
}

func upsertTimeEntry(ctx context.Context, tx pgx.Tx, e *model.TimeEntry) error {
	_, err := tx.Exec(ctx, `INSERT INTO time_entries (`+timeEntryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET stopped_at = EXCLUDED.stopped_at`,
		e.ID, string(e.TeamID), e.TaskID, string(e.ActorID), e.StartedAt, e.StoppedAt)
	if err != nil {
		return goerr.Wrap(err, "failed to upsert time entry", goerr.V("id", e.ID))
	}
	return nil
}
