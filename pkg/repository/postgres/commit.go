package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
)

const pgUniqueViolation = "23505"

// Commit locks the updated row with SELECT ... FOR UPDATE, checks its version
// and applies every write inside the same transaction.
func (p *Postgres) Commit(ctx context.Context, cs *model.ChangeSet) error {
	if err := cs.Validate(); err != nil {
		return goerr.Wrap(err, "invalid change set")
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if cs.Item != nil {
			if err := commitWorkItem(ctx, tx, cs); err != nil {
				return err
			}
		}
		if cs.Project != nil {
			if err := commitProject(ctx, tx, cs); err != nil {
				return err
			}
		}

		for _, tr := range cs.Transitions {
			if err := insertTransition(ctx, tx, tr); err != nil {
				return err
			}
		}

		// Archive before insert so that replacing the open item of a work
		// item never trips the partial unique index mid-transaction.
		inbox := make([]*model.InboxItem, len(cs.InboxItems))
		copy(inbox, cs.InboxItems)
		sort.SliceStable(inbox, func(i, j int) bool {
			return !inbox[i].IsOpen() && inbox[j].IsOpen()
		})
		for _, it := range inbox {
			if err := upsertInboxItem(ctx, tx, it); err != nil {
				return err
			}
		}

		for _, l := range cs.AuditLogs {
			if err := insertAuditLog(ctx, tx, l); err != nil {
				return err
			}
		}
		for _, e := range cs.TimeEntries {
			if err := upsertTimeEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to commit change set", goerr.V(model.TeamIDKey, cs.TeamID))
	}
	return nil
}

func commitWorkItem(ctx context.Context, tx pgx.Tx, cs *model.ChangeSet) error {
	u := cs.Item
	var version int64
	err := tx.QueryRow(ctx, `SELECT version FROM work_items
		WHERE team_id = $1 AND kind = $2 AND id = $3 FOR UPDATE`,
		string(cs.TeamID), string(u.Ref.Kind), u.Ref.ID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return goerr.Wrap(interfaces.ErrNotFound, "work item not found", goerr.V(model.WorkItemKey, u.Ref.String()))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to lock work item", goerr.V(model.WorkItemKey, u.Ref.String()))
	}
	if version != u.ExpectedVersion {
		return goerr.Wrap(interfaces.ErrConflict, "work item version mismatch",
			goerr.V(model.WorkItemKey, u.Ref.String()),
			goerr.V("expected", u.ExpectedVersion),
			goerr.V("actual", version))
	}

	_, err = tx.Exec(ctx, `UPDATE work_items
		SET status = COALESCE(NULLIF($4, ''), status), version = $5, updated_at = $6
		WHERE team_id = $1 AND kind = $2 AND id = $3`,
		string(cs.TeamID), string(u.Ref.Kind), u.Ref.ID, string(u.Status), u.NewVersion, u.UpdatedAt)
	if err != nil {
		return goerr.Wrap(err, "failed to update work item", goerr.V(model.WorkItemKey, u.Ref.String()))
	}

	if u.RACI != nil {
		_, err = tx.Exec(ctx, `UPDATE work_items
			SET accountable = $4, responsible = $5, consulted = $6, informed = $7
			WHERE team_id = $1 AND kind = $2 AND id = $3`,
			string(cs.TeamID), string(u.Ref.Kind), u.Ref.ID,
			string(u.RACI.Accountable), string(u.RACI.Responsible),
			actorStrings(u.RACI.Consulted), actorStrings(u.RACI.Informed))
		if err != nil {
			return goerr.Wrap(err, "failed to update work item RACI", goerr.V(model.WorkItemKey, u.Ref.String()))
		}
	}
	return nil
}

func commitProject(ctx context.Context, tx pgx.Tx, cs *model.ChangeSet) error {
	u := cs.Project
	var version int64
	err := tx.QueryRow(ctx, `SELECT version FROM projects WHERE team_id = $1 AND id = $2 FOR UPDATE`,
		string(cs.TeamID), u.ID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("project_id", u.ID))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to lock project", goerr.V("project_id", u.ID))
	}
	if version != u.ExpectedVersion {
		return goerr.Wrap(interfaces.ErrConflict, "project version mismatch",
			goerr.V("project_id", u.ID),
			goerr.V("expected", u.ExpectedVersion),
			goerr.V("actual", version))
	}

	_, err = tx.Exec(ctx, `UPDATE projects
		SET accountable = $3, responsible = $4, consulted = $5, informed = $6, version = $7, updated_at = $8
		WHERE team_id = $1 AND id = $2`,
		string(cs.TeamID), u.ID,
		string(u.RACI.Accountable), string(u.RACI.Responsible),
		actorStrings(u.RACI.Consulted), actorStrings(u.RACI.Informed),
		u.NewVersion, u.UpdatedAt)
	if err != nil {
		return goerr.Wrap(err, "failed to update project", goerr.V("project_id", u.ID))
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
}
