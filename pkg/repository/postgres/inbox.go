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

type inboxRepository struct {
	pool *pgxpool.Pool
}

const inboxColumns = `id, team_id, type, approvable_kind, approvable_id, reviewer_id, requested_by, title,
	content_preview, related_names, urgency, due_date, outcome, resolved_at, archived_at, created_at`

func (r *inboxRepository) Get(ctx context.Context, teamID types.TeamID, id string) (*model.InboxItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+inboxColumns+` FROM inbox_items WHERE team_id = $1 AND id = $2`,
		string(teamID), id)
	it, err := scanInboxItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "inbox item not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get inbox item", goerr.V("id", id))
	}
	return it, nil
}

func (r *inboxRepository) List(ctx context.Context, teamID types.TeamID, filter interfaces.InboxFilter) ([]*model.InboxItem, error) {
	return r.list(ctx, `SELECT `+inboxColumns+` FROM inbox_items
		WHERE team_id = $1
		  AND ($2 = '' OR reviewer_id = $2)
		  AND ($3 OR archived_at IS NULL)
		ORDER BY created_at DESC, id DESC`,
		string(teamID), string(filter.ReviewerID), filter.IncludeArchived)
}

func (r *inboxRepository) OpenFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.InboxItem, error) {
	items, err := r.list(ctx, `SELECT `+inboxColumns+` FROM inbox_items
		WHERE team_id = $1 AND approvable_kind = $2 AND approvable_id = $3 AND archived_at IS NULL`,
		string(teamID), string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *inboxRepository) ListFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.InboxItem, error) {
	return r.list(ctx, `SELECT `+inboxColumns+` FROM inbox_items
		WHERE team_id = $1 AND approvable_kind = $2 AND approvable_id = $3
		ORDER BY created_at DESC, id DESC`,
		string(teamID), string(ref.Kind), ref.ID)
}

func (r *inboxRepository) list(ctx context.Context, query string, args ...any) ([]*model.InboxItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list inbox items")
	}
	defer rows.Close()

	result := make([]*model.InboxItem, 0)
	for rows.Next() {
		it, err := scanInboxItem(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan inbox item")
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate inbox items")
	}
	return result, nil
}

func scanInboxItem(row pgx.Row) (*model.InboxItem, error) {
	var (
		it                                   model.InboxItem
		teamID, typ, kind, reviewer, request string
		urgency                              string
		outcome                              *string
		resolvedAt                           *time.Time
	)
	if err := row.Scan(&it.ID, &teamID, &typ, &kind, &it.Approvable.ID, &reviewer, &request, &it.Title,
		&it.ContentPreview, &it.RelatedNames, &urgency, &it.DueDate, &outcome, &resolvedAt,
		&it.ArchivedAt, &it.CreatedAt); err != nil {
		return nil, err
	}
	it.TeamID = types.TeamID(teamID)
	it.Type = types.InboxItemType(typ)
	it.Approvable.Kind = types.WorkItemKind(kind)
	it.ReviewerID = types.ActorID(reviewer)
	it.RequestedBy = types.ActorID(request)
	it.Urgency = types.Urgency(urgency)
	if len(it.RelatedNames) == 0 {
		it.RelatedNames = nil
	}
	if outcome != nil && resolvedAt != nil {
		it.Resolution = &model.InboxResolution{
			Outcome: types.ResolutionOutcome(*outcome),
			At:      resolvedAt.UTC(),
		}
	}
	if it.DueDate != nil {
		d := it.DueDate.UTC()
		it.DueDate = &d
	}
	if it.ArchivedAt != nil {
		a := it.ArchivedAt.UTC()
		it.ArchivedAt = &a
	}
	it.CreatedAt = it.CreatedAt.UTC()
	return &it, nil
}

func upsertInboxItem(ctx context.Context, tx pgx.Tx, it *model.InboxItem) error {
	var (
		outcome    *string
		resolvedAt *time.Time
	)
	if it.Resolution != nil {
		o := string(it.Resolution.Outcome)
		at := it.Resolution.At
		outcome, resolvedAt = &o, &at
	}
	related := it.RelatedNames
	if related == nil {
		related = []string{}
	}

	_, err := tx.Exec(ctx, `INSERT INTO inbox_items (`+inboxColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			reviewer_id = EXCLUDED.reviewer_id,
			urgency = EXCLUDED.urgency,
			due_date = EXCLUDED.due_date,
			outcome = EXCLUDED.outcome,
			resolved_at = EXCLUDED.resolved_at,
			archived_at = EXCLUDED.archived_at`,
		it.ID, string(it.TeamID), string(it.Type), string(it.Approvable.Kind), it.Approvable.ID,
		string(it.ReviewerID), string(it.RequestedBy), it.Title, it.ContentPreview, related,
		string(it.Urgency), it.DueDate, outcome, resolvedAt, it.ArchivedAt, it.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "inbox_items_one_open_idx") {
			return goerr.Wrap(interfaces.ErrConflict, "work item already has an open inbox item",
				goerr.V(model.WorkItemKey, it.Approvable.String()))
		}
		return goerr.Wrap(err, "failed to upsert inbox item", goerr.V("id", it.ID))
	}
	return nil
}
