package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type auditLogRepository struct {
	pool *pgxpool.Pool
}

const auditColumns = `id, team_id, actor_kind, actor_id, actor_name, action, target, target_id, details, timestamp`

func (r *auditLogRepository) List(ctx context.Context, teamID types.TeamID, filter interfaces.AuditFilter) ([]*model.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs
		WHERE team_id = $1
		  AND ($2 = '' OR target = $2)
		  AND ($3 = '' OR target_id = $3)
		  AND ($4 = '' OR action = $4)
		ORDER BY timestamp DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query,
		string(teamID), string(filter.Target), filter.TargetID, string(filter.Action))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit logs", goerr.V(model.TeamIDKey, teamID))
	}
	defer rows.Close()

	result := make([]*model.AuditLog, 0)
	for rows.Next() {
		var (
			l                                        model.AuditLog
			team, actorKind, actorID, action, target string
		)
		if err := rows.Scan(&l.ID, &team, &actorKind, &actorID, &l.ActorName, &action, &target,
			&l.TargetID, &l.Details, &l.Timestamp); err != nil {
			return nil, goerr.Wrap(err, "failed to scan audit log")
		}
		l.TeamID = types.TeamID(team)
		l.ActorKind = types.ActorKind(actorKind)
		l.ActorID = types.ActorID(actorID)
		l.Action = types.AuditAction(action)
		l.Target = types.AuditTarget(target)
		l.Timestamp = l.Timestamp.UTC()
		result = append(result, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate audit logs")
	}
	return result, nil
}

func insertAuditLog(ctx context.Context, tx pgx.Tx, l *model.AuditLog) error {
	_, err := tx.Exec(ctx, `INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, string(l.TeamID), string(l.ActorKind), string(l.ActorID), l.ActorName,
		string(l.Action), string(l.Target), l.TargetID, l.Details, l.Timestamp)
	if err != nil {
		return goerr.Wrap(err, "failed to insert audit log", goerr.V("id", l.ID))
	}
	return nil
}
