package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// Postgres stores every team in one database; each table carries team_id.
type Postgres struct {
	pool *pgxpool.Pool

	project          *projectRepository
	workItem         *workItemRepository
	statusTransition *statusTransitionRepository
	inbox            *inboxRepository
	auditLog         *auditLogRepository
	timeEntry        *timeEntryRepository
}

var _ interfaces.Repository = &Postgres{}

type Option func(*pgxpool.Config)

// WithMaxConns caps the connection pool size
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		c.MaxConns = n
	}
}

// New opens a connection pool for dsn and verifies it with a ping. The
// schema must already be migrated (see Migrate).
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse postgres dsn")
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	return &Postgres{
		pool:             pool,
		project:          &projectRepository{pool: pool},
		workItem:         &workItemRepository{pool: pool},
		statusTransition: &statusTransitionRepository{pool: pool},
		inbox:            &inboxRepository{pool: pool},
		auditLog:         &auditLogRepository{pool: pool},
		timeEntry:        &timeEntryRepository{pool: pool},
	}, nil
}

func (p *Postgres) Project() interfaces.ProjectRepository {
	return p.project
}

func (p *Postgres) WorkItem() interfaces.WorkItemRepository {
	return p.workItem
}

func (p *Postgres) StatusTransition() interfaces.StatusTransitionRepository {
	return p.statusTransition
}

func (p *Postgres) Inbox() interfaces.InboxRepository {
	return p.inbox
}

func (p *Postgres) AuditLog() interfaces.AuditLogRepository {
	return p.auditLog
}

func (p *Postgres) TimeEntry() interfaces.TimeEntryRepository {
	return p.timeEntry
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// queryer is satisfied by both the pool and a transaction
type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// nextID atomically advances the per-team counter and returns the new value
func nextID(ctx context.Context, q queryer, teamID types.TeamID, name string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO id_counters (team_id, name, value) VALUES ($1, $2, 1)
		ON CONFLICT (team_id, name) DO UPDATE SET value = id_counters.value + 1
		RETURNING value`, string(teamID), name).Scan(&id)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to allocate id", goerr.V("counter", name))
	}
	return id, nil
}

func actorStrings(ids []types.ActorID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func actorIDs(ss []string) []types.ActorID {
	if len(ss) == 0 {
		return nil
	}
	out := make([]types.ActorID, len(ss))
	for i, s := range ss {
		out[i] = types.ActorID(s)
	}
	return out
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
