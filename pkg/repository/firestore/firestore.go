package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// Collection IDs. Every collection lives under teams/{team_id}, which keeps
// tenants apart; the names are shared with the index migration.
const (
	CollectionTeams             = "teams"
	CollectionProjects          = "projects"
	CollectionWorkItems         = "work_items"
	CollectionStatusTransitions = "status_transitions"
	CollectionInboxItems        = "inbox_items"
	CollectionAuditLogs         = "audit_logs"
	CollectionTimeEntries       = "time_entries"
	CollectionCounters          = "counters"
)

type Firestore struct {
	client *firestore.Client
	base   *base

	project          *projectRepository
	workItem         *workItemRepository
	statusTransition *statusTransitionRepository
	inbox            *inboxRepository
	auditLog         *auditLogRepository
	timeEntry        *timeEntryRepository
}

var _ interfaces.Repository = &Firestore{}

// base resolves team-scoped collections and is shared by the sub-repositories
type base struct {
	client           *firestore.Client
	collectionPrefix string
}

func (b *base) teamsCollection() string {
	if b.collectionPrefix != "" {
		return b.collectionPrefix + "_" + CollectionTeams
	}
	return CollectionTeams
}

func (b *base) collection(teamID types.TeamID, name string) *firestore.CollectionRef {
	return b.client.Collection(b.teamsCollection()).Doc(teamID.String()).Collection(name)
}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.base.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	b := &base{client: client}
	f := &Firestore{
		client:           client,
		base:             b,
		project:          &projectRepository{base: b},
		workItem:         &workItemRepository{base: b},
		statusTransition: &statusTransitionRepository{base: b},
		inbox:            &inboxRepository{base: b},
		auditLog:         &auditLogRepository{base: b},
		timeEntry:        &timeEntryRepository{base: b},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Project() interfaces.ProjectRepository {
	return f.project
}

func (f *Firestore) WorkItem() interfaces.WorkItemRepository {
	return f.workItem
}

func (f *Firestore) StatusTransition() interfaces.StatusTransitionRepository {
	return f.statusTransition
}

func (f *Firestore) Inbox() interfaces.InboxRepository {
	return f.inbox
}

func (f *Firestore) AuditLog() interfaces.AuditLogRepository {
	return f.auditLog
}

func (f *Firestore) TimeEntry() interfaces.TimeEntryRepository {
	return f.timeEntry
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
