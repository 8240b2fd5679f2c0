package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
)

// Repository defines the interface for data persistence
type Repository interface {
	Project() ProjectRepository
	WorkItem() WorkItemRepository
	StatusTransition() StatusTransitionRepository
	Inbox() InboxRepository
	AuditLog() AuditLogRepository
	TimeEntry() TimeEntryRepository

	// Commit applies every write of cs as one atomic unit. It fails with
	// ErrConflict when the stored version of the updated work item or project
	// differs from the expected version, and leaves nothing applied.
	Commit(ctx context.Context, cs *model.ChangeSet) error

	Close() error
}
