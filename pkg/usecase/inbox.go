package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// contentPreviewRunes caps the description snapshot stored on inbox items
const contentPreviewRunes = 200

// InboxUseCase serves the approval inbox. Items are only ever written as
// side effects of transitions; this use case plans those writes and reads
// the projection.
type InboxUseCase struct {
	repo     interfaces.Repository
	registry *model.TeamRegistry
}

func NewInboxUseCase(repo interfaces.Repository, registry *model.TeamRegistry) *InboxUseCase {
	return &InboxUseCase{repo: repo, registry: registry}
}

// List returns open items newest first; IncludeArchived adds resolved and
// withdrawn ones
func (uc *InboxUseCase) List(ctx context.Context, teamID types.TeamID, filter interfaces.InboxFilter) ([]*model.InboxItem, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	items, err := uc.repo.Inbox().List(ctx, teamID, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list inbox items", goerr.V(model.TeamIDKey, teamID))
	}
	return items, nil
}

// Get returns an item by ID, archived or not
func (uc *InboxUseCase) Get(ctx context.Context, teamID types.TeamID, id string) (*model.InboxItem, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	item, err := uc.repo.Inbox().Get(ctx, teamID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get inbox item", goerr.V("inbox_item_id", id))
	}
	return item, nil
}

// OpenFor returns the single open item of a work item, or nil
func (uc *InboxUseCase) OpenFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.InboxItem, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	item, err := uc.repo.Inbox().OpenFor(ctx, teamID, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get open inbox item", goerr.V(model.WorkItemKey, ref.String()))
	}
	return item, nil
}

// planOpen builds the approval request created when item enters review. The
// snapshot is denormalized so the inbox renders without joins.
func (uc *InboxUseCase) planOpen(item *model.WorkItem, reviewer, requestedBy types.ActorID, project *model.Project, workOrder *model.WorkItem, now time.Time) *model.InboxItem {
	var related []string
	if project != nil && project.Name != "" {
		related = append(related, project.Name)
	}
	if item.IsTask() && workOrder != nil && workOrder.Title != "" {
		related = append(related, workOrder.Title)
	}

	var due *time.Time
	if item.DueDate != nil {
		d := *item.DueDate
		due = &d
	}

	return &model.InboxItem{
		ID:             uuid.NewString(),
		TeamID:         item.TeamID,
		Type:           types.InboxItemTypeApproval,
		Approvable:     item.Ref(),
		ReviewerID:     reviewer,
		RequestedBy:    requestedBy,
		Title:          item.Title,
		ContentPreview: preview(item.Description, contentPreviewRunes),
		RelatedNames:   related,
		Urgency:        types.UrgencyFromDueDate(item.DueDate, now),
		DueDate:        due,
		CreatedAt:      now,
	}
}

// planResolve records the review outcome on the open item and archives it
func (uc *InboxUseCase) planResolve(open *model.InboxItem, outcome types.ResolutionOutcome, now time.Time) *model.InboxItem {
	resolved := open.Clone()
	resolved.Resolve(outcome, now)
	return resolved
}

// planWithdraw archives the open item without an outcome, used when the
// item leaves review without a decision
func (uc *InboxUseCase) planWithdraw(open *model.InboxItem, now time.Time) *model.InboxItem {
	withdrawn := open.Clone()
	withdrawn.Archive(now)
	return withdrawn
}

func preview(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-1]) + "…"
}
