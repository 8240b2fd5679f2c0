package http

import (
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

type raciJSON struct {
	AccountableID string   `json:"accountable_id,omitempty"`
	ResponsibleID string   `json:"responsible_id,omitempty"`
	ConsultedIDs  []string `json:"consulted_ids"`
	InformedIDs   []string `json:"informed_ids"`
}

func toRACIJSON(r model.RACI) raciJSON {
	return raciJSON{
		AccountableID: r.Accountable.String(),
		ResponsibleID: r.Responsible.String(),
		ConsultedIDs:  actorStrings(r.Consulted),
		InformedIDs:   actorStrings(r.Informed),
	}
}

func (r raciJSON) toModel() model.RACI {
	return model.RACI{
		Accountable: types.ActorID(r.AccountableID),
		Responsible: types.ActorID(r.ResponsibleID),
		Consulted:   actorIDs(r.ConsultedIDs),
		Informed:    actorIDs(r.InformedIDs),
	}
}

func actorStrings(ids []types.ActorID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func actorIDs(ss []string) []types.ActorID {
	if ss == nil {
		return nil
	}
	out := make([]types.ActorID, len(ss))
	for i, s := range ss {
		out[i] = types.ActorID(s)
	}
	return out
}

type projectJSON struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	OwnerID              string    `json:"owner_id"`
	EffectiveAccountable string    `json:"effective_accountable_id"`
	RACI                 raciJSON  `json:"raci"`
	Version              int64     `json:"version"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toProjectJSON(p *model.Project) *projectJSON {
	if p == nil {
		return nil
	}
	return &projectJSON{
		ID:                   p.ID,
		Name:                 p.Name,
		OwnerID:              p.OwnerID.String(),
		EffectiveAccountable: p.EffectiveAccountable().String(),
		RACI:                 toRACIJSON(p.RACI),
		Version:              p.Version,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

type workItemJSON struct {
	Kind        string     `json:"kind"`
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	WorkOrderID int64      `json:"work_order_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"created_by"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Reviewer    string     `json:"reviewer,omitempty"`
	RACI        raciJSON   `json:"raci"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toWorkItemJSON(w *model.WorkItem) *workItemJSON {
	if w == nil {
		return nil
	}
	return &workItemJSON{
		Kind:        w.Kind.String(),
		ID:          w.ID,
		ProjectID:   w.ProjectID,
		WorkOrderID: w.WorkOrderID,
		Title:       w.Title,
		Description: w.Description,
		Status:      w.Status.String(),
		CreatedBy:   w.CreatedBy.String(),
		AssignedTo:  w.AssignedTo.String(),
		Reviewer:    w.Reviewer.String(),
		RACI:        toRACIJSON(w.RACI),
		DueDate:     w.DueDate,
		Version:     w.Version,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toWorkItemsJSON(items []*model.WorkItem) []*workItemJSON {
	out := make([]*workItemJSON, len(items))
	for i, w := range items {
		out[i] = toWorkItemJSON(w)
	}
	return out
}

type statusTransitionJSON struct {
	ID         string    `json:"id"`
	Approvable string    `json:"approvable"`
	ActorKind  string    `json:"actor_kind"`
	ActorID    string    `json:"actor_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Comment    string    `json:"comment,omitempty"`
	Sequence   int64     `json:"sequence"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTransitionsJSON(history []*model.StatusTransition) []statusTransitionJSON {
	out := make([]statusTransitionJSON, len(history))
	for i, tr := range history {
		out[i] = statusTransitionJSON{
			ID:         tr.ID,
			Approvable: tr.Item.String(),
			ActorKind:  tr.ActorKind.String(),
			ActorID:    tr.ActorID.String(),
			FromStatus: tr.FromStatus.String(),
			ToStatus:   tr.ToStatus.String(),
			Comment:    tr.Comment,
			Sequence:   tr.Sequence,
			CreatedAt:  tr.CreatedAt,
		}
	}
	return out
}

type inboxItemJSON struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Approvable     string     `json:"approvable"`
	ReviewerID     string     `json:"reviewer_id"`
	RequestedBy    string     `json:"requested_by"`
	Title          string     `json:"title"`
	ContentPreview string     `json:"content_preview"`
	RelatedNames   []string   `json:"related_names"`
	Urgency        string     `json:"urgency"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toInboxItemJSON(it *model.InboxItem) *inboxItemJSON {
	related := it.RelatedNames
	if related == nil {
		related = []string{}
	}
	return &inboxItemJSON{
		ID:             it.ID,
		Type:           it.Type.String(),
		Approvable:     it.Approvable.String(),
		ReviewerID:     it.ReviewerID.String(),
		RequestedBy:    it.RequestedBy.String(),
		Title:          it.Title,
		ContentPreview: it.ContentPreview,
		RelatedNames:   related,
		Urgency:        it.Urgency.String(),
		DueDate:        it.DueDate,
		ApprovedAt:     it.ApprovedAt(),
		RejectedAt:     it.RejectedAt(),
		ArchivedAt:     it.ArchivedAt,
		CreatedAt:      it.CreatedAt,
	}
}

type auditLogJSON struct {
	ID        string    `json:"id"`
	ActorKind string    `json:"actor_kind"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	TargetID  string    `json:"target_id"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func toAuditLogJSON(l *model.AuditLog) auditLogJSON {
	return auditLogJSON{
		ID:        l.ID,
		ActorKind: l.ActorKind.String(),
		ActorID:   l.ActorID.String(),
		ActorName: l.ActorName,
		Action:    l.Action.String(),
		Target:    l.Target.String(),
		TargetID:  l.TargetID,
		Details:   l.Details,
		Timestamp: l.Timestamp,
	}
}

type timeEntryJSON struct {
	ID        string     `json:"id"`
	TaskID    int64      `json:"task_id"`
	ActorID   string     `json:"actor_id"`
	StartedAt time.Time  `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at"`
}

func toTimeEntryJSON(e *model.TimeEntry) *timeEntryJSON {
	if e == nil {
		return nil
	}
	return &timeEntryJSON{
		ID:        e.ID,
		TaskID:    e.TaskID,
		ActorID:   e.ActorID.String(),
		StartedAt: e.StartedAt,
		StoppedAt: e.StoppedAt,
	}
}

type raciChangeJSON struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

func toRACIChangesJSON(changes []usecase.RACIChange) []raciChangeJSON {
	out := make([]raciChangeJSON, len(changes))
	for i, c := range changes {
		out[i] = raciChangeJSON{Field: c.Field.String(), From: c.From, To: c.To}
	}
	return out
}
