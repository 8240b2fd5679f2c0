package firestore

import (
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// Firestore documents use explicit field names so that queries and
// composite indexes in the migrate command stay stable.

type raciDoc struct {
	Accountable string   `firestore:"accountable"`
	Responsible string   `firestore:"responsible"`
	Consulted   []string `firestore:"consulted"`
	Informed    []string `firestore:"informed"`
}

func toRACIDoc(r model.RACI) raciDoc {
	return raciDoc{
		Accountable: string(r.Accountable),
		Responsible: string(r.Responsible),
		Consulted:   actorIDsToStrings(r.Consulted),
		Informed:    actorIDsToStrings(r.Informed),
	}
}

func (d raciDoc) toModel() model.RACI {
	return model.RACI{
		Accountable: types.ActorID(d.Accountable),
		Responsible: types.ActorID(d.Responsible),
		Consulted:   stringsToActorIDs(d.Consulted),
		Informed:    stringsToActorIDs(d.Informed),
	}
}

func actorIDsToStrings(ids []types.ActorID) []string {
	if len(ids) == 0 {
		return []string{}
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func stringsToActorIDs(ss []string) []types.ActorID {
	if len(ss) == 0 {
		return nil
	}
	out := make([]types.ActorID, len(ss))
	for i, s := range ss {
		out[i] = types.ActorID(s)
	}
	return out
}

type projectDoc struct {
	ID        int64     `firestore:"id"`
	Name      string    `firestore:"name"`
	OwnerID   string    `firestore:"owner_id"`
	RACI      raciDoc   `firestore:"raci"`
	Version   int64     `firestore:"version"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func toProjectDoc(p *model.Project) *projectDoc {
	return &projectDoc{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   string(p.OwnerID),
		RACI:      toRACIDoc(p.RACI),
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (d *projectDoc) toModel(teamID types.TeamID) *model.Project {
	return &model.Project{
		ID:        d.ID,
		TeamID:    teamID,
		Name:      d.Name,
		OwnerID:   types.ActorID(d.OwnerID),
		RACI:      d.RACI.toModel(),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type workItemDoc struct {
	Kind        string     `firestore:"kind"`
	ID          int64      `firestore:"id"`
	ProjectID   int64      `firestore:"project_id"`
	WorkOrderID int64      `firestore:"work_order_id"`
	Title       string     `firestore:"title"`
	Description string     `firestore:"description"`
	Status      string     `firestore:"status"`
	CreatedBy   string     `firestore:"created_by"`
	AssignedTo  string     `firestore:"assigned_to"`
	Reviewer    string     `firestore:"reviewer"`
	RACI        raciDoc    `firestore:"raci"`
	DueDate     *time.Time `firestore:"due_date"`
	Version     int64      `firestore:"version"`
	CreatedAt   time.Time  `firestore:"created_at"`
	UpdatedAt   time.Time  `firestore:"updated_at"`
}

func toWorkItemDoc(w *model.WorkItem) *workItemDoc {
	return &workItemDoc{
		Kind:        w.Kind.String(),
		ID:          w.ID,
		ProjectID:   w.ProjectID,
		WorkOrderID: w.WorkOrderID,
		Title:       w.Title,
		Description: w.Description,
		Status:      w.Status.String(),
		CreatedBy:   string(w.CreatedBy),
		AssignedTo:  string(w.AssignedTo),
		Reviewer:    string(w.Reviewer),
		RACI:        toRACIDoc(w.RACI),
		DueDate:     w.DueDate,
		Version:     w.Version,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func (d *workItemDoc) toModel(teamID types.TeamID) *model.WorkItem {
	return &model.WorkItem{
		Kind:        types.WorkItemKind(d.Kind),
		ID:          d.ID,
		TeamID:      teamID,
		ProjectID:   d.ProjectID,
		WorkOrderID: d.WorkOrderID,
		Title:       d.Title,
		Description: d.Description,
		Status:      types.WorkStatus(d.Status),
		CreatedBy:   types.ActorID(d.CreatedBy),
		AssignedTo:  types.ActorID(d.AssignedTo),
		Reviewer:    types.ActorID(d.Reviewer),
		RACI:        d.RACI.toModel(),
		DueDate:     d.DueDate,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type transitionDoc struct {
	ID         string    `firestore:"id"`
	Item       string    `firestore:"item"`
	ActorKind  string    `firestore:"actor_kind"`
	ActorID    string    `firestore:"actor_id"`
	FromStatus string    `firestore:"from_status"`
	ToStatus   string    `firestore:"to_status"`
	Comment    string    `firestore:"comment"`
	Sequence   int64     `firestore:"sequence"`
	CreatedAt  time.Time `firestore:"created_at"`
}

func toTransitionDoc(t *model.StatusTransition) *transitionDoc {
	return &transitionDoc{
		ID:         t.ID,
		Item:       t.Item.String(),
		ActorKind:  t.ActorKind.String(),
		ActorID:    string(t.ActorID),
		FromStatus: t.FromStatus.String(),
		ToStatus:   t.ToStatus.String(),
		Comment:    t.Comment,
		Sequence:   t.Sequence,
		CreatedAt:  t.CreatedAt,
	}
}

func (d *transitionDoc) toModel(teamID types.TeamID) (*model.StatusTransition, error) {
	ref, err := model.ParseWorkItemRef(d.Item)
	if err != nil {
		return nil, err
	}
	return &model.StatusTransition{
		ID:         d.ID,
		TeamID:     teamID,
		Item:       ref,
		ActorKind:  types.ActorKind(d.ActorKind),
		ActorID:    types.ActorID(d.ActorID),
		FromStatus: types.WorkStatus(d.FromStatus),
		ToStatus:   types.WorkStatus(d.ToStatus),
		Comment:    d.Comment,
		Sequence:   d.Sequence,
		CreatedAt:  d.CreatedAt,
	}, nil
}

type inboxDoc struct {
	ID             string     `firestore:"id"`
	Type           string     `firestore:"type"`
	Approvable     string     `firestore:"approvable"`
	ReviewerID     string     `firestore:"reviewer_id"`
	RequestedBy    string     `firestore:"requested_by"`
	Title          string     `firestore:"title"`
	ContentPreview string     `firestore:"content_preview"`
	RelatedNames   []string   `firestore:"related_names"`
	Urgency        string     `firestore:"urgency"`
	DueDate        *time.Time `firestore:"due_date"`
	Outcome        string     `firestore:"outcome"`
	ResolvedAt     *time.Time `firestore:"resolved_at"`
	Archived       bool       `firestore:"archived"`
	ArchivedAt     *time.Time `firestore:"archived_at"`
	CreatedAt      time.Time  `firestore:"created_at"`
}

func toInboxDoc(it *model.InboxItem) *inboxDoc {
	d := &inboxDoc{
		ID:             it.ID,
		Type:           it.Type.String(),
		Approvable:     it.Approvable.String(),
		ReviewerID:     string(it.ReviewerID),
		RequestedBy:    string(it.RequestedBy),
		Title:          it.Title,
		ContentPreview: it.ContentPreview,
		RelatedNames:   it.RelatedNames,
		Urgency:        it.Urgency.String(),
		DueDate:        it.DueDate,
		Archived:       !it.IsOpen(),
		ArchivedAt:     it.ArchivedAt,
		CreatedAt:      it.CreatedAt,
	}
	if d.RelatedNames == nil {
		d.RelatedNames = []string{}
	}
	if it.Resolution != nil {
		at := it.Resolution.At
		d.Outcome = it.Resolution.Outcome.String()
		d.ResolvedAt = &at
	}
	return d
}

func (d *inboxDoc) toModel(teamID types.TeamID) (*model.InboxItem, error) {
	ref, err := model.ParseWorkItemRef(d.Approvable)
	if err != nil {
		return nil, err
	}
	it := &model.InboxItem{
		ID:             d.ID,
		TeamID:         teamID,
		Type:           types.InboxItemType(d.Type),
		Approvable:     ref,
		ReviewerID:     types.ActorID(d.ReviewerID),
		RequestedBy:    types.ActorID(d.RequestedBy),
		Title:          d.Title,
		ContentPreview: d.ContentPreview,
		RelatedNames:   d.RelatedNames,
		Urgency:        types.Urgency(d.Urgency),
		DueDate:        d.DueDate,
		ArchivedAt:     d.ArchivedAt,
		CreatedAt:      d.CreatedAt,
	}
	if d.Outcome != "" && d.ResolvedAt != nil {
		it.Resolution = &model.InboxResolution{
			Outcome: types.ResolutionOutcome(d.Outcome),
			At:      *d.ResolvedAt,
		}
	}
	return it, nil
}

type auditLogDoc struct {
	ID        string    `firestore:"id"`
	ActorKind string    `firestore:"actor_kind"`
	ActorID   string    `firestore:"actor_id"`
	ActorName string    `firestore:"actor_name"`
	Action    string    `firestore:"action"`
	Target    string    `firestore:"target"`
	TargetID  string    `firestore:"target_id"`
	Details   string    `firestore:"details"`
	Timestamp time.Time `firestore:"timestamp"`
}

func toAuditLogDoc(l *model.AuditLog) *auditLogDoc {
	return &auditLogDoc{
		ID:        l.ID,
		ActorKind: l.ActorKind.String(),
		ActorID:   string(l.ActorID),
		ActorName: l.ActorName,
		Action:    l.Action.String(),
		Target:    l.Target.String(),
		TargetID:  l.TargetID,
		Details:   l.Details,
		Timestamp: l.Timestamp,
	}
}

func (d *auditLogDoc) toModel(teamID types.TeamID) *model.AuditLog {
	return &model.AuditLog{
		ID:        d.ID,
		TeamID:    teamID,
		ActorKind: types.ActorKind(d.ActorKind),
		ActorID:   types.ActorID(d.ActorID),
		ActorName: d.ActorName,
		Action:    types.AuditAction(d.Action),
		Target:    types.AuditTarget(d.Target),
		TargetID:  d.TargetID,
		Details:   d.Details,
		Timestamp: d.Timestamp,
	}
}

type timeEntryDoc struct {
	ID        string     `firestore:"id"`
	TaskID    int64      `firestore:"task_id"`
	ActorID   string     `firestore:"actor_id"`
	StartedAt time.Time  `firestore:"started_at"`
	StoppedAt *time.Time `firestore:"stopped_at"`
	Running   bool       `firestore:"running"`
}

func toTimeEntryDoc(e *model.TimeEntry) *timeEntryDoc {
	return &timeEntryDoc{
		ID:        e.ID,
		TaskID:    e.TaskID,
		ActorID:   string(e.ActorID),
		StartedAt: e.StartedAt,
		StoppedAt: e.StoppedAt,
		Running:   e.IsRunning(),
	}
}

func (d *timeEntryDoc) toModel(teamID types.TeamID) *model.TimeEntry {
	return &model.TimeEntry{
		ID:        d.ID,
		TeamID:    teamID,
		TaskID:    d.TaskID,
		ActorID:   types.ActorID(d.ActorID),
		StartedAt: d.StartedAt,
		StoppedAt: d.StoppedAt,
	}
}
