package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps every entity of every team in process memory. A single lock
// guards the whole store so that Commit is atomic across entities.
type Memory struct {
	store *store

	project          *projectRepository
	workItem         *workItemRepository
	statusTransition *statusTransitionRepository
	inbox            *inboxRepository
	auditLog         *auditLogRepository
	timeEntry        *timeEntryRepository
}

var _ interfaces.Repository = &Memory{}

type teamData struct {
	projects      map[int64]*model.Project
	workItems     map[model.WorkItemRef]*model.WorkItem
	transitions   []*model.StatusTransition
	inboxItems    map[string]*model.InboxItem
	auditLogs     []*model.AuditLog
	timeEntries   map[string]*model.TimeEntry
	nextProjectID int64
	nextItemID    map[types.WorkItemKind]int64
}

type store struct {
	mu    sync.RWMutex
	teams map[types.TeamID]*teamData
}

// team returns the data of teamID, creating it when create is true.
// Callers must hold the lock.
func (s *store) team(teamID types.TeamID, create bool) *teamData {
	td, ok := s.teams[teamID]
	if !ok && create {
		td = &teamData{
			projects:      make(map[int64]*model.Project),
			workItems:     make(map[model.WorkItemRef]*model.WorkItem),
			inboxItems:    make(map[string]*model.InboxItem),
			timeEntries:   make(map[string]*model.TimeEntry),
			nextProjectID: 1,
			nextItemID:    make(map[types.WorkItemKind]int64),
		}
		s.teams[teamID] = td
	}
	return td
}

func New() *Memory {
	s := &store{teams: make(map[types.TeamID]*teamData)}
	return &Memory{
		store:            s,
		project:          &projectRepository{store: s},
		workItem:         &workItemRepository{store: s},
		statusTransition: &statusTransitionRepository{store: s},
		inbox:            &inboxRepository{store: s},
		auditLog:         &auditLogRepository{store: s},
		timeEntry:        &timeEntryRepository{store: s},
	}
}

func (m *Memory) Project() interfaces.ProjectRepository {
	return m.project
}

func (m *Memory) WorkItem() interfaces.WorkItemRepository {
	return m.workItem
}

func (m *Memory) StatusTransition() interfaces.StatusTransitionRepository {
	return m.statusTransition
}

func (m *Memory) Inbox() interfaces.InboxRepository {
	return m.inbox
}

func (m *Memory) AuditLog() interfaces.AuditLogRepository {
	return m.auditLog
}

func (m *Memory) TimeEntry() interfaces.TimeEntryRepository {
	return m.timeEntry
}

func (m *Memory) Close() error {
	return nil
}

// Commit validates every precondition before touching the store, so a
// failed commit leaves no partial writes behind.
func (m *Memory) Commit(ctx context.Context, cs *model.ChangeSet) error {
	if err := cs.Validate(); err != nil {
		return goerr.Wrap(err, "invalid change set")
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	td := m.store.team(cs.TeamID, true)

	var item *model.WorkItem
	if cs.Item != nil {
		current, ok := td.workItems[cs.Item.Ref]
		if !ok {
			return goerr.Wrap(interfaces.ErrNotFound, "work item not found",
				goerr.V(model.WorkItemKey, cs.Item.Ref.String()))
		}
		if current.Version != cs.Item.ExpectedVersion {
			return goerr.Wrap(interfaces.ErrConflict, "work item version mismatch",
				goerr.V(model.WorkItemKey, cs.Item.Ref.String()),
				goerr.V("expected", cs.Item.ExpectedVersion),
				goerr.V("actual", current.Version))
		}
		item = current
	}

	var project *model.Project
	if cs.Project != nil {
		current, ok := td.projects[cs.Project.ID]
		if !ok {
			return goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("project_id", cs.Project.ID))
		}
		if current.Version != cs.Project.ExpectedVersion {
			return goerr.Wrap(interfaces.ErrConflict, "project version mismatch",
				goerr.V("project_id", cs.Project.ID),
				goerr.V("expected", cs.Project.ExpectedVersion),
				goerr.V("actual", current.Version))
		}
		project = current
	}

	if err := checkSingleOpenInbox(td, cs.InboxItems); err != nil {
		return err
	}

	if item != nil {
		if cs.Item.Status != "" {
			item.Status = cs.Item.Status
		}
		if cs.Item.RACI != nil {
			item.RACI = cs.Item.RACI.Clone()
		}
		item.Version = cs.Item.NewVersion
		item.UpdatedAt = cs.Item.UpdatedAt
	}
	if project != nil {
		project.RACI = cs.Project.RACI.Clone()
		project.Version = cs.Project.NewVersion
		project.UpdatedAt = cs.Project.UpdatedAt
	}
	for _, tr := range cs.Transitions {
		c := *tr
		td.transitions = append(td.transitions, &c)
	}
	for _, it := range cs.InboxItems {
		td.inboxItems[it.ID] = it.Clone()
	}
	for _, l := range cs.AuditLogs {
		c := *l
		td.auditLogs = append(td.auditLogs, &c)
	}
	for _, e := range cs.TimeEntries {
		td.timeEntries[e.ID] = e.Clone()
	}

	return nil
}

// checkSingleOpenInbox rejects writes that would leave more than one open
// inbox item for the same work item.
func checkSingleOpenInbox(td *teamData, writes []*model.InboxItem) error {
	if len(writes) == 0 {
		return nil
	}

	final := make(map[string]*model.InboxItem, len(td.inboxItems)+len(writes))
	for id, it := range td.inboxItems {
		final[id] = it
	}
	touched := make(map[model.WorkItemRef]struct{})
	for _, it := range writes {
		final[it.ID] = it
		touched[it.Approvable] = struct{}{}
	}

	open := make(map[model.WorkItemRef]int)
	for _, it := range final {
		if _, ok := touched[it.Approvable]; ok && it.IsOpen() {
			open[it.Approvable]++
		}
	}
	for ref, n := range open {
		if n > 1 {
			return goerr.Wrap(interfaces.ErrConflict, "work item already has an open inbox item",
				goerr.V(model.WorkItemKey, ref.String()))
		}
	}
	return nil
}
