package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

func TestWorkItemRef_RoundTrip(t *testing.T) {
	ref := model.WorkOrderRef(42)
	gt.Value(t, ref.String()).Equal("work_order:42")

	parsed, err := model.ParseWorkItemRef("work_order:42")
	gt.NoError(t, err).Required()
	gt.Value(t, parsed).Equal(ref)

	for _, s := range []string{"task", "task:", "story:1", "task:abc"} {
		_, err := model.ParseWorkItemRef(s)
		gt.Error(t, err).Is(model.ErrInvalidWorkItem)
	}
}

func TestWorkItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    model.WorkItem
		wantErr bool
	}{
		{
			name: "valid task",
			item: model.WorkItem{Kind: types.WorkItemKindTask, Title: "Write", Status: types.WorkStatusTodo, WorkOrderID: 1},
		},
		{
			name:    "task without work order",
			item:    model.WorkItem{Kind: types.WorkItemKindTask, Title: "Write", Status: types.WorkStatusTodo},
			wantErr: true,
		},
		{
			name:    "task with work order status",
			item:    model.WorkItem{Kind: types.WorkItemKindTask, Title: "Write", Status: types.WorkStatusDraft, WorkOrderID: 1},
			wantErr: true,
		},
		{
			name: "valid work order",
			item: model.WorkItem{Kind: types.WorkItemKindWorkOrder, Title: "Launch", Status: types.WorkStatusDraft,
				ProjectID: 1, RACI: model.RACI{Accountable: "manager"}},
		},
		{
			name: "work order without accountable",
			item: model.WorkItem{Kind: types.WorkItemKindWorkOrder, Title: "Launch", Status: types.WorkStatusDraft,
				ProjectID: 1},
			wantErr: true,
		},
		{
			name:    "blank title",
			item:    model.WorkItem{Kind: types.WorkItemKindTask, Title: " ", Status: types.WorkStatusTodo, WorkOrderID: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				gt.Error(t, err).Is(model.ErrInvalidWorkItem)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestWorkItem_CloneIsDeep(t *testing.T) {
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	item := &model.WorkItem{
		Kind:    types.WorkItemKindTask,
		DueDate: &due,
		RACI:    model.RACI{Consulted: []types.ActorID{"a"}},
	}
	c := item.Clone()
	c.RACI.Consulted[0] = "b"
	*c.DueDate = due.Add(time.Hour)

	gt.Value(t, item.RACI.Consulted[0]).Equal(types.ActorID("a"))
	gt.Value(t, *item.DueDate).Equal(due)
}

func TestProject_EffectiveAccountable(t *testing.T) {
	p := &model.Project{OwnerID: "owner"}
	gt.Value(t, p.EffectiveAccountable()).Equal(types.ActorID("owner"))

	p.RACI.Accountable = "lead"
	gt.Value(t, p.EffectiveAccountable()).Equal(types.ActorID("lead"))
}

func TestRACI_Equal(t *testing.T) {
	a := model.RACI{Accountable: "x", Consulted: []types.ActorID{"a", "b"}}
	b := a.Clone()
	gt.Bool(t, a.Equal(b)).True()

	b.Consulted = []types.ActorID{"b", "a"}
	gt.Bool(t, a.Equal(b)).False()
}
